package production

import (
	"fmt"
	"sort"
	"time"

	"qc-line/internal/storage"
)

// Closing decides when an hourly bucket's target starts to count.
type Closing string

const (
	// ClosingOnStart counts a bucket as soon as its start time is reached.
	ClosingOnStart Closing = "on_start"
	// ClosingAfterHour counts a bucket once a full hour has passed since its start.
	ClosingAfterHour Closing = "after_hour"
)

func ParseClosing(s string) (Closing, error) {
	switch Closing(s) {
	case ClosingOnStart, ClosingAfterHour:
		return Closing(s), nil
	case "":
		return ClosingAfterHour, nil
	default:
		return "", fmt.Errorf("production.ParseClosing: unknown bucket closing %q", s)
	}
}

// Slot is one row of the target table: Target units are expected from Start
// (offset from local midnight) until the next slot.
type Slot struct {
	Start  time.Duration
	Target int
}

func (s Slot) Label() string {
	h := int(s.Start / time.Hour)
	m := int((s.Start % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}

func (s Slot) Hour() int {
	return int(s.Start / time.Hour)
}

// TargetTable is ordered by Start.
type TargetTable []Slot

// ParseTargetTable builds a table from "HH:MM" -> target pairs.
func ParseTargetTable(targets map[string]int) (TargetTable, error) {
	table := make(TargetTable, 0, len(targets))
	for clock, target := range targets {
		t, err := time.Parse("15:04", clock)
		if err != nil {
			return nil, fmt.Errorf("production.ParseTargetTable: slot %q: %w", clock, err)
		}
		if target < 0 {
			return nil, fmt.Errorf("production.ParseTargetTable: slot %q: negative target %d", clock, target)
		}
		table = append(table, Slot{
			Start:  time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute,
			Target: target,
		})
	}
	sort.Slice(table, func(i, j int) bool { return table[i].Start < table[j].Start })
	return table, nil
}

// Total is the sum of every slot's target.
func (t TargetTable) Total() int {
	total := 0
	for _, s := range t {
		total += s.Target
	}
	return total
}

// AccumulatedTarget sums the targets owed up to now. now is read on its own
// clock, so callers pass it already converted to the plant's zone.
// With ClosingAfterHour a slot starting after 23:00 closes past midnight, so it
// is never owed on its own day's clock; it only counts once the day is over,
// through TargetTable.Total.
func AccumulatedTarget(table TargetTable, now time.Time, closing Closing) int {
	clock := clockOf(now)
	total := 0
	for _, s := range table {
		if s.dueAt(closing) <= clock {
			total += s.Target
		}
	}
	return total
}

func (s Slot) dueAt(closing Closing) time.Duration {
	if closing == ClosingAfterHour {
		return min(s.Start+time.Hour, 24*time.Hour)
	}
	return s.Start
}

// Shortfall is the backlog against the accumulated target, never negative.
func Shortfall(accumulated, actual int) int {
	if actual >= accumulated {
		return 0
	}
	return accumulated - actual
}

// HourlyActual counts scans whose local hour is hour.
func HourlyActual(scans []storage.ProductionScan, hour int, loc *time.Location) int {
	from := time.Duration(hour) * time.Hour
	return countBetween(scans, from, from+time.Hour, loc)
}

type HourRow struct {
	Start  string `json:"start"`
	Target int    `json:"target"`
	Actual int    `json:"actual"`
}

// HourlyRows pairs every configured slot with the units scanned from its
// start until the next slot starts, at most one hour. Slots with a zero
// target are kept.
func HourlyRows(table TargetTable, scans []storage.ProductionScan, loc *time.Location) []HourRow {
	rows := make([]HourRow, 0, len(table))
	for i, s := range table {
		end := s.Start + time.Hour
		if i+1 < len(table) {
			end = min(end, table[i+1].Start)
		}
		rows = append(rows, HourRow{
			Start:  s.Label(),
			Target: s.Target,
			Actual: countBetween(scans, s.Start, end, loc),
		})
	}
	return rows
}

// countBetween counts scans whose local clock falls in [from, to).
func countBetween(scans []storage.ProductionScan, from, to time.Duration, loc *time.Location) int {
	n := 0
	for _, s := range scans {
		c := clockOf(s.Timestamp.In(loc))
		if c >= from && c < to {
			n++
		}
	}
	return n
}

func clockOf(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}
