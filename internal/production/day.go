package production

import (
	"fmt"
	"time"

	"qc-line/internal/storage"
)

const dayLayout = "2006-01-02"

// Day is a business day in the plant's local time zone.
type Day struct {
	start time.Time
}

// DayOf returns the business day t falls on in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	local := t.In(loc)
	return Day{start: time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)}
}

// ParseDay parses a YYYY-MM-DD date in loc.
func ParseDay(s string, loc *time.Location) (Day, error) {
	t, err := time.ParseInLocation(dayLayout, s, loc)
	if err != nil {
		return Day{}, fmt.Errorf("production.ParseDay: %w", err)
	}
	return Day{start: t}, nil
}

// Bounds returns [from, to) in UTC, local midnight to the next local midnight.
func (d Day) Bounds() (time.Time, time.Time) {
	return d.start.UTC(), d.start.AddDate(0, 0, 1).UTC()
}

func (d Day) Contains(t time.Time) bool {
	from, to := d.Bounds()
	return !t.Before(from) && t.Before(to)
}

func (d Day) Location() *time.Location {
	return d.start.Location()
}

func (d Day) String() string {
	return d.start.Format(dayLayout)
}

// ScansOn keeps the scans recorded during d.
func ScansOn(scans []storage.ProductionScan, d Day) []storage.ProductionScan {
	result := make([]storage.ProductionScan, 0, len(scans))
	for _, s := range scans {
		if d.Contains(s.Timestamp) {
			result = append(result, s)
		}
	}
	return result
}
