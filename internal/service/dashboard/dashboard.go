package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"qc-line/internal/inspection"
	"qc-line/internal/production"
	"qc-line/internal/storage"
)

type Storage interface {
	AllScans(ctx context.Context) ([]storage.ProductionScan, error)
	AllChecklists(ctx context.Context) ([]storage.ChecklistEntry, error)
}

type Service struct {
	storage Storage
	table   production.TargetTable
	closing production.Closing
	loc     *time.Location
	now     func() time.Time
}

func NewService(storage Storage, table production.TargetTable, closing production.Closing, loc *time.Location) *Service {
	return &Service{
		storage: storage,
		table:   table,
		closing: closing,
		loc:     loc,
		now:     time.Now,
	}
}

type Production struct {
	Date              string               `json:"date"`
	TotalProduced     int                  `json:"total_produced"`
	ByProductionType  map[string]int       `json:"by_production_type"`
	InspectedSerials  int                  `json:"inspected_serials"`
	ApprovedSerials   int                  `json:"approved_serials"`
	ApprovalPercent   decimal.Decimal      `json:"approval_percent"`
	AccumulatedTarget int                  `json:"accumulated_target"`
	Shortfall         int                  `json:"shortfall"`
	OnTarget          bool                 `json:"on_target"`
	Hourly            []production.HourRow `json:"hourly"`
}

type Quality struct {
	TotalInspected  int             `json:"total_inspected"`
	Approved        int             `json:"approved"`
	Rejected        int             `json:"rejected"`
	ApprovalPercent decimal.Decimal `json:"approval_percent"`
	Pareto          []ParetoRow     `json:"pareto"`
}

// ParetoRow counts NonConforming answers of one item.
type ParetoRow struct {
	Item              string          `json:"item"`
	Count             int             `json:"count"`
	CumulativePercent decimal.Decimal `json:"cumulative_percent"`
}

func (s *Service) load(ctx context.Context) ([]storage.ProductionScan, []storage.ChecklistEntry, error) {
	var (
		scans   []storage.ProductionScan
		entries []storage.ChecklistEntry
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		scans, err = s.storage.AllScans(gCtx)
		if err != nil {
			return fmt.Errorf("scans: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = s.storage.AllChecklists(gCtx)
		if err != nil {
			return fmt.Errorf("checklists: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return scans, entries, nil
}

// Production summarises one business day against the target table.
func (s *Service) Production(ctx context.Context, day production.Day) (Production, error) {
	const op = "service.dashboard.Production"

	scans, entries, err := s.load(ctx)
	if err != nil {
		return Production{}, fmt.Errorf("%s: %w", op, err)
	}

	dayScans := production.ScansOn(scans, day)

	result := Production{
		Date:             day.String(),
		TotalProduced:    len(dayScans),
		ByProductionType: make(map[string]int),
		Hourly:           production.HourlyRows(s.table, dayScans, s.loc),
	}
	for _, scan := range dayScans {
		result.ByProductionType[scan.ProductionType]++
	}

	approvals := inspection.ResolveApprovalBatch(entries)
	seen := make(map[string]struct{})
	for _, scan := range dayScans {
		if _, ok := seen[scan.SerialNumber]; ok {
			continue
		}
		seen[scan.SerialNumber] = struct{}{}

		state, ok := approvals[scan.SerialNumber]
		if !ok {
			continue
		}
		result.InspectedSerials++
		if state == inspection.Approved {
			result.ApprovedSerials++
		}
	}
	result.ApprovalPercent = percent(result.ApprovedSerials, result.InspectedSerials)

	result.AccumulatedTarget = s.targetFor(day)
	result.Shortfall = production.Shortfall(result.AccumulatedTarget, result.TotalProduced)
	result.OnTarget = result.Shortfall == 0

	return result, nil
}

// targetFor owes the whole table for past days and nothing for future ones.
func (s *Service) targetFor(day production.Day) int {
	now := s.now().In(s.loc)
	today := production.DayOf(now, s.loc)
	switch {
	case day.String() == today.String():
		return production.AccumulatedTarget(s.table, now, s.closing)
	case day.String() < today.String():
		return s.table.Total()
	default:
		return 0
	}
}

// Quality summarises every inspected serial and ranks the failing items.
func (s *Service) Quality(ctx context.Context) (Quality, error) {
	const op = "service.dashboard.Quality"

	entries, err := s.storage.AllChecklists(ctx)
	if err != nil {
		return Quality{}, fmt.Errorf("%s: %w", op, err)
	}

	var result Quality
	for _, state := range inspection.ResolveApprovalBatch(entries) {
		result.TotalInspected++
		switch state {
		case inspection.Approved:
			result.Approved++
		case inspection.Rejected:
			result.Rejected++
		}
	}
	result.ApprovalPercent = percent(result.Approved, result.TotalInspected)
	result.Pareto = Pareto(entries)

	return result, nil
}

// Pareto ranks items by NonConforming answers, most frequent first.
func Pareto(entries []storage.ChecklistEntry) []ParetoRow {
	counts := make(map[string]int)
	total := 0
	for _, e := range entries {
		if e.Status == storage.StatusNonConforming {
			counts[e.Item]++
			total++
		}
	}

	rows := make([]ParetoRow, 0, len(counts))
	for item, n := range counts {
		rows = append(rows, ParetoRow{Item: item, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Item < rows[j].Item
	})

	running := 0
	for i := range rows {
		running += rows[i].Count
		rows[i].CumulativePercent = percent(running, total)
	}
	return rows
}

func percent(part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole))).
		Round(2)
}
