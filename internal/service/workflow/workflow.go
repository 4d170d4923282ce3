package workflow

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"qc-line/internal/inspection"
	"qc-line/internal/production"
	"qc-line/internal/storage"
)

type Storage interface {
	AllScans(ctx context.Context) ([]storage.ProductionScan, error)
	AllChecklists(ctx context.Context) ([]storage.ChecklistEntry, error)
}

// Service answers which units wait for which workflow stage and exposes the
// scan and checklist histories.
type Service struct {
	storage Storage
}

func NewService(storage Storage) *Service {
	return &Service{storage: storage}
}

// InspectionQueue lists serials scanned on day that have no checklist yet.
func (s *Service) InspectionQueue(ctx context.Context, day production.Day) ([]string, error) {
	const op = "service.workflow.InspectionQueue"

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
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return inspection.UnitsAwaitingInspection(production.ScansOn(scans, day), inspection.ChecklistSerials(entries)), nil
}

// ReinspectionQueue lists serials that failed their first inspection and
// were not reinspected yet. When day is non-nil only failures whose batch
// was written on that day are kept.
func (s *Service) ReinspectionQueue(ctx context.Context, day *production.Day) ([]string, error) {
	const op = "service.workflow.ReinspectionQueue"

	entries, err := s.storage.AllChecklists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	queue := inspection.UnitsAwaitingReinspection(entries)
	if day == nil {
		return queue, nil
	}

	batches := inspection.GroupBatches(entries)
	scoped := make([]string, 0, len(queue))
	for _, serial := range queue {
		list := batches[serial]
		if day.Contains(list[len(list)-1].Timestamp) {
			scoped = append(scoped, serial)
		}
	}
	return scoped, nil
}

type ApprovalState struct {
	Serial   string              `json:"serial_number"`
	State    inspection.Approval `json:"state"`
	Batches  int                 `json:"batches"`
	Reworked bool                `json:"reinspected"`
}

func (s *Service) Approval(ctx context.Context, serial string) (ApprovalState, error) {
	const op = "service.workflow.Approval"

	entries, err := s.storage.AllChecklists(ctx)
	if err != nil {
		return ApprovalState{}, fmt.Errorf("%s: %w", op, err)
	}

	batches := inspection.GroupBatches(entries)[serial]
	state := ApprovalState{
		Serial:  serial,
		State:   inspection.ResolveApproval(serial, entries),
		Batches: len(batches),
	}
	for _, b := range batches {
		if b.Reinspection {
			state.Reworked = true
			break
		}
	}
	return state, nil
}

// ScanHistory returns scans newest first, optionally limited to one day.
func (s *Service) ScanHistory(ctx context.Context, day *production.Day) ([]storage.ProductionScan, error) {
	const op = "service.workflow.ScanHistory"

	scans, err := s.storage.AllScans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if day != nil {
		scans = production.ScansOn(scans, *day)
	}

	sort.SliceStable(scans, func(i, j int) bool {
		return scans[i].Timestamp.After(scans[j].Timestamp)
	})
	return scans, nil
}

// ChecklistHistory returns checklist rows newest first, optionally for one serial.
func (s *Service) ChecklistHistory(ctx context.Context, serial string) ([]storage.ChecklistEntry, error) {
	const op = "service.workflow.ChecklistHistory"

	entries, err := s.storage.AllChecklists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]storage.ChecklistEntry, 0, len(entries))
	for _, e := range entries {
		if serial == "" || e.SerialNumber == serial {
			result = append(result, e)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}
