// Package memory is an in-process record store for tests and local runs.
// It keeps the same uniqueness rules as the SQL schemas.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"qc-line/internal/storage"
)

type Storage struct {
	mu         sync.RWMutex
	scans      []storage.ProductionScan
	checklists []storage.ChecklistEntry
	nextID     int64
}

func New() *Storage {
	return &Storage{}
}

func (s *Storage) Close() error { return nil }

type scanKey struct {
	serial string
	day    string
}

func (s *Storage) InsertScan(_ context.Context, scan storage.ProductionScan) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.scans {
		if (scanKey{existing.SerialNumber, existing.ScanDate}) == (scanKey{scan.SerialNumber, scan.ScanDate}) {
			return 0, storage.ErrDuplicate
		}
	}

	s.nextID++
	scan.ID = s.nextID
	s.scans = append(s.scans, scan)
	return scan.ID, nil
}

func (s *Storage) ScansBetween(_ context.Context, serial string, from, to time.Time) ([]storage.ProductionScan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.ProductionScan
	for _, scan := range s.scans {
		if scan.SerialNumber == serial && !scan.Timestamp.Before(from) && scan.Timestamp.Before(to) {
			result = append(result, scan)
		}
	}
	return result, nil
}

func (s *Storage) ScansPage(_ context.Context, limit, offset int) ([]storage.ProductionScan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return page(s.scans, limit, offset), nil
}

func (s *Storage) AllScans(ctx context.Context) ([]storage.ProductionScan, error) {
	return storage.FetchAll(ctx, storage.PageSize, s.ScansPage)
}

func (s *Storage) HasInitialChecklist(_ context.Context, serial string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.checklists {
		if e.SerialNumber == serial && !e.Reinspection {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) InsertChecklistEntry(_ context.Context, entry storage.ChecklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.violatesInitialLocked(entry) {
		return storage.ErrDuplicate
	}
	s.appendLocked(entry)
	return nil
}

// InsertChecklistBatch checks every row before writing any of them.
func (s *Storage) InsertChecklistBatch(_ context.Context, entries []storage.ChecklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if s.violatesInitialLocked(e) {
			return storage.ErrDuplicate
		}
	}
	for _, e := range entries {
		s.appendLocked(e)
	}
	return nil
}

func (s *Storage) ChecklistsPage(_ context.Context, limit, offset int) ([]storage.ChecklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return page(s.checklists, limit, offset), nil
}

func (s *Storage) AllChecklists(ctx context.Context) ([]storage.ChecklistEntry, error) {
	return storage.FetchAll(ctx, storage.PageSize, s.ChecklistsPage)
}

func (s *Storage) violatesInitialLocked(entry storage.ChecklistEntry) bool {
	if entry.Reinspection {
		return false
	}
	for _, e := range s.checklists {
		if !e.Reinspection && e.SerialNumber == entry.SerialNumber && e.Item == entry.Item {
			return true
		}
	}
	return false
}

// appendLocked keeps rows ordered by timestamp, like the SQL stores' ORDER BY.
func (s *Storage) appendLocked(entry storage.ChecklistEntry) {
	s.nextID++
	entry.ID = s.nextID

	i := sort.Search(len(s.checklists), func(i int) bool {
		return s.checklists[i].Timestamp.After(entry.Timestamp)
	})
	s.checklists = append(s.checklists, storage.ChecklistEntry{})
	copy(s.checklists[i+1:], s.checklists[i:])
	s.checklists[i] = entry
}

func page[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	out := make([]T, end-offset)
	copy(out, rows[offset:end])
	return out
}
