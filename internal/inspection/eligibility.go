package inspection

import (
	"sort"

	"qc-line/internal/storage"
)

// UnitsAwaitingInspection returns the scanned serials without any checklist,
// in first-scan order. scans is expected to be one business day already.
func UnitsAwaitingInspection(scans []storage.ProductionScan, checklistSerials []string) []string {
	inspected := make(map[string]struct{}, len(checklistSerials))
	for _, s := range checklistSerials {
		inspected[s] = struct{}{}
	}

	ordered := make([]storage.ProductionScan, len(scans))
	copy(ordered, scans)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	seen := make(map[string]struct{})
	result := []string{}
	for _, scan := range ordered {
		if _, ok := seen[scan.SerialNumber]; ok {
			continue
		}
		seen[scan.SerialNumber] = struct{}{}
		if _, ok := inspected[scan.SerialNumber]; ok {
			continue
		}
		result = append(result, scan.SerialNumber)
	}
	return result
}

// UnitsAwaitingReinspection returns serials whose latest batch failed on the
// first pass. A serial leaves the queue with its first reinspection batch,
// whatever that batch's verdict. Oldest failures come first.
func UnitsAwaitingReinspection(entries []storage.ChecklistEntry) []string {
	var latest []Batch
	for _, batches := range GroupBatches(entries) {
		last := batches[len(batches)-1]
		if last.Rejected && !last.Reinspection {
			latest = append(latest, last)
		}
	}

	sort.Slice(latest, func(i, j int) bool {
		if latest[i].Timestamp.Equal(latest[j].Timestamp) {
			return latest[i].Serial < latest[j].Serial
		}
		return latest[i].Timestamp.Before(latest[j].Timestamp)
	})

	result := make([]string, 0, len(latest))
	for _, b := range latest {
		result = append(result, b.Serial)
	}
	return result
}
