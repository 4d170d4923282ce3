package inspection

import (
	"sort"
	"time"

	"qc-line/internal/storage"
)

// Batch is the set of entries written by one checklist submission.
type Batch struct {
	Serial       string
	Timestamp    time.Time
	Rejected     bool
	Reinspection bool
	Entries      []storage.ChecklistEntry
}

// GroupBatches splits entries by serial and rebuilds submissions from the
// shared timestamp. Batches of a serial are ordered oldest first.
func GroupBatches(entries []storage.ChecklistEntry) map[string][]Batch {
	type key struct {
		serial string
		ts     int64
	}

	index := make(map[key]int)
	var batches []Batch
	for _, e := range entries {
		k := key{serial: e.SerialNumber, ts: e.Timestamp.UnixNano()}
		i, ok := index[k]
		if !ok {
			i = len(batches)
			index[k] = i
			batches = append(batches, Batch{Serial: e.SerialNumber, Timestamp: e.Timestamp})
		}
		b := &batches[i]
		b.Entries = append(b.Entries, e)
		b.Rejected = b.Rejected || bool(e.Rejected)
		b.Reinspection = b.Reinspection || bool(e.Reinspection)
	}

	bySerial := make(map[string][]Batch)
	for _, b := range batches {
		bySerial[b.Serial] = append(bySerial[b.Serial], b)
	}
	for serial := range bySerial {
		list := bySerial[serial]
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Timestamp.Before(list[j].Timestamp)
		})
	}
	return bySerial
}

// ChecklistSerials returns every serial that has at least one checklist row.
func ChecklistSerials(entries []storage.ChecklistEntry) []string {
	seen := make(map[string]struct{})
	var serials []string
	for _, e := range entries {
		if _, ok := seen[e.SerialNumber]; ok {
			continue
		}
		seen[e.SerialNumber] = struct{}{}
		serials = append(serials, e.SerialNumber)
	}
	return serials
}
