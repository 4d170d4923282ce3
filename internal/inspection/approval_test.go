package inspection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"qc-line/internal/storage"
)

var t0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// batch builds the rows of one submission with two items.
func batch(serial string, ts time.Time, rejected, reinspection bool) []storage.ChecklistEntry {
	status := storage.StatusConforming
	if rejected {
		status = storage.StatusNonConforming
	}
	rows := make([]storage.ChecklistEntry, 0, 2)
	for _, item := range []string{"Etiqueta", "Solda"} {
		rows = append(rows, storage.ChecklistEntry{
			SerialNumber: serial,
			Item:         item,
			Status:       status,
			Timestamp:    ts,
			Rejected:     storage.YesNo(rejected),
			Reinspection: storage.YesNo(reinspection),
		})
	}
	return rows
}

func concat(parts ...[]storage.ChecklistEntry) []storage.ChecklistEntry {
	var out []storage.ChecklistEntry
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestResolveApproval(t *testing.T) {
	tests := []struct {
		name    string
		entries []storage.ChecklistEntry
		want    Approval
	}{
		{
			name: "no checklist",
			want: Pending,
		},
		{
			name:    "first pass approved",
			entries: batch("A", t0, false, false),
			want:    Approved,
		},
		{
			name:    "first pass rejected",
			entries: batch("A", t0, true, false),
			want:    Rejected,
		},
		{
			name: "rejected then reinspection approved",
			entries: concat(
				batch("A", t0, true, false),
				batch("A", t0.Add(time.Hour), false, true),
			),
			want: Approved,
		},
		{
			name: "approved reinspection then failed reinspection",
			entries: concat(
				batch("A", t0, true, false),
				batch("A", t0.Add(time.Hour), false, true),
				batch("A", t0.Add(2*time.Hour), true, true),
			),
			want: Rejected,
		},
		{
			name: "entries of other serials are ignored",
			entries: concat(
				batch("B", t0, true, false),
				batch("A", t0, false, false),
			),
			want: Approved,
		},
		{
			name: "input order does not matter",
			entries: concat(
				batch("A", t0.Add(time.Hour), false, true),
				batch("A", t0, true, false),
			),
			want: Approved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveApproval("A", tt.entries))
		})
	}
}

func TestResolveApproval_Idempotent(t *testing.T) {
	entries := concat(batch("A", t0, true, false), batch("A", t0.Add(time.Minute), false, true))

	first := ResolveApproval("A", entries)
	second := ResolveApproval("A", entries)
	assert.Equal(t, first, second)
}

func TestResolveApprovalBatch(t *testing.T) {
	entries := concat(
		batch("A", t0, false, false),
		batch("B", t0, true, false),
		batch("C", t0, true, false),
		batch("C", t0.Add(time.Hour), false, true),
	)

	got := ResolveApprovalBatch(entries)

	assert.Equal(t, map[string]Approval{
		"A": Approved,
		"B": Rejected,
		"C": Approved,
	}, got)
	for serial, state := range got {
		assert.Equal(t, state, ResolveApproval(serial, entries), serial)
	}
}

func TestGroupBatches(t *testing.T) {
	entries := concat(
		batch("A", t0.Add(time.Hour), false, true),
		batch("A", t0, true, false),
	)

	groups := GroupBatches(entries)

	assert.Len(t, groups, 1)
	batches := groups["A"]
	if assert.Len(t, batches, 2) {
		assert.True(t, batches[0].Timestamp.Equal(t0))
		assert.True(t, batches[0].Rejected)
		assert.False(t, batches[0].Reinspection)
		assert.Len(t, batches[0].Entries, 2)
		assert.True(t, batches[1].Reinspection)
	}
}
