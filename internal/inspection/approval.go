package inspection

import "qc-line/internal/storage"

type Approval string

const (
	Pending  Approval = "pending"
	Approved Approval = "approved"
	Rejected Approval = "rejected"
)

// ResolveApproval derives the current state of serial from its checklist history.
// Entries of other serials are ignored.
func ResolveApproval(serial string, entries []storage.ChecklistEntry) Approval {
	own := make([]storage.ChecklistEntry, 0, len(entries))
	for _, e := range entries {
		if e.SerialNumber == serial {
			own = append(own, e)
		}
	}
	return resolve(GroupBatches(own)[serial])
}

// ResolveApprovalBatch resolves every serial present in entries.
func ResolveApprovalBatch(entries []storage.ChecklistEntry) map[string]Approval {
	result := make(map[string]Approval)
	for serial, batches := range GroupBatches(entries) {
		result[serial] = resolve(batches)
	}
	return result
}

// resolve expects batches ordered oldest first. A serial that was never
// reinspected keeps the verdict of its first batch; once reinspected it must
// pass in its latest batch.
func resolve(batches []Batch) Approval {
	if len(batches) == 0 {
		return Pending
	}

	decisive := batches[0]
	for _, b := range batches {
		if b.Reinspection {
			decisive = batches[len(batches)-1]
			break
		}
	}

	if decisive.Rejected {
		return Rejected
	}
	return Approved
}
