package inspection

import (
	"errors"
	"fmt"
	"strings"

	"qc-line/internal/lib/serial"
	"qc-line/internal/storage"
)

var (
	// ErrDuplicateSerial is returned when an initial checklist already exists
	// for the serial. The operator should pick another serial or reinspect.
	ErrDuplicateSerial = errors.New("serial number already inspected")

	// ErrIncompleteSubmission is returned when required answers are missing.
	ErrIncompleteSubmission = errors.New("incomplete checklist submission")

	// ErrInvalidOption is returned when a selection is not one of the item's options.
	ErrInvalidOption = errors.New("invalid checklist option")

	// ErrAllItemsNotApplicable is returned when no item of the checklist could be determined.
	ErrAllItemsNotApplicable = errors.New("all checklist items are N/A")

	// ErrPartialWrite is returned when a checklist batch was only partly persisted.
	ErrPartialWrite = errors.New("checklist batch partially written")

	// ErrStoreUnavailable is the store failure as seen by callers of this package.
	ErrStoreUnavailable = storage.ErrStoreUnavailable
)

// IncompleteSubmissionError lists the item keys that still need an answer.
type IncompleteSubmissionError struct {
	Missing []string
}

func (e *IncompleteSubmissionError) Error() string {
	return fmt.Sprintf("incomplete checklist submission: missing %s", strings.Join(e.Missing, ", "))
}

func (e *IncompleteSubmissionError) Unwrap() error {
	return ErrIncompleteSubmission
}

// PartialWriteError reports how far a non-transactional batch insert got.
// Rows already written are not rolled back; the caller retries the whole batch
// as a reinspection or repairs the store.
type PartialWriteError struct {
	Serial  string
	BatchID string
	Written int
	Total   int
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("checklist batch %s for %s: wrote %d of %d rows: %v",
		e.BatchID, e.Serial, e.Written, e.Total, e.Err)
}

func (e *PartialWriteError) Unwrap() []error {
	return []error{ErrPartialWrite, e.Err}
}

// IsClientError reports whether the caller can fix the request and resubmit.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateSerial) ||
		errors.Is(err, ErrIncompleteSubmission) ||
		errors.Is(err, ErrInvalidOption) ||
		errors.Is(err, serial.ErrInvalidSerial) ||
		errors.Is(err, ErrAllItemsNotApplicable)
}
