package inspection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"qc-line/internal/storage"
)

// SerialNormalizer turns an operator typed serial into the canonical form
// used by production scans.
type SerialNormalizer interface {
	Normalize(raw string) (string, error)
}

type ChecklistStore interface {
	HasInitialChecklist(ctx context.Context, serial string) (bool, error)
	InsertChecklistEntry(ctx context.Context, entry storage.ChecklistEntry) error
}

// BatchInserter is implemented by stores that can persist a whole checklist
// batch in one transaction.
type BatchInserter interface {
	InsertChecklistBatch(ctx context.Context, entries []storage.ChecklistEntry) error
}

type Writer struct {
	log        *slog.Logger
	store      ChecklistStore
	normalizer SerialNormalizer
	items      []ItemDefinition
	photoItem  string

	now     func() time.Time
	batchID func() string
}

func NewWriter(log *slog.Logger, store ChecklistStore, normalizer SerialNormalizer, items []ItemDefinition, photoItem string) *Writer {
	return &Writer{
		log:        log,
		store:      store,
		normalizer: normalizer,
		items:      items,
		photoItem:  photoItem,
		now:        time.Now,
		batchID:    func() string { return uuid.NewString() },
	}
}

// Items returns the checklist definitions the writer validates against.
func (w *Writer) Items() []ItemDefinition {
	return w.items
}

// SubmitChecklist validates sub and writes one entry per checklist item.
// It returns the written entries.
func (w *Writer) SubmitChecklist(ctx context.Context, sub Submission) ([]storage.ChecklistEntry, error) {
	const op = "inspection.Writer.SubmitChecklist"

	// an empty serial is reported by Validate together with the missing answers
	sub.Serial = strings.TrimSpace(sub.Serial)
	if sub.Serial != "" {
		serial, err := w.normalizer.Normalize(sub.Serial)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sub.Serial = serial
	}

	if err := Validate(w.items, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !sub.Reinspection {
		exists, err := w.store.HasInitialChecklist(ctx, sub.Serial)
		if err != nil {
			return nil, fmt.Errorf("%s: duplicate check for %s: %w", op, sub.Serial, asStoreError(err))
		}
		if exists {
			return nil, fmt.Errorf("%s: %s: %w", op, sub.Serial, ErrDuplicateSerial)
		}
	}

	entries := w.buildEntries(sub)

	if err := w.write(ctx, sub, entries); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	w.log.Info("checklist saved",
		slog.String("op", op),
		slog.String("serial", sub.Serial),
		slog.String("batch_id", entries[0].BatchID),
		slog.Bool("rejected", bool(entries[0].Rejected)),
		slog.Bool("reinspection", sub.Reinspection),
		slog.Int("rows", len(entries)),
	)

	return entries, nil
}

func (w *Writer) buildEntries(sub Submission) []storage.ChecklistEntry {
	rejected := IsRejected(w.items, sub.Results)

	// microseconds survive every backend, so rows of a batch keep an equal timestamp
	ts := w.now().UTC().Truncate(time.Microsecond)
	batchID := w.batchID()

	entries := make([]storage.ChecklistEntry, 0, len(w.items))
	for _, item := range w.items {
		res := sub.Results[item.Key]
		entry := storage.ChecklistEntry{
			BatchID:      batchID,
			SerialNumber: sub.Serial,
			Item:         item.Key,
			Status:       res.Status,
			Observation:  res.observationText(),
			Inspector:    sub.Inspector,
			Timestamp:    ts,
			Rejected:     storage.YesNo(rejected),
			Reinspection: storage.YesNo(sub.Reinspection),
		}
		if item.Key == w.photoItem {
			entry.Photo = sub.Photo
		}
		entries = append(entries, entry)
	}
	return entries
}

func (w *Writer) write(ctx context.Context, sub Submission, entries []storage.ChecklistEntry) error {
	if bi, ok := w.store.(BatchInserter); ok {
		if err := bi.InsertChecklistBatch(ctx, entries); err != nil {
			return w.firstRowError(sub, err)
		}
		return nil
	}

	for i, entry := range entries {
		if err := w.store.InsertChecklistEntry(ctx, entry); err != nil {
			if i == 0 {
				return w.firstRowError(sub, err)
			}
			w.log.Error("checklist batch partially written",
				slog.String("serial", sub.Serial),
				slog.String("batch_id", entry.BatchID),
				slog.Int("written", i),
				slog.Int("total", len(entries)),
				slog.String("error", err.Error()),
			)
			return &PartialWriteError{
				Serial:  sub.Serial,
				BatchID: entry.BatchID,
				Written: i,
				Total:   len(entries),
				Err:     err,
			}
		}
	}
	return nil
}

func (w *Writer) firstRowError(sub Submission, err error) error {
	// the store's unique index caught a concurrent initial submission
	if !sub.Reinspection && errors.Is(err, storage.ErrDuplicate) {
		return fmt.Errorf("%s: %w", sub.Serial, ErrDuplicateSerial)
	}
	return asStoreError(err)
}

func asStoreError(err error) error {
	if errors.Is(err, storage.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
}
