package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"qc-line/internal/storage"
)

var ErrAlreadyScanned = errors.New("serial number already scanned today")

type ScanStore interface {
	ScansBetween(ctx context.Context, serial string, from, to time.Time) ([]storage.ProductionScan, error)
	InsertScan(ctx context.Context, scan storage.ProductionScan) (int64, error)
}

type SerialNormalizer interface {
	Normalize(raw string) (string, error)
}

type ScanRequest struct {
	Serial         string `json:"serial_number"`
	ProductionType string `json:"production_type"`
	OrderID        string `json:"order_id"`
}

// Recorder registers production scans, at most one per serial and business day.
type Recorder struct {
	log        *slog.Logger
	store      ScanStore
	normalizer SerialNormalizer
	loc        *time.Location
	now        func() time.Time
}

func NewRecorder(log *slog.Logger, store ScanStore, normalizer SerialNormalizer, loc *time.Location) *Recorder {
	return &Recorder{
		log:        log,
		store:      store,
		normalizer: normalizer,
		loc:        loc,
		now:        time.Now,
	}
}

func (r *Recorder) RecordScan(ctx context.Context, req ScanRequest) (storage.ProductionScan, error) {
	const op = "production.Recorder.RecordScan"

	serial, err := r.normalizer.Normalize(req.Serial)
	if err != nil {
		return storage.ProductionScan{}, fmt.Errorf("%s: %w", op, err)
	}

	now := r.now().UTC().Truncate(time.Microsecond)
	day := DayOf(now, r.loc)
	from, to := day.Bounds()

	existing, err := r.store.ScansBetween(ctx, serial, from, to)
	if err != nil {
		return storage.ProductionScan{}, fmt.Errorf("%s: same-day check for %s: %w", op, serial, err)
	}
	if len(existing) > 0 {
		return storage.ProductionScan{}, fmt.Errorf("%s: %s on %s: %w", op, serial, day, ErrAlreadyScanned)
	}

	scan := storage.ProductionScan{
		SerialNumber:   serial,
		Timestamp:      now,
		ScanDate:       day.String(),
		ProductionType: strings.TrimSpace(req.ProductionType),
		OrderID:        strings.TrimSpace(req.OrderID),
	}

	id, err := r.store.InsertScan(ctx, scan)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return storage.ProductionScan{}, fmt.Errorf("%s: %s on %s: %w", op, serial, day, ErrAlreadyScanned)
		}
		return storage.ProductionScan{}, fmt.Errorf("%s: %w", op, err)
	}
	scan.ID = id

	r.log.Info("scan recorded",
		slog.String("op", op),
		slog.String("serial", serial),
		slog.String("day", day.String()),
		slog.String("production_type", scan.ProductionType),
	)

	return scan, nil
}
