// Package postgres implements the record store on PostgreSQL with pgx v5.
// It talks directly to the Postgres database behind a hosted table API.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"qc-line/internal/storage"
)

const pgErrUniqueViolation = "23505"

//go:embed schema.sql
var schema string

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Storage, error) {
	const op = "storage.postgres.New"

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: pgxpool: %w", op, err)
	}

	// no arguments, so pgx sends the whole file over the simple protocol
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: migrate: %w", op, err)
	}

	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

func storeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return fmt.Errorf("%s: %w: %w", op, storage.ErrDuplicate, err)
	}
	return fmt.Errorf("%s: %w: %w", op, storage.ErrStoreUnavailable, err)
}

func (s *Storage) InsertScan(ctx context.Context, scan storage.ProductionScan) (int64, error) {
	const op = "storage.postgres.InsertScan"

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO apontamentos (serial_number, created_at, scan_date, production_type, order_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		scan.SerialNumber, scan.Timestamp.UTC(), scan.ScanDate, scan.ProductionType, scan.OrderID,
	).Scan(&id)
	if err != nil {
		return 0, storeError(op, err)
	}
	return id, nil
}

func (s *Storage) ScansBetween(ctx context.Context, serial string, from, to time.Time) ([]storage.ProductionScan, error) {
	const op = "storage.postgres.ScansBetween"

	rows, err := s.pool.Query(ctx, `
		SELECT id, serial_number, created_at, scan_date, production_type, order_id
		FROM apontamentos
		WHERE serial_number = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY id`, serial, from.UTC(), to.UTC())
	if err != nil {
		return nil, storeError(op, err)
	}
	return collectScans(op, rows)
}

func (s *Storage) ScansPage(ctx context.Context, limit, offset int) ([]storage.ProductionScan, error) {
	const op = "storage.postgres.ScansPage"

	rows, err := s.pool.Query(ctx, `
		SELECT id, serial_number, created_at, scan_date, production_type, order_id
		FROM apontamentos ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, storeError(op, err)
	}
	return collectScans(op, rows)
}

func (s *Storage) AllScans(ctx context.Context) ([]storage.ProductionScan, error) {
	return storage.FetchAll(ctx, storage.PageSize, s.ScansPage)
}

func collectScans(op string, rows pgx.Rows) ([]storage.ProductionScan, error) {
	scans, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.ProductionScan, error) {
		var scan storage.ProductionScan
		err := row.Scan(&scan.ID, &scan.SerialNumber, &scan.Timestamp, &scan.ScanDate, &scan.ProductionType, &scan.OrderID)
		scan.Timestamp = scan.Timestamp.UTC()
		return scan, err
	})
	if err != nil {
		return nil, storeError(op, err)
	}
	return scans, nil
}

func (s *Storage) HasInitialChecklist(ctx context.Context, serial string) (bool, error) {
	const op = "storage.postgres.HasInitialChecklist"

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM checklists WHERE serial_number = $1 AND reinspection = $2)`,
		serial, storage.YesNo(false).String(),
	).Scan(&exists)
	if err != nil {
		return false, storeError(op, err)
	}
	return exists, nil
}

const insertChecklist = `
	INSERT INTO checklists (batch_id, serial_number, item, status, observation, inspector, created_at, rejected, reinspection, photo)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func checklistArgs(e storage.ChecklistEntry) []any {
	return []any{
		e.BatchID, e.SerialNumber, e.Item, string(e.Status), e.Observation, e.Inspector,
		e.Timestamp.UTC(), e.Rejected.String(), e.Reinspection.String(), e.Photo,
	}
}

func (s *Storage) InsertChecklistEntry(ctx context.Context, entry storage.ChecklistEntry) error {
	const op = "storage.postgres.InsertChecklistEntry"

	if _, err := s.pool.Exec(ctx, insertChecklist, checklistArgs(entry)...); err != nil {
		return storeError(op, err)
	}
	return nil
}

// InsertChecklistBatch sends every row in one batch inside a transaction.
func (s *Storage) InsertChecklistBatch(ctx context.Context, entries []storage.ChecklistEntry) error {
	const op = "storage.postgres.InsertChecklistBatch"

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, e := range entries {
			batch.Queue(insertChecklist, checklistArgs(e)...)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return storeError(op, err)
	}
	return nil
}

func (s *Storage) ChecklistsPage(ctx context.Context, limit, offset int) ([]storage.ChecklistEntry, error) {
	const op = "storage.postgres.ChecklistsPage"

	rows, err := s.pool.Query(ctx, `
		SELECT id, batch_id, serial_number, item, status, observation, inspector, created_at, rejected, reinspection, photo
		FROM checklists ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, storeError(op, err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.ChecklistEntry, error) {
		var (
			e                      storage.ChecklistEntry
			status                 string
			rejected, reinspection string
		)
		err := row.Scan(&e.ID, &e.BatchID, &e.SerialNumber, &e.Item, &status, &e.Observation,
			&e.Inspector, &e.Timestamp, &rejected, &reinspection, &e.Photo)
		if err != nil {
			return e, err
		}
		e.Status = storage.Status(status)
		e.Timestamp = e.Timestamp.UTC()
		if err := e.Rejected.Scan(rejected); err != nil {
			return e, err
		}
		if err := e.Reinspection.Scan(reinspection); err != nil {
			return e, err
		}
		return e, nil
	})
	if err != nil {
		return nil, storeError(op, err)
	}
	return entries, nil
}

func (s *Storage) AllChecklists(ctx context.Context) ([]storage.ChecklistEntry, error) {
	return storage.FetchAll(ctx, storage.PageSize, s.ChecklistsPage)
}
