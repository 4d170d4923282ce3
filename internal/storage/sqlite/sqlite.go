// Package sqlite implements the record store on SQLite through sqlx.
// The schema is created on open; uniqueness of daily scans and of the first
// checklist of a serial is enforced by indexes.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"qc-line/internal/storage"
)

type Storage struct {
	db *sqlx.DB
}

// New opens (and migrates) the database at path. Use ":memory:" for tests.
func New(path string) (*Storage, error) {
	const op = "storage.sqlite.New"

	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// one connection: a single writer, and ":memory:" stays one database
	db.SetMaxOpenConns(1)

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", op, err)
	}
	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS apontamentos (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		serial_number   TEXT NOT NULL,
		created_at      TIMESTAMP NOT NULL,
		scan_date       TEXT NOT NULL,
		production_type TEXT NOT NULL DEFAULT '',
		order_id        TEXT NOT NULL DEFAULT ''
	);

	CREATE UNIQUE INDEX IF NOT EXISTS uq_apontamentos_serial_day
		ON apontamentos(serial_number, scan_date);
	CREATE INDEX IF NOT EXISTS idx_apontamentos_created_at
		ON apontamentos(created_at);

	CREATE TABLE IF NOT EXISTS checklists (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id      TEXT NOT NULL,
		serial_number TEXT NOT NULL,
		item          TEXT NOT NULL,
		status        TEXT NOT NULL,
		observation   TEXT NOT NULL DEFAULT '',
		inspector     TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMP NOT NULL,
		rejected      TEXT NOT NULL,
		reinspection  TEXT NOT NULL,
		photo         TEXT
	);

	CREATE UNIQUE INDEX IF NOT EXISTS uq_checklists_initial
		ON checklists(serial_number, item) WHERE reinspection = 'Não';
	CREATE INDEX IF NOT EXISTS idx_checklists_serial
		ON checklists(serial_number, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func storeError(op string, err error) error {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%s: %w: %w", op, storage.ErrDuplicate, err)
	}
	return fmt.Errorf("%s: %w: %w", op, storage.ErrStoreUnavailable, err)
}

func (s *Storage) InsertScan(ctx context.Context, scan storage.ProductionScan) (int64, error) {
	const op = "storage.sqlite.InsertScan"

	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO apontamentos (serial_number, created_at, scan_date, production_type, order_id)
		VALUES (:serial_number, :created_at, :scan_date, :production_type, :order_id)`,
		utcScan(scan))
	if err != nil {
		return 0, storeError(op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeError(op, err)
	}
	return id, nil
}

func (s *Storage) ScansBetween(ctx context.Context, serial string, from, to time.Time) ([]storage.ProductionScan, error) {
	const op = "storage.sqlite.ScansBetween"

	var scans []storage.ProductionScan
	err := s.db.SelectContext(ctx, &scans, `
		SELECT id, serial_number, created_at, scan_date, production_type, order_id
		FROM apontamentos
		WHERE serial_number = ? AND created_at >= ? AND created_at < ?
		ORDER BY id`, serial, from.UTC(), to.UTC())
	if err != nil {
		return nil, storeError(op, err)
	}
	return normalizeScans(scans), nil
}

func (s *Storage) ScansPage(ctx context.Context, limit, offset int) ([]storage.ProductionScan, error) {
	const op = "storage.sqlite.ScansPage"

	var scans []storage.ProductionScan
	err := s.db.SelectContext(ctx, &scans, `
		SELECT id, serial_number, created_at, scan_date, production_type, order_id
		FROM apontamentos ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, storeError(op, err)
	}
	return normalizeScans(scans), nil
}

func (s *Storage) AllScans(ctx context.Context) ([]storage.ProductionScan, error) {
	return storage.FetchAll(ctx, storage.PageSize, s.ScansPage)
}

func (s *Storage) HasInitialChecklist(ctx context.Context, serial string) (bool, error) {
	const op = "storage.sqlite.HasInitialChecklist"

	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM checklists WHERE serial_number = ? AND reinspection = ?)`,
		serial, storage.YesNo(false))
	if err != nil {
		return false, storeError(op, err)
	}
	return exists, nil
}

const insertChecklist = `
	INSERT INTO checklists (batch_id, serial_number, item, status, observation, inspector, created_at, rejected, reinspection, photo)
	VALUES (:batch_id, :serial_number, :item, :status, :observation, :inspector, :created_at, :rejected, :reinspection, :photo)`

func (s *Storage) InsertChecklistEntry(ctx context.Context, entry storage.ChecklistEntry) error {
	const op = "storage.sqlite.InsertChecklistEntry"

	if _, err := s.db.NamedExecContext(ctx, insertChecklist, utcEntry(entry)); err != nil {
		return storeError(op, err)
	}
	return nil
}

func (s *Storage) InsertChecklistBatch(ctx context.Context, entries []storage.ChecklistEntry) error {
	const op = "storage.sqlite.InsertChecklistBatch"

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError(op, err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if _, err := tx.NamedExecContext(ctx, insertChecklist, utcEntry(e)); err != nil {
			return storeError(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError(op, err)
	}
	return nil
}

func (s *Storage) ChecklistsPage(ctx context.Context, limit, offset int) ([]storage.ChecklistEntry, error) {
	const op = "storage.sqlite.ChecklistsPage"

	var entries []storage.ChecklistEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, batch_id, serial_number, item, status, observation, inspector, created_at, rejected, reinspection, photo
		FROM checklists ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, storeError(op, err)
	}
	for i := range entries {
		entries[i].Timestamp = entries[i].Timestamp.UTC()
	}
	return entries, nil
}

func (s *Storage) AllChecklists(ctx context.Context) ([]storage.ChecklistEntry, error) {
	return storage.FetchAll(ctx, storage.PageSize, s.ChecklistsPage)
}

func utcScan(scan storage.ProductionScan) storage.ProductionScan {
	scan.Timestamp = scan.Timestamp.UTC()
	return scan
}

func utcEntry(e storage.ChecklistEntry) storage.ChecklistEntry {
	e.Timestamp = e.Timestamp.UTC()
	return e
}

func normalizeScans(scans []storage.ProductionScan) []storage.ProductionScan {
	for i := range scans {
		scans[i].Timestamp = scans[i].Timestamp.UTC()
	}
	return scans
}
