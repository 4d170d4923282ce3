package mysql

import (
	"context"
	"database/sql"

	"qc-line/internal/storage"
)

const checklistColumns = `id, batch_id, serial_number, item, status, observation, inspector, created_at, rejected, reinspection, photo`

func (s *Storage) HasInitialChecklist(ctx context.Context, serial string) (bool, error) {
	const op = "storage.mysql.HasInitialChecklist"

	stmt := `SELECT EXISTS(SELECT 1 FROM checklists WHERE serial_number = ? AND reinspection = ?)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, stmt, serial, storage.YesNo(false)).Scan(&exists); err != nil {
		return false, storeError(op, err)
	}
	return exists, nil
}

const insertChecklist = `INSERT INTO checklists
    (batch_id, serial_number, item, status, observation, inspector, created_at, rejected, reinspection, photo)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func checklistArgs(e storage.ChecklistEntry) []interface{} {
	return []interface{}{
		e.BatchID, e.SerialNumber, e.Item, string(e.Status), e.Observation, e.Inspector,
		e.Timestamp.UTC(), e.Rejected, e.Reinspection, e.Photo,
	}
}

func (s *Storage) InsertChecklistEntry(ctx context.Context, entry storage.ChecklistEntry) error {
	const op = "storage.mysql.InsertChecklistEntry"

	if _, err := s.db.ExecContext(ctx, insertChecklist, checklistArgs(entry)...); err != nil {
		return storeError(op, err)
	}
	return nil
}

func (s *Storage) InsertChecklistBatch(ctx context.Context, entries []storage.ChecklistEntry) error {
	const op = "storage.mysql.InsertChecklistBatch"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError(op, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertChecklist)
	if err != nil {
		return storeError(op, err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, checklistArgs(e)...); err != nil {
			return storeError(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError(op, err)
	}
	return nil
}

func (s *Storage) ChecklistsPage(ctx context.Context, limit, offset int) ([]storage.ChecklistEntry, error) {
	const op = "storage.mysql.ChecklistsPage"

	stmt := `SELECT ` + checklistColumns + ` FROM checklists ORDER BY id LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, stmt, limit, offset)
	if err != nil {
		return nil, storeError(op, err)
	}
	defer rows.Close()

	var entries []storage.ChecklistEntry
	for rows.Next() {
		var e storage.ChecklistEntry
		var photo sql.NullString

		err := rows.Scan(&e.ID, &e.BatchID, &e.SerialNumber, &e.Item, &e.Status, &e.Observation,
			&e.Inspector, &e.Timestamp, &e.Rejected, &e.Reinspection, &photo)
		if err != nil {
			return nil, storeError(op, err)
		}

		e.Timestamp = e.Timestamp.UTC()
		if photo.Valid {
			e.Photo = &photo.String
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, storeError(op, err)
	}

	return entries, nil
}

func (s *Storage) AllChecklists(ctx context.Context) ([]storage.ChecklistEntry, error) {
	return storage.FetchAll(ctx, storage.PageSize, s.ChecklistsPage)
}
