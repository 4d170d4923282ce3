package mysql

import (
	"context"
	"time"

	"qc-line/internal/storage"
)

const scanColumns = `id, serial_number, created_at, scan_date, production_type, order_id`

func (s *Storage) InsertScan(ctx context.Context, scan storage.ProductionScan) (int64, error) {
	const op = "storage.mysql.InsertScan"

	stmt := `INSERT INTO apontamentos (serial_number, created_at, scan_date, production_type, order_id)
             VALUES (?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, stmt, scan.SerialNumber, scan.Timestamp.UTC(), scan.ScanDate, scan.ProductionType, scan.OrderID)
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
	const op = "storage.mysql.ScansBetween"

	stmt := `SELECT ` + scanColumns + `
             FROM apontamentos
             WHERE serial_number = ? AND created_at >= ? AND created_at < ?
             ORDER BY id`

	return s.queryScans(ctx, op, stmt, serial, from.UTC(), to.UTC())
}

func (s *Storage) ScansPage(ctx context.Context, limit, offset int) ([]storage.ProductionScan, error) {
	const op = "storage.mysql.ScansPage"

	stmt := `SELECT ` + scanColumns + ` FROM apontamentos ORDER BY id LIMIT ? OFFSET ?`

	return s.queryScans(ctx, op, stmt, limit, offset)
}

func (s *Storage) AllScans(ctx context.Context) ([]storage.ProductionScan, error) {
	return storage.FetchAll(ctx, storage.PageSize, s.ScansPage)
}

func (s *Storage) queryScans(ctx context.Context, op, stmt string, args ...interface{}) ([]storage.ProductionScan, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, storeError(op, err)
	}
	defer rows.Close()

	var scans []storage.ProductionScan
	for rows.Next() {
		var scan storage.ProductionScan
		err := rows.Scan(&scan.ID, &scan.SerialNumber, &scan.Timestamp, &scan.ScanDate, &scan.ProductionType, &scan.OrderID)
		if err != nil {
			return nil, storeError(op, err)
		}
		scan.Timestamp = scan.Timestamp.UTC()
		scans = append(scans, scan)
	}
	if err = rows.Err(); err != nil {
		return nil, storeError(op, err)
	}

	return scans, nil
}
