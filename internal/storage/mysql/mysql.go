package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"qc-line/internal/config"
	"qc-line/internal/storage"
)

const errDuplicateEntry = 1062

//go:embed schema.sql
var schema string

type Storage struct {
	db *sql.DB
}

// New opens the MySQL store. The DSN must carry parseTime=true; loc=UTC is
// forced so timestamps round-trip in UTC.
func New(cfg config.Config) (*Storage, error) {
	const op = "storage.mysql.New"

	dsnCfg, err := mysql.ParseDSN(cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: parse dsn: %w", op, err)
	}
	dsnCfg.ParseTime = true
	dsnCfg.Loc = time.UTC

	db, err := sql.Open("mysql", dsnCfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Storage{db: db}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", op, err)
	}

	return s, nil
}

// migrate applies schema.sql one statement at a time, the driver runs
// single statements unless multiStatements is set.
func (s *Storage) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// storeError classifies driver errors: unique violations become
// storage.ErrDuplicate, everything else storage.ErrStoreUnavailable.
func storeError(op string, err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == errDuplicateEntry {
		return fmt.Errorf("%s: %w: %w", op, storage.ErrDuplicate, err)
	}
	return fmt.Errorf("%s: %w: %w", op, storage.ErrStoreUnavailable, err)
}
