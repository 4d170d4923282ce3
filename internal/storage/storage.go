package storage

import (
	"context"
	"errors"
)

// PageSize is the window used when reading a whole collection from the store.
const PageSize = 1000

var (
	ErrStoreUnavailable = errors.New("record store unavailable")
	ErrDuplicate        = errors.New("duplicate record")
)

// FetchAll reads a collection page by page until the store returns an empty page.
func FetchAll[T any](ctx context.Context, pageSize int, page func(ctx context.Context, limit, offset int) ([]T, error)) ([]T, error) {
	var all []T
	for offset := 0; ; offset += pageSize {
		rows, err := page(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return all, nil
		}
		all = append(all, rows...)
	}
}
