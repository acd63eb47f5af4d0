package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// Optional turns pgx.ErrNoRows from a single-row finder into (nil, nil).
func Optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CollectRows scans every row with scan and closes rows.
func CollectRows[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()
	var items []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
