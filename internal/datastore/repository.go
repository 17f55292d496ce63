package datastore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/psicash/internal/dbx"
)

// kvRepository reads and writes rows of the user_data table through a
// dbx.DBTX, so the same code runs against *sql.DB or inside a transaction.
type kvRepository struct {
	db dbx.DBTX
}

func newKVRepository(db dbx.DBTX) *kvRepository {
	return &kvRepository{db: db}
}

func (r *kvRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_data (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set user_data[%s]: %w", key, err)
	}
	return nil
}

func (r *kvRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_data`); err != nil {
		return fmt.Errorf("failed to clear user_data: %w", err)
	}
	return nil
}

func (r *kvRepository) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM user_data`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user_data: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan user_data row: %w", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user_data rows: %w", err)
	}
	return result, nil
}
