// Package store provides the key/value metadata table.
package store

import (
	"database/sql"
	"fmt"

	"github.com/ringline-app/backend/internal/models"
)

// SetMetadata upserts a singleton key/value row. The sync checkpoint
// per organization lives here.
func (s *Store) SetMetadata(key, value string) error {
	query := `
	INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, value, s.now().Unix()); err != nil {
		return fmt.Errorf("failed to set metadata %q: %w", key, err)
	}
	return nil
}

// GetMetadata retrieves a metadata entry, (nil, nil) when absent.
func (s *Store) GetMetadata(key string) (*models.MetadataEntry, error) {
	stmt, err := s.PrepareStmt("SELECT key, value, updated_at FROM metadata WHERE key = ?")
	if err != nil {
		return nil, err
	}

	var entry models.MetadataEntry
	err = stmt.QueryRow(key).Scan(&entry.Key, &entry.Value, &entry.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata %q: %w", key, err)
	}
	return &entry, nil
}
