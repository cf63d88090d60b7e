// Package store provides the durable outbound mutation queue.
package store

import (
	"database/sql"
	"fmt"

	"github.com/ringline-app/backend/internal/models"
	"github.com/ringline-app/backend/internal/uuid"
)

// EnqueueMutation assigns an id, creation timestamp and zero retry
// count, then persists the mutation at the tail of the queue.
func (s *Store) EnqueueMutation(m *models.Mutation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.enqueueMutation(tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

// EnqueueAndApply appends the mutation and applies it to the local
// collection in a single transaction, so reads immediately after an
// offline write see the pending change. The applied row carries the
// pending marker until a later download confirms it.
func (s *Store) EnqueueAndApply(m *models.Mutation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.enqueueMutation(tx, m); err != nil {
		return err
	}
	if err := applyMutation(tx, m.Collection, m.Kind, m.TargetID, m.Payload, true); err != nil {
		return fmt.Errorf("failed to apply mutation locally: %w", err)
	}
	return tx.Commit()
}

func (s *Store) enqueueMutation(ex execer, m *models.Mutation) error {
	if !m.Kind.Valid() {
		return fmt.Errorf("enqueue: invalid mutation kind %q", m.Kind)
	}
	if !m.Collection.Valid() {
		return fmt.Errorf("enqueue: unknown collection %q", m.Collection)
	}

	m.ID = models.UUID(uuid.New())
	m.RetryCount = 0
	m.CreatedAt = s.now().Unix()

	query := `
	INSERT INTO sync_queue (id, kind, collection, target_id, payload, retry_count, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := ex.Exec(query, m.ID, m.Kind, m.Collection, m.TargetID,
		string(m.Payload), m.RetryCount, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue mutation: %w", err)
	}
	return nil
}

// DrainableMutations returns all queued mutations oldest-first. The
// rowid tiebreak keeps FIFO order for mutations enqueued within the
// same second.
func (s *Store) DrainableMutations() ([]*models.Mutation, error) {
	stmt, err := s.PrepareStmt(`
	SELECT id, kind, collection, target_id, payload, retry_count, created_at
	FROM sync_queue ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query mutation queue: %w", err)
	}
	defer rows.Close()

	var mutations []*models.Mutation
	for rows.Next() {
		var m models.Mutation
		var payload string
		err := rows.Scan(&m.ID, &m.Kind, &m.Collection, &m.TargetID,
			&payload, &m.RetryCount, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mutation: %w", err)
		}
		m.Payload = []byte(payload)
		mutations = append(mutations, &m)
	}
	return mutations, rows.Err()
}

// RemoveMutation deletes a mutation from the queue. Called only after
// the remote apply succeeded, or when the retry ceiling drops it.
func (s *Store) RemoveMutation(id string) error {
	if _, err := s.db.Exec("DELETE FROM sync_queue WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to remove mutation %s: %w", id, err)
	}
	return nil
}

// BumpMutationRetry increments a mutation's retry count and returns the
// new value.
func (s *Store) BumpMutationRetry(id string) (int, error) {
	if _, err := s.db.Exec("UPDATE sync_queue SET retry_count = retry_count + 1 WHERE id = ?", id); err != nil {
		return 0, fmt.Errorf("failed to bump retry for mutation %s: %w", id, err)
	}

	var count int
	err := s.db.QueryRow("SELECT retry_count FROM sync_queue WHERE id = ?", id).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("mutation %s not found", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read retry count for mutation %s: %w", id, err)
	}
	return count, nil
}

// PendingMutationCount returns the queue depth.
func (s *Store) PendingMutationCount() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sync_queue").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count mutation queue: %w", err)
	}
	return count, nil
}
