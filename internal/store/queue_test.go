// Package store tests for the mutation queue.
package store

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ringline-app/backend/internal/models"
	"github.com/ringline-app/backend/internal/uuid"
)

func TestEnqueueMutation_AssignsIdentity(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Unix(1700000042, 0) }

	m := &models.Mutation{
		Kind:       models.MutationCreate,
		Collection: models.CollectionContacts,
		Payload:    []byte(`{"id":"c1"}`),
		RetryCount: 99, // must be reset
	}
	if err := s.EnqueueMutation(m); err != nil {
		t.Fatalf("EnqueueMutation() = %v", err)
	}

	if !uuid.IsValid(string(m.ID)) {
		t.Errorf("mutation id %q is not a UUID v4", m.ID)
	}
	if m.RetryCount != 0 {
		t.Errorf("retry count = %d, want 0", m.RetryCount)
	}
	if m.CreatedAt != 1700000042 {
		t.Errorf("created_at = %d, want clock value", m.CreatedAt)
	}
}

func TestEnqueueMutation_RejectsInvalid(t *testing.T) {
	s := newTestStore(t)

	err := s.EnqueueMutation(&models.Mutation{
		Kind:       models.MutationKind("merge"),
		Collection: models.CollectionContacts,
		Payload:    []byte(`{}`),
	})
	if err == nil {
		t.Error("unknown kind should be rejected")
	}

	err = s.EnqueueMutation(&models.Mutation{
		Kind:       models.MutationCreate,
		Collection: models.Collection("ringers"),
		Payload:    []byte(`{}`),
	})
	if err == nil {
		t.Error("unknown collection should be rejected")
	}
}

func TestDrainableMutations_FIFOWithinSameSecond(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }

	for i := 0; i < 5; i++ {
		m := &models.Mutation{
			Kind:       models.MutationUpdate,
			Collection: models.CollectionContacts,
			TargetID:   models.UUID(fmt.Sprintf("c%d", i)),
			Payload:    []byte(`{}`),
		}
		if err := s.EnqueueMutation(m); err != nil {
			t.Fatalf("EnqueueMutation() = %v", err)
		}
	}

	drained, err := s.DrainableMutations()
	if err != nil {
		t.Fatalf("DrainableMutations() = %v", err)
	}
	if len(drained) != 5 {
		t.Fatalf("drained %d mutations, want 5", len(drained))
	}
	for i, m := range drained {
		want := models.UUID(fmt.Sprintf("c%d", i))
		if m.TargetID != want {
			t.Errorf("position %d: target = %s, want %s (FIFO violated)", i, m.TargetID, want)
		}
	}
}

func TestRemoveMutation(t *testing.T) {
	s := newTestStore(t)

	m := &models.Mutation{Kind: models.MutationDelete, Collection: models.CollectionEvents, TargetID: "e1", Payload: []byte(`{}`)}
	if err := s.EnqueueMutation(m); err != nil {
		t.Fatalf("EnqueueMutation() = %v", err)
	}

	if err := s.RemoveMutation(string(m.ID)); err != nil {
		t.Fatalf("RemoveMutation() = %v", err)
	}

	count, err := s.PendingMutationCount()
	if err != nil {
		t.Fatalf("PendingMutationCount() = %v", err)
	}
	if count != 0 {
		t.Errorf("queue depth = %d, want 0", count)
	}
}

func TestBumpMutationRetry(t *testing.T) {
	s := newTestStore(t)

	m := &models.Mutation{Kind: models.MutationUpdate, Collection: models.CollectionContacts, Payload: []byte(`{}`)}
	if err := s.EnqueueMutation(m); err != nil {
		t.Fatalf("EnqueueMutation() = %v", err)
	}

	for want := 1; want <= 3; want++ {
		got, err := s.BumpMutationRetry(string(m.ID))
		if err != nil {
			t.Fatalf("BumpMutationRetry() = %v", err)
		}
		if got != want {
			t.Errorf("retry count = %d, want %d", got, want)
		}
	}

	if _, err := s.BumpMutationRetry("missing-id"); err == nil {
		t.Error("bumping a missing mutation should fail")
	}
}

func TestEnqueueAndApply_OptimisticLocalWrite(t *testing.T) {
	s := newTestStore(t)

	contact := testContact("org-1")
	payload, err := json.Marshal(contact)
	if err != nil {
		t.Fatalf("Marshal = %v", err)
	}

	m := &models.Mutation{
		Kind:       models.MutationCreate,
		Collection: models.CollectionContacts,
		TargetID:   contact.ID,
		Payload:    payload,
	}
	if err := s.EnqueueAndApply(m); err != nil {
		t.Fatalf("EnqueueAndApply() = %v", err)
	}

	// The queue entry and the optimistic local row exist together.
	count, err := s.PendingMutationCount()
	if err != nil {
		t.Fatalf("PendingMutationCount() = %v", err)
	}
	if count != 1 {
		t.Errorf("queue depth = %d, want 1", count)
	}

	got, err := s.GetContact(string(contact.ID))
	if err != nil {
		t.Fatalf("GetContact() = %v", err)
	}
	if got == nil {
		t.Fatal("offline write is not visible to local reads")
	}
	if !got.Pending {
		t.Error("optimistically applied row must carry the pending marker")
	}
}

func TestEnqueueAndApply_DeleteRemovesLocalRow(t *testing.T) {
	s := newTestStore(t)

	contact := testContact("org-1")
	if err := s.PutContact(contact); err != nil {
		t.Fatalf("PutContact() = %v", err)
	}

	m := &models.Mutation{
		Kind:       models.MutationDelete,
		Collection: models.CollectionContacts,
		TargetID:   contact.ID,
		Payload:    []byte(`{}`),
	}
	if err := s.EnqueueAndApply(m); err != nil {
		t.Fatalf("EnqueueAndApply() = %v", err)
	}

	got, err := s.GetContact(string(contact.ID))
	if err != nil {
		t.Fatalf("GetContact() = %v", err)
	}
	if got != nil {
		t.Error("offline delete should remove the local row")
	}
}

func TestApplyRemote_ClearsPendingMarker(t *testing.T) {
	s := newTestStore(t)

	contact := testContact("org-1")
	payload, _ := json.Marshal(contact)

	m := &models.Mutation{
		Kind:       models.MutationCreate,
		Collection: models.CollectionContacts,
		TargetID:   contact.ID,
		Payload:    payload,
	}
	if err := s.EnqueueAndApply(m); err != nil {
		t.Fatalf("EnqueueAndApply() = %v", err)
	}

	// A later download confirms the record.
	if err := s.ApplyRemote(models.CollectionContacts, payload); err != nil {
		t.Fatalf("ApplyRemote() = %v", err)
	}

	got, err := s.GetContact(string(contact.ID))
	if err != nil {
		t.Fatalf("GetContact() = %v", err)
	}
	if got.Pending {
		t.Error("remote apply should clear the pending marker")
	}
}

func TestApplyRemote_UnknownCollection(t *testing.T) {
	s := newTestStore(t)
	if err := s.ApplyRemote(models.Collection("ringers"), []byte(`{}`)); err == nil {
		t.Error("unknown collection should be rejected")
	}
}
