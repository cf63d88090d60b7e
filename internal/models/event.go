// Package models provides data model definitions for the ringline offline core.
package models

import "time"

// Event represents an organizing event contacts can register for.
type Event struct {
	ID             UUID   `db:"id" json:"id"`
	OrganizationID UUID   `db:"organization_id" json:"organization_id"`
	Name           string `db:"name" json:"name"`
	StartTime      int64  `db:"start_time" json:"start_time"`
	EndTime        int64  `db:"end_time" json:"end_time,omitempty"`
	Location       string `db:"location" json:"location,omitempty"`
	Capacity       int    `db:"capacity" json:"capacity,omitempty"`
	UpdatedAt      int64  `db:"updated_at" json:"updated_at"`
	Pending        bool   `db:"pending" json:"-"`
}

// TableName returns the table name for Event.
func (Event) TableName() string {
	return "events"
}

// StartTimeTime returns the StartTime as time.Time.
func (e *Event) StartTimeTime() time.Time {
	return time.Unix(e.StartTime, 0)
}

// ParticipantStatus tracks a contact's registration state for an event.
type ParticipantStatus string

const (
	ParticipantRegistered ParticipantStatus = "registered"
	ParticipantConfirmed  ParticipantStatus = "confirmed"
	ParticipantAttended   ParticipantStatus = "attended"
	ParticipantCancelled  ParticipantStatus = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s ParticipantStatus) Valid() bool {
	switch s {
	case ParticipantRegistered, ParticipantConfirmed, ParticipantAttended, ParticipantCancelled:
		return true
	}
	return false
}

// EventParticipant links a contact to an event.
type EventParticipant struct {
	ID        UUID              `db:"id" json:"id"`
	EventID   UUID              `db:"event_id" json:"event_id"`
	ContactID UUID              `db:"contact_id" json:"contact_id"`
	Status    ParticipantStatus `db:"status" json:"status"`
	Pending   bool              `db:"pending" json:"-"`
}

// TableName returns the table name for EventParticipant.
func (EventParticipant) TableName() string {
	return "event_participants"
}
