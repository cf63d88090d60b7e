// Package models provides data model definitions for the ringline offline core.
package models

import "time"

// CallOutcome classifies how a dial attempt ended.
type CallOutcome string

const (
	OutcomeAnswered     CallOutcome = "answered"
	OutcomeVoicemail    CallOutcome = "voicemail"
	OutcomeNoAnswer     CallOutcome = "no_answer"
	OutcomeWrongNumber  CallOutcome = "wrong_number"
	OutcomeDisconnected CallOutcome = "disconnected"
)

// Valid reports whether the outcome is one of the known values.
func (o CallOutcome) Valid() bool {
	switch o {
	case OutcomeAnswered, OutcomeVoicemail, OutcomeNoAnswer, OutcomeWrongNumber, OutcomeDisconnected:
		return true
	}
	return false
}

// CallLog records one dial attempt by a ringer against a contact.
type CallLog struct {
	ID              UUID        `db:"id" json:"id"`
	ContactID       UUID        `db:"contact_id" json:"contact_id"`
	RingerID        UUID        `db:"ringer_id" json:"ringer_id"`
	OrganizationID  UUID        `db:"organization_id" json:"organization_id"`
	Outcome         CallOutcome `db:"outcome" json:"outcome"`
	Notes           string      `db:"notes" json:"notes,omitempty"`
	DurationSeconds int         `db:"duration_seconds" json:"duration_seconds,omitempty"`
	CalledAt        int64       `db:"called_at" json:"called_at"`
	Pending         bool        `db:"pending" json:"-"`
}

// TableName returns the table name for CallLog.
func (CallLog) TableName() string {
	return "call_logs"
}

// CalledAtTime returns the CalledAt as time.Time.
func (c *CallLog) CalledAtTime() time.Time {
	return time.Unix(c.CalledAt, 0)
}
