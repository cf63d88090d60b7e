// Package models provides data model definitions for the ringline offline core.
package models

import "time"

// Contact represents a person an organization reaches out to.
// UpdatedAt is maintained by the remote backend and drives incremental sync.
type Contact struct {
	ID                  UUID         `db:"id" json:"id"`
	OrganizationID      UUID         `db:"organization_id" json:"organization_id"`
	FullName            string       `db:"full_name" json:"full_name"`
	Phone               string       `db:"phone" json:"phone"`
	Email               string       `db:"email" json:"email,omitempty"`
	Address             string       `db:"address" json:"address,omitempty"`
	Tags                StringList   `db:"tags" json:"tags"`
	CustomFields        CustomFields `db:"custom_fields" json:"custom_fields"`
	LastContactDate     int64        `db:"last_contact_date" json:"last_contact_date,omitempty"`
	TotalEventsAttended int          `db:"total_events_attended" json:"total_events_attended"`
	UpdatedAt           int64        `db:"updated_at" json:"updated_at"`
	Pending             bool         `db:"pending" json:"-"`
}

// TableName returns the table name for Contact.
func (Contact) TableName() string {
	return "contacts"
}

// UpdatedAtTime returns the UpdatedAt as time.Time.
func (c *Contact) UpdatedAtTime() time.Time {
	return time.Unix(c.UpdatedAt, 0)
}
