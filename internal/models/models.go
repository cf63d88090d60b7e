// Package models provides data model definitions for the ringline offline core.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
)

// UUID is a wrapper around string for UUID v4 type safety.
type UUID string

// Value implements driver.Valuer for UUID.
func (u UUID) Value() (driver.Value, error) {
	return string(u), nil
}

// Scan implements sql.Scanner for UUID.
func (u *UUID) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*u = ""
	case string:
		*u = UUID(v)
	case []byte:
		*u = UUID(v)
	default:
		return fmt.Errorf("cannot scan %T into UUID", value)
	}
	return nil
}

// String returns the string representation of the UUID.
func (u UUID) String() string {
	return string(u)
}

// StringList is an ordered list of strings stored as a JSON array.
type StringList []string

// Value implements driver.Valuer for StringList.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for StringList.
func (s *StringList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	if len(data) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(s))
}

// customFieldKey restricts custom field keys to a stable namespace so
// local and remote copies cannot silently drift in shape.
var customFieldKey = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// CustomFields is an open string-keyed map of organization-defined
// attributes. Keys must be lowercase snake_case, at most 64 characters.
type CustomFields map[string]string

// Validate rejects keys outside the documented namespace.
func (f CustomFields) Validate() error {
	for k := range f {
		if !customFieldKey.MatchString(k) {
			return fmt.Errorf("invalid custom field key %q", k)
		}
	}
	return nil
}

// Value implements driver.Valuer for CustomFields.
func (f CustomFields) Value() (driver.Value, error) {
	if f == nil {
		return "{}", nil
	}
	data, err := json.Marshal(map[string]string(f))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for CustomFields.
func (f *CustomFields) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*f = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into CustomFields", value)
	}
	if len(data) == 0 {
		*f = nil
		return nil
	}
	return json.Unmarshal(data, (*map[string]string)(f))
}
