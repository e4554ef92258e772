// Package audit records immutable audit-trail entries for every access to
// regulated data. Entries are append-only: once persisted they are never
// updated or deleted, and they outlive the users they reference.
package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidParams indicates an incomplete audit record. Recording fails fast
// so gaps in the trail surface at development time, not in production.
var ErrInvalidParams = errors.New("invalid audit params")

// Action is the CRUD operation being audited.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Valid reports whether a is one of the four known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// DeviceInfo is a best-effort description of the client device, derived from
// the User-Agent string.
type DeviceInfo struct {
	OS         string `json:"os,omitempty"`
	Browser    string `json:"browser,omitempty"`
	Platform   string `json:"platform,omitempty"` // mobile, tablet or desktop
	AppVersion string `json:"app_version,omitempty"`
}

// FieldChange holds the before/after values of one field in an UPDATE.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Entry is one immutable audit-trail record. ID and CreatedAt are assigned by
// the recorder, never by the caller. Optional fields are empty/nil when
// unknown; an empty TenantID marks a global or system-level event.
type Entry struct {
	ID           uuid.UUID
	UserID       string
	TenantID     string
	IPAddress    string
	UserAgent    string
	Device       *DeviceInfo
	EventType    string
	Action       Action
	ResourceType string
	ResourceID   string
	// Changes is set only for UPDATE actions, and only when fields actually
	// differ. Nil otherwise.
	Changes   map[string]FieldChange
	CreatedAt time.Time
}

// Params is the caller-supplied input for one audit entry. UserID, EventType,
// Action, ResourceType and ResourceID are required; the rest is optional
// context.
type Params struct {
	UserID       string
	TenantID     string
	IPAddress    string
	UserAgent    string
	Device       *DeviceInfo
	EventType    string // dotted event name, e.g. "prescription.approved"
	Action       Action
	ResourceType string
	ResourceID   string
	Changes      map[string]FieldChange
}

// RequestContext is the network/device context extracted from an inbound
// HTTP request. Fields are empty when they could not be determined.
type RequestContext struct {
	IPAddress string
	UserAgent string
	Device    *DeviceInfo
}
