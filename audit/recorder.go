package audit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Store persists audit entries. Implementations are insert-only; nothing in
// this package ever updates or deletes a persisted entry.
type Store interface {
	Insert(ctx context.Context, entry *Entry) error
}

// Recorder validates, constructs and persists audit entries. Construction
// goes through a single path so an incomplete entry can never reach the
// store.
type Recorder struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() uuid.UUID
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the logger used to report persistence failures.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = logger }
}

// WithNow injects the clock. Intended for tests.
func WithNow(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder builds a Recorder writing to store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record validates params, constructs the entry and persists it.
//
// Validation failures return ErrInvalidParams and nothing is written. A
// persistence failure, by contrast, is logged at error level and swallowed:
// auditing must never abort the business operation it documents. The
// constructed entry is returned either way so callers can still inspect it.
func (r *Recorder) Record(ctx context.Context, params Params) (*Entry, error) {
	if err := validate(params); err != nil {
		return nil, err
	}

	entry := r.newEntry(params)
	if err := r.store.Insert(ctx, entry); err != nil {
		// Availability of the primary operation outranks audit completeness;
		// the gap stays observable for compliance follow-up.
		r.logger.Error("audit entry persistence failed",
			"error", err,
			"event_type", entry.EventType,
			"action", string(entry.Action),
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
			"user_id", entry.UserID,
		)
	}
	return entry, nil
}

// RecordFromRequest extracts network/device context from req and records the
// entry. Context already present in params wins over extracted values.
func (r *Recorder) RecordFromRequest(ctx context.Context, req *http.Request, params Params) (*Entry, error) {
	rc := ExtractContext(req)
	if params.IPAddress == "" {
		params.IPAddress = rc.IPAddress
	}
	if params.UserAgent == "" {
		params.UserAgent = rc.UserAgent
	}
	if params.Device == nil {
		params.Device = rc.Device
	}
	return r.Record(ctx, params)
}

// newEntry is the single construction path for audit entries. It assigns the
// system id and timestamp and drops change sets on non-UPDATE actions.
func (r *Recorder) newEntry(params Params) *Entry {
	changes := params.Changes
	if params.Action != ActionUpdate || len(changes) == 0 {
		changes = nil
	}
	return &Entry{
		ID:           r.newID(),
		UserID:       params.UserID,
		TenantID:     params.TenantID,
		IPAddress:    params.IPAddress,
		UserAgent:    params.UserAgent,
		Device:       params.Device,
		EventType:    params.EventType,
		Action:       params.Action,
		ResourceType: params.ResourceType,
		ResourceID:   params.ResourceID,
		Changes:      changes,
		CreatedAt:    r.now().UTC(),
	}
}

func validate(params Params) error {
	switch {
	case params.UserID == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidParams)
	case params.EventType == "":
		return fmt.Errorf("%w: event type is required", ErrInvalidParams)
	case !params.Action.Valid():
		return fmt.Errorf("%w: action %q is not one of CREATE, READ, UPDATE, DELETE", ErrInvalidParams, params.Action)
	case params.ResourceType == "":
		return fmt.Errorf("%w: resource type is required", ErrInvalidParams)
	case params.ResourceID == "":
		return fmt.Errorf("%w: resource id is required", ErrInvalidParams)
	}
	return nil
}
