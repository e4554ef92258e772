// Package sqlitestore persists audit entries in SQLite. The store is
// insert-only: it exposes no update or delete path, matching the regulatory
// append-only requirement for audit trails.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/carebridge/phicrypt/audit"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	tenant_id     TEXT,
	ip_address    TEXT,
	user_agent    TEXT,
	device        TEXT,
	event_type    TEXT NOT NULL,
	action        TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id   TEXT NOT NULL,
	changes       TEXT,
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_user ON audit_entries (user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_audit_entries_resource ON audit_entries (resource_type, resource_id);
`

// Store implements audit.Store over a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and bootstraps the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert implements audit.Store.
func (s *Store) Insert(ctx context.Context, entry *audit.Entry) error {
	deviceJSON, err := marshalNullable(entry.Device)
	if err != nil {
		return fmt.Errorf("marshal device info: %w", err)
	}
	changesJSON, err := marshalNullable(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_entries
			(id, user_id, tenant_id, ip_address, user_agent, device,
			 event_type, action, resource_type, resource_id, changes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(),
		entry.UserID,
		nullString(entry.TenantID),
		nullString(entry.IPAddress),
		nullString(entry.UserAgent),
		deviceJSON,
		entry.EventType,
		string(entry.Action),
		entry.ResourceType,
		entry.ResourceID,
		changesJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns entries newest first, for compliance review. offset/limit
// paginate; there is deliberately no filter that could be used to rewrite
// history, only to read it.
func (s *Store) List(ctx context.Context, offset, limit int) ([]*audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, tenant_id, ip_address, user_agent, device,
		       event_type, action, resource_type, resource_id, changes, created_at
		FROM audit_entries
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*audit.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (*audit.Entry, error) {
	var (
		entry       audit.Entry
		id          string
		action      string
		tenantID    sql.NullString
		ipAddress   sql.NullString
		userAgent   sql.NullString
		deviceJSON  sql.NullString
		changesJSON sql.NullString
	)
	err := rows.Scan(
		&id, &entry.UserID, &tenantID, &ipAddress, &userAgent, &deviceJSON,
		&entry.EventType, &action, &entry.ResourceType, &entry.ResourceID,
		&changesJSON, &entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan audit entry: %w", err)
	}
	if err := entry.ID.UnmarshalText([]byte(id)); err != nil {
		return nil, fmt.Errorf("parse audit entry id %q: %w", id, err)
	}
	entry.Action = audit.Action(action)
	entry.TenantID = tenantID.String
	entry.IPAddress = ipAddress.String
	entry.UserAgent = userAgent.String
	if deviceJSON.Valid {
		var device audit.DeviceInfo
		if err := json.Unmarshal([]byte(deviceJSON.String), &device); err != nil {
			return nil, fmt.Errorf("parse device info: %w", err)
		}
		entry.Device = &device
	}
	if changesJSON.Valid {
		if err := json.Unmarshal([]byte(changesJSON.String), &entry.Changes); err != nil {
			return nil, fmt.Errorf("parse changes: %w", err)
		}
	}
	return &entry, nil
}

// marshalNullable JSON-encodes v, mapping nil to database NULL.
func marshalNullable(v any) (sql.NullString, error) {
	switch value := v.(type) {
	case *audit.DeviceInfo:
		if value == nil {
			return sql.NullString{}, nil
		}
	case map[string]audit.FieldChange:
		if value == nil {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
