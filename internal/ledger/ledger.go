// Package ledger provides an append-only history of synchronizations and commands.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event in the ledger
type EventType string

const (
	EventSyncSucceeded    EventType = "sync_succeeded"
	EventSyncFailed       EventType = "sync_failed"
	EventCommandCompleted EventType = "command_completed"
	EventCommandFailed    EventType = "command_failed"
)

// Record is one outcome to be written to the history.
type Record struct {
	Type      EventType
	Source    string // "sync" or "command"
	TargetID  string // Appliance the event concerns
	CommandID string // Set for command events only
	Payload   map[string]any
}

// Entry is a stored Record.
type Entry struct {
	Record
	ID        int64
	Timestamp time.Time
}

// Ledger writes and reads the history table
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new Ledger using the provided database connection
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Append stores r with the current time.
func (l *Ledger) Append(r Record) error {
	var payload sql.NullString
	if r.Payload != nil {
		data, err := json.Marshal(r.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		payload = sql.NullString{String: string(data), Valid: true}
	}

	// Nanoseconds keep ordering stable for events within one second
	_, err := l.db.Exec(
		`INSERT INTO event_ledger (event_type, timestamp, payload, source, command_id, target_id) VALUES (?, ?, ?, ?, ?, ?)`,
		string(r.Type), l.now().UTC().UnixNano(), payload, r.Source, r.CommandID, r.TargetID,
	)
	if err != nil {
		return fmt.Errorf("failed to append %s: %w", r.Type, err)
	}
	return nil
}

// Recent returns the newest entries of any type
func (l *Ledger) Recent(limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, event_type, timestamp, payload, source, command_id, target_id
		FROM event_ledger
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DeleteOlderThan removes entries older than retention and reports how many were removed
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := l.now().Add(-retention).UnixNano()
	result, err := l.db.Exec(`DELETE FROM event_ledger WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var (
		entry                        Entry
		ts                           int64
		payload, source, cmd, target sql.NullString
	)
	if err := rows.Scan(&entry.ID, &entry.Type, &ts, &payload, &source, &cmd, &target); err != nil {
		return nil, err
	}

	entry.Timestamp = time.Unix(0, ts).UTC()
	entry.Source = source.String
	entry.CommandID = cmd.String
	entry.TargetID = target.String

	if payload.Valid && payload.String != "" {
		if err := json.Unmarshal([]byte(payload.String), &entry.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload of entry %d: %w", entry.ID, err)
		}
	}
	return &entry, nil
}
