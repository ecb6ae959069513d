package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/covert/internal/track"
	"github.com/roach88/covert/internal/value"
)

// ErrSessionNotFound is returned when a session id is unknown.
var ErrSessionNotFound = errors.New("session not found")

// Session is one recorded change feed.
type Session struct {
	ID     string
	Source string
}

// Change is one stored event. Property, Old and New hold encoded values;
// use Values to decode them.
type Change struct {
	SessionID   string
	Seq         int64
	Path        string
	Op          track.Op
	Method      string
	Property    string
	Old         string
	New         string
	ValueFormat string
}

// Values decodes the property, old and new values of c. funcs resolves
// function values and may be nil.
func (c Change) Values(funcs *value.FuncTable) (property, old, new value.Value, err error) {
	if property, err = unmarshalValue(c.Property, c.ValueFormat, funcs); err != nil {
		return nil, nil, nil, fmt.Errorf("change %d property: %w", c.Seq, err)
	}
	if old, err = unmarshalValue(c.Old, c.ValueFormat, funcs); err != nil {
		return nil, nil, nil, fmt.Errorf("change %d old value: %w", c.Seq, err)
	}
	if new, err = unmarshalValue(c.New, c.ValueFormat, funcs); err != nil {
		return nil, nil, nil, fmt.Errorf("change %d new value: %w", c.Seq, err)
	}
	return property, old, new, nil
}

// Sessions returns all sessions in creation order.
//
// Returns an empty slice (not nil) if no sessions exist.
func (j *Journal) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, source
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Source); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Session returns one session.
func (j *Journal) Session(ctx context.Context, id string) (Session, error) {
	s := Session{ID: id}
	err := j.db.QueryRowContext(ctx, `SELECT source FROM sessions WHERE id = ?`, id).Scan(&s.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%q: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("query session: %w", err)
	}
	return s, nil
}

// ReadSession returns the changes of a session ordered by seq.
//
// Returns an empty slice (not nil) if the session has no changes.
func (j *Journal) ReadSession(ctx context.Context, sessionID string) ([]Change, error) {
	return j.queryChanges(ctx, `
		SELECT session_id, seq, path, op, method, property, old_value, new_value, value_format
		FROM changes
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
}

// ReadPath returns the changes of a session at path or beneath it, ordered
// by seq. The empty path selects every change.
func (j *Journal) ReadPath(ctx context.Context, sessionID, path string) ([]Change, error) {
	if path == "" {
		return j.ReadSession(ctx, sessionID)
	}
	return j.queryChanges(ctx, `
		SELECT session_id, seq, path, op, method, property, old_value, new_value, value_format
		FROM changes
		WHERE session_id = ?
		  AND (path = ? OR substr(path, 1, length(?) + 1) = ? || '.')
		ORDER BY seq ASC
	`, sessionID, path, path, path)
}

// LastSeq returns the highest seq recorded for a session, 0 when empty.
// A context resuming the session starts its clock here.
func (j *Journal) LastSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq sql.NullInt64
	err := j.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM changes WHERE session_id = ?`, sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

func (j *Journal) queryChanges(ctx context.Context, query string, args ...any) ([]Change, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var (
			c  Change
			op string
		)
		if err := rows.Scan(&c.SessionID, &c.Seq, &c.Path, &op, &c.Method, &c.Property, &c.Old, &c.New, &c.ValueFormat); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		c.Op = track.Op(op)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}
	return changes, nil
}
