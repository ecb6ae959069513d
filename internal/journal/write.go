package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/covert/internal/track"
)

// BeginSession registers a new session and returns its id, a UUIDv7 so
// sessions list in creation order.
func (j *Journal) BeginSession(ctx context.Context, source string) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()
	if err := j.ensureSession(ctx, id, source); err != nil {
		return "", err
	}
	return id, nil
}

// ensureSession inserts the session row if it does not exist yet.
func (j *Journal) ensureSession(ctx context.Context, id, source string) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, source)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, source)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// WriteChange appends one event to a session.
// Uses ON CONFLICT(session_id, seq) DO NOTHING for idempotency - recording
// the same event twice is silently ignored.
//
// Note: the session must exist (foreign key constraint).
func (j *Journal) WriteChange(ctx context.Context, sessionID string, ev track.Event) error {
	vals, format, err := marshalValues(ev.Property, ev.Old, ev.New)
	if err != nil {
		return fmt.Errorf("write change %d: %w", ev.Seq, err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO changes
		(session_id, seq, path, op, method, property, old_value, new_value, value_format)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		sessionID,
		ev.Seq,
		ev.Path,
		string(ev.Op),
		ev.Method,
		vals[0],
		vals[1],
		vals[2],
		format,
	)
	if err != nil {
		return fmt.Errorf("write change %d: %w", ev.Seq, err)
	}
	return nil
}

// Observer returns a track.Observer that writes every event to sessionID.
// A write failure is returned to the mutating call.
func (j *Journal) Observer(ctx context.Context, sessionID string) track.Observer {
	return func(ev track.Event) error {
		return j.WriteChange(ctx, sessionID, ev)
	}
}
