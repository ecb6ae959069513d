package journal

import (
	"context"
	"fmt"

	"github.com/roach88/covert/internal/track"
)

// Summary describes a recorded session.
type Summary struct {
	Session Session
	Changes int
	LastSeq int64

	// Ops counts changes per op.
	Ops map[track.Op]int

	// Paths lists the distinct changed paths in first-change order.
	Paths []string
}

// Summarize reads a session and aggregates its changes.
func (j *Journal) Summarize(ctx context.Context, sessionID string) (Summary, error) {
	sess, err := j.Session(ctx, sessionID)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}
	changes, err := j.ReadSession(ctx, sessionID)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}

	sum := Summary{Session: sess, Changes: len(changes), Ops: make(map[track.Op]int), Paths: []string{}}
	seen := make(map[string]bool)
	for _, c := range changes {
		sum.Ops[c.Op]++
		sum.LastSeq = max(sum.LastSeq, c.Seq)
		if !seen[c.Path] {
			seen[c.Path] = true
			sum.Paths = append(sum.Paths, c.Path)
		}
	}
	return sum, nil
}
