package track

import (
	"log/slog"

	"github.com/roach88/covert/internal/value"
)

// Op names the kind of mutation behind a change event.
type Op string

const (
	// OpSet is a property write or a keyed-collection set.
	OpSet Op = "set"

	// OpDefine is a property definition.
	OpDefine Op = "define"

	// OpDelete is a property deletion or a collection removal.
	OpDelete Op = "delete"

	// OpAdd is a set-collection insertion.
	OpAdd Op = "add"

	// OpClear is one entry dropped by a collection clear.
	OpClear Op = "clear"

	// OpCall is a method call that changed an opaque value.
	OpCall Op = "call"
)

// Event is one observed change.
//
// Path addresses the mutated location: the container's path with the
// mutated key or index as last segment. For opaque values the path is the
// value's own path. Old and New are raw values; absence is value.Undefined.
type Event struct {
	Seq      int64
	Path     string
	Target   value.Value
	Property value.Value
	Op       Op
	Method   string
	Old      value.Value
	New      value.Value
}

// LogValue implements slog.LogValuer.
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("seq", e.Seq),
		slog.String("op", string(e.Op)),
		slog.String("path", e.Path),
		slog.String("old", value.Display(e.Old)),
		slog.String("new", value.Display(e.New)),
	}
	if e.Method != "" {
		attrs = append(attrs, slog.String("method", e.Method))
	}
	return slog.GroupValue(attrs...)
}

// Observer receives change events synchronously. A non-nil error stops the
// fan-out and is returned by the mutating call.
type Observer func(Event) error

type observerEntry struct {
	sub Subscription
	fn  Observer
}
