package harness

import (
	"github.com/roach88/covert/internal/track"
	"github.com/roach88/covert/internal/value"
)

// Change is one observed event as recorded in a Result.
type Change struct {
	Seq    int64  `json:"seq"`
	Op     string `json:"op"`
	Path   string `json:"path"`
	Method string `json:"method,omitempty"`
	Old    string `json:"old"`
	New    string `json:"new"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step behaved as expected and every assertion
	// held.
	Pass bool `json:"pass"`

	// Changes is the change feed in seq order.
	Changes []Change `json:"changes"`

	// Errors contains step and assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the display form of the graph after the last step.
	Final string `json:"final"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Changes: []Change{},
		Errors:  []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// observe is the track.Observer that fills Changes.
func (r *Result) observe(ev track.Event) error {
	r.Changes = append(r.Changes, Change{
		Seq:    ev.Seq,
		Op:     string(ev.Op),
		Path:   ev.Path,
		Method: ev.Method,
		Old:    value.Display(ev.Old),
		New:    value.Display(ev.New),
	})
	return nil
}
