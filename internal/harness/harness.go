package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/covert/internal/loader"
	"github.com/roach88/covert/internal/testutil"
	"github.com/roach88/covert/internal/track"
	"github.com/roach88/covert/internal/value"
)

// RunOption configures a single Run.
type RunOption func(*runConfig)

type runConfig struct {
	observers []track.Observer
	funcs     *value.FuncTable
	logger    *slog.Logger
}

// WithObserver subscribes an additional observer for the run, such as a
// journal writer or a metrics recorder. Observers see events after the
// result's own recorder.
func WithObserver(fn track.Observer) RunOption {
	return func(c *runConfig) {
		c.observers = append(c.observers, fn)
	}
}

// WithFuncs replaces DefaultFuncs as the table !func tags resolve against.
func WithFuncs(t *value.FuncTable) RunOption {
	return func(c *runConfig) {
		c.funcs = t
	}
}

// WithLogger sets the logger handed to the tracking context.
func WithLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = l
	}
}

// runner holds the state of one scenario execution.
type runner struct {
	scenario *Scenario
	funcs    *value.FuncTable
	ctx      *track.Context

	// root is the wrapped root while covered, the raw root after uncover.
	root    value.Value
	covered bool
}

// Run executes a scenario and returns the result.
//
// Each run builds a fresh tracking context with a deterministic clock and
// counting subscription handles, so sequence numbers start at 1.
//
// Execution flow:
//  1. Load the root value (document file or inline root)
//  2. Cover it and subscribe the result recorder plus extra observers
//  3. Apply steps in order; the first unexpected outcome stops the steps
//  4. Evaluate assertions against the feed and the final graph
//
// Returns an error only when the scenario cannot start. Step and assertion
// failures are reported in the Result.
func Run(scenario *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{
		funcs:  DefaultFuncs(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	raw, err := scenario.loadRoot(cfg.funcs)
	if err != nil {
		return nil, fmt.Errorf("load root: %w", err)
	}

	ctx := track.New(
		track.WithClock(testutil.NewDeterministicClock()),
		track.WithHandleGenerator(testutil.NewCountingGenerator("")),
		track.WithFuncs(cfg.funcs),
		track.WithLogger(cfg.logger),
	)
	root, err := ctx.Cover(raw)
	if err != nil {
		return nil, fmt.Errorf("cover root: %w", err)
	}

	result := NewResult()
	if _, err := ctx.Observe(result.observe); err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}
	for _, fn := range cfg.observers {
		if _, err := ctx.Observe(fn); err != nil {
			return nil, fmt.Errorf("observe: %w", err)
		}
	}

	r := &runner{scenario: scenario, funcs: cfg.funcs, ctx: ctx, root: root, covered: true}

	for i := range scenario.Steps {
		if err := r.step(i, &scenario.Steps[i]); err != nil {
			result.AddError(err.Error())
			break
		}
	}

	result.Final = value.Display(r.root)

	for _, msg := range EvaluateAssertions(r.root, scenario.Assertions, result.Changes, cfg.funcs) {
		result.AddError(msg)
	}
	return result, nil
}

// step applies one step and checks its outcome against st.Error.
func (r *runner) step(i int, st *Step) error {
	err := r.apply(st)
	switch {
	case st.Error == "" && err != nil:
		return fmt.Errorf("steps[%d] %s %q: %w", i, st.Op, st.Path, err)
	case st.Error != "" && err == nil:
		return fmt.Errorf("steps[%d] %s %q: expected error containing %q, got none", i, st.Op, st.Path, st.Error)
	case st.Error != "" && !strings.Contains(err.Error(), st.Error):
		return fmt.Errorf("steps[%d] %s %q: expected error containing %q, got %q", i, st.Op, st.Path, st.Error, err.Error())
	}
	return nil
}

func (r *runner) apply(st *Step) error {
	switch st.Op {
	case OpUncover:
		if r.covered {
			r.root = r.ctx.Uncover()
			r.covered = false
		}
		return nil

	case OpCall:
		target, err := r.locateTrackable(st.Path)
		if err != nil {
			return err
		}
		args := make([]value.Value, 0, len(st.Args))
		for i := range st.Args {
			v, err := r.node(&st.Args[i], value.ConcatPath(st.Path, fmt.Sprintf("args.%d", i)))
			if err != nil {
				return err
			}
			args = append(args, v)
		}
		_, err = target.Call(st.Method, args...)
		return err
	}

	container, key, err := r.slot(st)
	if err != nil {
		return err
	}

	switch st.Op {
	case OpSet:
		v, err := r.node(&st.Value, st.Path)
		if err != nil {
			return err
		}
		return container.Set(key, v)
	case OpDelete:
		_, err := container.Delete(key)
		return err
	case OpDefine:
		v, err := r.node(&st.Value, st.Path)
		if err != nil {
			return err
		}
		d := value.Descriptor{
			Value:        v,
			Writable:     flag(st.Writable),
			Enumerable:   flag(st.Enumerable),
			Configurable: flag(st.Configurable),
		}
		return define(container, key, d)
	}
	return fmt.Errorf("unknown op %q", st.Op)
}

// slot resolves the container and key a set, delete or define addresses.
func (r *runner) slot(st *Step) (value.Trackable, value.Value, error) {
	if !isZero(&st.Key) {
		key, err := r.node(&st.Key, st.Path)
		if err != nil {
			return nil, nil, err
		}
		container, err := r.locateTrackable(st.Path)
		return container, key, err
	}

	segs := value.SplitPath(st.Path)
	last := segs[len(segs)-1]
	container, err := r.locateTrackable(strings.Join(segs[:len(segs)-1], value.PathSeparator))
	return container, value.String(last), err
}

// locate resolves path through the context while covered and over the raw
// graph afterwards.
func (r *runner) locate(path string) (value.Value, error) {
	if r.covered {
		return r.ctx.Locate(path)
	}
	return walk(r.root, path)
}

func (r *runner) locateTrackable(path string) (value.Trackable, error) {
	v, err := r.locate(path)
	if err != nil {
		return nil, err
	}
	t, ok := v.(value.Trackable)
	if !ok {
		return nil, fmt.Errorf("value at %q is a %s, not a container", path, value.KindOf(v))
	}
	return t, nil
}

// node loads a YAML node with the scenario's function table.
func (r *runner) node(n *yaml.Node, path string) (value.Value, error) {
	return loader.FromNode(n, r.scenario.Name+":"+path, r.funcs)
}

// definer is implemented by object wrappers.
type definer interface {
	DefineProperty(key value.Value, d value.Descriptor) error
}

func define(t value.Trackable, key value.Value, d value.Descriptor) error {
	if p, ok := t.(definer); ok {
		return p.DefineProperty(key, d)
	}
	return value.DefineOn(t, key, d)
}

// walk resolves a dotted path over a raw graph with the segment rules of
// track.Context.Locate.
func walk(root value.Value, path string) (value.Value, error) {
	cur := root
	walked := ""
	for _, seg := range value.SplitPath(path) {
		walked = value.ConcatPath(walked, seg)
		next, ok, err := rawChild(cur, seg)
		if err != nil {
			return nil, fmt.Errorf("locate %q: %w", walked, err)
		}
		if !ok {
			return nil, fmt.Errorf("locate %q: %w", walked, track.ErrPathNotFound)
		}
		cur = next
	}
	return cur, nil
}

func rawChild(cur value.Value, seg string) (value.Value, bool, error) {
	switch c := value.Unwrap(cur).(type) {
	case *value.Map:
		for _, k := range c.Keys() {
			if value.Segment(k) == seg {
				v, _ := c.Lookup(k)
				return v, true, nil
			}
		}
		return nil, false, nil
	case *value.Set:
		i, ok := value.ParseIndex(seg)
		if !ok || i >= c.Len() {
			return nil, false, nil
		}
		return c.At(i), true, nil
	case value.Trackable:
		key := value.String(seg)
		if !value.HasOwn(c, key) {
			return nil, false, nil
		}
		v, err := c.Get(key)
		return v, true, err
	}
	return nil, false, nil
}

func flag(b *bool) bool {
	return b == nil || *b
}
