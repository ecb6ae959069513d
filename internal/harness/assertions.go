package harness

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/covert/internal/loader"
	"github.com/roach88/covert/internal/serial"
	"github.com/roach88/covert/internal/track"
	"github.com/roach88/covert/internal/value"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Changes  []Change // Full change feed for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nChange feed:\n")
	if len(e.Changes) == 0 {
		fmt.Fprintf(&buf, "  (empty)\n")
	}
	for _, c := range e.Changes {
		fmt.Fprintf(&buf, "  [%d] %s\n", c.Seq, describe(c))
	}

	return buf.String()
}

// describe renders one change on a single line.
func describe(c Change) string {
	op := c.Op
	if c.Method != "" {
		op += "(" + c.Method + ")"
	}
	path := c.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("%s %s: %s -> %s", op, path, c.Old, c.New)
}

// EvaluateAssertions checks every assertion against the change feed and the
// final graph. root may be a wrapper or a raw value; it is read without
// going through the tracking context. Returns one message per failure.
func EvaluateAssertions(root value.Value, assertions []Assertion, changes []Change, funcs *value.FuncTable) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(root, a, changes, funcs); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err.Error()))
		}
	}
	return errs
}

func evaluate(root value.Value, a Assertion, changes []Change, funcs *value.FuncTable) error {
	switch a.Type {
	case AssertChangeEmitted:
		return assertChangeEmitted(changes, a, funcs)
	case AssertNoChange:
		return assertNoChange(changes, a)
	case AssertChangeCount:
		return assertChangeCount(changes, a)
	case AssertChangeOrder:
		return assertChangeOrder(changes, a)
	case AssertFinalValue:
		return assertFinalValue(root, changes, a, funcs)
	case AssertRoundTrip:
		return assertRoundTrip(root, changes, a, funcs)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertChangeEmitted checks that some event matches every field the
// assertion sets.
func assertChangeEmitted(changes []Change, a Assertion, funcs *value.FuncTable) error {
	var wantOld, wantNew string
	var err error
	if !isZero(&a.Old) {
		if wantOld, err = displayNode(&a.Old, funcs); err != nil {
			return err
		}
	}
	if !isZero(&a.New) {
		if wantNew, err = displayNode(&a.New, funcs); err != nil {
			return err
		}
	}

	for _, c := range changes {
		if a.Path != "" && c.Path != a.Path {
			continue
		}
		if a.Op != "" && c.Op != a.Op {
			continue
		}
		if a.Method != "" && c.Method != a.Method {
			continue
		}
		if !isZero(&a.Old) && c.Old != wantOld {
			continue
		}
		if !isZero(&a.New) && c.New != wantNew {
			continue
		}
		return nil
	}

	expected := fmt.Sprintf("change at %q", a.Path)
	if a.Op != "" {
		expected += " op " + a.Op
	}
	if a.Method != "" {
		expected += " method " + a.Method
	}
	if !isZero(&a.Old) {
		expected += " old " + wantOld
	}
	if !isZero(&a.New) {
		expected += " new " + wantNew
	}
	return &AssertionError{
		Type:     AssertChangeEmitted,
		Expected: expected,
		Actual:   "not found in change feed",
		Changes:  changes,
	}
}

// assertNoChange checks that nothing at or beneath path changed.
func assertNoChange(changes []Change, a Assertion) error {
	for _, c := range changes {
		if value.HasPathPrefix(c.Path, a.Path) {
			return &AssertionError{
				Type:     AssertNoChange,
				Expected: fmt.Sprintf("no change at or beneath %q", a.Path),
				Actual:   fmt.Sprintf("[%d] %s", c.Seq, describe(c)),
				Changes:  changes,
			}
		}
	}
	return nil
}

// assertChangeCount checks the number of events, under path when set.
func assertChangeCount(changes []Change, a Assertion) error {
	count := 0
	for _, c := range changes {
		if value.HasPathPrefix(c.Path, a.Path) {
			count++
		}
	}
	if count != *a.Count {
		scope := "in total"
		if a.Path != "" {
			scope = fmt.Sprintf("at or beneath %q", a.Path)
		}
		return &AssertionError{
			Type:     AssertChangeCount,
			Expected: fmt.Sprintf("%d changes %s", *a.Count, scope),
			Actual:   fmt.Sprintf("%d changes", count),
			Changes:  changes,
		}
	}
	return nil
}

// assertChangeOrder checks that the first event at each path occurs in the
// listed order. Other events may interleave.
func assertChangeOrder(changes []Change, a Assertion) error {
	positions := make(map[string]int)
	for i, c := range changes {
		if _, seen := positions[c.Path]; !seen {
			positions[c.Path] = i
		}
	}

	for _, p := range a.Paths {
		if _, ok := positions[p]; !ok {
			return &AssertionError{
				Type:     AssertChangeOrder,
				Expected: fmt.Sprintf("changes at all of %v", a.Paths),
				Actual:   fmt.Sprintf("no change at %q", p),
				Changes:  changes,
			}
		}
	}

	for i := 1; i < len(a.Paths); i++ {
		prev, curr := a.Paths[i-1], a.Paths[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertChangeOrder,
				Expected: fmt.Sprintf("changes in order: %v", a.Paths),
				Actual: fmt.Sprintf("%q (pos %d) should be before %q (pos %d)",
					prev, positions[prev]+1, curr, positions[curr]+1),
				Changes: changes,
			}
		}
	}
	return nil
}

// assertFinalValue checks the value at path structurally.
func assertFinalValue(root value.Value, changes []Change, a Assertion, funcs *value.FuncTable) error {
	want, err := loader.FromNode(&a.Expect, "expect", funcs)
	if err != nil {
		return err
	}
	got, err := walk(value.Unwrap(root), a.Path)
	if errors.Is(err, track.ErrPathNotFound) {
		// Absent properties read as undefined.
		got, err = value.Undefined{}, nil
	}
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s at %q", value.Display(want), a.Path),
			Actual:   err.Error(),
			Changes:  changes,
		}
	}
	if !value.Equal(got, want) {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s at %q", value.Display(want), a.Path),
			Actual:   value.Display(got),
			Changes:  changes,
		}
	}
	return nil
}

// assertRoundTrip encodes the final graph and checks the decoded copy is
// equal to it.
func assertRoundTrip(root value.Value, changes []Change, a Assertion, funcs *value.FuncTable) error {
	format, err := serial.ParseFormat(a.Format)
	if err != nil {
		return err
	}
	raw := value.Unwrap(root)
	blob, err := serial.Encode(raw, format)
	if err != nil {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: fmt.Sprintf("graph encodes as %s", format),
			Actual:   err.Error(),
			Changes:  changes,
		}
	}
	back, err := serial.Decode(blob, format, funcs)
	if err != nil {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: fmt.Sprintf("%s decodes", format),
			Actual:   err.Error(),
			Changes:  changes,
		}
	}
	if !value.Equal(raw, back) {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: value.Display(raw),
			Actual:   value.Display(back),
			Changes:  changes,
		}
	}
	return nil
}

func displayNode(n *yaml.Node, funcs *value.FuncTable) (string, error) {
	v, err := loader.FromNode(n, "assertion", funcs)
	if err != nil {
		return "", err
	}
	return value.Display(v), nil
}
