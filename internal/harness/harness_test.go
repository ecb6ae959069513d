package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covert/internal/testutil"
	"github.com/roach88/covert/internal/value"
)

func parse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func TestGoldenScenarios(t *testing.T) {
	for _, name := range []string{"cart_edits", "collections", "shared_refs"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "collections.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := NewSnapshot(scenario.Name, first).Marshal()
	require.NoError(t, err)
	b, err := NewSnapshot(scenario.Name, second).Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, int64(1), first.Changes[0].Seq)
}

func TestRun_ExtraObserver(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "cart_edits.yaml"))
	require.NoError(t, err)

	rec := &testutil.Recorder{}
	result, err := Run(scenario, WithObserver(rec.Observe))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, []string{"items.0.qty", "paid", "note", "items.2", "count"}, rec.Paths())
	require.Len(t, rec.Changes(), len(result.Changes))
	for i, c := range rec.Changes() {
		assert.Equal(t, result.Changes[i].Seq, c.Seq)
		assert.Equal(t, result.Changes[i].New, c.New)
	}
}

func TestRun_UnexpectedStepErrorStops(t *testing.T) {
	s := parse(t, `
name: stops
description: "first failure ends the steps"
root: {a: 1, nested: {b: 2}}
steps:
  - op: set
    path: missing.b
    value: 1
  - op: set
    path: a
    value: 2
assertions:
  - type: change_count
    count: 0
`)
	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `steps[0] set "missing.b"`)
	assert.Contains(t, result.Errors[0], "path not found")
	assert.Empty(t, result.Changes)
	assert.Equal(t, `{a: 1, nested: {b: 2}}`, result.Final)
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	s := parse(t, `
name: no_error
description: "a step marked as failing must fail"
root: {a: 1}
steps:
  - op: set
    path: a
    value: 2
    error: not writable
assertions:
  - type: change_count
    count: 1
`)
	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected error containing "not writable", got none`)
}

func TestRun_ExpectedErrorMismatch(t *testing.T) {
	s := parse(t, `
name: wrong_error
description: "the error text must match"
root: {a: 1}
steps:
  - op: call
    path: a
    method: push
    error: graph is not a tree
assertions:
  - type: change_count
    count: 0
`)
	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "not a container")
}

func TestRun_KeyNode(t *testing.T) {
	s := parse(t, `
name: key_node
description: "a key node addresses array indices and odd keys"
root: {list: [a, b], "x.y": 1}
steps:
  - op: set
    path: list
    key: 1
    value: c
  - op: delete
    key: x.y
assertions:
  - type: change_emitted
    path: list.1
    old: b
    new: c
  - type: change_emitted
    path: x.y
    op: delete
  - type: final_value
    path: list
    expect: [a, c]
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, `{list: ["a", "c"]}`, result.Final)
}

func TestRun_UncoverStopsEvents(t *testing.T) {
	s := parse(t, `
name: uncover
description: "writes after uncover are silent"
root: {a: 1, tags: !set [x]}
steps:
  - op: set
    path: a
    value: 2
  - op: uncover
  - op: uncover
  - op: set
    path: a
    value: 3
  - op: call
    path: tags
    method: add
    args: [y]
assertions:
  - type: change_count
    count: 1
  - type: final_value
    path: a
    expect: 3
  - type: final_value
    path: tags
    expect: !set [x, y]
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_AssertionFailuresReported(t *testing.T) {
	s := parse(t, `
name: failing
description: "every failing assertion is reported"
root: {a: 1, b: 1}
steps:
  - op: set
    path: b
    value: 2
  - op: set
    path: a
    value: 2
assertions:
  - type: change_emitted
    path: a
    new: 3
  - type: no_change
    path: a
  - type: change_count
    count: 5
  - type: change_order
    paths: [a, b]
  - type: final_value
    path: b
    expect: 9
  - type: change_count
    path: b
    count: 1
`)
	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "assertions[0]: Assertion failed: change_emitted")
	assert.Contains(t, result.Errors[0], `change at "a" new 3`)
	assert.Contains(t, result.Errors[1], "[2] set a: 1 -> 2")
	assert.Contains(t, result.Errors[2], "Actual: 2 changes")
	assert.Contains(t, result.Errors[3], `"a" (pos 2) should be before "b" (pos 1)`)
	assert.Contains(t, result.Errors[4], `Expected: 9 at "b"`)
}

func TestRun_StartFailures(t *testing.T) {
	t.Run("unknown function", func(t *testing.T) {
		s := parse(t, `
name: bad_func
description: "unknown !func fails before any step"
root: {f: !func nope}
assertions:
  - type: change_count
    count: 0
`)
		_, err := Run(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load root")
		assert.Contains(t, err.Error(), `function "nope" is not registered`)
	})

	t.Run("custom funcs", func(t *testing.T) {
		s := parse(t, `
name: custom
description: "WithFuncs replaces the default table"
root: {count: 1, f: !func twice}
steps:
  - op: call
    method: f
assertions:
  - type: final_value
    path: count
    expect: 2
`)
		funcs := value.NewFuncTable().MustRegister("twice", func(this value.Trackable, _ ...value.Value) (value.Value, error) {
			n, err := this.Get(value.String("count"))
			if err != nil {
				return nil, err
			}
			return nil, this.Set(value.String("count"), n.(value.Int)*2)
		})
		result, err := Run(s, WithFuncs(funcs))
		require.NoError(t, err)
		assert.True(t, result.Pass, "errors: %v", result.Errors)
	})
}

func TestLoadScenario(t *testing.T) {
	t.Run("resolves document against scenario dir", func(t *testing.T) {
		s, err := LoadScenario(filepath.Join("testdata", "scenarios", "cart_edits.yaml"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("testdata", "scenarios", "cart.json"), s.documentPath())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadScenario(filepath.Join("testdata", "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read scenario file")
	})

	t.Run("missing document", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "s.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
name: x
description: "x"
document: gone.json
assertions:
  - type: change_count
    count: 0
`), 0o644))
		_, err := LoadScenario(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "document not found")
	})
}

func TestParseScenario_Invalid(t *testing.T) {
	const tail = `
assertions:
  - type: change_count
    count: 0
`
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown field", "name: x\ndescription: x\nroot: {}\nassertion: []\n", "field assertion not found"},
		{"missing name", "description: x\nroot: {}" + tail, "name is required"},
		{"missing description", "name: x\nroot: {}" + tail, "description is required"},
		{"no root", "name: x\ndescription: x" + tail, "one of document or root is required"},
		{"both roots", "name: x\ndescription: x\ndocument: a.json\nroot: {}" + tail, "mutually exclusive"},
		{"no assertions", "name: x\ndescription: x\nroot: {}\n", "assertions list is required"},
		{"unknown op", "name: x\ndescription: x\nroot: {}\nsteps: [{op: poke}]" + tail, `steps[0]: unknown op "poke"`},
		{"missing op", "name: x\ndescription: x\nroot: {}\nsteps: [{path: a}]" + tail, "steps[0]: op is required"},
		{"set without value", "name: x\ndescription: x\nroot: {}\nsteps: [{op: set, path: a}]" + tail, "value is required for set"},
		{"delete without path", "name: x\ndescription: x\nroot: {}\nsteps: [{op: delete}]" + tail, "path or key is required for delete"},
		{"call without method", "name: x\ndescription: x\nroot: {}\nsteps: [{op: call, path: a}]" + tail, "method is required for call"},
		{"unknown assertion", "name: x\ndescription: x\nroot: {}\nassertions: [{type: nope}]\n", `unknown assertion type "nope"`},
		{"count missing", "name: x\ndescription: x\nroot: {}\nassertions: [{type: change_count}]\n", "count is required"},
		{"count negative", "name: x\ndescription: x\nroot: {}\nassertions: [{type: change_count, count: -1}]\n", "count must be non-negative"},
		{"short order", "name: x\ndescription: x\nroot: {}\nassertions: [{type: change_order, paths: [a]}]\n", "at least two paths"},
		{"final without expect", "name: x\ndescription: x\nroot: {}\nassertions: [{type: final_value, path: a}]\n", "expect is required"},
		{"bad format", "name: x\ndescription: x\nroot: {}\nassertions: [{type: round_trip, format: xml}]\n", `unknown format "xml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDefaultFuncs(t *testing.T) {
	funcs := DefaultFuncs()
	assert.Equal(t, []string{"greet", "increment", "rename"}, funcs.Names())

	obj := value.ObjectOf(value.P("name", value.String("Ada")), value.P("count", value.Float(0.5)))

	inc, ok := funcs.Lookup("increment")
	require.True(t, ok)
	out, err := inc(obj)
	require.NoError(t, err)
	assert.Equal(t, value.Float(1.5), out)

	_, err = inc(obj, value.NewObject())
	require.ErrorIs(t, err, value.ErrUnsupported)

	rn, _ := funcs.Lookup("rename")
	prev, err := rn(obj, value.String("Grace"))
	require.NoError(t, err)
	assert.Equal(t, value.String("Ada"), prev)
	_, err = rn(obj)
	require.Error(t, err)

	greetFn, _ := funcs.Lookup("greet")
	hello, err := greetFn(obj)
	require.NoError(t, err)
	assert.Equal(t, value.String("hello, Grace"), hello)
}

func TestAssertionError_Error(t *testing.T) {
	err := &AssertionError{
		Type:     AssertNoChange,
		Expected: `no change at or beneath "a"`,
		Actual:   "[1] set a: 1 -> 2",
		Changes: []Change{
			{Seq: 1, Op: "set", Path: "a", Old: "1", New: "2"},
			{Seq: 2, Op: "add", Path: "", Method: "add", Old: "undefined", New: `"x"`},
		},
	}
	lines := strings.Split(err.Error(), "\n")
	assert.Equal(t, []string{
		"Assertion failed: no_change",
		`  Expected: no change at or beneath "a"`,
		"  Actual: [1] set a: 1 -> 2",
		"",
		"Change feed:",
		"  [1] set a: 1 -> 2",
		`  [2] add(add) <root>: undefined -> "x"`,
		"",
	}, lines)

	empty := &AssertionError{Type: AssertChangeCount, Expected: "1", Actual: "0"}
	assert.Contains(t, empty.Error(), "(empty)")
}
