package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/covert/internal/loader"
	"github.com/roach88/covert/internal/serial"
	"github.com/roach88/covert/internal/value"
)

// Scenario defines one change-tracking test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is a .json, .yaml or .cue file holding the root value.
	// Relative paths resolve against the scenario file's directory.
	Document string `yaml:"document,omitempty"`

	// Root is an inline root value. Exactly one of Document and Root is set.
	Root yaml.Node `yaml:"root,omitempty"`

	// Steps are applied in order through the tracking wrappers.
	Steps []Step `yaml:"steps"`

	// Assertions validate the change feed and the final graph.
	Assertions []Assertion `yaml:"assertions"`

	// Dir is the directory Document resolves against. LoadScenario sets it
	// to the scenario file's directory.
	Dir string `yaml:"-"`
}

// Step is one mutation.
type Step struct {
	// Op is one of set, delete, define, call, uncover.
	Op string `yaml:"op"`

	// Path addresses the mutated location (set, delete, define) or the
	// called value (call).
	Path string `yaml:"path,omitempty"`

	// Key, when present, is the key to mutate and Path names its container.
	Key yaml.Node `yaml:"key,omitempty"`

	// Value is the value written by set and define.
	Value yaml.Node `yaml:"value,omitempty"`

	// Method and Args describe a call.
	Method string      `yaml:"method,omitempty"`
	Args   []yaml.Node `yaml:"args,omitempty"`

	// Descriptor attributes for define; each defaults to true.
	Writable     *bool `yaml:"writable,omitempty"`
	Enumerable   *bool `yaml:"enumerable,omitempty"`
	Configurable *bool `yaml:"configurable,omitempty"`

	// Error, when set, is text the step's error must contain. The step
	// must fail.
	Error string `yaml:"error,omitempty"`
}

// Step op constants.
const (
	OpSet     = "set"
	OpDelete  = "delete"
	OpDefine  = "define"
	OpCall    = "call"
	OpUncover = "uncover"
)

// Assertion validates the change feed or the final graph.
type Assertion struct {
	// Type specifies the assertion type:
	// - "change_emitted": an event at Path exists
	// - "no_change": no event at Path or beneath it
	// - "change_count": exactly Count events, under Path when set
	// - "change_order": first events at Paths occur in order
	// - "final_value": the graph holds Expect at Path
	// - "round_trip": the graph survives serialization in Format
	Type string `yaml:"type"`

	Path string `yaml:"path,omitempty"`

	// Op and Method narrow change_emitted.
	Op     string `yaml:"op,omitempty"`
	Method string `yaml:"method,omitempty"`

	// Old and New narrow change_emitted by value.
	Old yaml.Node `yaml:"old,omitempty"`
	New yaml.Node `yaml:"new,omitempty"`

	// Count is the expected number of events (change_count).
	Count *int `yaml:"count,omitempty"`

	// Paths is the expected order (change_order).
	Paths []string `yaml:"paths,omitempty"`

	// Expect is the expected final value (final_value).
	Expect yaml.Node `yaml:"expect,omitempty"`

	// Format is json (default) or yaml (round_trip).
	Format string `yaml:"format,omitempty"`
}

// Assertion type constants.
const (
	AssertChangeEmitted = "change_emitted"
	AssertNoChange      = "no_change"
	AssertChangeCount   = "change_count"
	AssertChangeOrder   = "change_order"
	AssertFinalValue    = "final_value"
	AssertRoundTrip     = "round_trip"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.Dir = filepath.Dir(path)

	if scenario.Document != "" {
		doc := scenario.documentPath()
		if _, err := os.Stat(doc); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: document not found: %s", doc)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML held in memory. Document paths resolve
// against the working directory unless Dir is set afterwards.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// documentPath resolves Document against Dir.
func (s *Scenario) documentPath() string {
	if filepath.IsAbs(s.Document) || s.Dir == "" {
		return s.Document
	}
	return filepath.Join(s.Dir, s.Document)
}

// loadRoot builds the raw root value.
func (s *Scenario) loadRoot(funcs *value.FuncTable) (value.Value, error) {
	if s.Document != "" {
		return loader.Load(s.documentPath(), funcs)
	}
	return loader.FromNode(&s.Root, s.Name, funcs)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	hasRoot := !isZero(&s.Root)
	switch {
	case s.Document == "" && !hasRoot:
		return fmt.Errorf("one of document or root is required")
	case s.Document != "" && hasRoot:
		return fmt.Errorf("document and root are mutually exclusive")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its op.
func validateStep(index int, st *Step) error {
	switch st.Op {
	case OpSet, OpDefine:
		if isZero(&st.Value) {
			return fmt.Errorf("steps[%d]: value is required for %s", index, st.Op)
		}
		fallthrough
	case OpDelete:
		if st.Path == "" && isZero(&st.Key) {
			return fmt.Errorf("steps[%d]: path or key is required for %s", index, st.Op)
		}
	case OpCall:
		if st.Method == "" {
			return fmt.Errorf("steps[%d]: method is required for call", index)
		}
	case OpUncover:
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertChangeEmitted:
		if a.Path == "" && a.Op == "" {
			return fmt.Errorf("assertions[%d]: path or op is required for change_emitted", index)
		}
	case AssertNoChange:
	case AssertChangeCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for change_count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for change_count", index)
		}
	case AssertChangeOrder:
		if len(a.Paths) < 2 {
			return fmt.Errorf("assertions[%d]: at least two paths are required for change_order", index)
		}
	case AssertFinalValue:
		if isZero(&a.Expect) {
			return fmt.Errorf("assertions[%d]: expect is required for final_value", index)
		}
	case AssertRoundTrip:
		if _, err := serial.ParseFormat(a.Format); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// isZero reports whether an optional node was absent from the YAML.
func isZero(n *yaml.Node) bool {
	return n.Kind == 0
}
