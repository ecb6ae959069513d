package loader

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/covert/internal/value"
)

func cartFixture() *value.Object {
	return value.ObjectOf(
		value.P("name", value.String("cart")),
		value.P("count", value.Int(2)),
		value.P("ratio", value.Float(0.5)),
		value.P("paid", value.Bool(false)),
		value.P("note", value.Null{}),
		value.P("items", value.NewArray(
			value.ObjectOf(value.P("sku", value.String("a-1")), value.P("qty", value.Int(1))),
			value.ObjectOf(value.P("sku", value.String("b-2")), value.P("qty", value.Int(3))),
		)),
	)
}

func TestLoad_AllFormatsAgree(t *testing.T) {
	want := cartFixture()

	for _, file := range []string{"cart.json", "cart.yaml", "cart.cue"} {
		t.Run(file, func(t *testing.T) {
			got, err := Load(filepath.Join("testdata", file), nil)
			require.NoError(t, err)
			assert.True(t, value.Equal(want, got), "got %s", value.Display(got))

			// Key order follows the document.
			obj, ok := got.(*value.Object)
			require.True(t, ok)
			assert.Equal(t, []string{"name", "count", "ratio", "paid", "note", "items"}, obj.Keys())
		})
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"a.json", FormatJSON},
		{"a.YAML", FormatYAML},
		{"dir/a.yml", FormatYAML},
		{"a.cue", FormatCUE},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := FormatOf("a.toml")
	assert.True(t, IsLoadError(err, ErrCodeFormat))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.True(t, IsLoadError(err, ErrCodeRead))
}

func TestParseJSON(t *testing.T) {
	t.Run("numbers", func(t *testing.T) {
		got, err := Parse([]byte(`[1, -2, 2.0, 1e3, 9223372036854775808]`), FormatJSON, "n.json", nil)
		require.NoError(t, err)
		arr := got.(*value.Array)
		assert.Equal(t, value.Int(1), arr.At(0))
		assert.Equal(t, value.Int(-2), arr.At(1))
		assert.Equal(t, value.Float(2), arr.At(2))
		assert.Equal(t, value.Float(1000), arr.At(3))
		assert.Equal(t, value.Float(9223372036854775808), arr.At(4))
	})

	t.Run("scalar document", func(t *testing.T) {
		got, err := Parse([]byte(`"hi"`), FormatJSON, "s.json", nil)
		require.NoError(t, err)
		assert.Equal(t, value.String("hi"), got)
	})

	t.Run("nested order", func(t *testing.T) {
		got, err := Parse([]byte(`{"z": {"b": 1, "a": 2}, "y": []}`), FormatJSON, "o.json", nil)
		require.NoError(t, err)
		obj := got.(*value.Object)
		assert.Equal(t, []string{"z", "y"}, obj.Keys())
		inner, _ := obj.Lookup("z")
		assert.Equal(t, []string{"b", "a"}, inner.(*value.Object).Keys())
	})

	errs := map[string]string{
		"empty":      ``,
		"truncated":  `{"a": 1`,
		"trailing":   `{"a": 1} x`,
		"bad token":  `{"a": tru}`,
		"bare word":  `nope`,
		"open array": `[1, 2`,
	}
	for name, doc := range errs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), FormatJSON, "bad.json", nil)
			require.Error(t, err)
			assert.True(t, IsLoadError(err, ErrCodeSyntax), "got %v", err)
		})
	}
}

func TestParseYAML_Tags(t *testing.T) {
	funcs := value.NewFuncTable().MustRegister("greet", func(value.Trackable, ...value.Value) (value.Value, error) {
		return value.String("hello"), nil
	})

	got, err := Load(filepath.Join("testdata", "tagged.yaml"), funcs)
	require.NoError(t, err)
	obj := got.(*value.Object)

	lookup := func(key string) value.Value {
		t.Helper()
		v, ok := obj.Lookup(key)
		require.True(t, ok, key)
		return v
	}

	when := lookup("when").(*value.Date)
	ms, ok := when.Millis()
	require.True(t, ok)
	assert.Equal(t, int64(1614816000000), ms)

	epoch, _ := lookup("epoch").(*value.Date).Millis()
	assert.Equal(t, int64(0), epoch)
	assert.False(t, lookup("broken").(*value.Date).Valid())

	re := lookup("pattern").(*value.RegExp)
	assert.Equal(t, "a+b", re.Source())
	assert.Equal(t, "gi", re.Flags())
	bare := lookup("bare").(*value.RegExp)
	assert.Equal(t, "x*", bare.Source())
	assert.Empty(t, bare.Flags())

	index := lookup("index").(*value.Map)
	one, ok := index.Lookup(value.Int(1))
	require.True(t, ok)
	assert.Equal(t, value.String("one"), one)
	two, ok := index.Lookup(value.String("two"))
	require.True(t, ok)
	assert.Equal(t, value.Int(2), two)

	pairs := lookup("pairs").(*value.Map)
	assert.Equal(t, 2, pairs.Len())
	assert.True(t, pairs.Has(value.Bool(true)))
	assert.True(t, pairs.Has(value.Null{}))

	tags := lookup("tags").(*value.Set)
	assert.Equal(t, 2, tags.Len())

	greet := lookup("greet").(*value.Function)
	assert.Equal(t, "greet", greet.Name())

	huge := lookup("huge").(value.BigInt)
	want, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	assert.Equal(t, 0, want.Cmp(huge.Big()))

	stamp := lookup("stamp").(*value.Date)
	tm, ok := stamp.Time()
	require.True(t, ok)
	assert.True(t, tm.Equal(time.Date(2001, 12, 14, 21, 59, 43, 0, time.UTC)))
}

func TestParseYAML_AliasesShareValues(t *testing.T) {
	doc := "left: &shared {id: 7}\nright: *shared\n"
	got, err := Parse([]byte(doc), FormatYAML, "alias.yaml", nil)
	require.NoError(t, err)

	obj := got.(*value.Object)
	left, _ := obj.Lookup("left")
	right, _ := obj.Lookup("right")
	assert.Same(t, left.(*value.Object), right.(*value.Object))
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code string
		path string
	}{
		{"empty", "", ErrCodeSyntax, ""},
		{"syntax", "a: [1, 2", ErrCodeSyntax, ""},
		{"unknown function", "f: !func missing\n", ErrCodeUnknownFunction, "f"},
		{"bad date", "d: !date tomorrow\n", ErrCodeSyntax, "d"},
		{"unknown tag", "x: !money 12\n", ErrCodeUnsupported, "x"},
		{"complex key", "? [1]\n: a\n", ErrCodeUnsupported, ""},
		{"merge key", "base: &b {a: 1}\nderived:\n  <<: *b\n", ErrCodeUnsupported, "derived"},
		{"bad pair", "m: !map\n  - [1]\n", ErrCodeUnsupported, "m.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), FormatYAML, "bad.yaml", nil)
			require.Error(t, err)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.code, le.Code, le.Error())
			assert.Equal(t, tt.path, le.Path)
			assert.Equal(t, "bad.yaml", le.File)
		})
	}
}

func TestParseCUE(t *testing.T) {
	t.Run("expressions are evaluated", func(t *testing.T) {
		doc := `
base: 40
total: base + 2
big: 123456789012345678901234567890
label: "n" + "m"
`
		got, err := Parse([]byte(doc), FormatCUE, "calc.cue", nil)
		require.NoError(t, err)
		obj := got.(*value.Object)
		assert.Equal(t, []string{"base", "total", "big", "label"}, obj.Keys())
		total, _ := obj.Lookup("total")
		assert.Equal(t, value.Int(42), total)
		label, _ := obj.Lookup("label")
		assert.Equal(t, value.String("nm"), label)
		huge, _ := obj.Lookup("big")
		assert.Equal(t, value.KindBigInt, value.KindOf(huge))
	})

	t.Run("incomplete", func(t *testing.T) {
		_, err := Parse([]byte("a: int\n"), FormatCUE, "open.cue", nil)
		require.Error(t, err)
		assert.True(t, IsLoadError(err, ErrCodeIncomplete), "got %v", err)
	})

	t.Run("syntax", func(t *testing.T) {
		_, err := Parse([]byte("a: {\n"), FormatCUE, "broken.cue", nil)
		require.Error(t, err)
		assert.True(t, IsLoadError(err, ErrCodeSyntax), "got %v", err)
	})

	t.Run("conflict", func(t *testing.T) {
		_, err := Parse([]byte("a: 1\na: 2\n"), FormatCUE, "conflict.cue", nil)
		require.Error(t, err)
		assert.True(t, IsLoadError(err, ""), "got %v", err)
	})
}

func TestLoadError_Format(t *testing.T) {
	err := &LoadError{Code: ErrCodeSyntax, File: "a.yaml", Line: 3, Column: 5, Path: "x.y", Message: "boom"}
	assert.Equal(t, `a.yaml:3:5: E203: at "x.y": boom`, err.Error())

	err = &LoadError{Code: ErrCodeRead, File: "a.json", Message: "missing"}
	assert.Equal(t, "a.json: E201: missing", err.Error())

	err = &LoadError{Code: ErrCodeFormat, Message: "nope"}
	assert.Equal(t, "E202: nope", err.Error())
}

func TestFromNode(t *testing.T) {
	var doc struct {
		Value yaml.Node `yaml:"value"`
		Gone  yaml.Node `yaml:"gone"`
		Empty yaml.Node `yaml:"empty"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("value: {a: !set [1, 2]}\ngone: !undefined\n"), &doc))

	v, err := FromNode(&doc.Value, "inline", nil)
	require.NoError(t, err)
	a, ok := v.(*value.Object).Lookup("a")
	require.True(t, ok)
	assert.Equal(t, 2, a.(*value.Set).Len())

	gone, err := FromNode(&doc.Gone, "inline", nil)
	require.NoError(t, err)
	assert.Equal(t, value.KindUndefined, value.KindOf(gone))

	_, err = FromNode(&doc.Empty, "inline", nil)
	assert.True(t, IsLoadError(err, ErrCodeSyntax))
}
