package value

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// RegExp is an immutable pattern with flags. It is compiled on first match;
// patterns outside RE2 syntax can still be stored and serialized.
type RegExp struct {
	source string
	flags  string

	once sync.Once
	re   *regexp.Regexp
	err  error
}

func (*RegExp) isValue() {}

// NewRegExp returns a pattern with the given source and flags.
func NewRegExp(source, flags string) *RegExp {
	return &RegExp{source: source, flags: flags}
}

// Source returns the pattern text.
func (r *RegExp) Source() string { return r.source }

// Flags returns the flag letters.
func (r *RegExp) Flags() string { return r.flags }

func (r *RegExp) String() string {
	return "/" + r.source + "/" + r.flags
}

// MatchString reports whether s contains a match.
func (r *RegExp) MatchString(s string) (bool, error) {
	r.once.Do(r.compile)
	if r.err != nil {
		return false, r.err
	}
	return r.re.MatchString(s), nil
}

func (r *RegExp) compile() {
	var mods strings.Builder
	for _, f := range r.flags {
		switch f {
		case 'i', 'm', 's':
			mods.WriteRune(f)
		}
	}
	expr := r.source
	if mods.Len() > 0 {
		expr = "(?" + mods.String() + ")" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		r.err = fmt.Errorf("compile %s: %w", r, err)
		return
	}
	r.re = re
}
