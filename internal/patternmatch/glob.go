package patternmatch

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// Pattern is a compiled recursive glob. It is safe for concurrent use.
//
// Supported syntax:
//   - "**/" at the start matches any (possibly empty) leading directories
//   - "/**/" in the middle matches any (possibly empty) run of directories
//   - "/**" at the end matches the directory itself and everything below it
//   - "*" and "?" match zero or more characters within one path segment
//
// "?" is not a single-character wildcard. Existing pattern lists rely on it
// behaving exactly like "*".
type Pattern struct {
	glob string
	re   *regexp.Regexp
}

// Compile translates glob into a Pattern. Substitutions are applied in a
// fixed order on the escaped glob so later steps never see text produced by
// earlier ones.
func Compile(glob string) (*Pattern, error) {
	expr := "^" + regexp.QuoteMeta(glob) + "$"
	expr = strings.ReplaceAll(expr, `/\*\*/`, "/(.*/)?")
	if strings.HasPrefix(expr, `^\*\*/`) {
		expr = "^(.*/)?" + strings.TrimPrefix(expr, `^\*\*/`)
	}
	if strings.HasSuffix(expr, `/\*\*$`) {
		expr = strings.TrimSuffix(expr, `/\*\*$`) + "(/.*)?$"
	}
	expr = strings.ReplaceAll(expr, `\*`, "[^/]*")
	expr = strings.ReplaceAll(expr, `\?`, "[^/]*")

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPattern, "%q: %v", glob, err)
	}
	return &Pattern{glob: glob, re: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(glob string) *Pattern {
	p, err := Compile(glob)
	if err != nil {
		panic(err)
	}
	return p
}

// Matches reports whether relpath, a forward-slash path relative to the
// scanned root, matches the whole pattern.
func (p *Pattern) Matches(relpath string) bool {
	return p.re.MatchString(relpath)
}

// String returns the source glob.
func (p *Pattern) String() string {
	return p.glob
}

func compileAll(globs []string) ([]*Pattern, error) {
	if len(globs) == 0 {
		return nil, nil
	}
	patterns := make([]*Pattern, 0, len(globs))
	for _, g := range globs {
		p, err := Compile(g)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}
