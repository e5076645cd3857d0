package patternmatch

import "strings"

// Predicate decides whether a relative path is selected.
//
// Force includes win over everything. Otherwise a path must match at least
// one include (when any are configured) and no exclude.
type Predicate struct {
	includes      []*Pattern
	excludes      []*Pattern
	forceIncludes []*Pattern
}

// NewPredicate compiles the three pattern lists.
func NewPredicate(includes, excludes, forceIncludes []string) (*Predicate, error) {
	inc, err := compileAll(includes)
	if err != nil {
		return nil, err
	}
	exc, err := compileAll(excludes)
	if err != nil {
		return nil, err
	}
	force, err := compileAll(forceIncludes)
	if err != nil {
		return nil, err
	}
	return &Predicate{includes: inc, excludes: exc, forceIncludes: force}, nil
}

// Matches evaluates the predicate against relpath.
func (p *Predicate) Matches(relpath string) bool {
	if matchAny(p.forceIncludes, relpath) {
		return true
	}
	if len(p.includes) > 0 && !matchAny(p.includes, relpath) {
		return false
	}
	return !matchAny(p.excludes, relpath)
}

func matchAny(patterns []*Pattern, relpath string) bool {
	for _, p := range patterns {
		if p.Matches(relpath) {
			return true
		}
	}
	return false
}

// String lists the source globs, e.g. "include=[lib/**] exclude=[**/*.a] force=[]".
func (p *Predicate) String() string {
	return "include=" + globList(p.includes) + " exclude=" + globList(p.excludes) + " force=" + globList(p.forceIncludes)
}

func globList(patterns []*Pattern) string {
	globs := make([]string, len(patterns))
	for i, p := range patterns {
		globs[i] = p.String()
	}
	return "[" + strings.Join(globs, " ") + "]"
}
