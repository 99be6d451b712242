package filtering

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// NameFilter matches series names against glob patterns
type NameFilter interface {
	// ShouldInclude reports whether name passes the include and exclude patterns, with the reason
	ShouldInclude(name string, include, exclude []string) (bool, string)
}

type defaultNameFilter struct{}

var _ NameFilter = (*defaultNameFilter)(nil)

// NewDefaultNameFilter creates the glob based NameFilter
func NewDefaultNameFilter() NameFilter {
	return &defaultNameFilter{}
}

// compilePattern compiles a case-insensitive glob. Without separators '*' spans any character.
func compilePattern(pattern string) (glob.Glob, error) {
	compiled, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid name pattern %q: %w", pattern, err)
	}
	return compiled, nil
}

// ValidatePatterns reports the first pattern that does not compile
func ValidatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if _, err := compilePattern(pattern); err != nil {
			return err
		}
	}
	return nil
}

func matchAny(patterns []string, name string) (string, bool, error) {
	name = strings.ToLower(name)
	for _, pattern := range patterns {
		compiled, err := compilePattern(pattern)
		if err != nil {
			return "", false, err
		}
		if compiled.Match(name) {
			return pattern, true, nil
		}
	}
	return "", false, nil
}

// ShouldInclude implements NameFilter. Invalid patterns exclude the series.
func (*defaultNameFilter) ShouldInclude(name string, include, exclude []string) (bool, string) {
	pattern, matched, err := matchAny(exclude, name)
	if err != nil {
		return false, err.Error()
	}
	if matched {
		return false, fmt.Sprintf("excluded by pattern '%s'", pattern)
	}

	if len(include) == 0 {
		return true, "no name include patterns"
	}
	pattern, matched, err = matchAny(include, name)
	switch {
	case err != nil:
		return false, err.Error()
	case matched:
		return true, fmt.Sprintf("included by pattern '%s'", pattern)
	default:
		return false, fmt.Sprintf("no match in include patterns %v", include)
	}
}
