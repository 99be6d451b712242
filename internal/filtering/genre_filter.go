package filtering

import (
	"fmt"
	"strings"
)

// GenreFilter matches series genres against genre lists
type GenreFilter interface {
	// ShouldInclude reports whether genres pass the include and exclude lists, with the reason
	ShouldInclude(genres []string, include, exclude []string) (bool, string)
}

// DefaultGenreFilter compares genres exactly, ignoring case
type DefaultGenreFilter struct{}

// NewDefaultGenreFilter creates a DefaultGenreFilter
func NewDefaultGenreFilter() *DefaultGenreFilter {
	return &DefaultGenreFilter{}
}

func firstShared(genres, list []string) (string, bool) {
	for _, genre := range genres {
		for _, candidate := range list {
			if strings.EqualFold(genre, candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

// ShouldInclude implements GenreFilter
func (*DefaultGenreFilter) ShouldInclude(genres []string, include, exclude []string) (bool, string) {
	if genre, ok := firstShared(genres, exclude); ok {
		return false, fmt.Sprintf("excluded by genre '%s'", genre)
	}
	if len(include) == 0 {
		return true, "no genre include list"
	}
	if genre, ok := firstShared(genres, include); ok {
		return true, fmt.Sprintf("included by genre '%s'", genre)
	}
	return false, fmt.Sprintf("no genre in include list %v (series genres: %v)", include, genres)
}
