package filtering

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stacklok/showsync/internal/catalog"
)

// Criteria selects series by name and genre
type Criteria struct {
	NameInclude  []string
	NameExclude  []string
	GenreInclude []string
	GenreExclude []string
}

// IsEmpty reports whether the criteria admit every series
func (c *Criteria) IsEmpty() bool {
	return c == nil ||
		len(c.NameInclude) == 0 && len(c.NameExclude) == 0 &&
			len(c.GenreInclude) == 0 && len(c.GenreExclude) == 0
}

// Validate checks that every name pattern compiles
func (c *Criteria) Validate() error {
	if c == nil {
		return nil
	}
	if err := ValidatePatterns(c.NameInclude); err != nil {
		return err
	}
	return ValidatePatterns(c.NameExclude)
}

// FilterService applies Criteria to a list of series
type FilterService interface {
	// Apply returns the series matching criteria, preserving order.
	// Nil or empty criteria return series unchanged.
	Apply(ctx context.Context, series []catalog.Series, criteria *Criteria) ([]catalog.Series, error)
}

type defaultFilterService struct {
	nameFilter  NameFilter
	genreFilter GenreFilter
}

// NewDefaultFilterService creates a FilterService with the default filters
func NewDefaultFilterService() FilterService {
	return NewFilterService(NewDefaultNameFilter(), NewDefaultGenreFilter())
}

// NewFilterService creates a FilterService with custom filters
func NewFilterService(nameFilter NameFilter, genreFilter GenreFilter) FilterService {
	return &defaultFilterService{
		nameFilter:  nameFilter,
		genreFilter: genreFilter,
	}
}

func (s *defaultFilterService) Apply(
	ctx context.Context, series []catalog.Series, criteria *Criteria,
) ([]catalog.Series, error) {
	if criteria.IsEmpty() {
		return series, nil
	}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	matched := make([]catalog.Series, 0, len(series))
	for _, candidate := range series {
		included, reason := s.shouldInclude(candidate, criteria)
		if !included {
			slog.DebugContext(ctx, "Series filtered out", "series_id", candidate.ID, "reason", reason)
			continue
		}
		matched = append(matched, candidate)
	}

	slog.DebugContext(ctx, "Series filter applied",
		"candidates", len(series),
		"matched", len(matched))
	return matched, nil
}

// shouldInclude requires both the name and the genre filter to pass
func (s *defaultFilterService) shouldInclude(series catalog.Series, c *Criteria) (bool, string) {
	ok, reason := s.nameFilter.ShouldInclude(series.Name, c.NameInclude, c.NameExclude)
	if !ok {
		return false, fmt.Sprintf("name filter: %s", reason)
	}
	ok, reason = s.genreFilter.ShouldInclude(series.Genres, c.GenreInclude, c.GenreExclude)
	if !ok {
		return false, fmt.Sprintf("genre filter: %s", reason)
	}
	return true, ""
}
