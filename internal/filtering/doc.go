// Package filtering narrows catalog listings by series name and genre.
//
// Both dimensions take include and exclude lists, and exclude always wins:
//
//   - Names are matched with glob patterns ("star*", "*trek*", "the ?ffice").
//     A '*' matches across any character, spaces and slashes included, and
//     matching ignores case.
//   - Genres are matched exactly, ignoring case. A series passes the include
//     list when any of its genres is listed.
//
// An empty include list admits everything that is not excluded. A series
// must pass both the name and the genre filter to be listed.
//
// Example:
//
//	criteria := &filtering.Criteria{
//		NameInclude:  []string{"star*"},
//		GenreExclude: []string{"Animation"},
//	}
//	matched, err := filtering.NewDefaultFilterService().Apply(ctx, series, criteria)
package filtering
