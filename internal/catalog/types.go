// Package catalog holds the local TV catalog domain model: series, their
// episodes, and the per-series locking used while updates are applied.
package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Series is a TV series tracked in the local catalog.
// ID is the provider identifier and never changes once assigned.
type Series struct {
	ID         int64
	Name       string
	Overview   string
	Network    string
	Status     string
	FirstAired time.Time
	Runtime    int
	Genres     []string

	// UpdatedAt is the local time of the last persisted change.
	UpdatedAt time.Time
}

// EpisodeKey identifies an episode within the catalog.
// (Season, Number) is unique per series.
type EpisodeKey struct {
	SeriesID int64
	Season   int
	Number   int
}

// String returns the key as "<series>/S<season>E<number>"
func (k EpisodeKey) String() string {
	return fmt.Sprintf("%d/S%02dE%02d", k.SeriesID, k.Season, k.Number)
}

// Compare orders keys by series, season and episode number.
func (k EpisodeKey) Compare(other EpisodeKey) int {
	return cmp.Or(
		cmp.Compare(k.SeriesID, other.SeriesID),
		cmp.Compare(k.Season, other.Season),
		cmp.Compare(k.Number, other.Number),
	)
}

// Episode is a single episode of a series.
type Episode struct {
	EpisodeKey

	// RemoteID is the provider identifier of the episode, 0 when unknown.
	RemoteID int64
	Name     string
	Overview string

	// AirDate is the original air date; the zero value means unknown.
	AirDate time.Time

	UpdatedAt time.Time
}

// SortEpisodes orders episodes by key in place.
func SortEpisodes(episodes []Episode) {
	slices.SortFunc(episodes, func(a, b Episode) int {
		return a.EpisodeKey.Compare(b.EpisodeKey)
	})
}

// DiffSeries returns the names of the mutable fields that differ between
// the stored series and a remote snapshot. A nil stored series differs in every field.
func DiffSeries(stored *Series, snapshot *Series) []string {
	if stored == nil {
		return []string{"*"}
	}

	var changed []string
	if stored.Name != snapshot.Name {
		changed = append(changed, "name")
	}
	if stored.Overview != snapshot.Overview {
		changed = append(changed, "overview")
	}
	if stored.Network != snapshot.Network {
		changed = append(changed, "network")
	}
	if stored.Status != snapshot.Status {
		changed = append(changed, "status")
	}
	if !sameDay(stored.FirstAired, snapshot.FirstAired) {
		changed = append(changed, "firstAired")
	}
	if stored.Runtime != snapshot.Runtime {
		changed = append(changed, "runtime")
	}
	if !slices.Equal(stored.Genres, snapshot.Genres) {
		changed = append(changed, "genres")
	}
	return changed
}

// DiffEpisode is the episode counterpart of DiffSeries.
func DiffEpisode(stored *Episode, snapshot *Episode) []string {
	if stored == nil {
		return []string{"*"}
	}

	var changed []string
	if stored.RemoteID != snapshot.RemoteID && snapshot.RemoteID != 0 {
		changed = append(changed, "remoteId")
	}
	if stored.Name != snapshot.Name {
		changed = append(changed, "name")
	}
	if stored.Overview != snapshot.Overview {
		changed = append(changed, "overview")
	}
	if !sameDay(stored.AirDate, snapshot.AirDate) {
		changed = append(changed, "airDate")
	}
	return changed
}

// sameDay compares dates at day granularity, which is all the provider reports.
func sameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() == b.IsZero()
	}
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
