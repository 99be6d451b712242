package sources

import (
	"slices"

	"github.com/stacklok/showsync/internal/catalog"
)

// ChangeSet is the answer to a changed-since query.
//
// An Unknown set means the provider could not be asked and nothing can be
// concluded. A Known set lists exactly the series and episodes that changed,
// together with the provider's current time to use as the next watermark.
type ChangeSet struct {
	unknown bool

	// NewWatermark is the provider timestamp of this answer; 0 means "not reported"
	NewWatermark int64

	series   map[int64]struct{}
	episodes map[int64]map[catalog.EpisodeKey]struct{}
}

// Unknown returns a ChangeSet that carries no information
func Unknown() *ChangeSet {
	return &ChangeSet{unknown: true}
}

// NewKnown returns an empty Known ChangeSet with the given watermark
func NewKnown(newWatermark int64) *ChangeSet {
	return &ChangeSet{
		NewWatermark: newWatermark,
		series:       make(map[int64]struct{}),
		episodes:     make(map[int64]map[catalog.EpisodeKey]struct{}),
	}
}

// AddSeries marks a series as changed
func (c *ChangeSet) AddSeries(seriesID int64) {
	if c.unknown {
		return
	}
	c.series[seriesID] = struct{}{}
}

// AddEpisode marks an episode as changed
func (c *ChangeSet) AddEpisode(key catalog.EpisodeKey) {
	if c.unknown {
		return
	}
	keys, ok := c.episodes[key.SeriesID]
	if !ok {
		keys = make(map[catalog.EpisodeKey]struct{})
		c.episodes[key.SeriesID] = keys
	}
	keys[key] = struct{}{}
}

// IsUnknown reports whether the set carries no information
func (c *ChangeSet) IsUnknown() bool {
	return c == nil || c.unknown
}

// SeriesChanged reports whether the series itself is listed as changed.
// Unknown sets answer true: nothing can be ruled out.
func (c *ChangeSet) SeriesChanged(seriesID int64) bool {
	if c.IsUnknown() {
		return true
	}
	_, ok := c.series[seriesID]
	return ok
}

// EpisodesFor returns the changed episodes of a series in key order.
// Unknown sets list nothing.
func (c *ChangeSet) EpisodesFor(seriesID int64) []catalog.EpisodeKey {
	if c.IsUnknown() {
		return nil
	}
	keys := make([]catalog.EpisodeKey, 0, len(c.episodes[seriesID]))
	for key := range c.episodes[seriesID] {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, catalog.EpisodeKey.Compare)
	return keys
}

// SeriesIDs returns the changed series in ascending order
func (c *ChangeSet) SeriesIDs() []int64 {
	if c.IsUnknown() {
		return nil
	}
	ids := make([]int64, 0, len(c.series))
	for id := range c.series {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// EpisodeCount returns the number of changed episodes across all series
func (c *ChangeSet) EpisodeCount() int {
	if c.IsUnknown() {
		return 0
	}
	n := 0
	for _, keys := range c.episodes {
		n += len(keys)
	}
	return n
}

// ForSeries restricts the set to a single series. Unknown stays Unknown.
func (c *ChangeSet) ForSeries(seriesID int64) *ChangeSet {
	if c.IsUnknown() {
		return Unknown()
	}
	restricted := NewKnown(c.NewWatermark)
	if _, ok := c.series[seriesID]; ok {
		restricted.AddSeries(seriesID)
	}
	for key := range c.episodes[seriesID] {
		restricted.AddEpisode(key)
	}
	return restricted
}
