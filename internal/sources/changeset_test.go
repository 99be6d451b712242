package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stacklok/showsync/internal/catalog"
)

func TestChangeSet_Unknown(t *testing.T) {
	t.Parallel()

	for name, cs := range map[string]*ChangeSet{"constructor": Unknown(), "nil": nil} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, cs.IsUnknown())
			assert.True(t, cs.SeriesChanged(1), "unknown rules nothing out")
			assert.Empty(t, cs.EpisodesFor(1))
			assert.Empty(t, cs.SeriesIDs())
			assert.Zero(t, cs.EpisodeCount())
			assert.True(t, cs.ForSeries(1).IsUnknown())
		})
	}

	u := Unknown()
	u.AddSeries(5)
	u.AddEpisode(catalog.EpisodeKey{SeriesID: 5, Season: 1, Number: 1})
	assert.True(t, u.IsUnknown())
}

func TestChangeSet_Known(t *testing.T) {
	t.Parallel()

	cs := NewKnown(1000)
	cs.AddSeries(3)
	cs.AddSeries(1)
	cs.AddEpisode(catalog.EpisodeKey{SeriesID: 1, Season: 2, Number: 1})
	cs.AddEpisode(catalog.EpisodeKey{SeriesID: 1, Season: 1, Number: 5})
	cs.AddEpisode(catalog.EpisodeKey{SeriesID: 1, Season: 1, Number: 5})
	cs.AddEpisode(catalog.EpisodeKey{SeriesID: 9, Season: 1, Number: 1})

	assert.False(t, cs.IsUnknown())
	assert.Equal(t, []int64{1, 3}, cs.SeriesIDs())
	assert.True(t, cs.SeriesChanged(3))
	assert.False(t, cs.SeriesChanged(9), "an episode change does not mark its series")
	assert.Equal(t, 3, cs.EpisodeCount())
	assert.Equal(t, []catalog.EpisodeKey{
		{SeriesID: 1, Season: 1, Number: 5},
		{SeriesID: 1, Season: 2, Number: 1},
	}, cs.EpisodesFor(1))
	assert.Empty(t, cs.EpisodesFor(3))
}

func TestChangeSet_ForSeries(t *testing.T) {
	t.Parallel()

	cs := NewKnown(77)
	cs.AddSeries(1)
	cs.AddSeries(2)
	cs.AddEpisode(catalog.EpisodeKey{SeriesID: 2, Season: 1, Number: 1})
	cs.AddEpisode(catalog.EpisodeKey{SeriesID: 3, Season: 1, Number: 1})

	only2 := cs.ForSeries(2)
	assert.Equal(t, int64(77), only2.NewWatermark)
	assert.Equal(t, []int64{2}, only2.SeriesIDs())
	assert.Equal(t, 1, only2.EpisodeCount())

	only3 := cs.ForSeries(3)
	assert.False(t, only3.SeriesChanged(3))
	assert.Len(t, only3.EpisodesFor(3), 1)

	none := cs.ForSeries(4)
	assert.False(t, none.IsUnknown())
	assert.False(t, none.SeriesChanged(4))
	assert.Empty(t, none.EpisodesFor(4))
}

func TestErrors(t *testing.T) {
	t.Parallel()

	pe := &ParseError{Field: "time", Err: assert.AnError}
	assert.ErrorIs(t, pe, assert.AnError)
	assert.Contains(t, pe.Error(), `field "time"`)

	key := catalog.EpisodeKey{SeriesID: 4, Season: 1, Number: 2}
	fe := &FetchError{SeriesID: 4, Episode: &key, Err: assert.AnError}
	assert.ErrorIs(t, fe, assert.AnError)
	assert.Contains(t, fe.Error(), "4/S01E02")

	fe = &FetchError{SeriesID: 4, Err: assert.AnError}
	assert.Contains(t, fe.Error(), "series 4")
}
