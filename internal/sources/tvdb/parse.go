package tvdb

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/sources"
)

const dateLayout = "2006-01-02"

// parseChanges decodes an /updates response:
//
//	{"time": 1700000000, "series": [1, 2], "episodes": [{"id": 9, "seriesId": 1, "season": 1, "episode": 2}]}
//
// A missing or non-numeric time is a ParseError. Missing or malformed lists
// make the whole answer Unknown.
func parseChanges(body []byte) (*sources.ChangeSet, error) {
	if !gjson.ValidBytes(body) {
		return nil, &sources.ParseError{Err: errors.New("response is not valid JSON")}
	}
	root := gjson.ParseBytes(body)

	ts := root.Get("time")
	if !ts.Exists() {
		return nil, &sources.ParseError{Field: "time", Err: errors.New("missing")}
	}
	if ts.Type != gjson.Number || ts.Int() < 0 {
		return nil, &sources.ParseError{Field: "time", Err: fmt.Errorf("not a timestamp: %s", ts.Raw)}
	}

	seriesList := root.Get("series")
	episodeList := root.Get("episodes")
	if !seriesList.IsArray() || !episodeList.IsArray() {
		return sources.Unknown(), nil
	}

	cs := sources.NewKnown(ts.Int())
	for _, id := range seriesList.Array() {
		if id.Type != gjson.Number || id.Int() <= 0 {
			return sources.Unknown(), nil
		}
		cs.AddSeries(id.Int())
	}

	for _, ep := range episodeList.Array() {
		seriesID, season, number := ep.Get("seriesId"), ep.Get("season"), ep.Get("episode")
		if seriesID.Type != gjson.Number || season.Type != gjson.Number || number.Type != gjson.Number {
			return sources.Unknown(), nil
		}
		cs.AddEpisode(catalog.EpisodeKey{
			SeriesID: seriesID.Int(),
			Season:   int(season.Int()),
			Number:   int(number.Int()),
		})
	}
	return cs, nil
}

// parseSeries decodes a /series/{id} response
func parseSeries(body []byte, seriesID int64) (*catalog.Series, error) {
	if !gjson.ValidBytes(body) {
		return nil, &sources.ParseError{Err: errors.New("response is not valid JSON")}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, &sources.ParseError{Err: errors.New("series is not an object")}
	}

	if id := root.Get("id"); id.Exists() && id.Int() != seriesID {
		return nil, &sources.ParseError{Field: "id", Err: fmt.Errorf("expected %d, got %s", seriesID, id.Raw)}
	}

	series := &catalog.Series{
		ID:         seriesID,
		Name:       root.Get("name").String(),
		Overview:   root.Get("overview").String(),
		Network:    root.Get("network").String(),
		Status:     root.Get("status").String(),
		FirstAired: parseDate(root.Get("firstAired")),
		Runtime:    int(root.Get("runtime").Int()),
	}
	for _, g := range root.Get("genres").Array() {
		if g.String() != "" {
			series.Genres = append(series.Genres, g.String())
		}
	}
	return series, nil
}

// parseEpisode decodes a single episode object
func parseEpisode(body []byte, seriesID int64) (*catalog.Episode, error) {
	if !gjson.ValidBytes(body) {
		return nil, &sources.ParseError{Err: errors.New("response is not valid JSON")}
	}
	return episodeFromResult(gjson.ParseBytes(body), seriesID)
}

// parseEpisodeList decodes a /series/{id}/episodes array
func parseEpisodeList(body []byte, seriesID int64) ([]catalog.Episode, error) {
	if !gjson.ValidBytes(body) {
		return nil, &sources.ParseError{Err: errors.New("response is not valid JSON")}
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, &sources.ParseError{Err: errors.New("episode list is not an array")}
	}

	episodes := make([]catalog.Episode, 0, len(root.Array()))
	for _, item := range root.Array() {
		ep, err := episodeFromResult(item, seriesID)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, *ep)
	}
	catalog.SortEpisodes(episodes)
	return episodes, nil
}

func episodeFromResult(r gjson.Result, seriesID int64) (*catalog.Episode, error) {
	if !r.IsObject() {
		return nil, &sources.ParseError{Err: errors.New("episode is not an object")}
	}

	season, number := r.Get("season"), r.Get("episode")
	if season.Type != gjson.Number {
		return nil, &sources.ParseError{Field: "season", Err: fmt.Errorf("not a number: %s", season.Raw)}
	}
	if number.Type != gjson.Number {
		return nil, &sources.ParseError{Field: "episode", Err: fmt.Errorf("not a number: %s", number.Raw)}
	}
	if sid := r.Get("seriesId"); sid.Exists() && sid.Int() != seriesID {
		return nil, &sources.ParseError{Field: "seriesId", Err: fmt.Errorf("expected %d, got %s", seriesID, sid.Raw)}
	}

	return &catalog.Episode{
		EpisodeKey: catalog.EpisodeKey{
			SeriesID: seriesID,
			Season:   int(season.Int()),
			Number:   int(number.Int()),
		},
		RemoteID: r.Get("id").Int(),
		Name:     r.Get("name").String(),
		Overview: r.Get("overview").String(),
		AirDate:  parseDate(r.Get("firstAired")),
	}, nil
}

// parseDate accepts YYYY-MM-DD; anything else (including "0000-00-00") is unknown
func parseDate(r gjson.Result) time.Time {
	if r.Type != gjson.String {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, r.String())
	if err != nil {
		return time.Time{}
	}
	return t
}
