// Package helpers provides the fake provider and server lifecycle helpers
// used by the integration suite.
package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
)

// FakeEpisode is an episode as the fake provider serves it
type FakeEpisode struct {
	Season  int
	Number  int
	Name    string
	AirDate string
}

// FakeSeries is a series as the fake provider serves it
type FakeSeries struct {
	ID       int64
	Name     string
	Network  string
	Episodes []FakeEpisode
	// Upcoming is only listed by the supplemental endpoint
	Upcoming []FakeEpisode
}

// FakeProvider serves the provider API, plus the supplemental listing under
// /supplemental, from in-memory data the test controls.
type FakeProvider struct {
	server *httptest.Server

	mu             sync.Mutex
	series         map[int64]*FakeSeries
	time           int64
	changedSeries  []int64
	changedEpisode map[int64][][2]int
	down           bool
	sinceQueries   []int64
}

// NewFakeProvider starts the fake provider
func NewFakeProvider() *FakeProvider {
	p := &FakeProvider{
		series:         map[int64]*FakeSeries{},
		changedEpisode: map[int64][][2]int{},
	}

	r := chi.NewRouter()
	r.Get("/updates", p.handleUpdates)
	r.Get("/series/{id}", p.handleSeries)
	r.Get("/series/{id}/episodes", p.handleEpisodes)
	r.Get("/series/{id}/episodes/{season}/{episode}", p.handleEpisode)
	r.Get("/supplemental/episodes", p.handleSupplemental)

	p.server = httptest.NewServer(r)
	return p
}

// URL is the provider endpoint
func (p *FakeProvider) URL() string {
	return p.server.URL
}

// SupplementalURL is the supplemental source endpoint
func (p *FakeProvider) SupplementalURL() string {
	return p.server.URL + "/supplemental"
}

// Close stops the server
func (p *FakeProvider) Close() {
	p.server.Close()
}

// PutSeries adds or replaces a series
func (p *FakeProvider) PutSeries(series FakeSeries) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.series[series.ID] = &series
}

// RenameSeries changes the name of a series without reporting it as changed
func (p *FakeProvider) RenameSeries(id int64, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.series[id].Name = name
}

// RenameEpisode changes the name of an episode without reporting it as changed
func (p *FakeProvider) RenameEpisode(id int64, season, number int, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.series[id].Episodes {
		ep := &p.series[id].Episodes[i]
		if ep.Season == season && ep.Number == number {
			ep.Name = name
		}
	}
}

// SetChanges sets the answer of the next changed-since queries
func (p *FakeProvider) SetChanges(now int64, seriesIDs []int64, episodes map[int64][][2]int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.time = now
	p.changedSeries = seriesIDs
	p.changedEpisode = episodes
}

// SetDown makes the changed-since endpoint fail
func (p *FakeProvider) SetDown(down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.down = down
}

// SinceQueries returns the since values of every changed-since query received
func (p *FakeProvider) SinceQueries() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.sinceQueries)
}

func (p *FakeProvider) handleUpdates(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	p.sinceQueries = append(p.sinceQueries, since)

	if p.down {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
		return
	}

	episodes := []map[string]any{}
	for seriesID, keys := range p.changedEpisode {
		for _, key := range keys {
			episodes = append(episodes, map[string]any{
				"seriesId": seriesID,
				"season":   key[0],
				"episode":  key[1],
			})
		}
	}
	series := p.changedSeries
	if series == nil {
		series = []int64{}
	}
	writeJSON(w, map[string]any{"time": p.time, "series": series, "episodes": episodes})
}

func (p *FakeProvider) lookup(w http.ResponseWriter, r *http.Request) *FakeSeries {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return nil
	}
	series, ok := p.series[id]
	if !ok {
		http.NotFound(w, r)
		return nil
	}
	return series
}

func (p *FakeProvider) handleSeries(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	series := p.lookup(w, r)
	if series == nil {
		return
	}
	writeJSON(w, map[string]any{
		"id":      series.ID,
		"name":    series.Name,
		"network": series.Network,
		"genres":  []string{"Drama"},
	})
}

func (p *FakeProvider) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	series := p.lookup(w, r)
	if series == nil {
		return
	}
	out := make([]map[string]any, 0, len(series.Episodes))
	for _, ep := range series.Episodes {
		out = append(out, episodeJSON(series.ID, ep))
	}
	writeJSON(w, out)
}

func (p *FakeProvider) handleEpisode(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	series := p.lookup(w, r)
	if series == nil {
		return
	}
	season, _ := strconv.Atoi(chi.URLParam(r, "season"))
	number, _ := strconv.Atoi(chi.URLParam(r, "episode"))
	for _, ep := range series.Episodes {
		if ep.Season == season && ep.Number == number {
			writeJSON(w, episodeJSON(series.ID, ep))
			return
		}
	}
	http.NotFound(w, r)
}

func (p *FakeProvider) handleSupplemental(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, _ := strconv.ParseInt(r.URL.Query().Get("seriesId"), 10, 64)
	out := []map[string]any{}
	if series, ok := p.series[id]; ok {
		for _, ep := range series.Upcoming {
			out = append(out, map[string]any{
				"season":  ep.Season,
				"episode": ep.Number,
				"title":   ep.Name,
				"airdate": ep.AirDate,
			})
		}
	}
	writeJSON(w, out)
}

func episodeJSON(seriesID int64, ep FakeEpisode) map[string]any {
	return map[string]any{
		"id":         seriesID*1000 + int64(ep.Season*100+ep.Number),
		"seriesId":   seriesID,
		"season":     ep.Season,
		"episode":    ep.Number,
		"name":       ep.Name,
		"firstAired": ep.AirDate,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
