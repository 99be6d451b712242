package v1

import (
	"time"

	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/status"
	pkgsync "github.com/stacklok/showsync/internal/sync"
)

const dateLayout = "2006-01-02"

// SeriesResponse is the API view of a series
type SeriesResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Overview   string    `json:"overview,omitempty"`
	Network    string    `json:"network,omitempty"`
	Status     string    `json:"status,omitempty"`
	FirstAired string    `json:"first_aired,omitempty"`
	Runtime    int       `json:"runtime,omitempty"`
	Genres     []string  `json:"genres"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EpisodeResponse is the API view of an episode
type EpisodeResponse struct {
	Season    int       `json:"season"`
	Number    int       `json:"number"`
	RemoteID  int64     `json:"remote_id,omitempty"`
	Name      string    `json:"name"`
	Overview  string    `json:"overview,omitempty"`
	AirDate   string    `json:"air_date,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SeriesListResponse is one page of series
type SeriesListResponse struct {
	Series     []SeriesResponse `json:"series"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// SeriesDetailResponse is a series with its episodes
type SeriesDetailResponse struct {
	SeriesResponse
	Episodes []EpisodeResponse `json:"episodes"`
}

// StatusResponse reports the last pass of each mode
type StatusResponse struct {
	Passes map[status.Mode]status.PassStatus `json:"passes"`
}

// SyncResponse summarizes a completed single-series pass
type SyncResponse struct {
	RunID           string `json:"run_id"`
	SeriesID        int64  `json:"series_id"`
	Forced          bool   `json:"forced"`
	Updated         bool   `json:"updated"`
	// Failed is true when the provider could not be reached for this series
	Failed          bool   `json:"failed"`
	EpisodesUpdated int    `json:"episodes_updated"`
	EpisodesFailed  int    `json:"episodes_failed"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func newSeriesResponse(s catalog.Series) SeriesResponse {
	genres := s.Genres
	if genres == nil {
		genres = []string{}
	}
	return SeriesResponse{
		ID:         s.ID,
		Name:       s.Name,
		Overview:   s.Overview,
		Network:    s.Network,
		Status:     s.Status,
		FirstAired: formatDate(s.FirstAired),
		Runtime:    s.Runtime,
		Genres:     genres,
		UpdatedAt:  s.UpdatedAt,
	}
}

func newEpisodeResponse(e catalog.Episode) EpisodeResponse {
	return EpisodeResponse{
		Season:    e.Season,
		Number:    e.Number,
		RemoteID:  e.RemoteID,
		Name:      e.Name,
		Overview:  e.Overview,
		AirDate:   formatDate(e.AirDate),
		UpdatedAt: e.UpdatedAt,
	}
}

func newSyncResponse(seriesID int64, result *pkgsync.Result) SyncResponse {
	resp := SyncResponse{
		RunID:    result.RunID,
		SeriesID: seriesID,
		Forced:   result.Forced,
		Failed:   result.SeriesFailed > 0,
	}
	for _, sr := range result.Series {
		if sr.SeriesID != seriesID {
			continue
		}
		resp.Updated = sr.Updated
		resp.EpisodesUpdated = sr.EpisodesUpdated + sr.EpisodesDiscovered
		resp.EpisodesFailed = sr.EpisodesFailed
	}
	return resp
}
