package status

import "time"

// Phase is the state of a sync pass.
//
// A full pass moves Idle → FetchingDelta → Skipped, or
// Idle → FetchingDelta → Applying → Advancing → Idle. Any step may end in Failed.
type Phase string

const (
	// PhaseIdle means no pass is running; the last one, if any, succeeded
	PhaseIdle Phase = "Idle"

	// PhaseFetchingDelta means the changed-since query is in flight
	PhaseFetchingDelta Phase = "FetchingDelta"

	// PhaseSkipped means the last pass was skipped because the delta was unknown
	PhaseSkipped Phase = "Skipped"

	// PhaseApplying means series updates are being applied
	PhaseApplying Phase = "Applying"

	// PhaseAdvancing means the watermark is being written
	PhaseAdvancing Phase = "Advancing"

	// PhaseFailed means the last pass aborted
	PhaseFailed Phase = "Failed"
)

// Terminal reports whether no pass is in flight in this phase
func (p Phase) Terminal() bool {
	switch p {
	case PhaseIdle, PhaseSkipped, PhaseFailed, "":
		return true
	default:
		return false
	}
}

// Mode distinguishes the scheduled full pass from on-demand single-series passes
type Mode string

const (
	// ModeFull is the scheduled pass over the whole catalog
	ModeFull Mode = "full"

	// ModeSeries is an on-demand pass over one series
	ModeSeries Mode = "series"
)

// PassStatus records the progress and outcome of the latest pass of a mode
type PassStatus struct {
	Phase   Phase  `json:"phase"`
	RunID   string `json:"runId,omitempty"`
	Message string `json:"message,omitempty"`

	// SeriesID is set for single-series passes
	SeriesID int64 `json:"seriesId,omitempty"`
	Forced   bool  `json:"forced,omitempty"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`

	WatermarkBefore int64 `json:"watermarkBefore,omitempty"`
	WatermarkAfter  int64 `json:"watermarkAfter,omitempty"`

	SeriesChecked   int `json:"seriesChecked"`
	SeriesUpdated   int `json:"seriesUpdated"`
	SeriesFailed    int `json:"seriesFailed"`
	EpisodesUpdated int `json:"episodesUpdated"`
}

// Clone returns a deep copy
func (s PassStatus) Clone() PassStatus {
	s.StartedAt = cloneTime(s.StartedAt)
	s.FinishedAt = cloneTime(s.FinishedAt)
	s.LastSuccess = cloneTime(s.LastSuccess)
	return s
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
