// Package v1 provides the REST handlers for the catalog and sync status.
package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/showsync/internal/api/common"
	"github.com/stacklok/showsync/internal/filtering"
	"github.com/stacklok/showsync/internal/service"
	pkgsync "github.com/stacklok/showsync/internal/sync"
	"github.com/stacklok/showsync/internal/versions"
)

// Routes holds the handlers of the v1 API
type Routes struct {
	service service.CatalogService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.CatalogService) *Routes {
	return &Routes{service: svc}
}

// Router creates the router mounted at /v1
func Router(svc service.CatalogService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()
	r.Get("/status", routes.getStatus)
	r.Get("/series", routes.listSeries)
	r.Get("/series/{id}", routes.getSeries)
	r.Post("/series/{id}/sync", routes.syncSeries)

	return r
}

// HealthRouter creates the router for probe endpoints
func HealthRouter(svc service.CatalogService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, map[string]string{"status": "healthy"}, http.StatusOK)
}

func readinessHandler(svc service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			common.WriteErrorResponse(w, "Not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}

// getStatus handles GET /v1/status
func (rr *Routes) getStatus(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, StatusResponse{Passes: rr.service.SyncStatus()}, http.StatusOK)
}

// listSeries handles GET /v1/series?cursor=&limit=&name=&exclude_name=&genre=&exclude_genre=
func (rr *Routes) listSeries(w http.ResponseWriter, r *http.Request) {
	limit, err := common.ParseIntQuery(r, "limit")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := service.ListSeriesOptions{
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  limit,
	}
	criteria := &filtering.Criteria{
		NameInclude:  common.ParseListQuery(r, "name"),
		NameExclude:  common.ParseListQuery(r, "exclude_name"),
		GenreInclude: common.ParseListQuery(r, "genre"),
		GenreExclude: common.ParseListQuery(r, "exclude_genre"),
	}
	if !criteria.IsEmpty() {
		opts.Filter = criteria
	}

	page, err := rr.service.ListSeries(r.Context(), opts)
	if errors.Is(err, service.ErrInvalidCursor) || errors.Is(err, service.ErrInvalidFilter) {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list series", "error", err)
		common.WriteErrorResponse(w, "Failed to list series", http.StatusInternalServerError)
		return
	}

	resp := SeriesListResponse{
		Series:     make([]SeriesResponse, 0, len(page.Series)),
		NextCursor: page.NextCursor,
	}
	for _, s := range page.Series {
		resp.Series = append(resp.Series, newSeriesResponse(s))
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// getSeries handles GET /v1/series/{id}
func (rr *Routes) getSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, err := common.ParseIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	detail, err := rr.service.GetSeries(r.Context(), seriesID)
	if errors.Is(err, service.ErrSeriesNotFound) {
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to get series", "series_id", seriesID, "error", err)
		common.WriteErrorResponse(w, "Failed to get series", http.StatusInternalServerError)
		return
	}

	resp := SeriesDetailResponse{
		SeriesResponse: newSeriesResponse(detail.Series),
		Episodes:       make([]EpisodeResponse, 0, len(detail.Episodes)),
	}
	for _, e := range detail.Episodes {
		resp.Episodes = append(resp.Episodes, newEpisodeResponse(e))
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// syncSeries handles POST /v1/series/{id}/sync?force=
func (rr *Routes) syncSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, err := common.ParseIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	force, err := common.ParseBoolQuery(r, "force", false)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, syncErr := rr.service.SyncSeries(r.Context(), seriesID, force)
	if syncErr != nil {
		common.WriteJSONResponse(w, common.ErrorResponse{
			Error:  syncErr.Message,
			Reason: syncErr.Reason,
		}, syncErrorStatus(syncErr))
		return
	}

	resp := newSyncResponse(seriesID, result)
	code := http.StatusOK
	if resp.Failed {
		code = http.StatusBadGateway
	}
	common.WriteJSONResponse(w, resp, code)
}

func syncErrorStatus(err *pkgsync.Error) int {
	switch err.Reason {
	case pkgsync.ReasonSeriesNotFound:
		return http.StatusNotFound
	case pkgsync.ReasonParseError, pkgsync.ReasonDeltaFailed:
		return http.StatusBadGateway
	case pkgsync.ReasonInterrupted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
