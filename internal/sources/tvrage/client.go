// Package tvrage implements the supplemental source used to discover episodes
// that aired after the newest one the catalog knows about.
package tvrage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/httpclient"
	"github.com/stacklok/showsync/internal/otel"
	"github.com/stacklok/showsync/internal/sources"
)

// TracerName is the name used for the supplemental source tracer
const TracerName = "github.com/stacklok/showsync/sources/tvrage"

const dateLayout = "2006-01-02"

// Client queries the supplemental episode listing
type Client struct {
	endpoint *url.URL
	http     httpclient.Client
	tracer   trace.Tracer
}

var _ sources.SupplementalSource = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(client httpclient.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// WithTracer sets the tracer used for lookup spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// NewClient creates a supplemental source client rooted at endpoint
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid supplemental endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid supplemental endpoint: %q", endpoint)
	}

	c := &Client{endpoint: u}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewDefaultClient(httpclient.DefaultTimeout)
	}
	return c, nil
}

// EpisodesAiringAfter implements sources.SupplementalSource.
// Entries without a season, number or air date are ignored.
func (c *Client) EpisodesAiringAfter(
	ctx context.Context, series catalog.Series, cutoff time.Time,
) (_ []catalog.Episode, err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "tvrage.EpisodesAiringAfter",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(otel.AttrSeriesID.Int64(series.ID)),
	)
	defer func() { otel.End(span, err) }()

	u := *c.endpoint
	u.Path += "/episodes"
	u.RawQuery = url.Values{
		"seriesId": {strconv.FormatInt(series.ID, 10)},
		"after":    {cutoff.UTC().Format(dateLayout)},
	}.Encode()

	body, err := c.http.Get(ctx, u.String())
	if err != nil {
		return nil, &sources.FetchError{SeriesID: series.ID, Err: err}
	}

	episodes, err := parseEpisodes(body, series.ID, cutoff)
	if err != nil {
		return nil, &sources.FetchError{SeriesID: series.ID, Err: err}
	}

	slog.DebugContext(ctx, "Supplemental lookup answered",
		"series_id", series.ID,
		"cutoff", cutoff.Format(dateLayout),
		"episodes", len(episodes),
	)
	span.SetAttributes(otel.AttrResultCount.Int(len(episodes)))
	return episodes, nil
}

// parseEpisodes decodes a listing of the form
//
//	[{"season": 3, "episode": 4, "title": "...", "airdate": "2012-01-01"}]
func parseEpisodes(body []byte, seriesID int64, cutoff time.Time) ([]catalog.Episode, error) {
	if !gjson.ValidBytes(body) {
		return nil, &sources.ParseError{Err: errors.New("response is not valid JSON")}
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, &sources.ParseError{Err: errors.New("episode listing is not an array")}
	}

	cutoffDay := cutoff.UTC().Truncate(24 * time.Hour)
	var episodes []catalog.Episode
	for _, item := range root.Array() {
		season, number := item.Get("season"), item.Get("episode")
		if season.Type != gjson.Number || number.Type != gjson.Number {
			continue
		}
		airDate, err := time.Parse(dateLayout, item.Get("airdate").String())
		if err != nil || !airDate.After(cutoffDay) {
			continue
		}
		episodes = append(episodes, catalog.Episode{
			EpisodeKey: catalog.EpisodeKey{
				SeriesID: seriesID,
				Season:   int(season.Int()),
				Number:   int(number.Int()),
			},
			Name:    item.Get("title").String(),
			AirDate: airDate,
		})
	}
	catalog.SortEpisodes(episodes)
	return episodes, nil
}
