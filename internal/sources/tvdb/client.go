// Package tvdb implements the provider client: the changed-since delta query
// and the series and episode fetches used by the sync engine.
package tvdb

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/httpclient"
	"github.com/stacklok/showsync/internal/otel"
	"github.com/stacklok/showsync/internal/sources"
)

const (
	// TracerName is the name used for the provider client tracer
	TracerName = "github.com/stacklok/showsync/sources/tvdb"

	// DefaultRequestTimeout bounds the changed-since query
	DefaultRequestTimeout = 180 * time.Second

	// DefaultFetchTimeout bounds series and episode fetches
	DefaultFetchTimeout = 30 * time.Second
)

// Client talks to the provider's JSON API
type Client struct {
	endpoint *url.URL
	apiKey   string

	requestTimeout time.Duration
	fetchTimeout   time.Duration

	// delta serves the changed-since query; fetch serves entity fetches
	delta httpclient.Client
	fetch httpclient.Client

	tracer trace.Tracer
}

var (
	_ sources.DeltaClient   = (*Client)(nil)
	_ sources.SeriesFetcher = (*Client)(nil)
)

// Option configures a Client
type Option func(*Client)

// WithAPIKey sets the api key sent as the apikey query parameter
func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// WithRequestTimeout sets the changed-since query timeout
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.requestTimeout = d
	}
}

// WithFetchTimeout sets the per-entity fetch timeout
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.fetchTimeout = d
	}
}

// WithHTTPClient uses the given client for every request
func WithHTTPClient(client httpclient.Client) Option {
	return func(c *Client) {
		c.delta = client
		c.fetch = client
	}
}

// WithTracer sets the tracer used for provider spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// NewClient creates a provider client rooted at endpoint
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid provider endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid provider endpoint: %q", endpoint)
	}

	c := &Client{
		endpoint:       u,
		requestTimeout: DefaultRequestTimeout,
		fetchTimeout:   DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.delta == nil {
		c.delta = httpclient.NewDefaultClient(c.requestTimeout)
	}
	if c.fetch == nil {
		c.fetch = httpclient.NewDefaultClient(c.fetchTimeout)
	}
	return c, nil
}

// QueryChanges implements sources.DeltaClient
func (c *Client) QueryChanges(ctx context.Context, since int64) (_ *sources.ChangeSet, err error) {
	if since <= 0 {
		// Nothing to compare against; the caller decides what a first sync means.
		return sources.NewKnown(0), nil
	}

	ctx, span := otel.StartSpan(ctx, c.tracer, "tvdb.QueryChanges",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(otel.AttrWatermark.Int64(since)),
	)
	defer func() { otel.End(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	body, err := c.delta.Get(ctx, c.url([]string{"updates"}, url.Values{"since": {strconv.FormatInt(since, 10)}}))
	if err != nil {
		slog.WarnContext(ctx, "Changed-since query failed, change set is unknown",
			"since", since,
			"error", err,
		)
		return sources.Unknown(), nil
	}

	cs, err := parseChanges(body)
	if err != nil {
		return nil, err
	}

	if cs.IsUnknown() {
		slog.WarnContext(ctx, "Changed-since response lists are missing or malformed, change set is unknown", "since", since)
	} else {
		slog.DebugContext(ctx, "Changed-since query answered",
			"since", since,
			"new_watermark", cs.NewWatermark,
			"series", cs.SeriesIDs(),
			"episodes", cs.EpisodeCount(),
		)
	}
	return cs, nil
}

// FetchSeries implements sources.SeriesFetcher
func (c *Client) FetchSeries(ctx context.Context, seriesID int64) (_ *catalog.Series, err error) {
	ctx, span := c.startFetchSpan(ctx, "tvdb.FetchSeries", seriesID)
	defer func() { otel.End(span, err) }()

	body, err := c.get(ctx, seriesPath(seriesID))
	if err != nil {
		return nil, &sources.FetchError{SeriesID: seriesID, Err: err}
	}

	series, err := parseSeries(body, seriesID)
	if err != nil {
		return nil, &sources.FetchError{SeriesID: seriesID, Err: err}
	}
	return series, nil
}

// FetchEpisode implements sources.SeriesFetcher
func (c *Client) FetchEpisode(ctx context.Context, key catalog.EpisodeKey) (_ *catalog.Episode, err error) {
	ctx, span := c.startFetchSpan(ctx, "tvdb.FetchEpisode", key.SeriesID)
	span.SetAttributes(otel.EpisodeAttributes(key)...)
	defer func() { otel.End(span, err) }()

	path := append(seriesPath(key.SeriesID), "episodes", strconv.Itoa(key.Season), strconv.Itoa(key.Number))
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, &sources.FetchError{SeriesID: key.SeriesID, Episode: &key, Err: err}
	}

	ep, err := parseEpisode(body, key.SeriesID)
	if err != nil {
		return nil, &sources.FetchError{SeriesID: key.SeriesID, Episode: &key, Err: err}
	}
	if ep.EpisodeKey != key {
		return nil, &sources.FetchError{SeriesID: key.SeriesID, Episode: &key,
			Err: fmt.Errorf("provider returned episode %s", ep.EpisodeKey)}
	}
	return ep, nil
}

// FetchEpisodes implements sources.SeriesFetcher
func (c *Client) FetchEpisodes(ctx context.Context, seriesID int64) (_ []catalog.Episode, err error) {
	ctx, span := c.startFetchSpan(ctx, "tvdb.FetchEpisodes", seriesID)
	defer func() { otel.End(span, err) }()

	body, err := c.get(ctx, append(seriesPath(seriesID), "episodes"))
	if err != nil {
		return nil, &sources.FetchError{SeriesID: seriesID, Err: err}
	}

	episodes, err := parseEpisodeList(body, seriesID)
	if err != nil {
		return nil, &sources.FetchError{SeriesID: seriesID, Err: err}
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(episodes)))
	return episodes, nil
}

func (c *Client) startFetchSpan(ctx context.Context, name string, seriesID int64) (context.Context, trace.Span) {
	return otel.StartSpan(ctx, c.tracer, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(otel.AttrSeriesID.Int64(seriesID)),
	)
}

func (c *Client) get(ctx context.Context, path []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()
	return c.fetch.Get(ctx, c.url(path, nil))
}

func (c *Client) url(path []string, query url.Values) string {
	u := *c.endpoint
	u.Path = u.Path + "/" + strings.Join(path, "/")
	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("apikey", c.apiKey)
	}
	u.RawQuery = query.Encode()
	return u.String()
}

func seriesPath(seriesID int64) []string {
	return []string{"series", strconv.FormatInt(seriesID, 10)}
}
