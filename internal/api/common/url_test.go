package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		want    int64
		wantErr string
	}{
		{name: "valid", path: "/series/73739", want: 73739},
		{name: "zero", path: "/series/0", wantErr: "must be a positive integer"},
		{name: "negative", path: "/series/-4", wantErr: "must be a positive integer"},
		{name: "not a number", path: "/series/lost", wantErr: "must be a positive integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				got int64
				err error
			)
			r := chi.NewRouter()
			r.Get("/series/{id}", func(_ http.ResponseWriter, r *http.Request) {
				got, err = ParseIDParam(r, "id")
			})
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseIDParam(httptest.NewRequest(http.MethodGet, "/series/", nil), "id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x?force=true&limit=25&bad=maybe&neg=-1", nil)

	force, err := ParseBoolQuery(req, "force", false)
	require.NoError(t, err)
	assert.True(t, force)

	def, err := ParseBoolQuery(req, "missing", true)
	require.NoError(t, err)
	assert.True(t, def)

	_, err = ParseBoolQuery(req, "bad", false)
	require.Error(t, err)

	limit, err := ParseIntQuery(req, "limit")
	require.NoError(t, err)
	assert.Equal(t, 25, limit)

	absent, err := ParseIntQuery(req, "missing")
	require.NoError(t, err)
	assert.Zero(t, absent)

	_, err = ParseIntQuery(req, "neg")
	require.Error(t, err)
}

func TestParseListQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "absent", query: "", want: nil},
		{name: "single", query: "?genre=Drama", want: []string{"Drama"}},
		{name: "repeated", query: "?genre=Drama&genre=Western", want: []string{"Drama", "Western"}},
		{name: "comma separated", query: "?genre=Drama,%20Western,,", want: []string{"Drama", "Western"}},
		{name: "other parameter", query: "?name=star*", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/series"+tt.query, nil)
			assert.Equal(t, tt.want, ParseListQuery(r, "genre"))
		})
	}
}
