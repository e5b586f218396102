package rest

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionless(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"no position", "status=VERIFIED&limit=10", true},
		{"empty query", "", true},
		{"both coordinates", "latitude=35.1&longitude=33.3", false},
		{"latitude only", "latitude=35.1", false},
		{"longitude only", "longitude=33.3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, positionless(q))
		})
	}
}

func TestParsePagination(t *testing.T) {
	q, err := url.ParseQuery("limit=25&offset=50")
	require.NoError(t, err)

	limit, offset, err := parsePagination(q)
	require.NoError(t, err)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 50, offset)
}

func TestParsePaginationDefaults(t *testing.T) {
	limit, offset, err := parsePagination(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, defaultQueryLimit, limit)
	assert.Zero(t, offset)
}

func TestParsePaginationRejectsBadValues(t *testing.T) {
	for _, query := range []string{"limit=0", "limit=9999", "limit=abc", "offset=-1"} {
		q, parseErr := url.ParseQuery(query)
		require.NoError(t, parseErr)

		_, _, err := parsePagination(q)
		assert.Error(t, err, query)
	}
}

func TestParseQueryParamsDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/incidents/public/query?latitude=35.1856&longitude=33.3823", nil)

	params, err := parseQueryParams(r)
	require.NoError(t, err)
	assert.Equal(t, 35.1856, params.Latitude)
	assert.Equal(t, 33.3823, params.Longitude)
	assert.Equal(t, defaultQueryRadiusKm, params.RadiusKm)
	assert.Equal(t, defaultQueryLimit, params.Limit)
}

// A single coordinate is an error, not a fallback: the listing path only
// kicks in when neither is supplied.
func TestParseQueryParamsRejectsPartialPosition(t *testing.T) {
	r := httptest.NewRequest("GET", "/incidents/public/query?latitude=35.1856", nil)

	_, err := parseQueryParams(r)
	assert.Error(t, err)
}
