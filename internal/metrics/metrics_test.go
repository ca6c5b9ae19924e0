package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestCounters(t *testing.T) {
	m := New()
	m.Action("post_created")
	m.Action("post_created")
	m.Confirmation("follow", "committed")
	m.Enhancement("unchanged")
	m.Dropped()
	m.Subscribers(3)

	body := scrape(t, m)
	assert.Contains(t, body, `meydan_actions_total{action="post_created"} 2`)
	assert.Contains(t, body, `meydan_confirmations_total{kind="follow",outcome="committed"} 1`)
	assert.Contains(t, body, `meydan_enhance_total{outcome="unchanged"} 1`)
	assert.Contains(t, body, `meydan_realtime_dropped_total 1`)
	assert.Contains(t, body, `meydan_realtime_subscribers 3`)
}

func TestNilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Action("x")
		m.Confirmation("follow", "cancelled")
		m.Enhancement("enhanced")
		m.Dropped()
		m.Subscribers(1)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.Action("post_liked")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `meydan_actions_total{action="post_liked"} 1`)
}
