package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := New("test")
	c.Mutation("select", true)
	c.Mutation("select", true)
	c.Mutation("delete", false)
	c.Recompute("variables", true)
	c.Recompute("wizard", false)
	c.SamplingDone(time.Second, nil)
	c.SamplingDone(time.Second, errors.New("boom"))
	c.SessionOpened()

	assert.InDelta(t, 2, testutil.ToFloat64(c.Mutations.WithLabelValues("select", "true")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Mutations.WithLabelValues("delete", "false")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Recomputes.WithLabelValues("variables")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.RecomputeSkipped.WithLabelValues("wizard")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Sampling.WithLabelValues("error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Sessions), 0)
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := New("test"), New("test")
	a.Mutation("reset", true)
	assert.InDelta(t, 0, testutil.ToFloat64(b.Mutations.WithLabelValues("reset", "true")), 0)
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.Mutation("select", true)
	c.Recompute("wizard", true)
	c.SamplingDone(0, nil)
	c.SessionOpened()
	c.SessionClosed()
	c.Request("GET", "/health", 200)
	assert.Nil(t, c.Registry())
}

func TestHandler(t *testing.T) {
	c := New("cb")
	c.Request("GET", "/health", http.StatusOK)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "cb_http_requests_total"))
}
