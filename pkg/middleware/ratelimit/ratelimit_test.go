package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowHonoursBurstPerKey(t *testing.T) {
	l := New(1, 2)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	fixed = fixed.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestIdleBucketsAreSwept(t *testing.T) {
	l := New(1, 1)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	l.Allow("a")
	fixed = fixed.Add(idleTTL + time.Second)
	l.Allow("b")

	assert.Len(t, l.buckets, 1)
	assert.Contains(t, l.buckets, "b")
}

func TestSweepRunsAtMostOncePerIdleTTL(t *testing.T) {
	l := New(1, 1)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fixed := start
	l.now = func() time.Time { return fixed }

	l.Allow("a")
	assert.Equal(t, start, l.lastSweep)

	fixed = start.Add(idleTTL - time.Second)
	l.Allow("b")
	// a is idle past idleTTL but the previous sweep is too recent.
	l.buckets["a"].seen = start.Add(-2 * idleTTL)
	l.Allow("c")
	assert.Len(t, l.buckets, 3)
	assert.Equal(t, start, l.lastSweep)

	fixed = start.Add(idleTTL)
	l.Allow("c")
	assert.Equal(t, fixed, l.lastSweep)
	assert.NotContains(t, l.buckets, "a")
	assert.Contains(t, l.buckets, "b")
	assert.Contains(t, l.buckets, "c")
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	l := New(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("x"))
	}
}

func TestMiddlewareRespondsTooManyRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := New(0.001, 1)
	r := gin.New()
	r.Use(l.Middleware())
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, second.Body.String())
}
