package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.AuthenticationEvaluated("authenticated")
	m.AuthenticationEvaluated("expired")
	m.AuthenticationEvaluated("expired")
	m.TokenIssued()
	m.LoginAttempted("success")
	m.LoginAttempted("rejected")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.authentication.WithLabelValues("authenticated")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authentication.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokensIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("rejected")))
}

func TestObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET /api/users/current", 200, 5*time.Millisecond)
	m.ObserveHTTP("GET /api/users/current", 200, 7*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET /api/users/current", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))
}

func TestHandler(t *testing.T) {
	m := New()
	m.TokenIssued()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "statelessauth_tokens_issued_total 1"))
	assert.Contains(t, string(body), "go_goroutines")
}
