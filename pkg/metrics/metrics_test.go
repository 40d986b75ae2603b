package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takutakahashi/orderkuota-proxy/pkg/upstream"
)

func TestRecorder_ObserveCall(t *testing.T) {
	r := NewRecorder()

	r.ObserveCall(http.MethodPost, "/login", "", 20*time.Millisecond)
	r.ObserveCall(http.MethodPost, "/login", "", 10*time.Millisecond)
	r.ObserveCall(http.MethodPost, "/get", upstream.KindUpstream, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.requests.WithLabelValues(http.MethodPost, "/login", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues(http.MethodPost, "/get", "UpstreamError")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.duration))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveCall(http.MethodPost, "/get", upstream.KindTransport, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `orderkuota_proxy_upstream_requests_total{method="POST",path="/get",result="TransportError"} 1`)
}
