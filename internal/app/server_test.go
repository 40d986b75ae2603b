package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/takutakahashi/orderkuota-proxy/pkg/config"
	"github.com/takutakahashi/orderkuota-proxy/pkg/form"
	"github.com/takutakahashi/orderkuota-proxy/pkg/upstream"
)

// fakeProvider mimics the provider API: /login checks the password field,
// /get requires auth_token and answers according to the requested resource
func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		payload, err := form.Decode(string(body))
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v2/login":
			switch password, _ := payload.Get("password"); password {
			case "s3cret":
				_, _ = w.Write([]byte(`{"success":true,"results":{"otp":"email","otp_value":"a***@example.com"}}`))
			case "123456":
				_, _ = w.Write([]byte(`{"success":true,"results":{"id":"1","token":"1:tok"}}`))
			default:
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"message":"invalid credentials"}`))
			}
		case "/api/v2/get":
			if token, _ := payload.Get("auth_token"); token != "1:tok" {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"success":false}`))
				return
			}
			if amount, ok := payload.Get("requests[qris_withdraw][amount]"); ok {
				_, _ = w.Write([]byte(`{"success":true,"qris_withdraw":{"success":true,"message":"withdrawn ` + amount + `"}}`))
				return
			}
			jenis, _ := payload.Get("requests[qris_history][jenis]")
			_, _ = w.Write([]byte(`{"success":true,"qris_history":{"jenis":"` + jenis + `","results":[]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<html>not found</html>`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	provider := fakeProvider(t)
	return NewServer(config.DefaultConfig(), zaptest.NewLogger(t), upstream.WithBaseURL(provider.URL+"/api/v2"))
}

func post(s *Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.GetEcho().ServeHTTP(rec, req)
	return rec
}

func TestServer_LoginFlow(t *testing.T) {
	s := newTestServer(t)

	rec := post(s, "/api/login", `{"username":"alice","password":"s3cret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"results":{"otp":"email","otp_value":"a***@example.com"}}`, rec.Body.String())

	rec = post(s, "/api/otp", `{"username":"alice","otpCode":"123456"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"1:tok"`)

	rec = post(s, "/api/login", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())
}

func TestServer_Mutasi(t *testing.T) {
	s := newTestServer(t)

	rec := post(s, "/api/mutasi", `{"username":"alice","token":"1:tok","type":"debet"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"qris_history":{"jenis":"debet","results":[]}}`, rec.Body.String())

	rec = post(s, "/api/mutasi", `{"username":"alice","token":"expired"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"upstream returned status 403"}`, rec.Body.String())

	rec = post(s, "/api/mutasi", `{"token":"1:tok"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(s, "/api/mutasi", `{"username":"alice","token":"1:tok","type":"refund"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Withdraw(t *testing.T) {
	s := newTestServer(t)

	rec := post(s, "/api/withdraw", `{"username":"alice","token":"1:tok","amount":10000}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "withdrawn 10000")

	rec = post(s, "/api/withdraw", `{"username":"alice","token":"1:tok","amount":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.GetEcho().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	post(s, "/api/login", `{"username":"alice","password":"wrong"}`)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	s.GetEcho().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `orderkuota_proxy_upstream_requests_total{method="POST",path="/login",result="UpstreamError"} 1`)
}

func TestServer_UnknownRoute(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	rec := httptest.NewRecorder()
	s.GetEcho().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

func TestAllowOrigin(t *testing.T) {
	defaults := allowOrigin(nil)
	ok, _ := defaults("http://localhost:3000")
	assert.True(t, ok)
	ok, _ = defaults("https://evil.example.com")
	assert.False(t, ok)

	configured := allowOrigin([]string{"https://shop.example.com"})
	ok, _ = configured("https://shop.example.com")
	assert.True(t, ok)
	ok, _ = configured("http://localhost:3000")
	assert.False(t, ok)

	wildcard := allowOrigin([]string{"*"})
	ok, _ = wildcard("https://whatever.example.com")
	assert.True(t, ok)
}
