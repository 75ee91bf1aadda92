package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/quotes/{id}/mark-sent", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})
	mux.HandleFunc("GET /api/entitlements", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})
	return mux
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	handler := Middleware(newTestMux())

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/quotes/{id}/mark-sent", "402"))

	req := httptest.NewRequest(http.MethodPost, "/api/quotes/3f0c8a52-1d5e-4a52-9f58-1b8f0d0c1e2a/mark-sent", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/quotes/{id}/mark-sent", "402"))
	assert.Equal(t, before+1, after)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestMiddleware_ImplicitOK(t *testing.T) {
	handler := Middleware(newTestMux())

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/entitlements", "200"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/entitlements", nil))
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/entitlements", "200"))

	assert.Equal(t, before+1, after)
}

func TestMiddleware_UnmatchedPathsShareLabel(t *testing.T) {
	handler := Middleware(newTestMux())

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	for _, p := range []string{"/wp-login.php", "/.env", "/admin"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))

	assert.Equal(t, before+3, after)
}

func TestRunFinished(t *testing.T) {
	before := testutil.ToFloat64(CadenceRunsTotal.WithLabelValues("budget_exceeded"))
	RunFinished(time.Second, true)
	assert.Equal(t, before+1, testutil.ToFloat64(CadenceRunsTotal.WithLabelValues("budget_exceeded")))
}

func TestOrphansReleased_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(CadenceOrphansReleased)
	OrphansReleased(0)
	OrphansReleased(3)
	assert.Equal(t, before+3, testutil.ToFloat64(CadenceOrphansReleased))
}
