package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveGuess(t *testing.T) {
	scored := testutil.ToFloat64(GuessesScored.WithLabelValues("test-observe", "vincenty"))
	failed := testutil.ToFloat64(NonConvergent.WithLabelValues("test-observe"))

	ObserveGuess("test-observe", "vincenty", 343.9, 814, false)
	ObserveGuess("test-observe", "", 0, 0, true)

	if got := testutil.ToFloat64(GuessesScored.WithLabelValues("test-observe", "vincenty")); got != scored+1 {
		t.Errorf("guesses_total = %v, want %v", got, scored+1)
	}
	if got := testutil.ToFloat64(NonConvergent.WithLabelValues("test-observe")); got != failed+1 {
		t.Errorf("nonconvergent_total = %v, want %v", got, failed+1)
	}
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Middleware)
	r.HandleFunc("/test/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/test/{id}", "418"))
	for _, path := range []string{"/test/a", "/test/b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/test/{id}", "418")); got != before+2 {
		t.Errorf("requests_total = %v, want %v", got, before+2)
	}
}
