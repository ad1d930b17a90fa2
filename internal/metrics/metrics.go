package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "globeguess",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "globeguess",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Scoring metrics
	GuessesScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "globeguess",
		Subsystem: "scoring",
		Name:      "guesses_total",
		Help:      "Total guesses scored, by distance method",
	}, []string{"region", "method"})

	NonConvergent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "globeguess",
		Subsystem: "scoring",
		Name:      "nonconvergent_total",
		Help:      "Guesses for which the ellipsoidal distance did not converge",
	}, []string{"region"})

	GuessDistance = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "globeguess",
		Subsystem: "scoring",
		Name:      "distance_km",
		Help:      "Distance between guess and answer in kilometres",
		Buckets:   []float64{20, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000},
	}, []string{"region"})

	GuessPoints = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "globeguess",
		Subsystem: "scoring",
		Name:      "points",
		Help:      "Points awarded per guess",
		Buckets:   prometheus.LinearBuckets(0, 100, 11),
	}, []string{"region"})

	RoundsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "globeguess",
		Subsystem: "game",
		Name:      "rounds_finished_total",
		Help:      "Total games played to the last location",
	}, []string{"region"})
)

// ObserveGuess records one scored guess. Unscored guesses only count as
// non-convergent.
func ObserveGuess(region, method string, distanceKm float64, points int, unscored bool) {
	if unscored {
		NonConvergent.WithLabelValues(region).Inc()
		return
	}
	GuessesScored.WithLabelValues(region, method).Inc()
	GuessDistance.WithLabelValues(region).Observe(distanceKm)
	GuessPoints.WithLabelValues(region).Observe(float64(points))
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency labelled by the route
// template, so /api/regions/{region}/locations is one series.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := "unmatched"
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
