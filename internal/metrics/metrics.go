package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Move results.
const (
	MoveApplied   = "applied"
	MoveDuplicate = "duplicate"
	MoveConflict  = "conflict"
	MoveRejected  = "rejected"
	MoveError     = "error"
)

var (
	movesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tictactoe_moves_total",
			Help: "Submitted moves by result",
		},
		[]string{"result"},
	)

	gamesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tictactoe_games_created_total",
			Help: "Total number of created games",
		},
	)

	httpReqDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tictactoe_http_request_duration_ms",
			Help:    "HTTP request duration in ms",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"method", "route", "status"},
	)
)

func RecordMove(result string) {
	movesTotal.WithLabelValues(result).Inc()
}

func RecordGameCreated() {
	gamesCreated.Inc()
}

// RecordHTTPRequest observes one finished request. route is the registered path, not the raw URL.
func RecordHTTPRequest(method, route string, status int, started time.Time) {
	httpReqDuration.WithLabelValues(method, route, strconv.Itoa(status)).
		Observe(float64(time.Since(started).Milliseconds()))
}
