// Package metrics exposes Prometheus metrics for guessing sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// sessionsStarted counts new and imported sessions.
	// Labels: game
	sessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mezzanine",
		Subsystem: "sessions",
		Name:      "started_total",
		Help:      "Sessions started, including imported ones",
	}, []string{"game"})

	// sessionsFinished counts sessions by how they ended.
	// Labels: game, state (certain, indifferent, collapsed)
	sessionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mezzanine",
		Subsystem: "sessions",
		Name:      "finished_total",
		Help:      "Sessions finished by final state",
	}, []string{"game", "state"})

	// answersRecorded counts verdicts given by players.
	// Labels: game
	answersRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mezzanine",
		Subsystem: "answers",
		Name:      "recorded_total",
		Help:      "Answers recorded across all sessions",
	}, []string{"game"})

	// bitsGained is the entropy reduction each answer achieved.
	// Labels: game
	bitsGained = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mezzanine",
		Subsystem: "answers",
		Name:      "bits_gained",
		Help:      "Entropy reduction per answer in bits",
		Buckets:   []float64{0, 0.1, 0.25, 0.5, 0.75, 1, 1.5, 2, 3, 5},
	}, []string{"game"})

	// questionLatency measures how long choosing the next question takes.
	// Labels: game
	questionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mezzanine",
		Subsystem: "questions",
		Name:      "selection_seconds",
		Help:      "Time to choose the next question in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"game"})

	// sessionsResumed counts sessions rebuilt from storage.
	// Labels: game
	sessionsResumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mezzanine",
		Subsystem: "sessions",
		Name:      "resumed_total",
		Help:      "Sessions rebuilt from stored observations",
	}, []string{"game"})
)

// RecordSessionStarted counts a started session
func RecordSessionStarted(game string) {
	sessionsStarted.WithLabelValues(game).Inc()
}

// RecordSessionFinished counts a session reaching a final state
func RecordSessionFinished(game, state string) {
	sessionsFinished.WithLabelValues(game, state).Inc()
}

// RecordSessionResumed counts a session rebuilt from storage
func RecordSessionResumed(game string) {
	sessionsResumed.WithLabelValues(game).Inc()
}

// RecordAnswer counts an answer and the bits it gained
func RecordAnswer(game string, bits float64) {
	answersRecorded.WithLabelValues(game).Inc()
	bitsGained.WithLabelValues(game).Observe(bits)
}

// RecordQuestionLatency records how long a question took to choose
func RecordQuestionLatency(game string, seconds float64) {
	questionLatency.WithLabelValues(game).Observe(seconds)
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
