package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(answersRecorded.WithLabelValues("metrics-test"))
	RecordAnswer("metrics-test", 0.8)
	RecordAnswer("metrics-test", 1.2)
	assert.Equal(t, before+2, testutil.ToFloat64(answersRecorded.WithLabelValues("metrics-test")))

	RecordSessionStarted("metrics-test")
	RecordSessionFinished("metrics-test", "certain")
	RecordSessionResumed("metrics-test")
	RecordQuestionLatency("metrics-test", 0.02)
	assert.Equal(t, 1.0, testutil.ToFloat64(sessionsFinished.WithLabelValues("metrics-test", "certain")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordSessionStarted("metrics-handler-test")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `mezzanine_sessions_started_total{game="metrics-handler-test"} 1`), body)
}
