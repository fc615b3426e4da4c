package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRequestSubmitted(t *testing.T) {
	before := testutil.ToFloat64(get().requestsSubmitted.WithLabelValues("Lost Card"))

	RequestSubmitted("Lost Card")
	RequestSubmitted("Lost Card")

	after := testutil.ToFloat64(get().requestsSubmitted.WithLabelValues("Lost Card"))
	assert.Equal(t, before+2, after)
}

func TestSetActiveSessions(t *testing.T) {
	SetActiveSessions("wizard", 3)
	assert.Equal(t, float64(3), testutil.ToFloat64(get().activeSessions.WithLabelValues("wizard")))

	SetActiveSessions("wizard", 0)
	assert.Equal(t, float64(0), testutil.ToFloat64(get().activeSessions.WithLabelValues("wizard")))
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "ok", resultLabel(nil))
	assert.Equal(t, "error", resultLabel(errors.New("boom")))
}

func TestObserveStoreSave(t *testing.T) {
	ObserveStoreSave("requests", time.Now(), nil)
	ObserveStoreSave("requests", time.Now(), errors.New("disk full"))

	assert.GreaterOrEqual(t, testutil.CollectAndCount(get().storeSaveLatency), 2)
}
