package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTreeReviewed(t *testing.T) {
	before := testutil.ToFloat64(treesReviewed.WithLabelValues("approved"))
	RecordTreeReviewed("approved")
	assert.Equal(t, before+1, testutil.ToFloat64(treesReviewed.WithLabelValues("approved")))
}

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/trees", "200"))
	ObserveRequest("GET", "/api/trees", "200", 10*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/trees", "200")))
}

func TestRequestStarted(t *testing.T) {
	done := RequestStarted()
	assert.Equal(t, float64(1), testutil.ToFloat64(httpInFlight))
	done()
	assert.Equal(t, float64(0), testutil.ToFloat64(httpInFlight))
}
