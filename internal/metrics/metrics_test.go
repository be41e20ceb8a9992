package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(bookingTransitions.WithLabelValues("approve"))
	IncTransition("approve")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingTransitions.WithLabelValues("approve")))

	IncConflict("blocked")
	assert.GreaterOrEqual(t, testutil.ToFloat64(bookingConflicts.WithLabelValues("blocked")), 1.0)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "marketplace_booking_transitions_total")
}
