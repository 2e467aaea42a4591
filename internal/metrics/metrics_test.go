package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveVerification(t *testing.T) {
	before := testutil.ToFloat64(verifications.WithLabelValues("qr", "Success"))

	ObserveVerification("qr", "Success", 3*time.Millisecond)
	ObserveVerification("qr", "Success", time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(verifications.WithLabelValues("qr", "Success")))
}

func TestCounters(t *testing.T) {
	issued := testutil.ToFloat64(ticketsIssued.WithLabelValues("Extra"))
	moved := testutil.ToFloat64(ticketsRedistributed)

	TicketIssued("Extra")
	TicketsRedistributed(3)

	assert.Equal(t, issued+1, testutil.ToFloat64(ticketsIssued.WithLabelValues("Extra")))
	assert.Equal(t, moved+3, testutil.ToFloat64(ticketsRedistributed))
}
