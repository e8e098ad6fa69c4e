package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectors_Registered(t *testing.T) {
	// promauto registers with the default registry at init; a duplicate
	// registration would have panicked before this test ran. Exercise the
	// vec collectors so label typos fail here rather than in production.
	SubmissionsTotal.WithLabelValues("accepted").Inc()
	RemindersTotal.WithLabelValues("sent").Inc()
	RequestsPending.Set(3)

	if got := testutil.ToFloat64(RequestsPending); got != 3 {
		t.Fatalf("RequestsPending = %v, want 3", got)
	}
	if got := testutil.ToFloat64(SubmissionsTotal.WithLabelValues("accepted")); got < 1 {
		t.Fatalf("SubmissionsTotal(accepted) = %v, want >= 1", got)
	}
}
