package client

import (
	"fmt"
	"time"

	"github.com/formflow/go-formflow"
	"golang.org/x/time/rate"
)

// WriteGate enforces a minimum spacing between write calls to the Forms and
// Drive services. A violating call is rejected with ErrRateLimited, never
// queued or delayed; the caller decides whether to wait and resubmit.
type WriteGate struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewWriteGate returns a gate that admits one write per minInterval.
func NewWriteGate(minInterval time.Duration) *WriteGate {
	return &WriteGate{
		interval: minInterval,
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Allow admits the call or returns a rate-limit error, distinct from API
// errors so callers can tell a local rejection from a remote one.
func (g *WriteGate) Allow() error {
	if g == nil {
		return nil
	}
	if !g.limiter.Allow() {
		return formflow.NewRateLimitError(fmt.Sprintf("write calls must be at least %s apart", g.interval), nil)
	}
	return nil
}
