package geocode

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/coworking-map/internal/resilience"
)

// Default throttling for public geocoders: one request per second, three
// retries two seconds apart.
const (
	DefaultMinDelay   = time.Second
	DefaultMaxRetries = 3
	DefaultErrorWait  = 2 * time.Second
)

// RateLimited spaces calls to the wrapped client and retries transient
// failures. Critical errors are returned on first occurrence.
type RateLimited struct {
	next    Client
	limiter *rate.Limiter
	policy  resilience.Policy
}

// NewRateLimited wraps next so that consecutive upstream calls (retries
// included) are at least minDelay apart. A non-positive minDelay disables
// spacing.
func NewRateLimited(next Client, minDelay time.Duration, policy resilience.Policy) *RateLimited {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
		policy:  policy,
	}
}

// DefaultPolicy is the retry policy used for geocoding lookups.
func DefaultPolicy() resilience.Policy {
	return RetryPolicy(DefaultMaxRetries, DefaultErrorWait)
}

// RetryPolicy retries up to maxRetries times, wait apart, logging each retry.
func RetryPolicy(maxRetries int, wait time.Duration) resilience.Policy {
	p := resilience.ConstantPolicy(maxRetries, wait)
	p.OnRetry = resilience.RetryLogger("geocode", "lookup")
	return p
}

// Geocode implements Client.
func (r *RateLimited) Geocode(ctx context.Context, query string) (*Result, error) {
	return resilience.DoVal(ctx, r.policy, func(ctx context.Context) (*Result, error) {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, resilience.NewCriticalError(eris.Wrap(err, "geocode: rate limit wait"), 0)
		}
		return r.next.Geocode(ctx, query)
	})
}
