package geocode

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/coworking-map/internal/resilience"
)

// Provider is a named geocoding backend.
type Provider interface {
	Client
	Name() string
}

// availability is implemented by providers that can be switched off by
// configuration.
type availability interface {
	Available() bool
}

// Cascade tries providers in order until one matches.
type Cascade struct {
	providers []Provider
}

// NewCascade creates a Cascade over providers. Providers reporting
// Available() == false are skipped.
func NewCascade(providers ...Provider) *Cascade {
	var active []Provider
	for _, p := range providers {
		if a, ok := p.(availability); ok && !a.Available() {
			continue
		}
		active = append(active, p)
	}
	return &Cascade{providers: active}
}

// Providers returns the names of the active providers, in order.
func (c *Cascade) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Geocode implements Client. A critical error from any provider stops the
// cascade. When no provider matched, an unmatched result is returned if at
// least one provider answered cleanly; otherwise the last error is returned
// so the caller can retry.
func (c *Cascade) Geocode(ctx context.Context, query string) (*Result, error) {
	var (
		lastErr  error
		answered *Result
	)
	for _, p := range c.providers {
		result, err := p.Geocode(ctx, query)
		if err != nil {
			if resilience.IsCritical(err) {
				return nil, err
			}
			zap.L().Debug("cascade: provider error, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		if result != nil && result.Matched {
			return result, nil
		}
		if result != nil {
			answered = result
		}
	}

	if answered != nil || lastErr == nil {
		noMatch := &Result{Matched: false, Source: "cascade"}
		if answered != nil {
			noMatch.Source = answered.Source
		}
		return noMatch, nil
	}
	return nil, lastErr
}
