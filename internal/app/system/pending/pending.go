// Package pending tracks submit actions that have a request in flight, per
// browser session, so the same action cannot be submitted twice while the
// first request is still waiting on the analysis server.
package pending

import (
	"time"

	"github.com/dalemusser/mychessstyle/internal/app/system/actiongate"
	"github.com/patrickmn/go-cache"
)

// Registry is safe for concurrent use.
type Registry struct {
	cache *cache.Cache
}

// New returns a registry whose entries expire after ttl even if End is
// never called (a handler that panicked, a dropped connection).
func New(ttl time.Duration) *Registry {
	return &Registry{cache: cache.New(ttl, 2*ttl)}
}

func key(sessionID string, act actiongate.Action) string {
	return sessionID + "|" + string(act)
}

// Begin marks act as in flight for the session. It returns false when the
// action is already in flight.
func (p *Registry) Begin(sessionID string, act actiongate.Action) bool {
	return p.cache.Add(key(sessionID, act), struct{}{}, cache.DefaultExpiration) == nil
}

// End clears the in-flight mark.
func (p *Registry) End(sessionID string, act actiongate.Action) {
	p.cache.Delete(key(sessionID, act))
}

// InFlight reports whether act is in flight for the session.
func (p *Registry) InFlight(sessionID string, act actiongate.Action) bool {
	_, found := p.cache.Get(key(sessionID, act))
	return found
}

// Snapshot returns the session's in-flight actions in the shape the gate
// consumes.
func (p *Registry) Snapshot(sessionID string) map[actiongate.Action]bool {
	out := make(map[actiongate.Action]bool)
	for _, t := range actiongate.Tabs {
		act := actiongate.ActionFor(t)
		if p.InFlight(sessionID, act) {
			out[act] = true
		}
	}
	return out
}
