package client

import "sync"

// RotationPolicy holds the endpoint position shared by every call of a client.
type RotationPolicy interface {
	// Current returns the endpoint the next attempt should use.
	Current() string
	// Advance moves past from. If another caller already moved past it the
	// position is left alone, so concurrent failures on one endpoint rotate once.
	Advance(from string)
	Endpoints() []string
}

// StickyRotation stays on an endpoint until it fails.
type StickyRotation struct {
	mu        sync.Mutex
	endpoints []string
	index     int
}

// NewStickyRotation starts at the first endpoint.
func NewStickyRotation(endpoints []string) *StickyRotation {
	return &StickyRotation{endpoints: append([]string(nil), endpoints...)}
}

func (r *StickyRotation) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.endpoints) == 0 {
		return ""
	}
	return r.endpoints[r.index]
}

func (r *StickyRotation) Advance(from string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.endpoints) == 0 || r.endpoints[r.index] != from {
		return
	}
	r.index = (r.index + 1) % len(r.endpoints)
}

func (r *StickyRotation) Endpoints() []string {
	return append([]string(nil), r.endpoints...)
}
