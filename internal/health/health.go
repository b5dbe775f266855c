// Package health implements the dependency probe behind /health.
package health

import (
	"context"
	"time"
)

// StoreHealth is the view of the configuration store the probe needs.
type StoreHealth interface {
	PingOrigin(ctx context.Context) error
	PingRemote(ctx context.Context) error
	RemoteEnabled() bool
	Stats() (size int, ttl time.Duration)
}

// BusHealth is the view of the event bus the probe needs.
type BusHealth interface {
	Ping(ctx context.Context) error
}

// LocalCacheStatus describes the in-process tier.
type LocalCacheStatus struct {
	Size       int `json:"size"`
	TTLSeconds int `json:"ttl_seconds"`
}

// Status is the health report. Overall is "healthy" only when every enabled
// dependency answers; otherwise "degraded". The service keeps serving either
// way since validation fails open on configuration faults.
type Status struct {
	Overall     string           `json:"status"`
	Origin      string           `json:"origin"`
	RemoteCache string           `json:"remote_cache"`
	EventBus    string           `json:"event_bus"`
	LocalCache  LocalCacheStatus `json:"local_cache"`
	Timestamp   time.Time        `json:"timestamp"`
}

// Probe checks dependency liveness with bounded timeouts.
type Probe struct {
	store   StoreHealth
	bus     BusHealth
	timeout time.Duration
}

// NewProbe creates a probe. bus may be nil.
func NewProbe(store StoreHealth, bus BusHealth) *Probe {
	return &Probe{
		store:   store,
		bus:     bus,
		timeout: 2 * time.Second,
	}
}

// Check reports dependency status. It never returns an error; failures show
// up as "down" entries and a degraded overall status.
func (p *Probe) Check(ctx context.Context) Status {
	status := Status{
		Overall:     "healthy",
		Origin:      "up",
		RemoteCache: "disabled",
		EventBus:    "disabled",
		Timestamp:   time.Now().UTC(),
	}

	size, ttl := p.store.Stats()
	status.LocalCache = LocalCacheStatus{
		Size:       size,
		TTLSeconds: int(ttl.Seconds()),
	}

	pingCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.store.PingOrigin(pingCtx); err != nil {
		status.Origin = "down"
		status.Overall = "degraded"
	}

	if p.store.RemoteEnabled() {
		status.RemoteCache = "up"
		if err := p.store.PingRemote(pingCtx); err != nil {
			status.RemoteCache = "down"
			status.Overall = "degraded"
		}
	}

	if p.bus != nil {
		status.EventBus = "up"
		if err := p.bus.Ping(pingCtx); err != nil {
			status.EventBus = "down"
			status.Overall = "degraded"
		}
	}

	return status
}
