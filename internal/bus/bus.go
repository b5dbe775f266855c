package bus

import (
	"fmt"

	"github.com/fature/cpa-engine/internal/domain"
)

// New creates an event bus based on configuration.
// Type "channel" runs in-process; "nats" connects to a NATS cluster.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "", "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}
