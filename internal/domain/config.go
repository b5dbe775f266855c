package domain

import (
	"time"
)

// Config holds the complete engine configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Component configurations
	Cache    CacheConfig    `json:"cache"`
	Origin   OriginConfig   `json:"origin"`
	EventBus EventBusConfig `json:"eventBus"`

	// Observability
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// DefaultConfig returns a single-process configuration: local cache plus
// origin, channel event bus. No external infrastructure required.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Cache: CacheConfig{
			Type:      "memory",
			LocalTTL:  300 * time.Second,
			RemoteTTL: 3600 * time.Second,
		},
		Origin: OriginConfig{
			BaseURL: "http://config-service.fature.svc.cluster.local",
			Timeout: 5 * time.Second,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// ClusterConfig returns a configuration for shared deployments:
// Redis remote cache tier and NATS event bus.
func ClusterConfig() *Config {
	cfg := DefaultConfig()
	cfg.Cache = CacheConfig{
		Type:      "redis",
		LocalTTL:  300 * time.Second,
		RemoteTTL: 3600 * time.Second,
		RedisAddr: "localhost:6379",
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	return cfg
}
