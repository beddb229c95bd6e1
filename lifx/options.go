package lifx

import (
	"github.com/sirupsen/logrus"

	"github.com/lifx/lifxd/internal/discovery"
)

// config collects every Option's effect before NewWithConn builds the
// engine, with defaults sized for a single client talking to a home
// network's worth of devices.
type config struct {
	requestQueueSize int
	discoveryBacklog int
	logger           *logrus.Entry
	registry         discovery.Registry
	discoveryRate    float64
	discoveryBurst   int
}

func defaultConfig() config {
	return config{
		requestQueueSize: 64,
		discoveryBacklog: discovery.DefaultBacklog,
		discoveryRate:    0.5, // one broadcast every 2 seconds
		discoveryBurst:   1,
	}
}

// Option configures a Client at construction. See Connect, Dial, NewWithConn.
type Option func(*config)

// WithRequestQueueSize sets the outbound request channel's buffer capacity.
func WithRequestQueueSize(n int) Option {
	return func(c *config) { c.requestQueueSize = n }
}

// WithDiscoveryBacklog sets the per-subscriber discovery channel capacity.
func WithDiscoveryBacklog(n int) Option {
	return func(c *config) { c.discoveryBacklog = n }
}

// WithLogger sets the engine's diagnostic logger. Omitting this option
// leaves logging disabled.
func WithLogger(logger *logrus.Entry) Option {
	return func(c *config) { c.logger = logger }
}

// WithRegistry configures an optional, opt-in cache of discovered devices.
// A Client built without this option never touches a Registry.
func WithRegistry(r discovery.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithDiscoveryRateLimit sets the token-bucket rate (broadcasts per second)
// and burst size that gate Client.SendDiscovery.
func WithDiscoveryRateLimit(r float64, burst int) Option {
	return func(c *config) { c.discoveryRate = r; c.discoveryBurst = burst }
}
