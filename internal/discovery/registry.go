package discovery

import "github.com/lifx/lifxd/wire"

// Registry is the interface for an optional, opt-in cache of discovered
// devices, shared across client processes or restarts. Keyed by device MAC
// address, storing a single DeviceAddress per entry rather than a list of
// instances, since a MAC uniquely identifies one device.
//
// A Client constructed without lifx.WithRegistry never touches this
// interface — the engine's discovery-dispatch path treats a nil Registry
// as "no cache configured" and only publishes to the in-process Hub.
type Registry interface {
	// Register records that mac was last seen at addr, with a TTL lease in
	// seconds. Re-registering the same mac renews its lease.
	Register(mac wire.MAC6, addr wire.DeviceAddress, ttlSeconds int64) error

	// Discover returns every currently-registered device.
	Discover() ([]wire.DeviceAddress, error)

	// Watch returns a channel that emits the full device list whenever it
	// changes. The channel is closed when ctx-independent cleanup happens;
	// callers are expected to keep draining it for the registry's lifetime.
	Watch() <-chan []wire.DeviceAddress
}
