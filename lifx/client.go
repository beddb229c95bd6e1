// Package lifx is the public client facade for the LIFX LAN protocol: a
// cloneable Client handle backed by a single connection engine, plus
// higher-level helpers for the handful of device operations (label,
// light state, color) most callers need.
//
// Call flow for a response-expecting operation:
//
//	SendWithResponse(addr, message)
//	  → engine.NewReplyRequest     → allocate a one-shot reply sink
//	  → Engine.Send                → hand the request to the dispatch loop
//	  → <-req.ReplyCh              → block until the engine delivers or drops it
//	  → wire.Inbound                → decoded reply + peer address
package lifx

import (
	"context"
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/lifx/lifxd/internal/engine"
	"github.com/lifx/lifxd/lifxerr"
	"github.com/lifx/lifxd/wire"
)

// DefaultPort is the UDP port every LIFX device listens on, and the port
// Connect binds to.
const DefaultPort = 56700

// Re-exported wire types: callers of this package should never need to
// import wire directly for everyday use.
type (
	DeviceAddress = wire.DeviceAddress
	Target        = wire.Target
	MAC6          = wire.MAC6
	HSBK          = wire.HSBK
	Label         = wire.Label
	Inbound       = wire.Inbound
)

// AllDevices is the broadcast target used for discovery.
var AllDevices = wire.AllDevices

// TargetedAt returns a Target addressing a single device by MAC address.
func TargetedAt(mac MAC6) Target { return wire.TargetedAt(mac) }

// Client is a cloneable handle onto a connection engine: the outbound
// request sender plus a discovery throttle. Multiple Clients built via
// Clone share one engine, one UDP socket and one discovery throttle.
type Client struct {
	eng              *engine.Engine
	discoveryLimiter *rate.Limiter
}

// Connect binds the LIFX-recommended 0.0.0.0:56700 and starts a Client.
func Connect(source uint32, opts ...Option) (*Client, error) {
	return Dial(&net.UDPAddr{Port: DefaultPort}, source, opts...)
}

// Dial binds addr (e.g. "0.0.0.0:56700") and starts a Client.
func Dial(addr *net.UDPAddr, source uint32, opts ...Option) (*Client, error) {
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, lifxerr.Wrap(lifxerr.KindNetwork, err, "binding %s", addr)
	}
	if err := conn.SetBroadcast(true); err != nil {
		conn.Close()
		return nil, lifxerr.Wrap(lifxerr.KindNetwork, err, "enabling broadcast on %s", addr)
	}
	return NewWithConn(conn, source, opts...)
}

// NewWithConn starts a Client over a socket the caller already owns (tests
// commonly hand it a loopback-bound *net.UDPConn). The Client takes
// ownership of conn.
func NewWithConn(conn *net.UDPConn, source uint32, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	eng := engine.New(conn, source, engine.Config{
		RequestQueueSize: cfg.requestQueueSize,
		DiscoveryBacklog: cfg.discoveryBacklog,
		Logger:           cfg.logger,
		Registry:         cfg.registry,
	})

	return &Client{
		eng:              eng,
		discoveryLimiter: rate.NewLimiter(rate.Limit(cfg.discoveryRate), cfg.discoveryBurst),
	}, nil
}

// Clone duplicates the request sender and shares the same engine. Each
// clone gets its own discovery subscription whenever it calls
// SendDiscovery.
func (c *Client) Clone() *Client {
	return &Client{eng: c.eng, discoveryLimiter: c.discoveryLimiter}
}

// Close stops the underlying engine. Every in-flight SendWithResponse or
// SendWithAcknowledgement call then returns ConnectionClosed.
func (c *Client) Close() {
	c.eng.Shutdown()
}

// SendAsync enqueues a fire-and-forget request and returns immediately.
func (c *Client) SendAsync(addr DeviceAddress, message wire.Message) error {
	return c.eng.Send(engine.NewFireAndForget(addr.Addr, addr.Target, message))
}

// SendWithResponse enqueues a request expecting a full reply and blocks
// until the engine delivers one or the connection closes.
func (c *Client) SendWithResponse(addr DeviceAddress, message wire.Message) (wire.Inbound, error) {
	req := engine.NewReplyRequest(addr.Addr, addr.Target, message)
	if err := c.eng.Send(req); err != nil {
		return wire.Inbound{}, err
	}
	in, ok := <-req.ReplyCh
	if !ok {
		return wire.Inbound{}, lifxerr.ConnectionClosed
	}
	return in, nil
}

// SendWithAcknowledgement enqueues a request expecting only an
// Acknowledgement and blocks until it arrives or the connection closes.
func (c *Client) SendWithAcknowledgement(addr DeviceAddress, message wire.Message) error {
	req := engine.NewAckRequest(addr.Addr, addr.Target, message)
	if err := c.eng.Send(req); err != nil {
		return err
	}
	err, ok := <-req.AckCh
	if !ok {
		return lifxerr.ConnectionClosed
	}
	return err
}

// SendDiscovery throttles itself against WithDiscoveryRateLimit, then sends
// a broadcast GetService and returns a fresh subscription to the discovery
// stream along with the unsubscribe function the caller must call when
// done listening.
func (c *Client) SendDiscovery(ctx context.Context) (<-chan wire.DeviceAddress, func(), error) {
	if err := c.discoveryLimiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	sub, unsubscribe := c.eng.Hub().Subscribe()
	if err := c.SendAsync(wire.AllDeviceAddress(), wire.GetService{}); err != nil {
		unsubscribe()
		return nil, nil, err
	}
	return sub, unsubscribe, nil
}

// GetLabel requests and returns a device's current label.
func (c *Client) GetLabel(addr DeviceAddress) (Label, error) {
	in, err := c.SendWithResponse(addr, wire.GetLabel{})
	if err != nil {
		return "", err
	}
	stateLabel, ok := in.Packet.Message.(wire.StateLabel)
	if !ok {
		return "", lifxerr.New(lifxerr.KindUnexpectedMessage, "expected StateLabel, got %s", in.Packet.Message.Type())
	}
	return stateLabel.Label, nil
}

// GetLightState requests and returns a device's full light state.
func (c *Client) GetLightState(addr DeviceAddress) (wire.State, error) {
	in, err := c.SendWithResponse(addr, wire.Get{})
	if err != nil {
		return wire.State{}, err
	}
	state, ok := in.Packet.Message.(wire.State)
	if !ok {
		return wire.State{}, lifxerr.New(lifxerr.KindUnexpectedMessage, "expected State, got %s", in.Packet.Message.Type())
	}
	return state, nil
}

// SetLightColor sets a device's color, transitioning over duration, and
// waits for the device to acknowledge it.
func (c *Client) SetLightColor(addr DeviceAddress, color HSBK, duration time.Duration) error {
	return c.SendWithAcknowledgement(addr, wire.SetColor{Color: color, Duration: duration})
}
