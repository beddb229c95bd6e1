// Package engine implements the LIFX connection engine: a single-owner
// goroutine holding the UDP socket and all mutable connection state
// (pending-response table, sequence counter), reached by any number of
// callers through a multi-producer request channel.
//
// The engine runs as a reader goroutine plus a dispatcher goroutine: the
// reader decodes inbound datagrams and feeds them to the dispatcher, and
// the dispatcher is the sole owner of the pending table and sequence
// counter, selecting between inbound packets, outbound requests, and
// shutdown. Giving one goroutine exclusive ownership of the pending table
// and sequence counter keeps sequence allocation and deferral free of
// locks.
package engine

import (
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lifx/lifxd/internal/discovery"
	"github.com/lifx/lifxd/internal/frame"
	"github.com/lifx/lifxd/lifxerr"
	"github.com/lifx/lifxd/wire"
)

// registryTTLSeconds is how long a discovered device stays registered in an
// optional Registry before its lease expires, absent a fresher sighting.
const registryTTLSeconds = 90

// inboundQueueSize bounds how far the reader goroutine may run ahead of the
// dispatcher before it blocks, matching UDP's natural one-datagram-at-a-time
// delivery.
const inboundQueueSize = 32

type pendingEntry struct {
	kind SinkKind
	*Request
}

type inboundPacket struct {
	pkt  wire.Packet
	peer *net.UDPAddr
}

// Config collects the engine's construction-time knobs. Zero values fall
// back to sensible defaults; see lifx.Option for the public equivalents.
type Config struct {
	RequestQueueSize int
	DiscoveryBacklog int
	Logger           *logrus.Entry
	Registry         discovery.Registry
}

// Engine owns a UDP socket and runs the connection dispatch loop in its own
// goroutines until its request channel's sender calls Shutdown or the
// socket fails.
type Engine struct {
	conn   *net.UDPConn
	source uint32
	logger *logrus.Entry

	requests chan *Request
	inbound  chan inboundPacket
	readErr  chan error

	hub      *discovery.Hub
	registry discovery.Registry

	pending  map[uint8]pendingEntry
	nextSeq  uint8
	deferred *Request

	shutdownOnce   sync.Once
	shutdownSignal chan struct{}
	stopped        chan struct{}
}

// New starts an Engine over conn. The engine takes ownership of conn: it
// reads from and writes to it until it stops, and callers must not use conn
// directly afterward.
func New(conn *net.UDPConn, source uint32, cfg Config) *Engine {
	queueSize := cfg.RequestQueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	logger := cfg.Logger
	if logger == nil {
		disabled := logrus.New()
		disabled.SetOutput(discardWriter{})
		logger = logrus.NewEntry(disabled)
	}

	e := &Engine{
		conn:           conn,
		source:         source,
		logger:         logger,
		requests:       make(chan *Request, queueSize),
		inbound:        make(chan inboundPacket, inboundQueueSize),
		readErr:        make(chan error, 1),
		hub:            discovery.NewHub(cfg.DiscoveryBacklog),
		registry:       cfg.Registry,
		pending:        make(map[uint8]pendingEntry),
		shutdownSignal: make(chan struct{}),
		stopped:        make(chan struct{}),
	}

	go e.readLoop()
	go e.run()
	return e
}

// Hub returns the discovery broadcast every StateService sighting is
// published to.
func (e *Engine) Hub() *discovery.Hub { return e.hub }

// Stopped returns a channel closed once the engine has exited its dispatch
// loop, whether from Shutdown or a terminal socket failure.
func (e *Engine) Stopped() <-chan struct{} { return e.stopped }

// Shutdown signals the dispatch loop to exit. Safe to call more than once
// and from any goroutine. Every pending response sink is then dropped,
// surfacing ConnectionClosed to its awaiting caller.
func (e *Engine) Shutdown() {
	e.shutdownOnce.Do(func() { close(e.shutdownSignal) })
}

// Send submits a request to the engine. It returns lifxerr.ConnectionClosed
// if the engine has already stopped rather than blocking forever.
func (e *Engine) Send(req *Request) error {
	select {
	case <-e.stopped:
		return lifxerr.ConnectionClosed
	default:
	}
	select {
	case e.requests <- req:
		return nil
	case <-e.stopped:
		return lifxerr.ConnectionClosed
	}
}

// readLoop decodes one datagram per socket read and hands it to the
// dispatcher. A UDP datagram is always exactly one LIFX frame, so
// frame.Decode here only needs to validate and parse it, never accumulate
// partial data.
func (e *Engine) readLoop() {
	buf := make([]byte, frame.MaxPacketSize)
	for {
		n, peer, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case e.readErr <- err:
			case <-e.stopped:
			}
			return
		}

		pkt, size, err := frame.Decode(buf[:n])
		if err != nil {
			e.logger.WithError(err).Warn("dropping malformed packet")
			continue
		}
		if size == 0 {
			e.logger.Warn("dropping truncated datagram")
			continue
		}

		select {
		case e.inbound <- inboundPacket{pkt: pkt, peer: peer}:
		case <-e.shutdownSignal:
			return
		case <-e.stopped:
			return
		}
	}
}

// run is the dispatch loop: a select over the event sources that can
// advance connection state (inbound readiness, outbound request
// availability, shutdown) plus a terminal socket read error, relying on
// the Go runtime to park the goroutine between events.
func (e *Engine) run() {
	defer e.shutdown()

	for {
		requests := e.requests
		if e.deferred != nil {
			// Sequence space exhausted: stop pulling new requests until an
			// inbound event frees a slot.
			requests = nil
		}

		select {
		case in := <-e.inbound:
			e.dispatchInbound(in)
			e.retryDeferred()

		case err := <-e.readErr:
			e.logger.WithError(err).Error("socket terminated")
			return

		case req := <-requests:
			e.dispatchOutbound(req)

		case <-e.shutdownSignal:
			return
		}
	}
}

// dispatchInbound routes a decoded packet to whatever is waiting for it:
// the pending-response table first, then discovery if it's an unsolicited
// StateService.
func (e *Engine) dispatchInbound(in inboundPacket) {
	pkt := in.pkt

	if pkt.Source != e.source {
		e.logger.WithFields(logrus.Fields{
			"got": pkt.Source, "want": e.source,
		}).Debug("dropping packet for a different source")
		return
	}

	if entry, ok := e.pending[pkt.Sequence]; ok {
		delete(e.pending, pkt.Sequence)
		e.deliverTo(entry, pkt, in.peer)
		return
	}

	if ss, ok := pkt.Message.(wire.StateService); ok && ss.Service.IsUDP() {
		e.publishDiscovery(pkt, ss, in.peer)
		return
	}
}

// deliverTo hands pkt to the sink registered for it. ReplyCh and AckCh are
// each buffered for exactly the one value the engine ever sends on them,
// so the send below never blocks and there is no dropped-receiver case to
// detect: an abandoned caller simply never reads the buffered value.
func (e *Engine) deliverTo(entry pendingEntry, pkt wire.Packet, peer *net.UDPAddr) {
	switch entry.kind {
	case SinkReply:
		entry.ReplyCh <- wire.Inbound{Packet: pkt, Peer: peer}
		close(entry.ReplyCh)
	case SinkAck:
		if _, isAck := pkt.Message.(wire.Acknowledgement); isAck {
			entry.AckCh <- nil
			close(entry.AckCh)
		}
		// Non-Acknowledgement traffic matching a pending ack slot is left
		// unhandled; devices are not expected to send anything else in
		// response to an acknowledgement-only request.
	}
}

func (e *Engine) publishDiscovery(pkt wire.Packet, ss wire.StateService, peer *net.UDPAddr) {
	addr := wire.DeviceAddress{
		Addr:   &net.UDPAddr{IP: peer.IP, Port: int(ss.Port)},
		Target: pkt.Target,
	}
	e.hub.Publish(addr)

	if e.registry == nil || pkt.Target.All {
		// A broadcast target is not a single device identity and has
		// nothing to key a registry entry on.
		return
	}
	if err := e.registry.Register(pkt.Target.MAC, addr, registryTTLSeconds); err != nil {
		e.logger.WithError(err).Warn("registry update failed")
	}
}

// dispatchOutbound allocates a sequence number for req, encodes it, and
// writes it to the wire, registering a pending-response slot first when
// the request expects a reply or acknowledgement.
func (e *Engine) dispatchOutbound(req *Request) {
	needsSlot := req.Kind != SinkNone

	seq, ok := e.allocateSequence(needsSlot)
	if !ok {
		e.logger.Debug("sequence space exhausted, deferring request")
		e.deferred = req
		return
	}

	if needsSlot {
		e.pending[seq] = pendingEntry{kind: req.Kind, Request: req}
	}

	pkt := wire.Packet{
		Source:                  e.source,
		Target:                  req.Target,
		Sequence:                seq,
		ResponseRequired:        req.Kind == SinkReply,
		AcknowledgementRequired: req.Kind == SinkAck,
		Message:                 req.Message,
	}
	buf := pkt.Encode(make([]byte, 0, pkt.Len()))

	if _, err := e.conn.WriteToUDP(buf, req.Addr); err != nil {
		e.logger.WithError(err).Warn("write failed, dropping request")
		if needsSlot {
			delete(e.pending, seq)
		}
		e.failSink(req)
	}
}

func (e *Engine) failSink(req *Request) {
	switch req.Kind {
	case SinkReply:
		close(req.ReplyCh)
	case SinkAck:
		select {
		case req.AckCh <- lifxerr.ConnectionClosed:
		default:
		}
		close(req.AckCh)
	}
}

// allocateSequence hands out the next sequence number. Fire-and-forget
// requests always take nextSeq and post-increment it; requests needing a
// pending-response slot scan from nextSeq for the first free entry,
// reporting failure only once all 256 slots are occupied.
func (e *Engine) allocateSequence(needsSlot bool) (uint8, bool) {
	if !needsSlot {
		seq := e.nextSeq
		e.nextSeq++
		return seq, true
	}

	start := e.nextSeq
	for i := 0; i < 256; i++ {
		seq := start + uint8(i)
		if _, used := e.pending[seq]; !used {
			e.nextSeq = seq + 1
			return seq, true
		}
	}
	return 0, false
}

func (e *Engine) retryDeferred() {
	if e.deferred == nil {
		return
	}
	req := e.deferred
	e.deferred = nil
	e.dispatchOutbound(req)
}

// shutdown runs once, when run() returns for any reason: it stops the
// reader goroutine and drops every pending sink, surfacing
// ConnectionClosed to whoever is waiting on it. This includes requests
// still sitting in e.requests that were never dispatched: closing
// e.stopped alone doesn't reach a caller already blocked on ReplyCh or
// AckCh, so those queued requests must be drained and failed here too.
func (e *Engine) shutdown() {
	e.Shutdown()
	close(e.stopped)

	for seq, entry := range e.pending {
		e.failSink(entry.Request)
		delete(e.pending, seq)
	}
	if e.deferred != nil {
		e.failSink(e.deferred)
		e.deferred = nil
	}
	for {
		select {
		case req := <-e.requests:
			e.failSink(req)
		default:
			e.conn.Close()
			return
		}
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
