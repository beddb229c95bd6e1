package engine

import (
	"net"

	"github.com/lifx/lifxd/wire"
)

// SinkKind selects what an outbound Request expects back, and therefore
// whether it competes for a sequence slot in the pending-response table.
type SinkKind int

const (
	// SinkNone is fire-and-forget: no response is expected, no slot is
	// reserved.
	SinkNone SinkKind = iota
	// SinkReply expects a full reply message, delivered on ReplyCh.
	SinkReply
	// SinkAck expects only an Acknowledgement, delivered on AckCh.
	SinkAck
)

// Request is one outbound submission to the engine: a message addressed at
// a device, plus the one-shot sink the engine should deliver into. The
// engine itself allocates the sequence number; callers never set one.
type Request struct {
	Addr    *net.UDPAddr
	Target  wire.Target
	Message wire.Message

	Kind    SinkKind
	ReplyCh chan wire.Inbound // valid when Kind == SinkReply, buffered capacity 1
	// AckCh carries nil on a received Acknowledgement, or an error (always
	// lifxerr.ConnectionClosed) if the engine drops the request unanswered.
	// Buffered capacity 1, closed after the one send.
	AckCh chan error
}

// NewFireAndForget builds a Request with no response sink.
func NewFireAndForget(addr *net.UDPAddr, target wire.Target, message wire.Message) *Request {
	return &Request{Addr: addr, Target: target, Message: message, Kind: SinkNone}
}

// NewReplyRequest builds a Request awaiting a full reply message.
func NewReplyRequest(addr *net.UDPAddr, target wire.Target, message wire.Message) *Request {
	return &Request{
		Addr: addr, Target: target, Message: message,
		Kind:    SinkReply,
		ReplyCh: make(chan wire.Inbound, 1),
	}
}

// NewAckRequest builds a Request awaiting only an Acknowledgement.
func NewAckRequest(addr *net.UDPAddr, target wire.Target, message wire.Message) *Request {
	return &Request{
		Addr: addr, Target: target, Message: message,
		Kind:  SinkAck,
		AckCh: make(chan error, 1),
	}
}
