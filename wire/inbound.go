package wire

import "net"

// Inbound is a decoded packet together with the peer address it arrived
// from, the shape delivered to a caller awaiting a reply. Keeping the peer
// address alongside the packet lets a caller distinguish which device on a
// shared target answered, which the packet's own Target field (often the
// broadcast target on a reply to a discovery request) cannot.
type Inbound struct {
	Packet Packet
	Peer   *net.UDPAddr
}
