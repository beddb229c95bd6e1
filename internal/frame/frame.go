// Package frame implements length-prefixed framing: peeking the declared
// packet size out of a byte buffer, rejecting oversize frames, and
// deferring decode until a whole frame has arrived. Every LIFX UDP
// datagram is exactly one frame, but the codec is written against a
// growable buffer so the same logic applies whether the caller hands it
// one datagram at a time or accumulates bytes from a stream-oriented
// transport.
package frame

import (
	"encoding/binary"

	"github.com/lifx/lifxd/lifxerr"
	"github.com/lifx/lifxd/wire"
)

// MaxPacketSize is the largest packet this codec accepts. Declared sizes
// larger than this are a denial-of-service guard, not a protocol limit.
const MaxPacketSize = 4096

// Decode attempts to parse one packet from the front of buf.
//
// Return values:
//   - pkt, n, nil: a packet was decoded; the caller should advance its
//     buffer by n bytes (the frame length) before calling Decode again.
//   - zero, 0, nil: not enough data has arrived yet (need more data); no
//     error, the caller should wait for more bytes.
//   - zero, 0, err: the frame is malformed (oversize, or the packet itself
//     failed to decode) and must be dropped.
func Decode(buf []byte) (wire.Packet, int, error) {
	if len(buf) < wire.HeaderSize {
		return wire.Packet{}, 0, nil
	}

	size := int(binary.LittleEndian.Uint16(buf[0:2]))
	if size > MaxPacketSize {
		return wire.Packet{}, 0, lifxerr.New(lifxerr.KindFraming, "packet of length %d exceeds maximum %d", size, MaxPacketSize)
	}
	if len(buf) < size {
		return wire.Packet{}, 0, nil
	}

	pkt, err := wire.DecodePacket(buf[:size])
	if err != nil {
		return wire.Packet{}, 0, err
	}
	return pkt, size, nil
}

// Encode appends the wire form of pkt to buf and returns the extended
// slice. Reserving capacity for the frame before encoding avoids
// reallocation mid-packet.
func Encode(buf []byte, pkt wire.Packet) []byte {
	if cap(buf)-len(buf) < pkt.Len() {
		grown := make([]byte, len(buf), len(buf)+pkt.Len())
		copy(grown, buf)
		buf = grown
	}
	return pkt.Encode(buf)
}
