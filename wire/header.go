// Package wire implements the LIFX LAN protocol wire format: the 36-byte
// packet header, the device target addressing scheme, the closed message
// type enumeration, the fixed-width label and HSBK color primitives, and the
// per-type message payload catalog.
//
// All multi-byte integers are little-endian unless stated otherwise. See
// https://lan.developer.lifx.com/docs/packet-contents for the protocol this
// package implements.
package wire

import (
	"encoding/binary"

	"github.com/lifx/lifxd/lifxerr"
)

// HeaderSize is the fixed size, in bytes, of every LIFX packet header: 8
// bytes of Frame, 16 bytes of Frame Address, 12 bytes of Protocol Header.
const HeaderSize = 36

// protocolNumber is the fixed value the low 12 bits of the protocol-flags
// word must carry on every packet, request or response.
const protocolNumber = 1024

// Header is the LIFX packet header. Fields correspond to the Frame, Frame
// Address, and Protocol Header sections of the wire format; they are
// combined here because all three reference each other and no caller needs
// them split apart.
type Header struct {
	// Size is the total packet size in bytes (header + payload).
	// Header.Encode writes it as given; Packet.Encode computes it from the
	// message, so callers encoding through a Packet never set it.
	Size uint16
	// Source is the client-chosen identifier devices echo back in replies,
	// letting a client filter out messages destined for other clients
	// sharing the network.
	Source uint32
	// Target selects the device(s) addressed by this packet.
	Target Target
	// ResponseRequired asks the device to reply with a state message.
	ResponseRequired bool
	// AcknowledgementRequired asks the device to reply with Acknowledgement.
	AcknowledgementRequired bool
	// Sequence correlates a reply or acknowledgement to its request.
	Sequence uint8
	// MessageType identifies the payload that follows the header.
	MessageType MessageType
}

// Encode appends the wire representation of h to buf and returns the
// extended slice. The caller is responsible for having already computed
// h.Size (Packet.Encode does this).
func (h Header) Encode(buf []byte) []byte {
	// Frame: size, protocol-flags, source.
	buf = binary.LittleEndian.AppendUint16(buf, h.Size)

	var protoFlags uint16 = protocolNumber
	protoFlags |= 1 << 12 // addressable
	if h.Target.All {
		protoFlags |= 1 << 13 // tagged
	}
	buf = binary.LittleEndian.AppendUint16(buf, protoFlags)
	buf = binary.LittleEndian.AppendUint32(buf, h.Source)

	// Frame Address: 8-byte target, 6 reserved, address-flags, sequence.
	var targetBytes [8]byte
	if !h.Target.All {
		copy(targetBytes[:6], h.Target.MAC[:])
	}
	buf = append(buf, targetBytes[:]...)
	buf = append(buf, 0, 0, 0, 0, 0, 0) // reserved

	var addrFlags byte
	if h.ResponseRequired {
		addrFlags |= 1 << 0
	}
	if h.AcknowledgementRequired {
		addrFlags |= 1 << 1
	}
	buf = append(buf, addrFlags, h.Sequence)

	// Protocol Header: 8 reserved, message type, 2 reserved.
	buf = append(buf, 0, 0, 0, 0, 0, 0, 0, 0)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(h.MessageType))
	buf = append(buf, 0, 0)

	return buf
}

// DecodeHeader parses a Header from the first HeaderSize bytes of buf. It
// does not validate reserved regions, only the fields spec'd as invariants:
// protocol number, addressable bit, and origin bits.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, lifxerr.New(lifxerr.KindFraming, "header needs %d bytes, got %d", HeaderSize, len(buf))
	}

	size := binary.LittleEndian.Uint16(buf[0:2])

	protoFlags := binary.LittleEndian.Uint16(buf[2:4])
	protocol := protoFlags & 0x0FFF
	if protocol != protocolNumber {
		return Header{}, lifxerr.New(lifxerr.KindFraming, "invalid protocol number %d", protocol)
	}
	origin := protoFlags >> 14
	if origin != 0 {
		return Header{}, lifxerr.New(lifxerr.KindFraming, "invalid origin indicator %d", origin)
	}
	addressable := protoFlags&(1<<12) != 0
	if !addressable {
		return Header{}, lifxerr.New(lifxerr.KindFraming, "message not marked as addressable")
	}
	tagged := protoFlags&(1<<13) != 0

	source := binary.LittleEndian.Uint32(buf[4:8])

	var target Target
	if tagged {
		target = Target{All: true}
	} else {
		var mac MAC6
		copy(mac[:], buf[8:14])
		target = Target{MAC: mac}
	}

	addrFlags := buf[22]
	responseRequired := addrFlags&(1<<0) != 0
	acknowledgementRequired := addrFlags&(1<<1) != 0

	sequence := buf[23]

	messageType := MessageType(binary.LittleEndian.Uint16(buf[32:34]))

	return Header{
		Size:                    size,
		Source:                  source,
		Target:                  target,
		ResponseRequired:        responseRequired,
		AcknowledgementRequired: acknowledgementRequired,
		Sequence:                sequence,
		MessageType:             messageType,
	}, nil
}

// PayloadSize returns the number of bytes following the header, derived
// from the already-decoded Size field.
func (h Header) PayloadSize() int {
	return int(h.Size) - HeaderSize
}
