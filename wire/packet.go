package wire

// Packet is a decoded LIFX packet: the addressing and flag fields of its
// Header, plus the decoded Message. Size is derived, not stored, since it's
// always HeaderSize + Message.PayloadSize().
type Packet struct {
	Source                  uint32
	Target                  Target
	Sequence                uint8
	ResponseRequired        bool
	AcknowledgementRequired bool
	Message                 Message
}

// Len returns the total wire length of p in bytes.
func (p Packet) Len() int {
	return HeaderSize + p.Message.PayloadSize()
}

// Encode appends the wire representation of p (header + payload) to buf.
func (p Packet) Encode(buf []byte) []byte {
	header := Header{
		Size:                    uint16(p.Len()),
		Source:                  p.Source,
		Target:                  p.Target,
		ResponseRequired:        p.ResponseRequired,
		AcknowledgementRequired: p.AcknowledgementRequired,
		Sequence:                p.Sequence,
		MessageType:             p.Message.Type(),
	}
	buf = header.Encode(buf)
	buf = p.Message.EncodePayload(buf)
	return buf
}

// DecodePacket decodes a complete packet from buf, which must contain
// exactly one frame (header + payload, no trailing bytes beyond what the
// header's Size field declares).
func DecodePacket(buf []byte) (Packet, error) {
	header, err := DecodeHeader(buf)
	if err != nil {
		return Packet{}, err
	}
	payload := buf[HeaderSize:]
	message, err := DecodeMessage(header.MessageType, payload)
	if err != nil {
		return Packet{}, err
	}
	return Packet{
		Source:                  header.Source,
		Target:                  header.Target,
		Sequence:                header.Sequence,
		ResponseRequired:        header.ResponseRequired,
		AcknowledgementRequired: header.AcknowledgementRequired,
		Message:                 message,
	}, nil
}
