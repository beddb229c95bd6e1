package wire

import "testing"

func TestHeaderRoundTripTargeted(t *testing.T) {
	mac := MAC6{1, 2, 3, 4, 5, 6}
	h := Header{
		Source:                  42,
		Target:                  TargetedAt(mac),
		ResponseRequired:        true,
		AcknowledgementRequired: false,
		Sequence:                7,
		MessageType:             TypeGet,
	}
	h.Size = HeaderSize

	buf := h.Encode(nil)
	if len(buf) != HeaderSize {
		t.Fatalf("encoded header length = %d, want %d", len(buf), HeaderSize)
	}

	got, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got.Source != h.Source {
		t.Errorf("Source = %d, want %d", got.Source, h.Source)
	}
	if got.Target != h.Target {
		t.Errorf("Target = %v, want %v", got.Target, h.Target)
	}
	if !got.ResponseRequired {
		t.Error("ResponseRequired not round-tripped")
	}
	if got.AcknowledgementRequired {
		t.Error("AcknowledgementRequired should be false")
	}
	if got.Sequence != h.Sequence {
		t.Errorf("Sequence = %d, want %d", got.Sequence, h.Sequence)
	}
	if got.MessageType != h.MessageType {
		t.Errorf("MessageType = %v, want %v", got.MessageType, h.MessageType)
	}
}

func TestHeaderEncodeAllTargetSetsTaggedBit(t *testing.T) {
	h := Header{Size: HeaderSize, Target: AllDevices, MessageType: TypeGetService}
	buf := h.Encode(nil)

	protoFlags := uint16(buf[2]) | uint16(buf[3])<<8
	if protoFlags&(1<<13) == 0 {
		t.Error("tagged bit not set for All target")
	}
	for _, b := range buf[8:16] {
		if b != 0 {
			t.Fatal("target bytes must be zero for All target")
		}
	}
}

func TestHeaderEncodeTargetedClearsTaggedBit(t *testing.T) {
	mac := MAC6{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
	h := Header{Size: HeaderSize, Target: TargetedAt(mac), MessageType: TypeGetService}
	buf := h.Encode(nil)

	protoFlags := uint16(buf[2]) | uint16(buf[3])<<8
	if protoFlags&(1<<13) != 0 {
		t.Error("tagged bit set for a targeted header")
	}
	if buf[8] != mac[0] || buf[13] != mac[5] {
		t.Error("MAC not encoded into target bytes")
	}
	if buf[14] != 0 || buf[15] != 0 {
		t.Error("trailing target bytes must be zero")
	}
}

func TestHeaderProtocolNumberAlwaysPresent(t *testing.T) {
	h := Header{Size: HeaderSize, MessageType: TypeGet}
	buf := h.Encode(nil)
	protoFlags := uint16(buf[2]) | uint16(buf[3])<<8
	if protoFlags&0x0FFF != protocolNumber {
		t.Errorf("protocol number = %d, want %d", protoFlags&0x0FFF, protocolNumber)
	}
}

func TestDecodeHeaderRejectsBadProtocolNumber(t *testing.T) {
	h := Header{Size: HeaderSize, MessageType: TypeGet}
	buf := h.Encode(nil)
	buf[2], buf[3] = 0xFF, 0x0F // protocol number garbage, origin/addressable bits cleared too
	if _, err := DecodeHeader(buf); err == nil {
		t.Fatal("expected an error for an invalid protocol number")
	}
}

func TestDecodeHeaderRejectsShortBuffer(t *testing.T) {
	if _, err := DecodeHeader(make([]byte, HeaderSize-1)); err == nil {
		t.Fatal("expected an error for a too-short buffer")
	}
}

func TestSizeFieldIsFirstTwoBytes(t *testing.T) {
	h := Header{Size: 99, MessageType: TypeGet}
	buf := h.Encode(nil)
	size := uint16(buf[0]) | uint16(buf[1])<<8
	if size != 99 {
		t.Errorf("size field = %d, want 99", size)
	}
}
