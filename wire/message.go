package wire

import (
	"encoding/binary"
	"time"

	"github.com/lifx/lifxd/lifxerr"
)

// Message is the closed set of payloads this module encodes and decodes.
// Each concrete type below implements it; DecodeMessage's type switch on
// Header.MessageType is the single dispatch point, per the wire format's
// closed catalog — new payload shapes are added as a new MessageType
// constant plus a new case in DecodeMessage, never by open extension.
type Message interface {
	// Type returns the wire code for this payload.
	Type() MessageType
	// PayloadSize returns the encoded payload length in bytes.
	PayloadSize() int
	// EncodePayload appends the wire form of the payload (not the header) to buf.
	EncodePayload(buf []byte) []byte
}

// GetService requests a StateService reply from every device; it is
// typically sent to the broadcast target to perform discovery.
type GetService struct{}

func (GetService) Type() MessageType             { return TypeGetService }
func (GetService) PayloadSize() int              { return 0 }
func (GetService) EncodePayload(b []byte) []byte { return b }

// Service identifies the transport a device advertises in a StateService
// reply. The protocol only specifies UDP (1); any other byte value is
// preserved verbatim, and IsUDP reports false for it.
type Service uint8

// ServiceUDP is the only service LIFX devices currently advertise.
const ServiceUDP Service = 1

// IsUDP reports whether s is the UDP service.
func (s Service) IsUDP() bool { return s == ServiceUDP }

// StateService is a device's reply to GetService, advertising the UDP port
// it listens on.
type StateService struct {
	Service Service
	Port    uint32
}

func (StateService) Type() MessageType     { return TypeStateService }
func (StateService) PayloadSize() int      { return 5 }
func (s StateService) EncodePayload(b []byte) []byte {
	b = append(b, byte(s.Service))
	b = binary.LittleEndian.AppendUint32(b, s.Port)
	return b
}

func decodeStateService(buf []byte) (StateService, error) {
	if len(buf) < 5 {
		return StateService{}, lifxerr.New(lifxerr.KindFraming, "StateService needs 5 bytes, got %d", len(buf))
	}
	return StateService{
		Service: Service(buf[0]),
		Port:    binary.LittleEndian.Uint32(buf[1:5]),
	}, nil
}

// GetLabel requests a device's current label.
type GetLabel struct{}

func (GetLabel) Type() MessageType             { return TypeGetLabel }
func (GetLabel) PayloadSize() int              { return 0 }
func (GetLabel) EncodePayload(b []byte) []byte { return b }

// SetLabel sets a device's label.
type SetLabel struct {
	Label Label
}

func (SetLabel) Type() MessageType        { return TypeSetLabel }
func (SetLabel) PayloadSize() int         { return LabelSize }
func (s SetLabel) EncodePayload(b []byte) []byte { return s.Label.Encode(b) }

func decodeSetLabel(buf []byte) (SetLabel, error) {
	label, err := DecodeLabel(buf)
	if err != nil {
		return SetLabel{}, err
	}
	return SetLabel{Label: label}, nil
}

// StateLabel is a device's reply carrying its current label.
type StateLabel struct {
	Label Label
}

func (StateLabel) Type() MessageType        { return TypeStateLabel }
func (StateLabel) PayloadSize() int         { return LabelSize }
func (s StateLabel) EncodePayload(b []byte) []byte { return s.Label.Encode(b) }

func decodeStateLabel(buf []byte) (StateLabel, error) {
	label, err := DecodeLabel(buf)
	if err != nil {
		return StateLabel{}, err
	}
	return StateLabel{Label: label}, nil
}

// Acknowledgement is a device's reply to a request with
// AcknowledgementRequired set.
type Acknowledgement struct{}

func (Acknowledgement) Type() MessageType             { return TypeAcknowledgement }
func (Acknowledgement) PayloadSize() int              { return 0 }
func (Acknowledgement) EncodePayload(b []byte) []byte { return b }

// Get requests a device's current light state.
type Get struct{}

func (Get) Type() MessageType             { return TypeGet }
func (Get) PayloadSize() int              { return 0 }
func (Get) EncodePayload(b []byte) []byte { return b }

// SetColor sets a device's color, transitioning over Duration.
type SetColor struct {
	Color    HSBK
	Duration time.Duration
}

func (SetColor) Type() MessageType { return TypeSetColor }
func (SetColor) PayloadSize() int  { return 1 + HSBKSize + 4 }
func (s SetColor) EncodePayload(b []byte) []byte {
	b = append(b, 0) // reserved
	b = s.Color.Encode(b)
	b = binary.LittleEndian.AppendUint32(b, uint32(s.Duration.Milliseconds()))
	return b
}

func decodeSetColor(buf []byte) (SetColor, error) {
	if len(buf) < 1+HSBKSize+4 {
		return SetColor{}, lifxerr.New(lifxerr.KindFraming, "SetColor needs %d bytes, got %d", 1+HSBKSize+4, len(buf))
	}
	color, err := DecodeHSBK(buf[1:])
	if err != nil {
		return SetColor{}, err
	}
	duration := binary.LittleEndian.Uint32(buf[1+HSBKSize:])
	return SetColor{Color: color, Duration: time.Duration(duration) * time.Millisecond}, nil
}

// State is a device's reply carrying its full light state.
type State struct {
	Color HSBK
	Power uint16
	Label Label
}

func (State) Type() MessageType { return TypeState }
func (State) PayloadSize() int  { return HSBKSize + 2 + 2 + LabelSize + 8 }
func (s State) EncodePayload(b []byte) []byte {
	b = s.Color.Encode(b)
	b = binary.LittleEndian.AppendUint16(b, 0) // reserved (i16)
	b = binary.LittleEndian.AppendUint16(b, s.Power)
	b = s.Label.Encode(b)
	b = binary.LittleEndian.AppendUint64(b, 0) // reserved
	return b
}

func decodeState(buf []byte) (State, error) {
	const size = HSBKSize + 2 + 2 + LabelSize + 8
	if len(buf) < size {
		return State{}, lifxerr.New(lifxerr.KindFraming, "State needs %d bytes, got %d", size, len(buf))
	}
	color, err := DecodeHSBK(buf)
	if err != nil {
		return State{}, err
	}
	power := binary.LittleEndian.Uint16(buf[HSBKSize+2 : HSBKSize+4])
	label, err := DecodeLabel(buf[HSBKSize+4 : HSBKSize+4+LabelSize])
	if err != nil {
		return State{}, err
	}
	return State{Color: color, Power: power, Label: label}, nil
}

// DecodeMessage decodes a payload given the already-decoded message type.
// Unknown/unsupported types produce a KindUnexpectedMessage error; they are
// never rejected earlier, since the header itself decodes regardless of
// whether the message type is one this module understands.
func DecodeMessage(messageType MessageType, payload []byte) (Message, error) {
	switch messageType {
	case TypeGetService:
		return GetService{}, nil
	case TypeStateService:
		return decodeStateService(payload)
	case TypeGetLabel:
		return GetLabel{}, nil
	case TypeSetLabel:
		return decodeSetLabel(payload)
	case TypeStateLabel:
		return decodeStateLabel(payload)
	case TypeAcknowledgement:
		return Acknowledgement{}, nil
	case TypeGet:
		return Get{}, nil
	case TypeSetColor:
		return decodeSetColor(payload)
	case TypeState:
		return decodeState(payload)
	default:
		return nil, lifxerr.New(lifxerr.KindUnexpectedMessage, "unexpected message type %s", messageType)
	}
}
