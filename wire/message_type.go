package wire

import "strconv"

// MessageType is the 16-bit wire code identifying a packet's payload shape.
// The protocol defines many more codes than this module supports; unknown
// codes decode to a MessageType value outside the named constants below and
// are surfaced as an unexpected-message error at dispatch rather than
// rejected during header decoding, matching the wire format's openness.
type MessageType uint16

// Supported message type codes.
const (
	TypeGetService      MessageType = 2
	TypeStateService    MessageType = 3
	TypeGetLabel        MessageType = 23
	TypeSetLabel        MessageType = 24
	TypeStateLabel      MessageType = 25
	TypeAcknowledgement MessageType = 45
	TypeGet             MessageType = 101 // get light state
	TypeSetColor        MessageType = 102
	TypeState           MessageType = 107
)

var messageTypeNames = map[MessageType]string{
	TypeGetService:      "GetService",
	TypeStateService:    "StateService",
	TypeGetLabel:        "GetLabel",
	TypeSetLabel:        "SetLabel",
	TypeStateLabel:      "StateLabel",
	TypeAcknowledgement: "Acknowledgement",
	TypeGet:             "Get",
	TypeSetColor:        "SetColor",
	TypeState:           "State",
}

// Known reports whether t is one of the named, supported message types.
func (t MessageType) Known() bool {
	_, ok := messageTypeNames[t]
	return ok
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "Other(" + strconv.Itoa(int(t)) + ")"
}
