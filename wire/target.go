package wire

import "fmt"

// MAC6 is a 6-byte hardware address identifying a single LIFX device.
type MAC6 [6]byte

func (m MAC6) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Target selects the device(s) a packet addresses: either every device on
// the network (All) or a single device identified by its MAC address.
//
// On the wire this is an 8-byte field plus the tagged bit of the
// protocol-flags word (see Header.Encode/DecodeHeader): when All is set the
// 8 bytes are all zero and the tagged bit signals broadcast; otherwise the
// first 6 bytes hold MAC and the tagged bit is clear.
type Target struct {
	All bool
	MAC MAC6
}

// AllDevices is the broadcast target used for discovery.
var AllDevices = Target{All: true}

// TargetedAt returns a Target addressing a single device by MAC address.
func TargetedAt(mac MAC6) Target {
	return Target{MAC: mac}
}

func (t Target) String() string {
	if t.All {
		return "all"
	}
	return t.MAC.String()
}
