package wire

import (
	"fmt"
	"net"
)

// DeviceAddress pairs a device's UDP socket address with the Target used to
// address it in packets. Discovery produces these; the client facade's
// send operations consume them.
type DeviceAddress struct {
	Addr   *net.UDPAddr
	Target Target
}

// broadcastAddr is the LIFX discovery broadcast address and the default
// port every device listens on.
var broadcastAddr = &net.UDPAddr{IP: net.IPv4bcast, Port: 56700}

// AllDeviceAddress is the broadcast DeviceAddress used to initiate discovery.
func AllDeviceAddress() DeviceAddress {
	return DeviceAddress{Addr: broadcastAddr, Target: AllDevices}
}

func (d DeviceAddress) String() string {
	return fmt.Sprintf("%s@%s", d.Target, d.Addr)
}
