package lifx

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lifx/lifxd/lifxerr"
	"github.com/lifx/lifxd/wire"
)

func newLoopbackPair(t *testing.T, source uint32) (*Client, *net.UDPConn) {
	t.Helper()

	clientConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	deviceConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { deviceConn.Close() })

	client, err := NewWithConn(clientConn, source, WithDiscoveryRateLimit(1000, 10))
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client, deviceConn
}

func deviceAddressFor(conn *net.UDPConn, mac MAC6) DeviceAddress {
	return DeviceAddress{Addr: conn.LocalAddr().(*net.UDPAddr), Target: TargetedAt(mac)}
}

func TestGetLabel(t *testing.T) {
	client, device := newLoopbackPair(t, 1)
	mac := MAC6{1, 1, 1, 1, 1, 1}
	addr := deviceAddressFor(device, mac)

	errs := make(chan error, 1)
	var label Label
	go func() {
		var err error
		label, err = client.GetLabel(addr)
		errs <- err
	}()

	buf := make([]byte, wire.HeaderSize)
	device.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, clientAddr, err := device.ReadFromUDP(buf)
	require.NoError(t, err)
	req, err := wire.DecodePacket(buf[:n])
	require.NoError(t, err)
	require.Equal(t, wire.TypeGetLabel, req.Message.Type())
	require.True(t, req.ResponseRequired, "response-required bit should be set")

	kitchen, err := wire.NewLabel("Kitchen")
	require.NoError(t, err)
	reply := wire.Packet{
		Source:   1,
		Target:   TargetedAt(mac),
		Sequence: req.Sequence,
		Message:  wire.StateLabel{Label: kitchen},
	}
	_, err = device.WriteToUDP(reply.Encode(nil), clientAddr)
	require.NoError(t, err)

	select {
	case err := <-errs:
		require.NoError(t, err)
		require.Equal(t, kitchen, label)
	case <-time.After(2 * time.Second):
		t.Fatal("GetLabel did not return")
	}
}

func TestSetLightColor(t *testing.T) {
	client, device := newLoopbackPair(t, 1)
	mac := MAC6{2, 2, 2, 2, 2, 2}
	addr := deviceAddressFor(device, mac)

	errs := make(chan error, 1)
	go func() {
		errs <- client.SetLightColor(addr, HSBK{Hue: 10, Saturation: 20, Brightness: 30, Temperature: 4000}, 5*time.Second)
	}()

	buf := make([]byte, wire.HeaderSize+32)
	device.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, clientAddr, err := device.ReadFromUDP(buf)
	require.NoError(t, err)
	req, err := wire.DecodePacket(buf[:n])
	require.NoError(t, err)
	require.True(t, req.AcknowledgementRequired)

	setColor, ok := req.Message.(wire.SetColor)
	require.True(t, ok)
	require.Equal(t, uint16(10), setColor.Color.Hue)
	require.Equal(t, 5*time.Second, setColor.Duration)

	ack := wire.Packet{Source: 1, Target: TargetedAt(mac), Sequence: req.Sequence, Message: wire.Acknowledgement{}}
	_, err = device.WriteToUDP(ack.Encode(nil), clientAddr)
	require.NoError(t, err)

	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("SetLightColor did not return")
	}
}

func TestCloseSurfacesConnectionClosed(t *testing.T) {
	client, device := newLoopbackPair(t, 1)
	mac := MAC6{3, 3, 3, 3, 3, 3}
	addr := deviceAddressFor(device, mac)

	errs := make(chan error, 1)
	go func() {
		_, err := client.GetLightState(addr)
		errs <- err
	}()

	// Let the request reach the engine before closing it.
	time.Sleep(50 * time.Millisecond)
	client.Close()

	select {
	case err := <-errs:
		require.ErrorIs(t, err, lifxerr.ConnectionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("GetLightState should have returned once the client closed")
	}
}

func TestSendDiscoveryDeliversStateService(t *testing.T) {
	client, device := newLoopbackPair(t, 1234)

	sub, unsubscribe, err := client.SendDiscovery(context.Background())
	require.NoError(t, err)
	defer unsubscribe()

	buf := make([]byte, wire.HeaderSize)
	device.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, clientAddr, err := device.ReadFromUDP(buf)
	require.NoError(t, err)
	req, err := wire.DecodePacket(buf[:n])
	require.NoError(t, err)
	require.Equal(t, wire.TypeGetService, req.Message.Type())
	require.True(t, req.Target.All)

	mac := MAC6{9, 9, 9, 9, 9, 9}
	reply := wire.Packet{
		Source:   1234,
		Target:   TargetedAt(mac),
		Sequence: 0,
		Message:  wire.StateService{Service: wire.ServiceUDP, Port: 56700},
	}
	_, err = device.WriteToUDP(reply.Encode(nil), clientAddr)
	require.NoError(t, err)

	select {
	case discovered := <-sub:
		require.Equal(t, mac, discovered.Target.MAC)
		require.Equal(t, 56700, discovered.Addr.Port)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a discovery event")
	}
}
