package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/lifx/lifxd/wire"
)

// etcdKeyPrefix namespaces every key this registry writes.
const etcdKeyPrefix = "/lifx/devices/"

// deviceRecord is the JSON value stored for each device, sufficient to
// reconstruct a wire.DeviceAddress on Discover/Watch.
type deviceRecord struct {
	IP     string `json:"ip"`
	Port   int    `json:"port"`
	Tagged bool   `json:"tagged"`
	MAC    string `json:"mac,omitempty"`
}

// EtcdRegistry implements Registry on top of etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client
}

// NewEtcdRegistry connects to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

func keyFor(mac wire.MAC6) string {
	return etcdKeyPrefix + mac.String()
}

// Register stores addr under mac's key with a TTL lease, keeping the lease
// alive with etcd's KeepAlive stream so the entry survives as long as this
// process does, and expires automatically if it crashes.
func (r *EtcdRegistry) Register(mac wire.MAC6, addr wire.DeviceAddress, ttlSeconds int64) error {
	ctx := context.Background()

	lease, err := r.client.Grant(ctx, ttlSeconds)
	if err != nil {
		return err
	}

	record := toRecord(addr)
	val, err := json.Marshal(record)
	if err != nil {
		return err
	}

	if _, err := r.client.Put(ctx, keyFor(mac), string(val), clientv3.WithLease(lease.ID)); err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}
	go func() {
		for range ch {
		}
	}()
	return nil
}

// Discover returns every device currently registered under the device prefix.
func (r *EtcdRegistry) Discover() ([]wire.DeviceAddress, error) {
	ctx := context.Background()
	resp, err := r.client.Get(ctx, etcdKeyPrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	addrs := make([]wire.DeviceAddress, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var record deviceRecord
		if err := json.Unmarshal(kv.Value, &record); err != nil {
			continue
		}
		addrs = append(addrs, fromRecord(record))
	}
	return addrs, nil
}

// Watch monitors the device prefix and re-fetches the full list on any
// change, rather than trying to apply individual events, since the
// refreshed list is cheap and avoids divergence.
func (r *EtcdRegistry) Watch() <-chan []wire.DeviceAddress {
	ctx := context.Background()
	out := make(chan []wire.DeviceAddress, 1)

	go func() {
		defer close(out)
		watchChan := r.client.Watch(ctx, etcdKeyPrefix, clientv3.WithPrefix())
		for range watchChan {
			devices, err := r.Discover()
			if err != nil {
				continue
			}
			out <- devices
		}
	}()

	return out
}

func toRecord(addr wire.DeviceAddress) deviceRecord {
	record := deviceRecord{
		IP:     addr.Addr.IP.String(),
		Port:   addr.Addr.Port,
		Tagged: addr.Target.All,
	}
	if !addr.Target.All {
		record.MAC = addr.Target.MAC.String()
	}
	return record
}

func fromRecord(record deviceRecord) wire.DeviceAddress {
	target := wire.AllDevices
	if !record.Tagged {
		var mac wire.MAC6
		fmt.Sscanf(record.MAC, "%02x:%02x:%02x:%02x:%02x:%02x", &mac[0], &mac[1], &mac[2], &mac[3], &mac[4], &mac[5])
		target = wire.TargetedAt(mac)
	}
	return wire.DeviceAddress{
		Addr:   &net.UDPAddr{IP: net.ParseIP(record.IP), Port: record.Port},
		Target: target,
	}
}
