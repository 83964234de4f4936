package net

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_localsketch._tcp"

// Advertise announces a host on the LAN. The record is pinned to the same
// address the share link uses. Shut the returned server down when the host
// stops.
func Advertise(port int) (*mdns.Server, error) {
	instance, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("advertise: hostname: %w", err)
	}
	service, err := newService(instance, port, net.ParseIP(OutgoingIP()))
	if err != nil {
		return nil, err
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("advertise: start mDNS server: %w", err)
	}
	slog.Info("advertising over mDNS", "instance", instance, "port", port)
	return server, nil
}

// newService describes a host. A nil ip lets mdns resolve the hostname.
func newService(instance string, port int, ip net.IP) (*mdns.MDNSService, error) {
	var ips []net.IP
	if ip != nil && !ip.IsLoopback() {
		ips = []net.IP{ip}
	}
	txt := []string{"app=LocalSketch", "path=" + GesturePath}
	service, err := mdns.NewMDNSService(instance, serviceType, "", "", port, ips, txt)
	if err != nil {
		return nil, fmt.Errorf("advertise: describe service: %w", err)
	}
	return service, nil
}

// Discover waits up to timeout for an advertised host and returns its
// host:port.
func Discover(timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	done := make(chan error, 1)
	go func() {
		done <- mdns.Query(params)
		close(entries)
	}()

	for e := range entries {
		if addr := entryAddr(e); addr != "" {
			go func() {
				for range entries {
				}
			}()
			return addr, nil
		}
	}
	if err := <-done; err != nil {
		return "", fmt.Errorf("mDNS query: %w", err)
	}
	return "", ErrNoHost
}

func entryAddr(e *mdns.ServiceEntry) string {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port)
}
