package net

import (
	"log/slog"
	"net"
)

// OutgoingIP finds the LAN address a host should put in its share link.
func OutgoingIP() string {
	// UDP dial sends nothing; it only asks the kernel for a route.
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return interfaceIP()
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// interfaceIP is used on networks without a default route.
func interfaceIP() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		slog.Warn("list interfaces", "err", err)
		return "127.0.0.1"
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	slog.Warn("no LAN address found, share link uses loopback")
	return "127.0.0.1"
}
