package netmon

import (
	"context"
	"net"
	"strings"
	"time"
)

// ClassifyInterface maps an interface name onto a connection type using the
// conventional Linux/Darwin naming schemes (wl*/wlan* for wireless LAN,
// wwan*/rmnet*/ppp* for cellular modems).
func ClassifyInterface(name string) ConnectionType {
	n := strings.ToLower(name)
	switch {
	case strings.HasPrefix(n, "wl"), strings.HasPrefix(n, "ath"):
		return ConnectionWifi
	case strings.HasPrefix(n, "wwan"), strings.HasPrefix(n, "rmnet"), strings.HasPrefix(n, "ppp"):
		return ConnectionCellular
	default:
		return ConnectionOther
	}
}

// interfaceLister is swapped in tests.
var interfaceLister = net.Interfaces

// ClassifyActivePath inspects the up, non-loopback interfaces that carry an
// address and returns the best classification (wifi preferred over cellular
// over other).
func ClassifyActivePath() ConnectionType {
	ifaces, err := interfaceLister()
	if err != nil {
		return ConnectionOther
	}
	best := ConnectionOther
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}
		switch ClassifyInterface(iface.Name) {
		case ConnectionWifi:
			return ConnectionWifi
		case ConnectionCellular:
			best = ConnectionCellular
		}
	}
	return best
}

// Probe periodically re-classifies the active path and feeds the monitor.
// The monitor deduplicates, so downstream components only see real changes.
// This adapter lives at the process edge; the core stays signal-driven.
func Probe(ctx context.Context, m *Monitor, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	m.Update(ClassifyActivePath())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Update(ClassifyActivePath())
		}
	}
}
