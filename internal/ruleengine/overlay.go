package ruleengine

import (
	"encoding/json"
	"net"
	"os"
	"sync"
	"time"
)

// reloadInterval bounds how often the blocked/trusted IP files are
// re-read from disk.
const reloadInterval = 3 * time.Second

// Overlay tracks the blocked-ip and trusted-ip safety lists consulted
// before rule matching. Packets from blocked sources are dropped before
// any rule evaluation; packets from trusted sources (file-configured union
// with auto-detected local addresses) are likewise ignored, preventing
// self-inflicted alerts from the host running the engine.
type Overlay struct {
	blockedPath string
	trustedPath string

	mu         sync.RWMutex
	blocked    map[string]struct{}
	trusted    map[string]struct{}
	lastReload time.Time
}

// NewOverlay creates an overlay reading from the given files. Either path
// may be empty, in which case that list is always empty.
func NewOverlay(blockedPath, trustedPath string) *Overlay {
	o := &Overlay{
		blockedPath: blockedPath,
		trustedPath: trustedPath,
		blocked:     map[string]struct{}{},
		trusted:     map[string]struct{}{},
	}
	o.reload(time.Now())
	return o
}

// ShouldDrop reports whether a packet from srcIP should be dropped before
// rule evaluation: either it is explicitly blocked, or it is trusted
// (file-listed or a locally-owned address).
func (o *Overlay) ShouldDrop(now time.Time, srcIP string) bool {
	o.reload(now)

	o.mu.RLock()
	defer o.mu.RUnlock()

	if _, blocked := o.blocked[srcIP]; blocked {
		return true
	}
	if _, trusted := o.trusted[srcIP]; trusted {
		return true
	}
	return false
}

func (o *Overlay) reload(now time.Time) {
	o.mu.RLock()
	stale := now.Sub(o.lastReload) >= reloadInterval
	o.mu.RUnlock()
	if !stale {
		return
	}

	blocked := readIPSet(o.blockedPath)
	trusted := readIPSet(o.trustedPath)
	for ip := range localAddresses() {
		trusted[ip] = struct{}{}
	}

	o.mu.Lock()
	o.blocked = blocked
	o.trusted = trusted
	o.lastReload = now
	o.mu.Unlock()
}

func readIPSet(path string) map[string]struct{} {
	set := map[string]struct{}{}
	if path == "" {
		return set
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return set
	}
	var ips []string
	if err := json.Unmarshal(data, &ips); err != nil {
		return set
	}
	for _, ip := range ips {
		set[ip] = struct{}{}
	}
	return set
}

// localAddresses auto-detects addresses owned by the host running the
// engine: loopback plus every address bound to a local network interface.
func localAddresses() map[string]struct{} {
	addrs := map[string]struct{}{
		"127.0.0.1": {},
		"::1":       {},
	}

	ifaceAddrs, err := net.InterfaceAddrs()
	if err != nil {
		return addrs
	}
	for _, a := range ifaceAddrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		addrs[ipNet.IP.String()] = struct{}{}
	}
	return addrs
}
