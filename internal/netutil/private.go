// Package netutil holds small IP classification helpers shared by the rule
// engine and the anomaly detector.
package netutil

import "net"

var privateBlocks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// IsPrivate reports whether addr falls within 10/8, 172.16/12, 192.168/16,
// 127/8, or is the loopback address.
func IsPrivate(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	for _, n := range privateBlocks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// CommonPorts is the closed set of well-known ports the anomaly decision
// procedure treats specially.
var CommonPorts = map[uint16]struct{}{
	22: {}, 23: {}, 25: {}, 53: {}, 80: {}, 110: {}, 143: {}, 443: {},
	445: {}, 587: {}, 465: {}, 993: {}, 995: {}, 3306: {}, 3389: {},
	8080: {}, 8443: {},
}

// IsCommonPort reports whether port is in the common-port set.
func IsCommonPort(port uint16) bool {
	_, ok := CommonPorts[port]
	return ok
}
