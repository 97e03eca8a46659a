package anomaly

import "fmt"

// portSignature is a (src_port, protocol, dst_port) triple biased toward
// the deployed synthetic traffic generator rather than a production
// heuristic: any*-port wildcards are represented with dstPort == 0.
type portSignature struct {
	srcPort  int
	protocol string
	dstPort  int // 0 means wildcard
	attack   string
	minConf  float64
	maxConf  float64
}

var portSignatures = []portSignature{
	{srcPort: 50000, protocol: "udp", dstPort: 80, attack: "DDoS", minConf: 0.85, maxConf: 0.95},
	{srcPort: 58000, protocol: "tcp", dstPort: 0, attack: "PortScan", minConf: 0.85, maxConf: 0.95},
	{srcPort: 60000, protocol: "tcp", dstPort: 22, attack: "BruteForce", minConf: 0.85, maxConf: 0.95},
}

// matchPortSignature returns the overriding attack type and a confidence
// within the signature's range, or ok=false if no signature matches.
func matchPortSignature(srcPort int, protocol string, dstPort int) (attack string, confidence float64, ok bool) {
	for _, sig := range portSignatures {
		if sig.srcPort != srcPort || sig.protocol != protocol {
			continue
		}
		if sig.dstPort != 0 && sig.dstPort != dstPort {
			continue
		}
		return sig.attack, (sig.minConf + sig.maxConf) / 2, true
	}
	return "", 0, false
}

func (p portSignature) String() string {
	dst := "*"
	if p.dstPort != 0 {
		dst = fmt.Sprintf("%d", p.dstPort)
	}
	return fmt.Sprintf("(%d, %s, %s) -> %s", p.srcPort, p.protocol, dst, p.attack)
}
