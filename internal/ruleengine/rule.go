// Package ruleengine compiles a declarative JSON rule set and matches
// decoded packets against it with deterministic, rule-declaration ordering.
package ruleengine

import "regexp"

// predicateKind enumerates the closed set of predicate shapes rules use for
// both IP and port fields: Any | Exact | Range | CIDR (Range only applies
// to ports; CIDR only applies to IPs).
type predicateKind int

const (
	predAny predicateKind = iota
	predExact
	predRange // port range "lo-hi"
	predCIDR  // IP CIDR
)

// ipPredicate is a tagged variant: Any | Exact(addr) | CIDR(net literal).
// CIDR containment is checked at match time rather than precompiled,
// matching the reference implementation's lazy network parsing.
type ipPredicate struct {
	kind  predicateKind
	value string // exact address or CIDR literal
}

// portPredicate is a tagged variant: Any | Exact(p) | Range(lo,hi).
type portPredicate struct {
	kind  predicateKind
	exact int
	lo    int
	hi    int
}

// Rule is the compiled representation of one line of the declarative rule
// file.
type Rule struct {
	SID      int
	Msg      string
	Protocol string // one of: tcp, udp, ip, any
	SrcIP    ipPredicate
	DstIP    ipPredicate
	SrcPort  portPredicate
	DstPort  portPredicate
	Content  *regexp.Regexp
	Severity int
	Enabled  bool
	Tags     []string
}
