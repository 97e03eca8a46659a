package ruleengine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// rawRule mirrors the JSON shape of one rule-file entry before validation.
type rawRule struct {
	SID      json.Number `json:"sid"`
	Msg      string      `json:"msg"`
	Protocol string      `json:"protocol"`
	SrcIP    string      `json:"src_ip"`
	DstIP    string      `json:"dst_ip"`
	SrcPort  interface{} `json:"src_port"`
	DstPort  interface{} `json:"dst_port"`
	Content  string      `json:"content"`
	Severity *int        `json:"severity"`
	Enabled  *bool       `json:"enabled"`
	Tags     []string    `json:"tags"`
}

var validProtocols = map[string]bool{"tcp": true, "udp": true, "ip": true, "any": true}

// LoadRules reads a JSON array of rule descriptors and compiles them into
// matchable Rule values. Disabled rules are dropped here and never
// considered at match time. Malformed entries abort the load with a
// diagnostic identifying the offending rule.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file %s: %w", path, err)
	}

	var raws []rawRule
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("parse rule file %s: %w", path, err)
	}

	rules := make([]Rule, 0, len(raws))
	for i, r := range raws {
		enabled := true
		if r.Enabled != nil {
			enabled = *r.Enabled
		}
		if !enabled {
			continue
		}

		rule, err := compileRule(r)
		if err != nil {
			return nil, fmt.Errorf("rule entry %d (sid=%s): %w", i, r.SID.String(), err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

func compileRule(r rawRule) (Rule, error) {
	sid, err := strconv.Atoi(strings.TrimSpace(r.SID.String()))
	if err != nil {
		return Rule{}, fmt.Errorf("invalid sid %q: %w", r.SID.String(), err)
	}

	proto := strings.ToLower(strings.TrimSpace(r.Protocol))
	if proto == "" {
		proto = "any"
	}
	if !validProtocols[proto] {
		return Rule{}, fmt.Errorf("invalid protocol %q", r.Protocol)
	}

	srcIP, err := compileIPPredicate(r.SrcIP)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid src_ip: %w", err)
	}
	dstIP, err := compileIPPredicate(r.DstIP)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid dst_ip: %w", err)
	}
	srcPort, err := compilePortPredicate(r.SrcPort)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid src_port: %w", err)
	}
	dstPort, err := compilePortPredicate(r.DstPort)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid dst_port: %w", err)
	}

	var content *regexp.Regexp
	if strings.TrimSpace(r.Content) != "" {
		// (?s) makes '.' match any byte including newline, the Go regexp
		// equivalent of Python's re.DOTALL.
		re, err := regexp.Compile("(?s)" + r.Content)
		if err != nil {
			return Rule{}, fmt.Errorf("invalid content regex %q: %w", r.Content, err)
		}
		content = re
	}

	severity := 1
	if r.Severity != nil {
		severity = *r.Severity
	}

	return Rule{
		SID:      sid,
		Msg:      r.Msg,
		Protocol: proto,
		SrcIP:    srcIP,
		DstIP:    dstIP,
		SrcPort:  srcPort,
		DstPort:  dstPort,
		Content:  content,
		Severity: severity,
		Enabled:  true,
		Tags:     r.Tags,
	}, nil
}

func compileIPPredicate(raw string) (ipPredicate, error) {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, "any") {
		return ipPredicate{kind: predAny}, nil
	}
	if strings.Contains(v, "/") {
		return ipPredicate{kind: predCIDR, value: v}, nil
	}
	return ipPredicate{kind: predExact, value: v}, nil
}

func compilePortPredicate(raw interface{}) (portPredicate, error) {
	s := portRawToString(raw)
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "any") {
		return portPredicate{kind: predAny}, nil
	}
	if strings.Contains(s, "-") {
		parts := strings.SplitN(s, "-", 2)
		lo, errLo := strconv.Atoi(strings.TrimSpace(parts[0]))
		hi, errHi := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errLo != nil || errHi != nil {
			return portPredicate{}, fmt.Errorf("invalid port range %q", s)
		}
		return portPredicate{kind: predRange, lo: lo, hi: hi}, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return portPredicate{}, fmt.Errorf("invalid port %q", s)
	}
	return portPredicate{kind: predExact, exact: p}, nil
}

func portRawToString(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return "any"
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
