// Package detection maps client IPs to regions and runs the basic fraud
// heuristics applied when an application is created. The IP tables cover the
// Uzbek provider ranges we care about; anything else is simply unknown.
package detection

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"
)

type ipRange struct {
	from netip.Addr
	to   netip.Addr
}

var uzbekistanRanges = []ipRange{
	{netip.MustParseAddr("84.54.64.0"), netip.MustParseAddr("84.54.95.255")},
	{netip.MustParseAddr("185.74.4.0"), netip.MustParseAddr("185.74.7.255")},
	{netip.MustParseAddr("185.196.212.0"), netip.MustParseAddr("185.196.215.255")},
	{netip.MustParseAddr("213.230.64.0"), netip.MustParseAddr("213.230.127.255")},
}

// regionByPrefix maps /24 prefixes to region names the scoring engine knows.
var regionByPrefix = map[string]string{
	"84.54.64":   "Tashkent",
	"84.54.65":   "Tashkent",
	"84.54.70":   "Samarkand",
	"84.54.75":   "Bukhara",
	"213.230.64": "Tashkent",
	"213.230.70": "Namangan",
	"213.230.80": "Andijan",
	"213.230.90": "Fergana",
}

var suspiciousAgentPatterns = []string{
	"bot", "crawler", "spider", "scraper", "curl", "wget",
	"python-requests", "scrapy", "selenium",
}

// IsUzbekistanIP reports whether the IPv4 address falls inside a known
// Uzbek provider range.
func IsUzbekistanIP(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return false
	}
	for _, r := range uzbekistanRanges {
		if addr.Compare(r.from) >= 0 && addr.Compare(r.to) <= 0 {
			return true
		}
	}
	return false
}

// RegionByIP resolves the region for an IPv4 address, or "" when the prefix
// is not in the table.
func RegionByIP(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return ""
	}
	o := addr.As4()
	prefix := fmt.Sprintf("%d.%d.%d", o[0], o[1], o[2])
	return regionByPrefix[prefix]
}

// RiskLevel buckets for request risk.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Assessment is the fraud verdict for one request.
type Assessment struct {
	Score       int      `json:"score"`
	Level       string   `json:"level"`
	Factors     []string `json:"factors"`
	Suspicious  bool     `json:"is_suspicious"`
	ShouldBlock bool     `json:"should_block"`
}

// Detector scores requests. With restrictToUZ set, traffic from outside the
// known Uzbek ranges is penalized.
type Detector struct {
	restrictToUZ bool
}

func New(restrictToUZ bool) *Detector {
	return &Detector{restrictToUZ: restrictToUZ}
}

// Assess scores a request from its user agent and client IP.
func (d *Detector) Assess(rawUA, ip string) Assessment {
	score := 0
	var factors []string

	if reason, bad := suspiciousUserAgent(rawUA); bad {
		score += 30
		factors = append(factors, reason)
	}
	if rawUA != "" && useragent.New(rawUA).Bot() {
		score += 50
		factors = append(factors, "bot detected")
	}
	if d.restrictToUZ && !IsUzbekistanIP(ip) {
		score += 50
		factors = append(factors, "IP not from Uzbekistan")
	}

	level := RiskLow
	switch {
	case score >= 70:
		level = RiskHigh
	case score >= 40:
		level = RiskMedium
	}

	return Assessment{
		Score:       score,
		Level:       level,
		Factors:     factors,
		Suspicious:  score >= 40,
		ShouldBlock: score >= 80,
	}
}

func suspiciousUserAgent(rawUA string) (string, bool) {
	if rawUA == "" {
		return "missing user agent", true
	}
	lower := strings.ToLower(rawUA)
	for _, pattern := range suspiciousAgentPatterns {
		if strings.Contains(lower, pattern) {
			return "suspicious pattern: " + pattern, true
		}
	}
	if len(rawUA) < 20 {
		return "user agent too short", true
	}
	return "", false
}
