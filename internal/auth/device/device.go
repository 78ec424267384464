// Package device derives a stable fingerprint and a coarse device class from
// HTTP request headers. Both feed the scoring engine and fraud checks.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// Info is everything we capture about the requesting device.
type Info struct {
	Fingerprint string
	IPAddress   string
	UserAgent   string
	DeviceType  string
	DisplayName string
}

// Service resolves device information from requests. With trustProxy set,
// the client IP is taken from X-Forwarded-For.
type Service struct {
	trustProxy bool
}

func NewService(trustProxy bool) *Service {
	return &Service{trustProxy: trustProxy}
}

// Describe captures the device info for one request.
func (s *Service) Describe(r *http.Request) Info {
	ua := r.UserAgent()
	ip := s.ClientIP(r)
	return Info{
		Fingerprint: Fingerprint(ua, r.Header.Get("Accept-Language"), r.Header.Get("Accept-Encoding"), ip),
		IPAddress:   ip,
		UserAgent:   ua,
		DeviceType:  Classify(ua),
		DisplayName: ParseUserAgent(ua),
	}
}

// ClientIP extracts the client address, preferring X-Forwarded-For when the
// service sits behind a trusted proxy.
func (s *Service) ClientIP(r *http.Request) string {
	if s.trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			// first hop is the client
			if i := strings.IndexByte(fwd, ','); i >= 0 {
				fwd = fwd[:i]
			}
			return strings.TrimSpace(fwd)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Fingerprint hashes the request attributes that stay stable across a user's
// session into a hex token. It is not a hardware identifier.
func Fingerprint(userAgent, acceptLanguage, acceptEncoding, ip string) string {
	sum := sha256.Sum256([]byte(userAgent + "|" + acceptLanguage + "|" + acceptEncoding + "|" + ip))
	return hex.EncodeToString(sum[:])
}

// Classify buckets a user agent into the device classes the scoring engine
// understands: iOS, Android, Windows, Mac, Desktop or Unknown.
func Classify(rawUA string) string {
	if rawUA == "" {
		return "Unknown"
	}
	ua := useragent.New(rawUA)
	platform := strings.ToLower(ua.Platform())
	osName := strings.ToLower(ua.OSInfo().Name)

	switch {
	case strings.Contains(platform, "iphone"), strings.Contains(platform, "ipad"),
		strings.Contains(osName, "ios"):
		return "iOS"
	case strings.Contains(osName, "android"):
		return "Android"
	case strings.Contains(osName, "windows"):
		return "Windows"
	case strings.Contains(osName, "mac"):
		return "Mac"
	case !ua.Mobile():
		return "Desktop"
	default:
		return "Unknown"
	}
}

// ParseUserAgent builds a human readable device name such as
// "Chrome on Mac OS X" for session listings.
func ParseUserAgent(rawUA string) string {
	if rawUA == "" {
		return "Unknown Device"
	}
	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	osName := ua.OSInfo().Name

	switch {
	case browser != "" && osName != "":
		return browser + " on " + osName
	case browser != "":
		return browser
	case osName != "":
		return osName
	default:
		return "Unknown Device"
	}
}
