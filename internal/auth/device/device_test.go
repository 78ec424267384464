package device

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
)

const (
	chromeMacUA  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	safariPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	chromeDroid  = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	edgeWindows  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
	firefoxLinux = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

type DeviceSuite struct {
	suite.Suite
	svc *Service
}

func TestDeviceSuite(t *testing.T) {
	suite.Run(t, new(DeviceSuite))
}

func (s *DeviceSuite) SetupTest() {
	s.svc = NewService(true)
}

func (s *DeviceSuite) TestClassify() {
	s.Equal("Unknown", Classify(""))
	s.Equal("Mac", Classify(chromeMacUA))
	s.Equal("iOS", Classify(safariPhone))
	s.Equal("Android", Classify(chromeDroid))
	s.Equal("Windows", Classify(edgeWindows))
	s.Equal("Desktop", Classify(firefoxLinux))
}

func (s *DeviceSuite) TestParseUserAgent() {
	s.Equal("Unknown Device", ParseUserAgent(""))

	name := ParseUserAgent(chromeMacUA)
	s.Contains(name, "Chrome")
	s.Contains(name, " on ")

	name = ParseUserAgent(firefoxLinux)
	s.Contains(name, "Firefox")
}

func (s *DeviceSuite) TestFingerprint() {
	a := Fingerprint(chromeMacUA, "en-US", "gzip", "203.0.113.7")
	b := Fingerprint(chromeMacUA, "en-US", "gzip", "203.0.113.7")
	s.Equal(a, b)
	s.Len(a, 64)

	s.NotEqual(a, Fingerprint(chromeMacUA, "en-US", "gzip", "203.0.113.8"))
	s.NotEqual(a, Fingerprint(safariPhone, "en-US", "gzip", "203.0.113.7"))
}

func (s *DeviceSuite) TestClientIP() {
	s.Run("direct connection", func() {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "198.51.100.4:51234"
		s.Equal("198.51.100.4", s.svc.ClientIP(r))
	})

	s.Run("behind trusted proxy", func() {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:443"
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		s.Equal("203.0.113.7", s.svc.ClientIP(r))
	})

	s.Run("proxy headers ignored when untrusted", func() {
		direct := NewService(false)
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "198.51.100.4:51234"
		r.Header.Set("X-Forwarded-For", "203.0.113.7")
		s.Equal("198.51.100.4", direct.ClientIP(r))
	})
}

func (s *DeviceSuite) TestDescribe() {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "198.51.100.4:51234"
	r.Header.Set("User-Agent", safariPhone)
	r.Header.Set("Accept-Language", "uz-UZ")

	info := s.svc.Describe(r)
	s.Equal("iOS", info.DeviceType)
	s.Equal("198.51.100.4", info.IPAddress)
	s.Equal(safariPhone, info.UserAgent)
	s.Len(info.Fingerprint, 64)
}
