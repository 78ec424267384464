package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestIsUzbekistanIP(t *testing.T) {
	assert.True(t, IsUzbekistanIP("84.54.64.1"))
	assert.True(t, IsUzbekistanIP("84.54.95.255"))
	assert.True(t, IsUzbekistanIP("213.230.100.50"))
	assert.False(t, IsUzbekistanIP("84.54.96.0"))
	assert.False(t, IsUzbekistanIP("8.8.8.8"))
	assert.False(t, IsUzbekistanIP("::1"))
	assert.False(t, IsUzbekistanIP("not-an-ip"))
}

func TestRegionByIP(t *testing.T) {
	assert.Equal(t, "Tashkent", RegionByIP("84.54.64.12"))
	assert.Equal(t, "Samarkand", RegionByIP("84.54.70.200"))
	assert.Equal(t, "Fergana", RegionByIP("213.230.90.1"))
	assert.Equal(t, "", RegionByIP("84.54.71.1"))
	assert.Equal(t, "", RegionByIP("garbage"))
}

type DetectorSuite struct {
	suite.Suite
}

func TestDetectorSuite(t *testing.T) {
	suite.Run(t, new(DetectorSuite))
}

func (s *DetectorSuite) TestCleanRequest() {
	d := New(false)
	a := d.Assess(browserUA, "84.54.64.1")
	s.Equal(0, a.Score)
	s.Equal(RiskLow, a.Level)
	s.False(a.Suspicious)
	s.False(a.ShouldBlock)
	s.Empty(a.Factors)
}

func (s *DetectorSuite) TestSuspiciousUserAgent() {
	d := New(false)

	a := d.Assess("", "84.54.64.1")
	s.Equal(30, a.Score)
	s.Contains(a.Factors, "missing user agent")

	a = d.Assess("curl/8.4.0", "84.54.64.1")
	s.GreaterOrEqual(a.Score, 30)
	s.Contains(a.Factors[0], "curl")
}

func (s *DetectorSuite) TestForeignTraffic() {
	relaxed := New(false)
	s.Equal(0, relaxed.Assess(browserUA, "8.8.8.8").Score)

	strict := New(true)
	a := strict.Assess(browserUA, "8.8.8.8")
	s.Equal(50, a.Score)
	s.Equal(RiskMedium, a.Level)
	s.True(a.Suspicious)
	s.False(a.ShouldBlock)
}

func (s *DetectorSuite) TestStackedFactors() {
	strict := New(true)
	a := strict.Assess("curl/8.4.0", "8.8.8.8")
	s.GreaterOrEqual(a.Score, 80)
	s.Equal(RiskHigh, a.Level)
	s.True(a.ShouldBlock)
}
