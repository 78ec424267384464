package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	appsservice "kreditomat/internal/applications/service"
	appsstore "kreditomat/internal/applications/store"
	"kreditomat/internal/auth/device"
	authmodels "kreditomat/internal/auth/models"
	authservice "kreditomat/internal/auth/service"
	authstore "kreditomat/internal/auth/store"
	"kreditomat/internal/auth/token"
	"kreditomat/internal/calculator"
	"kreditomat/internal/detection"
	offersmodels "kreditomat/internal/offers/models"
	offersservice "kreditomat/internal/offers/service"
	offersstore "kreditomat/internal/offers/store"
	pdservice "kreditomat/internal/personaldata/service"
	pdstore "kreditomat/internal/personaldata/store"
	"kreditomat/internal/pdn"
	"kreditomat/internal/platform/config"
	refservice "kreditomat/internal/referral/service"
	id "kreditomat/pkg/domain"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type RouterSuite struct {
	suite.Suite
	handler http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.Default()
	bounds := config.DefaultBounds()
	calc := calculator.New(bounds)
	engine := pdn.New(calc, bounds.TargetPDN)
	defaultRate := decimal.NewFromInt(24)

	users := authstore.NewMemoryUserStore()
	auth := authservice.New(
		users,
		authstore.NewMemoryOTPStore(),
		authstore.NewMemorySessionStore(),
		token.NewService("router-test-key", time.Hour),
		authservice.NewLogSender(logger),
		5*time.Minute, 6, time.Hour,
		authservice.WithDevMode(true),
	)

	appStore := appsstore.NewMemoryStore()
	offerStore := offersstore.NewMemoryStore()
	s.seedOffer(offerStore)

	offers := offersservice.New(offerStore, calc)
	profiles := pdservice.New(pdstore.NewMemoryStore())
	referrals := refservice.New(users, NewLoanActivity(appStore))
	applications := appsservice.New(appStore, profiles, referrals, auth, offers, engine, defaultRate)

	s.handler = NewRouter(Deps{
		Logger:       logger,
		Auth:         auth,
		Applications: applications,
		Offers:       offers,
		Profiles:     profiles,
		Referrals:    referrals,
		Calculator:   calc,
		PDNEngine:    engine,
		DefaultRate:  defaultRate,
		Devices:      device.NewService(false),
		Detector:     detection.New(false),
	})
}

func (s *RouterSuite) seedOffer(st *offersstore.MemoryStore) {
	now := time.Now()
	err := st.Create(context.Background(), &offersmodels.Offer{
		ID:            id.NewOfferID(),
		BankName:      "Ipak Yuli Bank",
		MinAmount:     decimal.NewFromInt(500_000),
		MaxAmount:     decimal.NewFromInt(50_000_000),
		MinTermMonths: 3,
		MaxTermMonths: 36,
		AnnualRate:    decimal.NewFromInt(22),
		MinScore:      500,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	s.Require().NoError(err)
}

func (s *RouterSuite) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("User-Agent", browserUA)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) authenticate(phone string) string {
	rec := s.do(http.MethodPost, "/auth/request", `{"phone": "`+phone+`"}`, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var msg authmodels.MessageResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &msg))
	s.Require().NotEmpty(msg.Code)

	rec = s.do(http.MethodPost, "/auth/verify", `{"phone": "`+phone+`", "code": "`+msg.Code+`"}`, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var auth authmodels.AuthResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &auth))
	s.Require().NotEmpty(auth.AccessToken)
	return auth.AccessToken
}

func (s *RouterSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"status":"ok"`)
}

func (s *RouterSuite) TestAuthRequired() {
	for _, path := range []string{"/applications", "/personal-data", "/referrals/code"} {
		rec := s.do(http.MethodGet, path, "", "")
		s.Equal(http.StatusUnauthorized, rec.Code, path)
	}
}

func (s *RouterSuite) TestPublicCalculator() {
	rec := s.do(http.MethodPost, "/calculator", `{"amount": 1000000, "term_months": 12}`, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "monthly_payment")
}

func (s *RouterSuite) TestFullApplicationFlow() {
	token := s.authenticate("+998901234567")

	rec := s.do(http.MethodGet, "/personal-data", "", token)
	s.Equal(http.StatusNotFound, rec.Code)

	profile := `{
		"first_name": "Aziza", "last_name": "Karimova", "birth_date": "1996-03-01",
		"gender": "female", "marital_status": "married", "education": "higher",
		"employment_type": "employed", "employment_duration_months": 48,
		"monthly_income": 2500000, "income_source": "salary",
		"other_monthly_payments": 0, "living_arrangement": "own", "region": "Tashkent"
	}`
	rec = s.do(http.MethodPut, "/personal-data", profile, token)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/applications", `{"amount": 3000000, "term_months": 12, "monthly_income": 2500000, "other_monthly_payments": 0}`, token)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var app struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Score  *int   `json:"score"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &app))
	s.Equal("approved", app.Status)
	s.Require().NotNil(app.Score)

	rec = s.do(http.MethodGet, "/applications/"+app.ID+"/offers", "", token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Ipak Yuli Bank")

	rec = s.do(http.MethodGet, "/applications", "", token)
	s.Require().Equal(http.StatusOK, rec.Code)

	// second application while one is active
	rec = s.do(http.MethodPost, "/applications", `{"amount": 1000000, "term_months": 6, "monthly_income": 2500000, "other_monthly_payments": 0}`, token)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *RouterSuite) TestReferralFlow() {
	referrerToken := s.authenticate("+998901111111")

	rec := s.do(http.MethodGet, "/referrals/code", "", referrerToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	var code struct {
		ReferralCode string `json:"referral_code"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &code))
	s.Len(code.ReferralCode, 6)

	// validation is public, no token needed
	rec = s.do(http.MethodGet, "/referrals/validate/"+code.ReferralCode, "", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"valid":true`)

	rec = s.do(http.MethodGet, "/referrals/validate/XXXXXX", "", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"valid":false`)

	friendToken := s.authenticate("+998902222222")
	rec = s.do(http.MethodPost, "/referrals/apply", `{"referral_code": "`+code.ReferralCode+`"}`, friendToken)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/referrals/stats", "", referrerToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"total_referrals":1`)
}

func (s *RouterSuite) TestLogoutKillsSession() {
	token := s.authenticate("+998903333333")

	rec := s.do(http.MethodPost, "/auth/logout", "", token)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/applications", "", token)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestPreCheckIsPublic() {
	rec := s.do(http.MethodPost, "/applications/pre-check", `{"phone_number": "+998909999999", "amount": 3000000, "term_months": 12}`, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"requires_registration":true`)
}

func TestFraudGuardBlocks(t *testing.T) {
	logger := slog.Default()
	detector := detection.New(true)
	devices := device.NewService(false)

	var reached bool
	guard := fraudGuard(detector, devices, logger)
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	// curl UA from a foreign IP stacks to a blockable score
	req := httptest.NewRequest(http.MethodGet, "/offers", nil)
	req.Header.Set("User-Agent", "curl/8.4.0")
	req.RemoteAddr = "203.0.113.7:40000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if reached {
		t.Fatal("blocked request reached the handler")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
