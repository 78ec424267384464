// Package httptransport assembles the HTTP API: middleware chain, health and
// metrics endpoints, and every domain handler.
package httptransport

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	appshandler "kreditomat/internal/applications/handler"
	appsservice "kreditomat/internal/applications/service"
	"kreditomat/internal/auth/device"
	authhandler "kreditomat/internal/auth/handler"
	authservice "kreditomat/internal/auth/service"
	"kreditomat/internal/calculator"
	calchandler "kreditomat/internal/calculator/handler"
	"kreditomat/internal/detection"
	offershandler "kreditomat/internal/offers/handler"
	offersservice "kreditomat/internal/offers/service"
	pdhandler "kreditomat/internal/personaldata/handler"
	pdservice "kreditomat/internal/personaldata/service"
	"kreditomat/internal/pdn"
	"kreditomat/internal/platform/middleware"
	redisplatform "kreditomat/internal/platform/redis"
	refhandler "kreditomat/internal/referral/handler"
	refservice "kreditomat/internal/referral/service"
	"kreditomat/pkg/httputil"
)

const requestTimeout = 30 * time.Second

// Deps carries everything the router needs. DB and Redis are optional; when
// present they feed the health endpoint.
type Deps struct {
	Logger *slog.Logger

	Auth         *authservice.Service
	Applications *appsservice.Service
	Offers       *offersservice.Service
	Profiles     *pdservice.Service
	Referrals    *refservice.Service

	Calculator  *calculator.Calculator
	PDNEngine   *pdn.Engine
	DefaultRate decimal.Decimal

	Devices  *device.Service
	Detector *detection.Detector

	// OTPLimit wraps the OTP request route. Nil disables rate limiting.
	OTPLimit func(http.Handler) http.Handler

	DB    *sql.DB
	Redis *redisplatform.Client
}

// NewRouter builds the full HTTP handler.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", healthHandler(deps))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		if deps.Detector != nil {
			r.Use(fraudGuard(deps.Detector, deps.Devices, deps.Logger))
		}

		authhandler.New(deps.Auth, deps.OTPLimit, deps.Logger).Register(r)
		calchandler.New(deps.Calculator, deps.PDNEngine, deps.DefaultRate, deps.Logger).Register(r)
		offershandler.New(deps.Offers, deps.Logger).Register(r)
		appshandler.New(deps.Applications, &deviceResolver{devices: deps.Devices}, deps.Auth, deps.Logger).Register(r)
		pdhandler.New(deps.Profiles, deps.Auth, deps.Logger).Register(r)
		refhandler.New(deps.Referrals, deps.Auth, deps.Logger).Register(r)
	})

	return r
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}

		if deps.DB != nil {
			if err := deps.DB.PingContext(r.Context()); err != nil {
				status["status"] = "degraded"
				status["postgres"] = "down"
			} else {
				status["postgres"] = "up"
			}
		}
		if deps.Redis != nil {
			if err := deps.Redis.Health(r.Context()); err != nil {
				status["status"] = "degraded"
				status["redis"] = "down"
			} else {
				status["redis"] = "up"
			}
		}

		code := http.StatusOK
		if status["status"] != "ok" {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, status)
	}
}
