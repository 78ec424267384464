// Server entrypoint: wires config, storage, services and the HTTP router.
// Business logic lives in the internal service packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appsservice "kreditomat/internal/applications/service"
	appsstore "kreditomat/internal/applications/store"
	"kreditomat/internal/auth/device"
	authservice "kreditomat/internal/auth/service"
	authstore "kreditomat/internal/auth/store"
	"kreditomat/internal/auth/token"
	"kreditomat/internal/calculator"
	"kreditomat/internal/detection"
	offersservice "kreditomat/internal/offers/service"
	offersstore "kreditomat/internal/offers/store"
	pdservice "kreditomat/internal/personaldata/service"
	pdstore "kreditomat/internal/personaldata/store"
	"kreditomat/internal/pdn"
	"kreditomat/internal/platform/config"
	"kreditomat/internal/platform/httpserver"
	"kreditomat/internal/platform/logger"
	"kreditomat/internal/platform/metrics"
	"kreditomat/internal/platform/postgres"
	redisplatform "kreditomat/internal/platform/redis"
	"kreditomat/internal/ratelimit"
	refservice "kreditomat/internal/referral/service"
	httptransport "kreditomat/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresURL)
	if err != nil {
		if !cfg.IsDev() {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		log.Warn("postgres unavailable, using in-memory stores", "error", err)
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	rdb, err := redisplatform.New(ctx, cfg.RedisURL)
	if err != nil {
		if !cfg.IsDev() {
			log.Error("redis unavailable", "error", err)
			os.Exit(1)
		}
		log.Warn("redis unavailable, using in-memory stores", "error", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	m := metrics.New()

	calc := calculator.New(cfg.Bounds)
	engine := pdn.New(calc, cfg.Bounds.TargetPDN)

	var (
		users    authstore.UserStore
		otps     authstore.OTPStore
		sessions authstore.SessionStore
		appStore appsstore.Store
		offStore offersstore.Store
		pdStore  pdstore.Store
		otpLimit ratelimit.Limiter
	)
	if db != nil {
		users = authstore.NewPostgresUserStore(db)
		appStore = appsstore.NewPostgresStore(db)
		offStore = offersstore.NewPostgresStore(db)
		pdStore = pdstore.NewPostgresStore(db)
	} else {
		users = authstore.NewMemoryUserStore()
		appStore = appsstore.NewMemoryStore()
		offStore = offersstore.NewMemoryStore()
		pdStore = pdstore.NewMemoryStore()
	}
	if rdb != nil {
		otps = authstore.NewRedisOTPStore(rdb.Client)
		sessions = authstore.NewRedisSessionStore(rdb.Client)
		otpLimit = ratelimit.NewRedisLimiter(rdb.Client, "otp_send:", cfg.OTPRateLimit, cfg.OTPRateWin)
	} else {
		otps = authstore.NewMemoryOTPStore()
		sessions = authstore.NewMemorySessionStore()
		otpLimit = ratelimit.NewMemoryLimiter(cfg.OTPRateLimit, cfg.OTPRateWin)
	}

	var sender authservice.CodeSender
	if cfg.TelegramGatewayURL != "" {
		sender = authservice.NewTelegramSender(cfg.TelegramGatewayURL, cfg.TelegramGatewayToken, cfg.OTPTTL)
	} else {
		sender = authservice.NewLogSender(log)
	}

	auth := authservice.New(
		users, otps, sessions,
		token.NewService(cfg.JWTSigningKey, cfg.JWTTTL),
		sender,
		cfg.OTPTTL, cfg.OTPLength, cfg.SessionTTL,
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithDevMode(cfg.IsDev()),
	)

	offers := offersservice.New(offStore, calc,
		offersservice.WithLogger(log),
		offersservice.WithMetrics(m),
	)
	profiles := pdservice.New(pdStore, pdservice.WithLogger(log))
	referrals := refservice.New(users, httptransport.NewLoanActivity(appStore),
		refservice.WithLogger(log),
	)
	applications := appsservice.New(
		appStore, profiles, referrals, auth, offers, engine, cfg.DefaultAnnualRate,
		appsservice.WithLogger(log),
		appsservice.WithMetrics(m),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Auth:         auth,
		Applications: applications,
		Offers:       offers,
		Profiles:     profiles,
		Referrals:    referrals,
		Calculator:   calc,
		PDNEngine:    engine,
		DefaultRate:  cfg.DefaultAnnualRate,
		Devices:      device.NewService(cfg.TrustProxy),
		Detector:     detection.New(cfg.RestrictToUZ),
		OTPLimit:     ratelimit.PhoneLimit(otpLimit, log),
		DB:           db,
		Redis:        rdb,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server started", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
