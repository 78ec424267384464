// Package service implements phone number authentication: OTP request and
// verification, session management and logout. Users are created on first
// successful verification.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kreditomat/internal/auth/models"
	"kreditomat/internal/auth/store"
	"kreditomat/internal/auth/token"
	"kreditomat/internal/platform/metrics"
	"kreditomat/internal/platform/middleware"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

const (
	referralCodeLength   = 6
	referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts      = 100
)

// CodeSender delivers OTP codes to phones. The production implementation
// talks to the Telegram gateway; development uses a logging sender.
type CodeSender interface {
	Send(ctx context.Context, phone, code string) error
	CheckAvailability(ctx context.Context, phone string) (bool, error)
}

// Service implements the authentication flows.
type Service struct {
	users    store.UserStore
	otps     store.OTPStore
	sessions store.SessionStore
	tokens   *token.Service
	sender   CodeSender

	otpTTL     time.Duration
	otpLength  int
	sessionTTL time.Duration
	devMode    bool

	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDevMode makes RequestCode echo the generated code back in the
// response. Never enable outside development.
func WithDevMode(enabled bool) Option {
	return func(s *Service) { s.devMode = enabled }
}

func New(
	users store.UserStore,
	otps store.OTPStore,
	sessions store.SessionStore,
	tokens *token.Service,
	sender CodeSender,
	otpTTL time.Duration,
	otpLength int,
	sessionTTL time.Duration,
	opts ...Option,
) *Service {
	s := &Service{
		users:      users,
		otps:       otps,
		sessions:   sessions,
		tokens:     tokens,
		sender:     sender,
		otpTTL:     otpTTL,
		otpLength:  otpLength,
		sessionTTL: sessionTTL,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestCode generates an OTP, stores its hash and hands the plaintext to
// the sender. Only the bcrypt hash is ever persisted.
func (s *Service) RequestCode(ctx context.Context, rawPhone string) (*models.MessageResponse, error) {
	phone := models.FormatPhone(rawPhone)
	if err := models.ValidatePhone(phone); err != nil {
		return nil, err
	}

	code, err := s.generateOTP()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash code")
	}
	if err := s.otps.Store(ctx, phone, string(hash), s.otpTTL); err != nil {
		return nil, err
	}

	if err := s.sender.Send(ctx, phone, code); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to deliver verification code")
	}

	if s.metrics != nil {
		s.metrics.OTPSent.Inc()
	}
	s.logger.InfoContext(ctx, "verification code sent", "phone", models.MaskPhone(phone))

	resp := &models.MessageResponse{Success: true, Message: "verification code sent"}
	if s.devMode {
		resp.Message = "development mode: code included in response"
		resp.Code = code
	}
	return resp, nil
}

// VerifyCode checks the OTP, creating the account on first login, and
// returns a fresh access token backed by a Redis session.
func (s *Service) VerifyCode(ctx context.Context, rawPhone, code string) (*models.AuthResponse, error) {
	phone := models.FormatPhone(rawPhone)
	if err := models.ValidatePhone(phone); err != nil {
		return nil, err
	}

	hash, err := s.otps.Get(ctx, phone)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, s.rejectCode()
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return nil, s.rejectCode()
	}
	if err := s.otps.Delete(ctx, phone); err != nil {
		return nil, err
	}

	user, isNew, err := s.findOrCreateUser(ctx, phone)
	if err != nil {
		return nil, err
	}

	signed, err := s.tokens.Generate(user.ID, user.PhoneNumber)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	if err := s.sessions.Store(ctx, signed, user.ID, s.sessionTTL); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OTPVerified.Inc()
		if isNew {
			s.metrics.UsersCreated.Inc()
		}
	}
	s.logger.InfoContext(ctx, "user authenticated",
		"user_id", user.ID,
		"phone", models.MaskPhone(phone),
		"new_user", isNew,
	)

	return &models.AuthResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		UserID:      user.ID,
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
		IsNewUser:   isNew,
	}, nil
}

// Logout drops the session. A missing session is not an error; the token
// was already dead.
func (s *Service) Logout(ctx context.Context, tokenString string) (*models.MessageResponse, error) {
	deleted, err := s.sessions.Delete(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return &models.MessageResponse{Success: false, Message: "session not found or already expired"}, nil
	}
	return &models.MessageResponse{Success: true, Message: "logged out successfully"}, nil
}

// CheckPhone reports registration status and deliverability for a phone.
func (s *Service) CheckPhone(ctx context.Context, rawPhone string) (*models.PhoneCheck, error) {
	phone := models.FormatPhone(rawPhone)
	if err := models.ValidatePhone(phone); err != nil {
		return nil, err
	}

	exists, err := s.PhoneRegistered(ctx, phone)
	if err != nil {
		return nil, err
	}
	available, err := s.sender.CheckAvailability(ctx, phone)
	if err != nil {
		available = true
	}

	return &models.PhoneCheck{Phone: phone, UserExists: exists, CanReceive: available}, nil
}

// PhoneRegistered reports whether an account exists for the phone number.
func (s *Service) PhoneRegistered(ctx context.Context, phone string) (bool, error) {
	_, err := s.users.GetByPhone(ctx, models.FormatPhone(phone))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetUser returns the account by ID.
func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ValidateToken implements the middleware contract: a token is valid only
// while its session lives, and each use extends the session.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*middleware.TokenClaims, error) {
	sessionUserID, err := s.sessions.Get(ctx, tokenString)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired session")
		}
		return nil, err
	}

	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.UserID != sessionUserID.String() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token mismatch")
	}

	if err := s.sessions.Extend(ctx, tokenString, s.sessionTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to extend session", "error", err)
	}

	return &middleware.TokenClaims{UserID: claims.UserID, Phone: claims.Phone}, nil
}

func (s *Service) findOrCreateUser(ctx context.Context, phone string) (*models.User, bool, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err == nil {
		if !user.Verified {
			user.Verified = true
			user.UpdatedAt = s.now()
			if err := s.users.Update(ctx, user); err != nil {
				return nil, false, err
			}
		}
		return user, false, nil
	}
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, false, err
	}

	code, err := s.uniqueReferralCode(ctx)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	user = &models.User{
		ID:           id.NewUserID(),
		PhoneNumber:  phone,
		Verified:     true,
		ReferralCode: code,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *Service) rejectCode() error {
	if s.metrics != nil {
		s.metrics.OTPRejected.Inc()
	}
	return dErrors.New(dErrors.CodeUnauthorized, "invalid or expired verification code")
}

func (s *Service) generateOTP() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < s.otpLength; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", s.otpLength, n), nil
}

func (s *Service) uniqueReferralCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomReferralCode()
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate referral code")
		}
		_, err = s.users.GetByReferralCode(ctx, code)
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", dErrors.New(dErrors.CodeInternal, "failed to generate unique referral code")
}

func randomReferralCode() (string, error) {
	buf := make([]byte, referralCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralCodeAlphabet))))
		if err != nil {
			return "", err
		}
		buf[i] = referralCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
