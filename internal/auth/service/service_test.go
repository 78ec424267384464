package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kreditomat/internal/auth/models"
	"kreditomat/internal/auth/store"
	"kreditomat/internal/auth/token"
	dErrors "kreditomat/pkg/domain-errors"
)

const testPhone = "+998901234567"

type captureSender struct {
	lastPhone string
	lastCode  string
	sendErr   error
}

func (c *captureSender) Send(_ context.Context, phone, code string) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.lastPhone = phone
	c.lastCode = code
	return nil
}

func (c *captureSender) CheckAvailability(_ context.Context, _ string) (bool, error) {
	return true, nil
}

type AuthSuite struct {
	suite.Suite
	ctx      context.Context
	users    *store.MemoryUserStore
	sessions *store.MemorySessionStore
	sender   *captureSender
	service  *Service
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}

func (s *AuthSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = store.NewMemoryUserStore()
	s.sessions = store.NewMemorySessionStore()
	s.sender = &captureSender{}

	tokens := token.NewService("test-key", time.Hour)
	s.service = New(
		s.users, store.NewMemoryOTPStore(), s.sessions, tokens, s.sender,
		5*time.Minute, 6, 24*time.Hour,
		WithLogger(slog.Default()),
	)
}

func (s *AuthSuite) requestAndVerify(phone string) *models.AuthResponse {
	_, err := s.service.RequestCode(s.ctx, phone)
	s.Require().NoError(err)
	resp, err := s.service.VerifyCode(s.ctx, phone, s.sender.lastCode)
	s.Require().NoError(err)
	return resp
}

func (s *AuthSuite) TestRequestCode() {
	s.Run("sends a six digit code", func() {
		resp, err := s.service.RequestCode(s.ctx, testPhone)
		s.Require().NoError(err)
		s.True(resp.Success)
		s.Empty(resp.Code)
		s.Equal(testPhone, s.sender.lastPhone)
		s.Len(s.sender.lastCode, 6)
	})

	s.Run("normalizes formatted input", func() {
		_, err := s.service.RequestCode(s.ctx, "+998 90 123-45-67")
		s.Require().NoError(err)
		s.Equal(testPhone, s.sender.lastPhone)
	})

	s.Run("rejects non-uzbek numbers", func() {
		_, err := s.service.RequestCode(s.ctx, "+15551234567")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *AuthSuite) TestRequestCodeDevMode() {
	dev := New(
		s.users, store.NewMemoryOTPStore(), s.sessions,
		token.NewService("test-key", time.Hour), s.sender,
		5*time.Minute, 6, 24*time.Hour,
		WithDevMode(true),
	)

	resp, err := dev.RequestCode(s.ctx, testPhone)
	s.Require().NoError(err)
	s.Equal(s.sender.lastCode, resp.Code)
}

func (s *AuthSuite) TestVerifyCode() {
	s.Run("first verification creates the account", func() {
		resp := s.requestAndVerify(testPhone)
		s.True(resp.IsNewUser)
		s.Equal("bearer", resp.TokenType)
		s.NotEmpty(resp.AccessToken)
		s.Equal(3600, resp.ExpiresIn)

		user, err := s.users.GetByPhone(s.ctx, testPhone)
		s.Require().NoError(err)
		s.True(user.Verified)
		s.Len(user.ReferralCode, 6)
	})

	s.Run("second verification reuses the account", func() {
		resp := s.requestAndVerify(testPhone)
		s.False(resp.IsNewUser)
	})

	s.Run("wrong code", func() {
		_, err := s.service.RequestCode(s.ctx, testPhone)
		s.Require().NoError(err)

		_, err = s.service.VerifyCode(s.ctx, testPhone, "000000")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("code is single use", func() {
		_, err := s.service.RequestCode(s.ctx, testPhone)
		s.Require().NoError(err)
		_, err = s.service.VerifyCode(s.ctx, testPhone, s.sender.lastCode)
		s.Require().NoError(err)

		_, err = s.service.VerifyCode(s.ctx, testPhone, s.sender.lastCode)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AuthSuite) TestValidateToken() {
	resp := s.requestAndVerify(testPhone)

	s.Run("valid session", func() {
		claims, err := s.service.ValidateToken(s.ctx, resp.AccessToken)
		s.Require().NoError(err)
		s.Equal(resp.UserID.String(), claims.UserID)
		s.Equal(testPhone, claims.Phone)
	})

	s.Run("logout kills the session", func() {
		out, err := s.service.Logout(s.ctx, resp.AccessToken)
		s.Require().NoError(err)
		s.True(out.Success)

		_, err = s.service.ValidateToken(s.ctx, resp.AccessToken)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("second logout reports stale session", func() {
		out, err := s.service.Logout(s.ctx, resp.AccessToken)
		s.Require().NoError(err)
		s.False(out.Success)
	})

	s.Run("token without session", func() {
		other := token.NewService("test-key", time.Hour)
		orphan, err := other.Generate(resp.UserID, testPhone)
		s.Require().NoError(err)

		_, err = s.service.ValidateToken(s.ctx, orphan)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AuthSuite) TestCheckPhone() {
	check, err := s.service.CheckPhone(s.ctx, testPhone)
	s.Require().NoError(err)
	s.False(check.UserExists)
	s.True(check.CanReceive)

	s.requestAndVerify(testPhone)

	check, err = s.service.CheckPhone(s.ctx, testPhone)
	s.Require().NoError(err)
	s.True(check.UserExists)

	registered, err := s.service.PhoneRegistered(s.ctx, testPhone)
	s.Require().NoError(err)
	s.True(registered)
}
