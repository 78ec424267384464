package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

type TokenSuite struct {
	suite.Suite
	svc *Service
}

func TestTokenSuite(t *testing.T) {
	suite.Run(t, new(TokenSuite))
}

func (s *TokenSuite) SetupTest() {
	s.svc = NewService("test-signing-key", time.Hour)
}

func (s *TokenSuite) TestRoundTrip() {
	userID := id.NewUserID()
	signed, err := s.svc.Generate(userID, "+998901234567")
	s.Require().NoError(err)
	s.NotEmpty(signed)

	claims, err := s.svc.Validate(signed)
	s.Require().NoError(err)
	s.Equal(userID.String(), claims.UserID)
	s.Equal("+998901234567", claims.Phone)
	s.Equal(userID.String(), claims.Subject)
	s.NotEmpty(claims.ID)
}

func (s *TokenSuite) TestRejectsForeignSignature() {
	other := NewService("different-key", time.Hour)
	signed, err := other.Generate(id.NewUserID(), "+998901234567")
	s.Require().NoError(err)

	_, err = s.svc.Validate(signed)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *TokenSuite) TestRejectsExpiredToken() {
	expired := NewService("test-signing-key", -time.Minute)
	signed, err := expired.Generate(id.NewUserID(), "+998901234567")
	s.Require().NoError(err)

	_, err = s.svc.Validate(signed)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *TokenSuite) TestRejectsGarbage() {
	_, err := s.svc.Validate("not-a-token")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
