//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kreditomat/internal/auth/models"
	"kreditomat/internal/auth/store"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
	"kreditomat/pkg/testutil/containers"
)

type PostgresUserStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresUserStore
}

func TestPostgresUserStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgresUserStore(s.postgres.DB)
}

func (s *PostgresUserStoreSuite) TearDownSuite() {
	s.postgres.Cleanup(s.T())
}

func (s *PostgresUserStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func (s *PostgresUserStoreSuite) newUser(phone, code string) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.User{
		ID:           id.NewUserID(),
		PhoneNumber:  phone,
		Verified:     true,
		ReferralCode: code,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *PostgresUserStoreSuite) TestCreateAndGet() {
	ctx := context.Background()
	user := s.newUser("+998901234567", "AB12CD")
	s.Require().NoError(s.store.Create(ctx, user))

	byID, err := s.store.GetByID(ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.PhoneNumber, byID.PhoneNumber)
	s.True(byID.Verified)
	s.Nil(byID.ReferredBy)

	byPhone, err := s.store.GetByPhone(ctx, "+998901234567")
	s.Require().NoError(err)
	s.Equal(user.ID, byPhone.ID)

	byCode, err := s.store.GetByReferralCode(ctx, "AB12CD")
	s.Require().NoError(err)
	s.Equal(user.ID, byCode.ID)
}

func (s *PostgresUserStoreSuite) TestDuplicatePhone() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newUser("+998901234567", "AB12CD")))

	err := s.store.Create(ctx, s.newUser("+998901234567", "XY34ZW"))
	s.Require().Error(err)
}

func (s *PostgresUserStoreSuite) TestGetMissing() {
	_, err := s.store.GetByID(context.Background(), id.NewUserID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PostgresUserStoreSuite) TestUpdateReferredBy() {
	ctx := context.Background()
	referrer := s.newUser("+998901111111", "RF12CD")
	referred := s.newUser("+998902222222", "RD34ZW")
	s.Require().NoError(s.store.Create(ctx, referrer))
	s.Require().NoError(s.store.Create(ctx, referred))

	referred.ReferredBy = &referrer.ID
	referred.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Update(ctx, referred))

	got, err := s.store.GetByID(ctx, referred.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.ReferredBy)
	s.Equal(referrer.ID, *got.ReferredBy)
}

func (s *PostgresUserStoreSuite) TestListReferred() {
	ctx := context.Background()
	referrer := s.newUser("+998901111111", "RF12CD")
	s.Require().NoError(s.store.Create(ctx, referrer))

	for i, phone := range []string{"+998902222222", "+998903333333"} {
		u := s.newUser(phone, "CD000"+string(rune('0'+i)))
		u.ReferredBy = &referrer.ID
		u.CreatedAt = u.CreatedAt.Add(time.Duration(i) * time.Second)
		s.Require().NoError(s.store.Create(ctx, u))
	}
	other := s.newUser("+998904444444", "OT34ZW")
	s.Require().NoError(s.store.Create(ctx, other))

	referred, err := s.store.ListReferred(ctx, referrer.ID)
	s.Require().NoError(err)
	s.Require().Len(referred, 2)
	// newest first
	s.Equal("+998903333333", referred[0].PhoneNumber)
}
