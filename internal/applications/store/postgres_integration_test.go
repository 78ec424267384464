//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"kreditomat/internal/applications/models"
	"kreditomat/internal/applications/store"
	authmodels "kreditomat/internal/auth/models"
	authstore "kreditomat/internal/auth/store"
	"kreditomat/internal/pdn"
	"kreditomat/internal/scoring"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
	"kreditomat/pkg/testutil/containers"
)

type PostgresApplicationsSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	users    *authstore.PostgresUserStore
	userID   id.UserID
}

func TestPostgresApplicationsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresApplicationsSuite))
}

func (s *PostgresApplicationsSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
	s.users = authstore.NewPostgresUserStore(s.postgres.DB)
}

func (s *PostgresApplicationsSuite) TearDownSuite() {
	s.postgres.Cleanup(s.T())
}

func (s *PostgresApplicationsSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "applications", "users"))

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &authmodels.User{
		ID:           id.NewUserID(),
		PhoneNumber:  "+998901234567",
		Verified:     true,
		ReferralCode: "AB12CD",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Require().NoError(s.users.Create(ctx, user))
	s.userID = user.ID
}

func (s *PostgresApplicationsSuite) newApplication(status models.Status) *models.Application {
	now := time.Now().UTC().Truncate(time.Microsecond)
	score := 650
	return &models.Application{
		ID:                id.NewApplicationID(),
		UserID:            s.userID,
		Amount:            decimal.NewFromInt(5_000_000),
		TermMonths:        12,
		Purpose:           "remont",
		Status:            status,
		PDN:               decimal.NewFromFloat(31.5),
		PDNRiskLevel:      pdn.RiskMedium,
		MonthlyPayment:    decimal.NewFromInt(472_800),
		TotalCost:         decimal.NewFromInt(5_673_600),
		Score:             &score,
		ScoreCategory:     scoring.CategoryGood,
		DeviceFingerprint: "fp-1",
		IPAddress:         "84.54.70.11",
		UserAgent:         "Mozilla/5.0",
		DeviceType:        "mobile",
		Region:            "Tashkent",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (s *PostgresApplicationsSuite) TestCreateAndGet() {
	ctx := context.Background()
	app := s.newApplication(models.StatusApproved)
	s.Require().NoError(s.store.Create(ctx, app))

	got, err := s.store.GetByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(app.UserID, got.UserID)
	s.True(app.Amount.Equal(got.Amount))
	s.Equal(12, got.TermMonths)
	s.Equal(models.StatusApproved, got.Status)
	s.Equal(pdn.RiskMedium, got.PDNRiskLevel)
	s.Require().NotNil(got.Score)
	s.Equal(650, *got.Score)
	s.Equal(scoring.CategoryGood, got.ScoreCategory)
	s.Equal("Tashkent", got.Region)
}

func (s *PostgresApplicationsSuite) TestGetMissing() {
	_, err := s.store.GetByID(context.Background(), id.NewApplicationID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PostgresApplicationsSuite) TestUpdateStatus() {
	ctx := context.Background()
	app := s.newApplication(models.StatusPending)
	s.Require().NoError(s.store.Create(ctx, app))

	app.Status = models.StatusCancelled
	app.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Update(ctx, app))

	got, err := s.store.GetByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, got.Status)
}

func (s *PostgresApplicationsSuite) TestListByUser() {
	ctx := context.Background()
	first := s.newApplication(models.StatusRejected)
	s.Require().NoError(s.store.Create(ctx, first))

	second := s.newApplication(models.StatusApproved)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	s.Require().NoError(s.store.Create(ctx, second))

	all, err := s.store.ListByUser(ctx, s.userID, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	// newest first
	s.Equal(second.ID, all[0].ID)

	approved := models.StatusApproved
	filtered, err := s.store.ListByUser(ctx, s.userID, &approved)
	s.Require().NoError(err)
	s.Require().Len(filtered, 1)
	s.Equal(second.ID, filtered[0].ID)

	other, err := s.store.ListByUser(ctx, id.NewUserID(), nil)
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *PostgresApplicationsSuite) TestCountActive() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newApplication(models.StatusPending)))
	s.Require().NoError(s.store.Create(ctx, s.newApplication(models.StatusApproved)))
	s.Require().NoError(s.store.Create(ctx, s.newApplication(models.StatusCancelled)))
	s.Require().NoError(s.store.Create(ctx, s.newApplication(models.StatusRejected)))

	count, err := s.store.CountActive(ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(2, count)
}
