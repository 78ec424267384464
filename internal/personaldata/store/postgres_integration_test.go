//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	authmodels "kreditomat/internal/auth/models"
	authstore "kreditomat/internal/auth/store"
	"kreditomat/internal/personaldata/models"
	"kreditomat/internal/personaldata/store"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
	"kreditomat/pkg/testutil/containers"
)

type PostgresPersonalDataSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	users    *authstore.PostgresUserStore
	userID   id.UserID
}

func TestPostgresPersonalDataSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresPersonalDataSuite))
}

func (s *PostgresPersonalDataSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
	s.users = authstore.NewPostgresUserStore(s.postgres.DB)
}

func (s *PostgresPersonalDataSuite) TearDownSuite() {
	s.postgres.Cleanup(s.T())
}

func (s *PostgresPersonalDataSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "personal_data", "users"))

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

func (s *PostgresPersonalDataSuite) profile() *models.PersonalData {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.PersonalData{
		UserID:                   s.userID,
		FirstName:                "Aziza",
		LastName:                 "Karimova",
		MiddleName:               "Rustamovna",
		BirthDate:                time.Date(1996, 3, 1, 0, 0, 0, 0, time.UTC),
		Gender:                   models.GenderFemale,
		MaritalStatus:            models.MaritalMarried,
		Education:                models.EducationHigher,
		EmploymentType:           models.EmploymentEmployed,
		EmployerName:             "Uzbektelecom",
		EmploymentDurationMonths: 48,
		MonthlyIncome:            decimal.NewFromInt(6_000_000),
		IncomeSource:             models.IncomeSalary,
		OtherMonthlyPayments:     decimal.NewFromInt(400_000),
		LivingArrangement:        models.LivingOwn,
		Region:                   "Tashkent",
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

func (s *PostgresPersonalDataSuite) TestSaveAndGet() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, s.profile()))

	got, err := s.store.Get(ctx, s.userID)
	s.Require().NoError(err)
	s.Equal("Aziza", got.FirstName)
	s.Equal("Karimova", got.LastName)
	s.Equal("Rustamovna", got.MiddleName)
	s.Equal(models.GenderFemale, got.Gender)
	s.True(got.MonthlyIncome.Equal(decimal.NewFromInt(6_000_000)))
	s.Equal("Tashkent", got.Region)
	s.True(got.BirthDate.Equal(time.Date(1996, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func (s *PostgresPersonalDataSuite) TestSaveUpserts() {
	ctx := context.Background()
	first := s.profile()
	s.Require().NoError(s.store.Save(ctx, first))

	updated := s.profile()
	updated.MonthlyIncome = decimal.NewFromInt(8_000_000)
	updated.EmployerName = "Beeline"
	updated.UpdatedAt = first.UpdatedAt.Add(time.Second)
	s.Require().NoError(s.store.Save(ctx, updated))

	got, err := s.store.Get(ctx, s.userID)
	s.Require().NoError(err)
	s.True(got.MonthlyIncome.Equal(decimal.NewFromInt(8_000_000)))
	s.Equal("Beeline", got.EmployerName)
}

func (s *PostgresPersonalDataSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), id.NewUserID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PostgresPersonalDataSuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, s.profile()))
	s.Require().NoError(s.store.Delete(ctx, s.userID))

	_, err := s.store.Get(ctx, s.userID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.store.Delete(ctx, s.userID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
