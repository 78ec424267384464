package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"kreditomat/internal/personaldata/models"
	"kreditomat/internal/personaldata/store"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

type PersonalDataSuite struct {
	suite.Suite
	ctx     context.Context
	service *Service
	userID  id.UserID
	asOf    time.Time
}

func TestPersonalDataSuite(t *testing.T) {
	suite.Run(t, new(PersonalDataSuite))
}

func (s *PersonalDataSuite) SetupTest() {
	s.ctx = context.Background()
	s.userID = id.NewUserID()
	s.asOf = time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	s.service = New(store.NewMemoryStore(), WithClock(func() time.Time { return s.asOf }))
}

func (s *PersonalDataSuite) saveRequest() models.SaveRequest {
	return models.SaveRequest{
		FirstName:                "Aziza",
		LastName:                 "Karimova",
		BirthDate:                "1996-03-01",
		Gender:                   models.GenderFemale,
		MaritalStatus:            models.MaritalMarried,
		Education:                models.EducationHigher,
		EmploymentType:           models.EmploymentEmployed,
		EmployerName:             "Uzbektelecom",
		EmploymentDurationMonths: 48,
		MonthlyIncome:            decimal.NewFromInt(2_500_000),
		IncomeSource:             models.IncomeSalary,
		OtherMonthlyPayments:     decimal.Zero,
		LivingArrangement:        models.LivingOwn,
		Region:                   "Tashkent",
	}
}

func (s *PersonalDataSuite) TestSaveAndGet() {
	saved, err := s.service.Save(s.ctx, s.userID, s.saveRequest())
	s.Require().NoError(err)
	s.Equal(s.userID, saved.UserID)
	s.Equal(time.Date(1996, time.March, 1, 0, 0, 0, 0, time.UTC), saved.BirthDate)
	s.True(saved.IsComplete())

	got, err := s.service.GetByUserID(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal("Aziza", got.FirstName)
	s.Equal(models.IncomeSalary, got.IncomeSource)
}

func (s *PersonalDataSuite) TestSavePreservesCreatedAt() {
	first, err := s.service.Save(s.ctx, s.userID, s.saveRequest())
	s.Require().NoError(err)

	s.asOf = s.asOf.Add(72 * time.Hour)
	req := s.saveRequest()
	req.MonthlyIncome = decimal.NewFromInt(3_000_000)
	second, err := s.service.Save(s.ctx, s.userID, req)
	s.Require().NoError(err)

	s.Equal(first.CreatedAt, second.CreatedAt)
	s.True(second.UpdatedAt.After(first.UpdatedAt))
	s.True(second.MonthlyIncome.Equal(decimal.NewFromInt(3_000_000)))
}

func (s *PersonalDataSuite) TestSaveValidation() {
	s.Run("malformed birth date", func() {
		req := s.saveRequest()
		req.BirthDate = "01.03.1996"
		_, err := s.service.Save(s.ctx, s.userID, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("underage borrower", func() {
		req := s.saveRequest()
		req.BirthDate = "2010-01-01"
		_, err := s.service.Save(s.ctx, s.userID, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("missing first name", func() {
		req := s.saveRequest()
		req.FirstName = ""
		_, err := s.service.Save(s.ctx, s.userID, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("zero income", func() {
		req := s.saveRequest()
		req.MonthlyIncome = decimal.Zero
		_, err := s.service.Save(s.ctx, s.userID, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *PersonalDataSuite) TestGetMissing() {
	_, err := s.service.GetByUserID(s.ctx, s.userID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PersonalDataSuite) TestDelete() {
	_, err := s.service.Save(s.ctx, s.userID, s.saveRequest())
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(s.ctx, s.userID))

	_, err = s.service.GetByUserID(s.ctx, s.userID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.service.Delete(s.ctx, s.userID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PersonalDataSuite) TestCompletion() {
	s.Run("no profile yet", func() {
		status, err := s.service.Completion(s.ctx, s.userID)
		s.Require().NoError(err)
		s.False(status.IsComplete)
		s.Equal(0, status.CompletionPercent)
		s.Equal(status.RequiredFields, status.MissingFields)
	})

	s.Run("full profile", func() {
		_, err := s.service.Save(s.ctx, s.userID, s.saveRequest())
		s.Require().NoError(err)

		status, err := s.service.Completion(s.ctx, s.userID)
		s.Require().NoError(err)
		s.True(status.IsComplete)
		s.Equal(100, status.CompletionPercent)
		s.Empty(status.MissingFields)
	})
}

func (s *PersonalDataSuite) TestSummary() {
	req := s.saveRequest()
	req.MiddleName = "Rustamovna"
	_, err := s.service.Save(s.ctx, s.userID, req)
	s.Require().NoError(err)

	summary, err := s.service.Summary(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal("Karimova Aziza Rustamovna", summary.FullName)
	s.Equal(30, summary.Age)
	s.Equal(models.GenderFemale, summary.Gender)
	s.True(summary.IsComplete)
	s.Equal(100, summary.CompletionPercent)
}
