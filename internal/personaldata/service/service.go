// Package service manages borrower profiles.
package service

import (
	"context"
	"log/slog"
	"time"

	"kreditomat/internal/personaldata/models"
	"kreditomat/internal/personaldata/store"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

const birthDateLayout = "2006-01-02"

// Service reads and writes borrower profiles.
type Service struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetByUserID returns the profile for a user.
func (s *Service) GetByUserID(ctx context.Context, userID id.UserID) (*models.PersonalData, error) {
	return s.store.Get(ctx, userID)
}

// Save validates and stores the profile, replacing any previous version. The
// original creation time survives updates.
func (s *Service) Save(ctx context.Context, userID id.UserID, req models.SaveRequest) (*models.PersonalData, error) {
	birthDate, err := time.Parse(birthDateLayout, req.BirthDate)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "birth date must be in YYYY-MM-DD format")
	}

	now := s.now().UTC()
	if age := yearsBetween(birthDate, now); age < 18 || age > 100 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "borrower must be between 18 and 100 years old")
	}

	data := &models.PersonalData{
		UserID:                   userID,
		FirstName:                req.FirstName,
		LastName:                 req.LastName,
		MiddleName:               req.MiddleName,
		BirthDate:                birthDate,
		Gender:                   req.Gender,
		MaritalStatus:            req.MaritalStatus,
		Education:                req.Education,
		EmploymentType:           req.EmploymentType,
		EmployerName:             req.EmployerName,
		EmploymentDurationMonths: req.EmploymentDurationMonths,
		MonthlyIncome:            req.MonthlyIncome,
		IncomeSource:             req.IncomeSource,
		OtherMonthlyPayments:     req.OtherMonthlyPayments,
		LivingArrangement:        req.LivingArrangement,
		Region:                   req.Region,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.Get(ctx, userID)
	if err == nil {
		data.CreatedAt = existing.CreatedAt
	} else if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, err
	}

	if err := s.store.Save(ctx, data); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "personal data saved", "user_id", userID.String())
	return data, nil
}

// Delete removes the profile.
func (s *Service) Delete(ctx context.Context, userID id.UserID) error {
	return s.store.Delete(ctx, userID)
}

var requiredFields = []string{
	"first_name", "last_name", "birth_date", "gender", "marital_status",
	"education", "employment_type", "monthly_income", "income_source",
	"living_arrangement",
}

// Completion reports which required fields are still missing. A user without
// a saved profile is 0% complete.
func (s *Service) Completion(ctx context.Context, userID id.UserID) (*models.CompletionStatus, error) {
	data, err := s.store.Get(ctx, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return &models.CompletionStatus{
				RequiredFields: requiredFields,
				MissingFields:  requiredFields,
			}, nil
		}
		return nil, err
	}
	return completionOf(data), nil
}

// Summary returns a condensed profile view for dashboards.
func (s *Service) Summary(ctx context.Context, userID id.UserID) (*models.Summary, error) {
	data, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	fullName := data.LastName + " " + data.FirstName
	if data.MiddleName != "" {
		fullName += " " + data.MiddleName
	}

	completion := completionOf(data)
	return &models.Summary{
		FullName:          fullName,
		Age:               data.Age(s.now()),
		Gender:            data.Gender,
		MaritalStatus:     data.MaritalStatus,
		EmploymentType:    data.EmploymentType,
		MonthlyIncome:     data.MonthlyIncome,
		IsComplete:        completion.IsComplete,
		CompletionPercent: completion.CompletionPercent,
	}, nil
}

func completionOf(data *models.PersonalData) *models.CompletionStatus {
	var missing []string
	check := func(field string, present bool) {
		if !present {
			missing = append(missing, field)
		}
	}

	check("first_name", data.FirstName != "")
	check("last_name", data.LastName != "")
	check("birth_date", !data.BirthDate.IsZero())
	check("gender", data.Gender.IsValid())
	check("marital_status", data.MaritalStatus.IsValid())
	check("education", data.Education.IsValid())
	check("employment_type", data.EmploymentType.IsValid())
	check("monthly_income", data.MonthlyIncome.IsPositive())
	check("income_source", data.IncomeSource.IsValid())
	check("living_arrangement", data.LivingArrangement.IsValid())

	filled := len(requiredFields) - len(missing)
	return &models.CompletionStatus{
		IsComplete:        len(missing) == 0,
		CompletionPercent: filled * 100 / len(requiredFields),
		RequiredFields:    requiredFields,
		MissingFields:     missing,
	}
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	if from.AddDate(years, 0, 0).After(to) {
		years--
	}
	return years
}
