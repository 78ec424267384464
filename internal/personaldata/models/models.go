// Package models defines the borrower profile used by affordability checks
// and credit scoring.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

// Gender of the borrower.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// IsValid reports whether the gender is a known value.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale:
		return true
	}
	return false
}

// ParseGender converts a string into a Gender.
func ParseGender(s string) (Gender, error) {
	g := Gender(s)
	if !g.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown gender: "+s)
	}
	return g, nil
}

// MaritalStatus of the borrower.
type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "single"
	MaritalMarried  MaritalStatus = "married"
	MaritalDivorced MaritalStatus = "divorced"
	MaritalWidowed  MaritalStatus = "widowed"
)

func (m MaritalStatus) IsValid() bool {
	switch m {
	case MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed:
		return true
	}
	return false
}

func ParseMaritalStatus(s string) (MaritalStatus, error) {
	m := MaritalStatus(s)
	if !m.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown marital status: "+s)
	}
	return m, nil
}

// EducationLevel of the borrower.
type EducationLevel string

const (
	EducationBasic     EducationLevel = "basic"
	EducationSecondary EducationLevel = "secondary"
	EducationHigher    EducationLevel = "higher"
)

func (e EducationLevel) IsValid() bool {
	switch e {
	case EducationBasic, EducationSecondary, EducationHigher:
		return true
	}
	return false
}

func ParseEducationLevel(s string) (EducationLevel, error) {
	e := EducationLevel(s)
	if !e.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown education level: "+s)
	}
	return e, nil
}

// EmploymentType of the borrower.
type EmploymentType string

const (
	EmploymentEmployed     EmploymentType = "employed"
	EmploymentSelfEmployed EmploymentType = "self_employed"
	EmploymentUnemployed   EmploymentType = "unemployed"
	EmploymentRetired      EmploymentType = "retired"
	EmploymentStudent      EmploymentType = "student"
)

func (e EmploymentType) IsValid() bool {
	switch e {
	case EmploymentEmployed, EmploymentSelfEmployed, EmploymentUnemployed, EmploymentRetired, EmploymentStudent:
		return true
	}
	return false
}

func ParseEmploymentType(s string) (EmploymentType, error) {
	e := EmploymentType(s)
	if !e.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown employment type: "+s)
	}
	return e, nil
}

// IncomeSource of the borrower.
type IncomeSource string

const (
	IncomeSalary   IncomeSource = "salary"
	IncomeBusiness IncomeSource = "business"
	IncomePension  IncomeSource = "pension"
	IncomeOther    IncomeSource = "other"
)

func (i IncomeSource) IsValid() bool {
	switch i {
	case IncomeSalary, IncomeBusiness, IncomePension, IncomeOther:
		return true
	}
	return false
}

func ParseIncomeSource(s string) (IncomeSource, error) {
	i := IncomeSource(s)
	if !i.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown income source: "+s)
	}
	return i, nil
}

// LivingArrangement of the borrower.
type LivingArrangement string

const (
	LivingOwn    LivingArrangement = "own"
	LivingRent   LivingArrangement = "rent"
	LivingFamily LivingArrangement = "family"
	LivingOther  LivingArrangement = "other"
)

func (l LivingArrangement) IsValid() bool {
	switch l {
	case LivingOwn, LivingRent, LivingFamily, LivingOther:
		return true
	}
	return false
}

func ParseLivingArrangement(s string) (LivingArrangement, error) {
	l := LivingArrangement(s)
	if !l.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown living arrangement: "+s)
	}
	return l, nil
}

// SaveRequest is the profile payload submitted by the borrower. BirthDate is
// a calendar date in YYYY-MM-DD form.
type SaveRequest struct {
	FirstName                string            `json:"first_name"`
	LastName                 string            `json:"last_name"`
	MiddleName               string            `json:"middle_name,omitempty"`
	BirthDate                string            `json:"birth_date"`
	Gender                   Gender            `json:"gender"`
	MaritalStatus            MaritalStatus     `json:"marital_status"`
	Education                EducationLevel    `json:"education"`
	EmploymentType           EmploymentType    `json:"employment_type"`
	EmployerName             string            `json:"employer_name,omitempty"`
	EmploymentDurationMonths int               `json:"employment_duration_months"`
	MonthlyIncome            decimal.Decimal   `json:"monthly_income"`
	IncomeSource             IncomeSource      `json:"income_source"`
	OtherMonthlyPayments     decimal.Decimal   `json:"other_monthly_payments"`
	LivingArrangement        LivingArrangement `json:"living_arrangement"`
	Region                   string            `json:"region,omitempty"`
}

// CompletionStatus reports how much of the profile is filled in.
type CompletionStatus struct {
	IsComplete        bool     `json:"is_complete"`
	CompletionPercent int      `json:"completion_percentage"`
	RequiredFields    []string `json:"required_fields"`
	MissingFields     []string `json:"missing_fields"`
}

// Summary is a condensed view of the profile for dashboards.
type Summary struct {
	FullName          string          `json:"full_name"`
	Age               int             `json:"age"`
	Gender            Gender          `json:"gender"`
	MaritalStatus     MaritalStatus   `json:"marital_status"`
	EmploymentType    EmploymentType  `json:"employment_type"`
	MonthlyIncome     decimal.Decimal `json:"monthly_income"`
	IsComplete        bool            `json:"is_complete"`
	CompletionPercent int             `json:"completion_percentage"`
}

// PersonalData is the borrower profile for one user. A user has at most one
// profile; saves replace the previous version.
type PersonalData struct {
	UserID                   id.UserID         `json:"user_id"`
	FirstName                string            `json:"first_name"`
	LastName                 string            `json:"last_name"`
	MiddleName               string            `json:"middle_name,omitempty"`
	BirthDate                time.Time         `json:"birth_date"`
	Gender                   Gender            `json:"gender"`
	MaritalStatus            MaritalStatus     `json:"marital_status"`
	Education                EducationLevel    `json:"education"`
	EmploymentType           EmploymentType    `json:"employment_type"`
	EmployerName             string            `json:"employer_name,omitempty"`
	EmploymentDurationMonths int               `json:"employment_duration_months"`
	MonthlyIncome            decimal.Decimal   `json:"monthly_income"`
	IncomeSource             IncomeSource      `json:"income_source"`
	OtherMonthlyPayments     decimal.Decimal   `json:"other_monthly_payments"`
	LivingArrangement        LivingArrangement `json:"living_arrangement"`
	Region                   string            `json:"region,omitempty"`
	CreatedAt                time.Time         `json:"created_at"`
	UpdatedAt                time.Time         `json:"updated_at"`
}

// Age returns full years between the birth date and asOf.
func (p *PersonalData) Age(asOf time.Time) int {
	years := asOf.Year() - p.BirthDate.Year()
	anniversary := p.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(asOf) {
		years--
	}
	return years
}

// Validate checks that all required profile fields are present and sane.
func (p *PersonalData) Validate() error {
	switch {
	case p.FirstName == "":
		return dErrors.New(dErrors.CodeInvalidInput, "first name is required")
	case p.LastName == "":
		return dErrors.New(dErrors.CodeInvalidInput, "last name is required")
	case p.BirthDate.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "birth date is required")
	case !p.Gender.IsValid():
		return dErrors.New(dErrors.CodeInvalidInput, "invalid gender")
	case !p.MaritalStatus.IsValid():
		return dErrors.New(dErrors.CodeInvalidInput, "invalid marital status")
	case !p.Education.IsValid():
		return dErrors.New(dErrors.CodeInvalidInput, "invalid education level")
	case !p.EmploymentType.IsValid():
		return dErrors.New(dErrors.CodeInvalidInput, "invalid employment type")
	case p.EmploymentDurationMonths < 0:
		return dErrors.New(dErrors.CodeInvalidInput, "employment duration cannot be negative")
	case !p.MonthlyIncome.IsPositive():
		return dErrors.New(dErrors.CodeInvalidInput, "monthly income must be positive")
	case !p.IncomeSource.IsValid():
		return dErrors.New(dErrors.CodeInvalidInput, "invalid income source")
	case p.OtherMonthlyPayments.IsNegative():
		return dErrors.New(dErrors.CodeInvalidInput, "other monthly payments cannot be negative")
	case !p.LivingArrangement.IsValid():
		return dErrors.New(dErrors.CodeInvalidInput, "invalid living arrangement")
	}
	return nil
}

// IsComplete reports whether the profile carries everything scoring needs.
func (p *PersonalData) IsComplete() bool {
	return p.Validate() == nil
}
