package store

import (
	"context"
	"database/sql"
	"errors"

	"kreditomat/internal/personaldata/models"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

// PostgresStore persists profiles in the personal_data table, keyed by user id.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `user_id, first_name, last_name, middle_name, birth_date, gender,
	marital_status, education, employment_type, employer_name, employment_duration_months,
	monthly_income, income_source, other_monthly_payments, living_arrangement, region,
	created_at, updated_at`

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) (*models.PersonalData, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM personal_data WHERE user_id = $1`, userID.String())
	data, err := scanPersonalData(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "personal data not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get personal data")
	}
	return data, nil
}

func (s *PostgresStore) Save(ctx context.Context, data *models.PersonalData) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO personal_data (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			middle_name = EXCLUDED.middle_name,
			birth_date = EXCLUDED.birth_date,
			gender = EXCLUDED.gender,
			marital_status = EXCLUDED.marital_status,
			education = EXCLUDED.education,
			employment_type = EXCLUDED.employment_type,
			employer_name = EXCLUDED.employer_name,
			employment_duration_months = EXCLUDED.employment_duration_months,
			monthly_income = EXCLUDED.monthly_income,
			income_source = EXCLUDED.income_source,
			other_monthly_payments = EXCLUDED.other_monthly_payments,
			living_arrangement = EXCLUDED.living_arrangement,
			region = EXCLUDED.region,
			updated_at = EXCLUDED.updated_at`,
		data.UserID.String(), data.FirstName, data.LastName, data.MiddleName, data.BirthDate,
		string(data.Gender), string(data.MaritalStatus), string(data.Education),
		string(data.EmploymentType), data.EmployerName, data.EmploymentDurationMonths,
		data.MonthlyIncome, string(data.IncomeSource), data.OtherMonthlyPayments,
		string(data.LivingArrangement), data.Region, data.CreatedAt, data.UpdatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save personal data")
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM personal_data WHERE user_id = $1`, userID.String())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete personal data")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete personal data")
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "personal data not found")
	}
	return nil
}

func scanPersonalData(row *sql.Row) (*models.PersonalData, error) {
	var data models.PersonalData
	var rawUserID, gender, marital, education, employment, income, living string
	var middleName, employerName, region sql.NullString

	err := row.Scan(
		&rawUserID, &data.FirstName, &data.LastName, &middleName, &data.BirthDate, &gender,
		&marital, &education, &employment, &employerName, &data.EmploymentDurationMonths,
		&data.MonthlyIncome, &income, &data.OtherMonthlyPayments, &living, &region,
		&data.CreatedAt, &data.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	userID, err := id.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}

	data.UserID = userID
	data.MiddleName = middleName.String
	data.Gender = models.Gender(gender)
	data.MaritalStatus = models.MaritalStatus(marital)
	data.Education = models.EducationLevel(education)
	data.EmploymentType = models.EmploymentType(employment)
	data.EmployerName = employerName.String
	data.IncomeSource = models.IncomeSource(income)
	data.LivingArrangement = models.LivingArrangement(living)
	data.Region = region.String
	return &data, nil
}
