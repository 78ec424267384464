package store

import (
	"context"
	"database/sql"
	"errors"

	"kreditomat/internal/applications/models"
	"kreditomat/internal/pdn"
	"kreditomat/internal/scoring"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

// PostgresStore persists applications in the applications table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const appColumns = `id, user_id, amount, term_months, purpose, status, pdn, pdn_risk_level,
	monthly_payment, total_cost, score, score_category, device_fingerprint, ip_address,
	user_agent, device_type, region, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (`+appColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		app.ID.String(), app.UserID.String(), app.Amount, app.TermMonths, app.Purpose,
		string(app.Status), app.PDN, string(app.PDNRiskLevel), app.MonthlyPayment, app.TotalCost,
		app.Score, string(app.ScoreCategory), app.DeviceFingerprint, app.IPAddress,
		app.UserAgent, app.DeviceType, app.Region, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "insert application")
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, app *models.Application) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE applications SET
			status = $2, pdn = $3, pdn_risk_level = $4, monthly_payment = $5, total_cost = $6,
			score = $7, score_category = $8, updated_at = $9
		WHERE id = $1`,
		app.ID.String(), string(app.Status), app.PDN, string(app.PDNRiskLevel),
		app.MonthlyPayment, app.TotalCost, app.Score, string(app.ScoreCategory), app.UpdatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update application")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update application")
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+appColumns+` FROM applications WHERE id = $1`, appID.String())
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get application")
	}
	return app, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, status *models.Status) ([]models.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications WHERE user_id = $1`
	args := []any{userID.String()}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list applications")
	}
	defer rows.Close()

	var result []models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan application")
		}
		result = append(result, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list applications")
	}
	return result, nil
}

func (s *PostgresStore) CountActive(ctx context.Context, userID id.UserID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM applications
		WHERE user_id = $1 AND status IN ('pending', 'processing', 'approved')`,
		userID.String(),
	).Scan(&count)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "count active applications")
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (*models.Application, error) {
	var app models.Application
	var rawID, rawUserID, status, riskLevel string
	var purpose, category, fingerprint, ip, userAgent, deviceType, region sql.NullString
	var score sql.NullInt64

	err := row.Scan(
		&rawID, &rawUserID, &app.Amount, &app.TermMonths, &purpose, &status, &app.PDN,
		&riskLevel, &app.MonthlyPayment, &app.TotalCost, &score, &category,
		&fingerprint, &ip, &userAgent, &deviceType, &region, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	appID, err := id.ParseApplicationID(rawID)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}

	app.ID = appID
	app.UserID = userID
	app.Purpose = purpose.String
	app.Status = models.Status(status)
	app.PDNRiskLevel = pdn.RiskLevel(riskLevel)
	app.ScoreCategory = scoring.Category(category.String)
	app.DeviceFingerprint = fingerprint.String
	app.IPAddress = ip.String
	app.UserAgent = userAgent.String
	app.DeviceType = deviceType.String
	app.Region = region.String
	if score.Valid {
		v := int(score.Int64)
		app.Score = &v
	}
	return &app, nil
}
