package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kreditomat/internal/offers/models"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

// PostgresStore persists offers in the bank_offers table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const offerColumns = `id, bank_name, logo_url, min_amount, max_amount, min_term_months, max_term_months,
	annual_rate, commission_percent, min_score, rating, reviews_count, online_application,
	early_repayment_allowed, processing_time_hours, priority, requirements, is_active, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, offer *models.Offer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bank_offers (`+offerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		offer.ID.String(), offer.BankName, offer.LogoURL, offer.MinAmount, offer.MaxAmount,
		offer.MinTermMonths, offer.MaxTermMonths, offer.AnnualRate, offer.CommissionPercent,
		offer.MinScore, offer.Rating, offer.ReviewsCount, offer.OnlineApplication,
		offer.EarlyRepaymentAllowed, offer.ProcessingTimeHours, offer.Priority,
		offer.Requirements, offer.IsActive, offer.CreatedAt, offer.UpdatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "insert offer")
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, offer *models.Offer) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bank_offers SET
			bank_name = $2, logo_url = $3, min_amount = $4, max_amount = $5,
			min_term_months = $6, max_term_months = $7, annual_rate = $8, commission_percent = $9,
			min_score = $10, rating = $11, reviews_count = $12, online_application = $13,
			early_repayment_allowed = $14, processing_time_hours = $15, priority = $16,
			requirements = $17, is_active = $18, updated_at = $19
		WHERE id = $1`,
		offer.ID.String(), offer.BankName, offer.LogoURL, offer.MinAmount, offer.MaxAmount,
		offer.MinTermMonths, offer.MaxTermMonths, offer.AnnualRate, offer.CommissionPercent,
		offer.MinScore, offer.Rating, offer.ReviewsCount, offer.OnlineApplication,
		offer.EarlyRepaymentAllowed, offer.ProcessingTimeHours, offer.Priority,
		offer.Requirements, offer.IsActive, offer.UpdatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update offer")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update offer")
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "offer not found")
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, offerID id.OfferID) (*models.Offer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+offerColumns+` FROM bank_offers WHERE id = $1`, offerID.String())
	offer, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "offer not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get offer")
	}
	return offer, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM bank_offers WHERE is_active = TRUE`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Amount != nil {
		p := arg(*filter.Amount)
		query += fmt.Sprintf(" AND min_amount <= %s AND max_amount >= %s", p, p)
	}
	if filter.TermMonths != nil {
		p := arg(*filter.TermMonths)
		query += fmt.Sprintf(" AND min_term_months <= %s AND max_term_months >= %s", p, p)
	}
	if filter.MinScore != nil {
		query += fmt.Sprintf(" AND min_score <= %s", arg(*filter.MinScore))
	}
	if filter.MaxRate != nil {
		query += fmt.Sprintf(" AND annual_rate <= %s", arg(*filter.MaxRate))
	}
	if filter.BankName != "" {
		query += fmt.Sprintf(" AND bank_name ILIKE %s", arg("%"+filter.BankName+"%"))
	}
	if filter.OnlineOnly {
		query += " AND online_application = TRUE"
	}

	switch filter.SortBy {
	case models.SortByBankName:
		query += " ORDER BY bank_name"
	case models.SortByMinAmount:
		query += " ORDER BY min_amount"
	default:
		query += " ORDER BY annual_rate"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list offers")
	}
	defer rows.Close()
	return scanOffers(rows)
}

func (s *PostgresStore) Featured(ctx context.Context, limit int) ([]models.Offer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+offerColumns+` FROM bank_offers
		WHERE is_active = TRUE
		ORDER BY priority DESC, annual_rate
		LIMIT $1`, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "featured offers")
	}
	defer rows.Close()
	return scanOffers(rows)
}

func (s *PostgresStore) BankNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT bank_name FROM bank_offers
		WHERE is_active = TRUE
		ORDER BY bank_name`)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list banks")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan bank name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list banks")
	}
	return names, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOffer(row scanner) (*models.Offer, error) {
	var offer models.Offer
	var rawID string
	var logoURL, requirements sql.NullString
	err := row.Scan(
		&rawID, &offer.BankName, &logoURL, &offer.MinAmount, &offer.MaxAmount,
		&offer.MinTermMonths, &offer.MaxTermMonths, &offer.AnnualRate, &offer.CommissionPercent,
		&offer.MinScore, &offer.Rating, &offer.ReviewsCount, &offer.OnlineApplication,
		&offer.EarlyRepaymentAllowed, &offer.ProcessingTimeHours, &offer.Priority,
		&requirements, &offer.IsActive, &offer.CreatedAt, &offer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	offerID, err := id.ParseOfferID(rawID)
	if err != nil {
		return nil, err
	}
	offer.ID = offerID
	offer.LogoURL = logoURL.String
	offer.Requirements = requirements.String
	return &offer, nil
}

func scanOffers(rows *sql.Rows) ([]models.Offer, error) {
	var result []models.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan offer")
		}
		result = append(result, *offer)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list offers")
	}
	return result, nil
}
