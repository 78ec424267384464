package store

import (
	"context"
	"database/sql"
	"errors"

	"kreditomat/internal/auth/models"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

// PostgresUserStore persists accounts in the users table.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

const userColumns = `id, phone_number, verified, referral_code, referred_by_id, created_at, updated_at`

func (s *PostgresUserStore) Create(ctx context.Context, user *models.User) error {
	var referredBy sql.NullString
	if user.ReferredBy != nil {
		referredBy = sql.NullString{String: user.ReferredBy.String(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID.String(), user.PhoneNumber, user.Verified, user.ReferralCode,
		referredBy, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "insert user")
	}
	return nil
}

func (s *PostgresUserStore) GetByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID.String())
	return scanUser(row)
}

func (s *PostgresUserStore) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone)
	return scanUser(row)
}

func (s *PostgresUserStore) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code)
	return scanUser(row)
}

func (s *PostgresUserStore) Update(ctx context.Context, user *models.User) error {
	var referredBy sql.NullString
	if user.ReferredBy != nil {
		referredBy = sql.NullString{String: user.ReferredBy.String(), Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET verified = $2, referred_by_id = $3, updated_at = $4
		WHERE id = $1`,
		user.ID.String(), user.Verified, referredBy, user.UpdatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update user")
	}
	if n == 0 {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *PostgresUserStore) ListReferred(ctx context.Context, referrerID id.UserID) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE referred_by_id = $1 ORDER BY created_at DESC`,
		referrerID.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list referred users")
	}
	defer rows.Close()

	var referred []models.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		referred = append(referred, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list referred users")
	}
	return referred, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row *sql.Row) (*models.User, error) {
	return scanUserRow(row)
}

func scanUserRow(row scanner) (*models.User, error) {
	var (
		u          models.User
		rawID      string
		referredBy sql.NullString
	)
	err := row.Scan(&rawID, &u.PhoneNumber, &u.Verified, &u.ReferralCode,
		&referredBy, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan user")
	}
	u.ID, err = id.ParseUserID(rawID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt user id")
	}
	if referredBy.Valid {
		ref, err := id.ParseUserID(referredBy.String)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt referrer id")
		}
		u.ReferredBy = &ref
	}
	return &u, nil
}
