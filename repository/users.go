package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/chajs226/smart-investor-api/models"
)

type UserRepo struct {
	DB *sql.DB
}

const userColumns = `id, email, name, analysis_count, plan, created_at, updated_at, last_login_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var name sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(&u.ID, &u.Email, &name, &u.AnalysisCount, &u.Plan, &u.CreatedAt, &u.UpdatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}
	if name.Valid {
		u.Name = &name.String
	}
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}
	return &u, nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

// ResolveOrCreate maps an OAuth identity to exactly one user row.
// Resolution order: existing provider link, then existing user with the same
// email (a new link is attached, merging providers under one account), then
// a brand-new user with the starting credit balance. The resolved user's
// last_login_at is always refreshed and a missing name is filled in.
func (r *UserRepo) ResolveOrCreate(ctx context.Context, p models.SignInParams) (*models.User, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var userID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		SELECT user_id FROM user_providers
		WHERE provider = $1 AND provider_account_id = $2
	`, p.Provider, p.ProviderAccountID).Scan(&userID)

	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE email = $1`, p.Email).Scan(&userID)
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.QueryRowContext(ctx, `
				INSERT INTO users (email, name, analysis_count, plan, last_login_at)
				VALUES ($1, $2, $3, $4, now())
				RETURNING id
			`, p.Email, nullIfEmpty(p.Name), models.NewUserAnalysisCount, models.PlanFree).Scan(&userID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_providers (user_id, provider, provider_account_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (provider, provider_account_id) DO NOTHING
		`, userID, p.Provider, p.ProviderAccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to link provider: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up provider link: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE users
		SET last_login_at = now(),
		    updated_at = now(),
		    name = COALESCE(name, $2)
		WHERE id = $1
		RETURNING `+userColumns, userID, nullIfEmpty(p.Name))

	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update login: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return user, nil
}

// DecrementAnalysisCount spends one credit. The guard and the write are a
// single statement so concurrent calls can never drive the count negative.
func (r *UserRepo) DecrementAnalysisCount(ctx context.Context, email string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE users
		SET analysis_count = analysis_count - 1, updated_at = now()
		WHERE email = $1 AND analysis_count > 0
		RETURNING `+userColumns, email)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if checkErr := r.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); checkErr != nil {
			return nil, checkErr
		}
		if exists {
			return nil, ErrNoCredits
		}
		return nil, ErrNotFound
	}
	return user, err
}

// AddCredits records a payment and tops up the balance in one transaction.
// The unique constraint on payment_intent_id makes replays a no-op.
func (r *UserRepo) AddCredits(ctx context.Context, email string, credits int, paymentIntentID, orderID string, amount int64) (*models.User, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var userID uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (user_id, payment_intent_id, order_id, amount, credits, status)
		VALUES ($1, $2, $3, $4, $5, 'confirmed')
	`, userID, paymentIntentID, orderID, amount, credits)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return nil, ErrPaymentProcessed
		}
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE users
		SET analysis_count = analysis_count + $2,
		    plan = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, userID, credits, models.PlanPaid)

	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to credit account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return user, nil
}

func (r *UserRepo) Providers(ctx context.Context, userID uuid.UUID) ([]models.UserProvider, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, provider, provider_account_id, created_at, updated_at
		FROM user_providers
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	providers := []models.UserProvider{}
	for rows.Next() {
		var p models.UserProvider
		if err := rows.Scan(&p.ID, &p.UserID, &p.Provider, &p.ProviderAccountID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

// UnlinkProvider removes one provider link, refusing to remove the last one.
func (r *UserRepo) UnlinkProvider(ctx context.Context, userID uuid.UUID, provider string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM user_providers WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastProvider
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM user_providers WHERE user_id = $1 AND provider = $2`, userID, provider)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// Delete removes the user; provider links, history and payments cascade in
// the datastore.
func (r *UserRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
