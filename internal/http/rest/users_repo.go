package rest

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vberk/incident_triage_api/internal/model"
	"github.com/vberk/incident_triage_api/util"
)

// GetOrCreateReporter resolves a reporter by username, provisioning a
// credential-less PUBLIC/NEW account on first sight. The upsert keeps two
// concurrent first-time reports from racing on the unique username.
func (api *API) GetOrCreateReporter(ctx context.Context, q dbtx, username string) (model.User, error) {
	var user model.User
	stmt := `
        INSERT INTO users (id, username, email, role, reputation)
        VALUES ($1, $2, $3, 'PUBLIC', 'NEW')
        ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
        RETURNING id, username, password_hash, email, role, reputation,
            verified_reports, false_reports, active, created_at
    `
	err := q.QueryRow(ctx, stmt, util.GenerateUUID(), username, username+"@anonymous.local").Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.Role,
		&user.Reputation,
		&user.VerifiedReports,
		&user.FalseReports,
		&user.Active,
		&user.CreatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

// GetUserByUsernameTx looks a user up inside a transaction without
// auto-provisioning; status updates require a known actor.
func (api *API) GetUserByUsernameTx(ctx context.Context, q dbtx, username string) (model.User, error) {
	var user model.User
	stmt := `
        SELECT id, username, password_hash, email, role, reputation,
            verified_reports, false_reports, active, created_at
        FROM users
        WHERE username = $1
    `
	err := q.QueryRow(ctx, stmt, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.Role,
		&user.Reputation,
		&user.VerifiedReports,
		&user.FalseReports,
		&user.Active,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

// GetUserByIDRepo fetches a user without locking; used to read the
// reporter's reputation when rescoring after a confirmation.
func (api *API) GetUserByIDRepo(ctx context.Context, q dbtx, userID uuid.UUID) (model.User, error) {
	var user model.User
	stmt := `
        SELECT id, username, password_hash, email, role, reputation,
            verified_reports, false_reports, active, created_at
        FROM users
        WHERE id = $1
    `
	err := q.QueryRow(ctx, stmt, userID).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.Role,
		&user.Reputation,
		&user.VerifiedReports,
		&user.FalseReports,
		&user.Active,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

// LockReporterForUpdate takes a row lock on the reporter so the reputation
// read-modify-write cannot interleave with a concurrent status update.
func (api *API) LockReporterForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (model.User, error) {
	var user model.User
	stmt := `
        SELECT id, username, password_hash, email, role, reputation,
            verified_reports, false_reports, active, created_at
        FROM users
        WHERE id = $1
        FOR UPDATE
    `
	err := tx.QueryRow(ctx, stmt, userID).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.Role,
		&user.Reputation,
		&user.VerifiedReports,
		&user.FalseReports,
		&user.Active,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (api *API) SaveReputationRepo(ctx context.Context, q dbtx, user model.User) error {
	stmt := `
        UPDATE users
        SET reputation = $2, verified_reports = $3, false_reports = $4
        WHERE id = $1
    `
	_, err := q.Exec(ctx, stmt, user.ID, user.Reputation, user.VerifiedReports, user.FalseReports)
	return err
}
