package rest

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/vberk/incident_triage_api/internal/model"
	"github.com/vberk/incident_triage_api/util"
)

var (
	ErrNoCredential    = errors.New("account has no usable credential")
	ErrAccountDisabled = errors.New("account is disabled")
)

func (api *API) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	stmt := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	err := api.DB.QueryRow(ctx, stmt, username).Scan(&exists)
	if err != nil {
		log.Println("error checking username", err)
		return false, err
	}
	return exists, nil
}

func (api *API) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	stmt := `
        SELECT id, username, password_hash, email, role, reputation,
            verified_reports, false_reports, active, created_at
        FROM users
        WHERE username = $1
    `

	err := api.DB.QueryRow(ctx, stmt, username).Scan(
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

func (api *API) CreateStaffUserRepo(ctx context.Context, username, email, passwordHash string, role model.Role) error {
	stmt := `
        INSERT INTO users (id, username, email, password_hash, role, reputation)
        VALUES ($1, $2, $3, $4, $5, 'TRUSTED')
    `
	_, err := api.DB.Exec(ctx, stmt, util.GenerateUUID(), username, email, passwordHash, role)
	if err != nil {
		log.Println("error creating staff user", err)
		return err
	}
	return nil
}
