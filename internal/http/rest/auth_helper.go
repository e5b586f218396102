package rest

import (
	"context"
	"log"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/vberk/incident_triage_api/internal/model"
	"github.com/vberk/incident_triage_api/util/values"
	"golang.org/x/crypto/bcrypt"
)

type TokenClaims struct {
	Username string `json:"sub"`
	Role     string `json:"role"`
	Exp      int64  `json:"exp"`
}

func (api *API) createToken(username string, role model.Role) (string, time.Time, error) {
	expTime, err := time.ParseDuration(api.Config.JwtExpires)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().Add(expTime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  username,
		"role": string(role),
		"exp":  expiresAt.Unix(),
		"iat":  time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(api.Config.JwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func (api *API) LoginHelper(ctx context.Context, req model.LoginRequest) (model.LoginResponse, string, string, error) {
	user, err := api.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return model.LoginResponse{}, values.NotAuthorised, "Invalid username or password", err
	}

	// Auto-provisioned reporters carry no usable credential.
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return model.LoginResponse{}, values.NotAuthorised, "Account has no login credential", ErrNoCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return model.LoginResponse{}, values.NotAuthorised, "Invalid username or password", err
	}

	if !user.Active {
		return model.LoginResponse{}, values.NotAllowed, "Account is disabled", ErrAccountDisabled
	}

	token, _, err := api.createToken(user.Username, user.Role)
	if err != nil {
		return model.LoginResponse{}, values.Error, "Failed to issue token", err
	}

	return model.LoginResponse{
		Token:    token,
		Username: user.Username,
		Role:     user.Role,
	}, values.Success, "Login successful", nil
}

// EnsureSeedUsers creates the default admin and responder accounts on first
// start so staff can log in before any provisioning tooling exists.
func (api *API) EnsureSeedUsers(ctx context.Context) error {
	seeds := []struct {
		username string
		email    string
		password string
		role     model.Role
	}{
		{"admin", "admin@incident.local", api.Config.SeedAdminPassword, model.RoleAdmin},
		{"responder", "responder@incident.local", api.Config.SeedResponderPassword, model.RoleResponder},
	}

	for _, seed := range seeds {
		exists, err := api.UsernameExists(ctx, seed.username)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seed.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		if err := api.CreateStaffUserRepo(ctx, seed.username, seed.email, string(hash), seed.role); err != nil {
			return err
		}
		log.Printf("Created default %s user %q", seed.role, seed.username)
	}
	return nil
}
