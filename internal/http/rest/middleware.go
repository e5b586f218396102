package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/lucsky/cuid"
	"github.com/vberk/incident_triage_api/util"
	"github.com/vberk/incident_triage_api/util/tracing"
	"github.com/vberk/incident_triage_api/util/values"
)

// RequestTracing handles the request tracing context
func RequestTracing(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get(values.HeaderRequestID)
		if requestID == "" {
			requestID = cuid.New()
		}

		tracingContext := tracing.Context{
			RequestID:     requestID,
			RequestSource: r.Header.Get(values.HeaderRequestSource),
		}

		ctx = context.WithValue(ctx, values.ContextTracingKey, tracingContext)
		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}

// RequireLogin gates the admin surface behind a valid staff token.
func (api *API) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.Split(r.Header.Get("Authorization"), " ")
		if len(authorization) != 2 || authorization[0] != "Bearer" {
			writeErrorResponse(w, errors.New(values.NotAuthorised), values.NotAuthorised, "not-authorized")
			return
		}

		claims, err := api.verifyToken(authorization[1])
		if err != nil {
			if err.Error() == "token expired" {
				writeErrorResponse(w, err, values.TokenExpired, "token-expired")
				return
			}
			writeErrorResponse(w, err, values.NotAuthorised, "invalid-token")
			return
		}

		dbCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, err := api.GetUserByUsername(dbCtx, claims.Username)
		if err != nil {
			writeErrorResponse(w, err, values.NotAuthorised, "user-not-found")
			return
		}
		if !user.Active {
			writeErrorResponse(w, errors.New("account disabled"), values.NotAuthorised, "account-disabled")
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, util.ContextUsernameKey, user.Username)
		ctx = context.WithValue(ctx, util.ContextRoleKey, string(user.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (api *API) verifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(api.Config.JwtSecret), nil
	})

	if ve, ok := err.(*jwt.ValidationError); ok {
		if ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, fmt.Errorf("token expired")
		}
	}

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}

	username, ok := claims["sub"].(string)
	if !ok || username == "" {
		return nil, fmt.Errorf("invalid subject")
	}
	role, _ := claims["role"].(string)

	return &TokenClaims{
		Username: username,
		Role:     role,
		Exp:      int64(claims["exp"].(float64)),
	}, nil
}
