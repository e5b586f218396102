package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vberk/incident_triage_api/util/tracing"
	"github.com/vberk/incident_triage_api/util/values"
)

// StatusCode returns the status code represented
// by the specified status. Note that this function
// returns a status code of 200 by default
func StatusCode(status string) int {
	switch status {
	case values.Error:
		return http.StatusInternalServerError
	case values.Created:
		return http.StatusCreated
	case values.BadRequestBody:
		return http.StatusBadRequest
	case values.Unprocessable:
		return http.StatusUnprocessableEntity
	case values.NotAllowed:
		return http.StatusForbidden
	case values.Conflict:
		return http.StatusConflict
	case values.NotFound:
		return http.StatusNotFound
	case values.NotAuthorised, values.TokenExpired:
		return http.StatusUnauthorized
	case values.ActiveLogin:
		return http.StatusForbidden
	default:
		return http.StatusOK
	}
}

// DecodeJSONBody ...
func DecodeJSONBody(tc *tracing.Context, body io.ReadCloser, target interface{}) error {
	defer func() {
		_ = body.Close()
	}()

	if body == nil {
		return fmt.Errorf("missing request body for request: %v", tc)
	}

	if err := json.NewDecoder(body).Decode(&target); err != nil {
		return errors.Wrapf(err, "Error parsing json body for request: %v", tc)
	}

	return nil
}

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

type contextKey string

const (
	ContextUsernameKey = contextKey("username")
	ContextRoleKey     = contextKey("role")
)

// GetUsernameFromContext extracts the authenticated username from the context.
func GetUsernameFromContext(ctx context.Context) (string, error) {
	username, ok := ctx.Value(ContextUsernameKey).(string)
	if !ok || username == "" {
		return "", errors.New("username not found in context")
	}
	return username, nil
}

// GetRoleFromContext extracts the authenticated user's role from the context.
func GetRoleFromContext(ctx context.Context) (string, error) {
	role, ok := ctx.Value(ContextRoleKey).(string)
	if !ok || role == "" {
		return "", errors.New("role not found in context")
	}
	return role, nil
}
