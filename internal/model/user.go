package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePublic    Role = "PUBLIC"
	RoleResponder Role = "RESPONDER"
	RoleAdmin     Role = "ADMIN"
)

// ReputationLevel is the ordinal trust ladder for reporters. Promotion and
// demotion happen only through status-update side effects.
type ReputationLevel string

const (
	ReputationNew      ReputationLevel = "NEW"
	ReputationReliable ReputationLevel = "RELIABLE"
	ReputationTrusted  ReputationLevel = "TRUSTED"
)

type User struct {
	ID              uuid.UUID       `json:"id"`
	Username        string          `json:"username"`
	PasswordHash    *string         `json:"-"`
	Email           string          `json:"email"`
	Role            Role            `json:"role"`
	Reputation      ReputationLevel `json:"reputation"`
	VerifiedReports int             `json:"verified_reports"`
	FalseReports    int             `json:"false_reports"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
}
