package model

import (
	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleReviewer UserRole = "REVIEWER"
	UserRoleViewer   UserRole = "VIEWER"
)

type Principal struct {
	UserID uuid.UUID
	Role   UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

// CanReview reports whether the user may upload datasets and cast votes.
func (p Principal) CanReview() bool {
	return p.Role == UserRoleAdmin || p.Role == UserRoleReviewer
}
