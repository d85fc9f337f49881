package auth

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleReviewer Role = "reviewer"
	RoleViewer   Role = "viewer"
)

// User is a member of the HSE team allowed into the control panel.
// It mirrors the users table and carries no JSON annotations so each
// presentation layer shapes its own payload.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the authenticated caller extracted from a token.
type Identity struct {
	UserID string
	Role   Role
	Name   string
	Email  string
}

// CanReview reports whether the caller may move forms through the workflow.
func (i Identity) CanReview() bool {
	return i.Role == RoleAdmin || i.Role == RoleReviewer
}

// IsAdmin reports whether the caller manages team, invites and settings.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// RegisterRequest contains user registration data supplied by callers.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// LoginRequest contains user login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
