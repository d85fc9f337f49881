package team

import (
	"time"

	"hsepanel/auth"
)

// Member is the subset of user data exposed on the team screen.
type Member struct {
	ID        string
	Name      string
	Email     string
	Role      auth.Role
	Active    bool
	CreatedAt time.Time
}

// UpdateParams lists the member fields an administrator may change.
type UpdateParams struct {
	Active *bool
	Role   *auth.Role
}
