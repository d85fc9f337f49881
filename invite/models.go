package invite

import "time"

// Status represents the lifecycle of a supplier invite.
type Status string

const (
	StatusPending Status = "pending"
	StatusUsed    Status = "used"
	StatusRevoked Status = "revoked"
)

// Invite mirrors the invites table.
type Invite struct {
	ID        string
	Company   string
	Email     string
	Token     string
	Status    Status
	CreatedBy string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether a pending invite can no longer be used at now.
func (i Invite) Expired(now time.Time) bool {
	return i.Status == StatusPending && !now.Before(i.ExpiresAt)
}

// CreateParams carries the data an administrator supplies for a new invite.
type CreateParams struct {
	Company   string
	Email     string
	CreatedBy string
}

const (
	OutboxTopicCreated = "invite.created"
	OutboxTopicRevoked = "invite.revoked"
)
