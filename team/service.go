package team

import (
	"context"
	"errors"
	"fmt"

	"hsepanel/auth"
)

var (
	// ErrSelfModification signals an administrator trying to lock themselves out.
	ErrSelfModification = errors.New("team: cannot deactivate or demote yourself")
	ErrInvalidUpdate    = errors.New("team: invalid update")
)

// MemberStore abstracts repository operations for the service.
type MemberStore interface {
	GetByID(ctx context.Context, id string) (Member, error)
	List(ctx context.Context, includeInactive bool) ([]Member, error)
	Update(ctx context.Context, id string, params UpdateParams) (Member, error)
}

// Service exposes team management operations.
type Service struct {
	repo MemberStore
}

// NewService builds a Service using the provided repository.
func NewService(repo MemberStore) *Service {
	return &Service{repo: repo}
}

// GetByID returns the member for the given identifier.
func (s *Service) GetByID(ctx context.Context, id string) (Member, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns team members.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]Member, error) {
	return s.repo.List(ctx, includeInactive)
}

// Update changes a member's role or active flag on behalf of actorID.
func (s *Service) Update(ctx context.Context, actorID, id string, params UpdateParams) (Member, error) {
	if params.Active == nil && params.Role == nil {
		return Member{}, fmt.Errorf("%w: nothing to update", ErrInvalidUpdate)
	}
	if params.Role != nil && !auth.IsValidRole(*params.Role) {
		return Member{}, fmt.Errorf("%w: role %q", ErrInvalidUpdate, *params.Role)
	}
	if actorID == id {
		if params.Active != nil && !*params.Active {
			return Member{}, ErrSelfModification
		}
		if params.Role != nil && *params.Role != auth.RoleAdmin {
			return Member{}, ErrSelfModification
		}
	}
	return s.repo.Update(ctx, id, params)
}
