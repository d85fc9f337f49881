package invite

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValidFor is how long a supplier invite stays usable.
const ValidFor = 30 * 24 * time.Hour

var ErrInvalid = errors.New("invite: invalid request")

// Store is the persistence the service needs.
type Store interface {
	List(ctx context.Context, status Status) ([]Invite, error)
	Create(ctx context.Context, inv Invite) (Invite, error)
	Revoke(ctx context.Context, id string) (Invite, error)
}

type Service struct {
	repo        Store
	idGenerator func() string
	now         func() time.Time
}

func NewService(repo Store) *Service {
	return &Service{
		repo:        repo,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

func (s *Service) List(ctx context.Context, status Status) ([]Invite, error) {
	switch status {
	case "", StatusPending, StatusUsed, StatusRevoked:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
	}
	return s.repo.List(ctx, status)
}

// Create issues a new invite with a random token valid for ValidFor.
func (s *Service) Create(ctx context.Context, params CreateParams) (Invite, error) {
	company := strings.TrimSpace(params.Company)
	if company == "" {
		return Invite{}, fmt.Errorf("%w: company is required", ErrInvalid)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(params.Email))
	if err != nil {
		return Invite{}, fmt.Errorf("%w: email %q", ErrInvalid, params.Email)
	}
	if params.CreatedBy == "" {
		return Invite{}, fmt.Errorf("%w: missing creator", ErrInvalid)
	}

	now := s.now()
	return s.repo.Create(ctx, Invite{
		ID:        s.idGenerator(),
		Company:   company,
		Email:     strings.ToLower(addr.Address),
		Token:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		Status:    StatusPending,
		CreatedBy: params.CreatedBy,
		CreatedAt: now,
		ExpiresAt: now.Add(ValidFor),
	})
}

func (s *Service) Revoke(ctx context.Context, id string) (Invite, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Invite{}, ErrNotFound
	}
	return s.repo.Revoke(ctx, id)
}
