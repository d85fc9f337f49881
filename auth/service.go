package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
	// ErrInactiveUser signals a member removed from the team.
	ErrInactiveUser = errors.New("auth: user is inactive")
	// ErrInvalidRegistration signals missing fields or an unknown role.
	ErrInvalidRegistration = errors.New("auth: invalid registration")
	// ErrInvalidToken signals a token that fails signature, expiry or claim checks.
	ErrInvalidToken = errors.New("auth: invalid token")
)

const tokenTTL = 24 * time.Hour

// Service handles authentication business logic.
type Service struct {
	repo      Repository
	jwtSecret []byte
	now       func() time.Time
}

// LoginResult bundles the token and domain user returned after a successful login.
type LoginResult struct {
	Token string
	User  User
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

// Register creates a new team member.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}

	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.FullName == "" {
		return nil, fmt.Errorf("%w: email and full_name are required", ErrInvalidRegistration)
	}

	role := Role(strings.TrimSpace(string(req.Role)))
	if role == "" {
		role = RoleReviewer
	}
	if !IsValidRole(role) {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidRegistration, role)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(passwordHash),
		Role:         role,
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// SeedAdmin creates the bootstrap administrator unless the email exists.
func (s *Service) SeedAdmin(ctx context.Context, email, fullName, password string) error {
	_, err := s.Register(ctx, RegisterRequest{
		Email:    email,
		Password: password,
		FullName: fullName,
		Role:     RoleAdmin,
	})
	if errors.Is(err, ErrDuplicateEmail) {
		return nil
	}
	return err
}

// Login authenticates a team member and returns a JWT token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if !user.Active {
		return LoginResult{}, ErrInactiveUser
	}

	token, err := s.generateToken(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	return LoginResult{
		Token: token,
		User:  user,
	}, nil
}

// VerifyToken validates a JWT token and returns the caller identity.
func (s *Service) VerifyToken(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	var id Identity
	if id.UserID, ok = claims["user_id"].(string); !ok {
		return Identity{}, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	roleStr, ok := claims["role"].(string)
	if !ok {
		return Identity{}, fmt.Errorf("%w: missing role", ErrInvalidToken)
	}
	id.Role = Role(roleStr)
	if !IsValidRole(id.Role) {
		return Identity{}, fmt.Errorf("%w: role %q", ErrInvalidToken, roleStr)
	}
	id.Name, _ = claims["name"].(string)
	id.Email, _ = claims["email"].(string)
	if id.Name == "" || id.Email == "" {
		return Identity{}, fmt.Errorf("%w: missing name or email", ErrInvalidToken)
	}
	return id, nil
}

// Authenticate verifies the token and reloads the member it names, so a
// deactivation or role change applies to tokens issued before it.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (Identity, error) {
	claimed, err := s.VerifyToken(tokenString)
	if err != nil {
		return Identity{}, err
	}

	user, err := s.repo.GetUserByID(ctx, claimed.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Identity{}, fmt.Errorf("%w: user %s no longer exists", ErrInvalidToken, claimed.UserID)
		}
		return Identity{}, err
	}
	if !user.Active {
		return Identity{}, ErrInactiveUser
	}

	return Identity{
		UserID: user.ID,
		Role:   user.Role,
		Name:   user.FullName,
		Email:  user.Email,
	}, nil
}

func (s *Service) generateToken(user User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"name":    user.FullName,
		"email":   user.Email,
		"exp":     now.Add(tokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// IsValidRole reports whether role is one of the team roles.
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleReviewer, RoleViewer:
		return true
	default:
		return false
	}
}
