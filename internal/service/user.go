package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/honestybar/internal/domain"
	"github.com/Skotchmaster/honestybar/internal/hash"
	"github.com/Skotchmaster/honestybar/internal/logging"
	"github.com/Skotchmaster/honestybar/internal/models"
	"github.com/Skotchmaster/honestybar/internal/repo"
	"github.com/Skotchmaster/honestybar/internal/tokens"
	"github.com/Skotchmaster/honestybar/internal/transport"
)

type UserService struct {
	Repo       *repo.UserRepo
	Issuer     *tokens.Issuer
	BcryptCost int
}

func (s *UserService) Create(ctx context.Context, req transport.CreateUserRequest) (*models.PublicUser, error) {
	l := logging.FromContext(ctx).With("svc", "user.create")

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("password is required: %w", domain.ErrValidation)
	}
	if len(req.Password) > hash.MaxPasswordBytes {
		return nil, fmt.Errorf("password longer than %d bytes: %w", hash.MaxPasswordBytes, domain.ErrValidation)
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", role, domain.ErrValidation)
	}

	pwHash, err := hash.HashPassword(req.Password, s.BcryptCost)
	if err != nil {
		l.Error("create_user_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	u := &models.User{
		Name:         name,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}

	l.Info("user created", "user_id", u.ID, "role", u.Role)
	pub := u.Public()
	return &pub, nil
}

// Login checks the credentials and issues an access token. An unknown name
// and a wrong password fail the same way.
func (s *UserService) Login(ctx context.Context, name, password string) (*transport.LoginResponse, error) {
	l := logging.FromContext(ctx).With("svc", "user.login")

	u, err := s.Repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.Warn("login failed", "reason", "unknown user")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		l.Warn("login failed", "reason", "wrong password", "user_id", u.ID)
		return nil, domain.ErrInvalidCredentials
	}

	token, exp, err := s.Issuer.Issue(u.Principal())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &transport.LoginResponse{Token: token, ExpiresAt: exp}, nil
}

func (s *UserService) Profile(ctx context.Context, id string) (*models.PublicUser, error) {
	u, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required: %w", domain.ErrValidation)
	}
	return s.Repo.Delete(ctx, id)
}

// EnsureAdmin creates an admin account named name unless a user with that
// name already exists. It reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, name, password string) (bool, error) {
	if name == "" || password == "" {
		return false, nil
	}

	if _, err := s.Repo.FindByName(ctx, name); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	_, err := s.Create(ctx, transport.CreateUserRequest{
		Name:     name,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if errors.Is(err, domain.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
