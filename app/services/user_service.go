package services

import (
	"context"
	"errors"
	"fmt"

	"quill/app/auth"
	"quill/app/models"
	"quill/app/repositories"
)

// UserService handles accounts and API tokens. It implements
// auth.Authenticator.
type UserService struct {
	userRepo   repositories.UserRepository
	bcryptCost int
}

var _ auth.Authenticator = (*UserService)(nil)

// NewUserService creates a new UserService. A zero bcryptCost means
// bcrypt.DefaultCost.
func NewUserService(userRepo repositories.UserRepository, bcryptCost int) *UserService {
	return &UserService{
		userRepo:   userRepo,
		bcryptCost: bcryptCost,
	}
}

// Register creates an account and returns it with a fresh API token.
func (s *UserService) Register(ctx context.Context, in models.RegisterInput) (*models.User, string, error) {
	in.Normalize()
	if err := models.Validate(&in); err != nil {
		return nil, "", err
	}

	// Catch the common duplicate early; the unique index covers races
	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, "", models.NewValidationError("email", models.Message("email", "unique"))
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup email: %w", err)
	}

	hashed, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	token, tokenHash, err := auth.NewToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	user := &models.User{
		Name:      in.Name,
		Email:     in.Email,
		Password:  hashed,
		TokenHash: &tokenHash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", uniqueViolation(err)
	}
	return user, token, nil
}

// Login checks credentials and issues a new token. Each user holds one token
// at a time, so logging in again revokes the previous one.
func (s *UserService) Login(ctx context.Context, in models.LoginInput) (*models.User, string, error) {
	in.Normalize()
	if err := models.Validate(&in); err != nil {
		return nil, "", err
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("lookup email: %w", err)
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, tokenHash, err := auth.NewToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	user.TokenHash = &tokenHash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, "", fmt.Errorf("store token: %w", err)
	}
	return user, token, nil
}

// Authenticate resolves a bearer token. Unknown tokens yield nil, nil.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	user, err := s.userRepo.GetByTokenHash(ctx, auth.HashToken(token))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	return user, nil
}

// Logout revokes the actor's token.
func (s *UserService) Logout(ctx context.Context, actor *models.User) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return notFound(err, "user", actor.ID)
	}
	user.TokenHash = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// GetUser returns the actor as stored.
func (s *UserService) GetUser(ctx context.Context, actor *models.User) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "user", actor.ID)
	}
	return user, nil
}

// DeleteAccount removes the actor with all their posts and comments.
func (s *UserService) DeleteAccount(ctx context.Context, actor *models.User) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if err := s.userRepo.Delete(ctx, actor.ID); err != nil {
		return notFound(err, "user", actor.ID)
	}
	return nil
}
