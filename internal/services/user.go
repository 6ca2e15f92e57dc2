package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/clipstream/apiserver/internal/store"
	"github.com/clipstream/apiserver/types"
	"github.com/google/uuid"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (types.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (types.User, error)
	GetByUserName(ctx context.Context, userName string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, userName, email, fullName string) (types.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (types.User, error)
	UpdateCoverImage(ctx context.Context, id uuid.UUID, coverImageURL string) (types.User, error)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterInput carries the fields needed to create an account. The
// image URLs are produced by the asset pipeline before registration.
type RegisterInput struct {
	UserName      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register validates input, hashes the password, and creates the
// account. Colliding user names or emails fail with
// ErrDuplicateIdentity and leave the store unchanged.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (types.User, error) {
	userName := strings.ToLower(strings.TrimSpace(input.UserName))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)

	if userName == "" || email == "" || fullName == "" || input.Password == "" {
		return types.User{}, fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return types.User{}, fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	}
	if input.AvatarURL == "" {
		return types.User{}, fmt.Errorf("%w: avatar is required", ErrInvalidInput)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		UserName:      userName,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  hash,
		AvatarURL:     input.AvatarURL,
		CoverImageURL: input.CoverImageURL,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, ErrDuplicateIdentity
		}
		return types.User{}, err
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (s *UserService) GetByUserName(ctx context.Context, userName string) (types.User, error) {
	user, err := s.repo.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// UpdateProfile changes the mutable identity fields. Blank fields
// keep their current value. Uniqueness is re-checked by the store.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, userName, email, fullName string) (types.User, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	userName = strings.ToLower(strings.TrimSpace(userName))
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)

	if userName == "" {
		userName = current.UserName
	}
	if email == "" {
		email = current.Email
	} else if !emailPattern.MatchString(email) {
		return types.User{}, fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	}
	if fullName == "" {
		fullName = current.FullName
	}

	updated, err := s.repo.UpdateProfile(ctx, id, userName, email, fullName)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return types.User{}, ErrDuplicateIdentity
		case errors.Is(err, store.ErrNotFound):
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return updated, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (types.User, error) {
	if avatarURL == "" {
		return types.User{}, fmt.Errorf("%w: avatar is required", ErrInvalidInput)
	}
	user, err := s.repo.UpdateAvatar(ctx, id, avatarURL)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (s *UserService) UpdateCoverImage(ctx context.Context, id uuid.UUID, coverImageURL string) (types.User, error) {
	user, err := s.repo.UpdateCoverImage(ctx, id, coverImageURL)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
