package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stride-app/stride-backend/internal/domain"
)

// UserUpdateInput carries a partial profile update. Nil fields are left
// untouched.
type UserUpdateInput struct {
	Name     *string
	Email    *string
	Password *string
}

// UserService handles profile reads and self-service account changes
type UserService struct {
	users  domain.UserRepository
	images *ImageService
}

// NewUserService creates a new UserService
func NewUserService(users domain.UserRepository, images *ImageService) *UserService {
	return &UserService{users: users, images: images}
}

// Get returns a user's profile
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Update applies a partial profile update. Users can only edit their
// own account.
func (s *UserService) Update(ctx context.Context, callerID, id uuid.UUID, input UserUpdateInput) (*domain.User, error) {
	if callerID != id {
		return nil, domain.ErrForbidden
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		if len(name) > domain.MaxNameLength {
			return nil, domain.ErrNameTooLong
		}
		user.Name = name
	}

	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrInvalidEmail
		}
		user.Email = email
	}

	if input.Password != nil {
		if len(*input.Password) < MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hashStr := string(hash)
		user.PasswordHash = &hashStr
	}

	return s.users.Update(ctx, user)
}

// Delete removes an account. Users can only delete their own account.
func (s *UserService) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if callerID != id {
		return domain.ErrForbidden
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	if user.Avatar != nil && s.images.IsEnabled() {
		s.images.DeleteAllVariants(ctx, *user.Avatar)
	}
	return nil
}

// UploadAvatar stores a new avatar image and updates the profile. The
// previous avatar's stored variants are removed.
func (s *UserService) UploadAvatar(ctx context.Context, callerID, id uuid.UUID, data []byte, filename string) (*domain.User, error) {
	if callerID != id {
		return nil, domain.ErrForbidden
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	objectPath, err := s.images.ProcessAndUpload(ctx, "users", id, data, filename)
	if err != nil {
		return nil, err
	}

	oldAvatar := user.Avatar
	user.Avatar = &objectPath

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		s.images.DeleteAllVariants(ctx, objectPath)
		return nil, err
	}

	if oldAvatar != nil {
		s.images.DeleteAllVariants(ctx, *oldAvatar)
	}
	return updated, nil
}

// ResolveAvatarURL converts a stored avatar path to a client-usable
// URL. External URLs (federated profile pictures) pass through.
func (s *UserService) ResolveAvatarURL(ctx context.Context, user *domain.User) string {
	if user.Avatar == nil {
		return ""
	}
	if strings.HasPrefix(*user.Avatar, "http://") || strings.HasPrefix(*user.Avatar, "https://") {
		return *user.Avatar
	}
	return s.images.ResolveURL(ctx, *user.Avatar)
}
