package service

import (
	"context"
	"errors"
	"strings"

	"github.com/val/markdown-notes/internal/domain"
	"github.com/val/markdown-notes/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type ProfileService struct {
	userRepo repository.UserRepository
}

func NewProfileService(userRepo repository.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo}
}

// Get re-reads the account from the store; a valid token for a user that no
// longer exists yields 404 here.
func (s *ProfileService) Get(ctx context.Context, userID uint) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *ProfileService) ChangeUsername(ctx context.Context, userID uint, newUsername string) (int64, error) {
	if strings.TrimSpace(newUsername) == "" {
		return 0, domain.Validation("Please specify a new username")
	}

	if _, err := s.Get(ctx, userID); err != nil {
		return 0, err
	}

	return s.userRepo.UpdateUsername(ctx, userID, newUsername)
}

// ChangePassword re-hashes and stores the new password after the old one is
// proven and the new one passes the policy, then bumps the token version so
// every session issued under the old password stops working.
func (s *ProfileService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) (int64, error) {
	if strings.TrimSpace(oldPassword) == "" {
		return 0, domain.Validation("Please enter your original password")
	}
	if strings.TrimSpace(newPassword) == "" {
		return 0, domain.Validation("Please specify a new password")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return 0, domain.Auth("Invalid credentials")
	}

	if !domain.ValidPassword(newPassword) {
		return 0, domain.Validation(PasswordPolicyMessage)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	rows, err := s.userRepo.UpdatePasswordHash(ctx, userID, string(hash))
	if err != nil {
		return 0, err
	}

	if _, err := s.userRepo.IncrementTokenVersion(ctx, userID); err != nil {
		return rows, err
	}

	return rows, nil
}

// Delete removes the account. The revocation counter is bumped before the row
// goes away so any in-flight token comparison sees a mismatch either way.
func (s *ProfileService) Delete(ctx context.Context, userID uint, password string) (int64, error) {
	if strings.TrimSpace(password) == "" {
		return 0, domain.Validation("Missing password field")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return 0, domain.Auth("Wrong password")
	}

	if _, err := s.userRepo.IncrementTokenVersion(ctx, userID); err != nil {
		return 0, err
	}

	return s.userRepo.Delete(ctx, userID)
}
