package repository

import (
	"context"
	"time"

	"github.com/val/markdown-notes/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ConsumeVerificationCode marks the user verified and clears the code and
	// its expiry in one conditional update. It reports false when the code
	// does not match, is expired, or the user is already verified.
	ConsumeVerificationCode(ctx context.Context, email, code string) (bool, error)
	UpdateVerificationCode(ctx context.Context, id uint, code string, expires time.Time) (int64, error)

	IncrementTokenVersion(ctx context.Context, id uint) (int64, error)
	UpdateUsername(ctx context.Context, id uint, username string) (int64, error)
	UpdatePasswordHash(ctx context.Context, id uint, hash string) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
}

type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	GetByUser(ctx context.Context, userID uint) ([]*domain.Note, error)
	GetByID(ctx context.Context, id, userID uint) (*domain.Note, error)
	Update(ctx context.Context, note *domain.Note) error
	Delete(ctx context.Context, id, userID uint) (int64, error)
}

type Repositories struct {
	User UserRepository
	Note NoteRepository
}
