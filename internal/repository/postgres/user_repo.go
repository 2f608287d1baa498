package postgres

import (
	"context"
	"time"

	"github.com/val/markdown-notes/internal/domain"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ConsumeVerificationCode is a single conditional UPDATE so two concurrent
// submissions of the same code can never both succeed.
func (r *userRepository) ConsumeVerificationCode(ctx context.Context, email, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ? AND verification_code = ? AND code_expires > ? AND is_verified = ?",
			email, code, time.Now(), false).
		Updates(map[string]interface{}{
			"is_verified":       true,
			"verification_code": nil,
			"code_expires":      nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *userRepository) UpdateVerificationCode(ctx context.Context, id uint, code string, expires time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"verification_code": code,
			"code_expires":      expires,
		})
	return res.RowsAffected, res.Error
}

func (r *userRepository) IncrementTokenVersion(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1))
	return res.RowsAffected, res.Error
}

func (r *userRepository) UpdateUsername(ctx context.Context, id uint, username string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("username", username)
	return res.RowsAffected, res.Error
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id uint, hash string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	return res.RowsAffected, res.Error
}

func (r *userRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
