package postgres

import (
	"context"

	"github.com/val/markdown-notes/internal/domain"
	"gorm.io/gorm"
)

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *noteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *noteRepository) GetByUser(ctx context.Context, userID uint) ([]*domain.Note, error) {
	var notes []*domain.Note
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *noteRepository) GetByID(ctx context.Context, id, userID uint) (*domain.Note, error) {
	var note domain.Note
	err := r.db.WithContext(ctx).First(&note, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note) error {
	return r.db.WithContext(ctx).Model(&domain.Note{}).
		Where("id = ? AND user_id = ?", note.ID, note.UserID).
		Updates(map[string]interface{}{
			"title":   note.Title,
			"content": note.Content,
		}).Error
}

func (r *noteRepository) Delete(ctx context.Context, id, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&domain.Note{}, "id = ? AND user_id = ?", id, userID)
	return res.RowsAffected, res.Error
}
