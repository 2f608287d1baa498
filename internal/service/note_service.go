package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/val/markdown-notes/internal/domain"
	"github.com/val/markdown-notes/internal/repository"
	"gorm.io/gorm"
)

type NoteService struct {
	noteRepo repository.NoteRepository
}

func NewNoteService(noteRepo repository.NoteRepository) *NoteService {
	return &NoteService{noteRepo: noteRepo}
}

func (s *NoteService) List(ctx context.Context, userID uint) ([]*domain.Note, error) {
	return s.noteRepo.GetByUser(ctx, userID)
}

func (s *NoteService) Create(ctx context.Context, userID uint, title, content string) (*domain.Note, error) {
	note := &domain.Note{
		Title:   title,
		Content: content,
		UserID:  userID,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *NoteService) Get(ctx context.Context, id, userID uint) (*domain.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound(fmt.Sprintf("Note with id = %d not found", id))
		}
		return nil, err
	}
	return note, nil
}

func (s *NoteService) Update(ctx context.Context, id, userID uint, title, content string) (*domain.Note, error) {
	note, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	note.Title = title
	note.Content = content
	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, err
	}

	return s.Get(ctx, id, userID)
}

func (s *NoteService) Delete(ctx context.Context, id, userID uint) (int64, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return 0, err
	}

	rows, err := s.noteRepo.Delete(ctx, id, userID)
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, domain.NotFound(fmt.Sprintf("Note with id = %d not found", id))
	}
	return rows, nil
}
