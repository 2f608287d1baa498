package service

import (
	"log/slog"

	"github.com/val/markdown-notes/internal/config"
	"github.com/val/markdown-notes/internal/email"
	"github.com/val/markdown-notes/internal/repository"
)

type Services struct {
	Auth    *AuthService
	Profile *ProfileService
	Note    *NoteService
}

func NewServices(repos *repository.Repositories, notifier email.Notifier, cfg *config.Config, logger *slog.Logger) *Services {
	return &Services{
		Auth:    NewAuthService(repos.User, notifier, cfg, logger),
		Profile: NewProfileService(repos.User),
		Note:    NewNoteService(repos.Note),
	}
}
