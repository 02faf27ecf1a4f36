package moderation

import (
	"context"
	"errors"
	"os"
	"postsuggest-bot/internal/auth"
	"postsuggest-bot/internal/database"
	"postsuggest-bot/internal/database/models"
	telegoapi "postsuggest-bot/pkg/telegoapi"
)

// AttachmentStore keeps submitted media on disk until a decision is made.
type AttachmentStore interface {
	Download(ctx context.Context, bot telegoapi.BotAPI, fileID string, mediaType models.MediaType) (string, error)
	Open(path string) (*os.File, error)
	Remove(path string) error
}

// ManagerDeps holds the dependencies required by the Manager.
type ManagerDeps struct {
	Bot           telegoapi.BotAPI
	Users         database.UserRepository
	Posts         database.PostRepository
	Settings      database.SettingsRepository
	PostLogger    database.PostLogger
	Files         AttachmentStore
	AccessChecker auth.AccessCheckerInterface
	Debug         bool
}

// Manager runs the submission and review workflow: it stores incoming media as posts,
// sends them to every administrator and applies their approve/reject decisions.
type Manager struct {
	bot           telegoapi.BotAPI
	users         database.UserRepository
	posts         database.PostRepository
	settings      database.SettingsRepository
	postLogger    database.PostLogger
	files         AttachmentStore
	accessChecker auth.AccessCheckerInterface
	debug         bool
}

// NewManager creates a new moderation manager.
func NewManager(deps ManagerDeps) (*Manager, error) {
	if deps.Bot == nil {
		return nil, errors.New("moderation manager: bot API cannot be nil")
	}
	if deps.Users == nil {
		return nil, errors.New("moderation manager: user repository cannot be nil")
	}
	if deps.Posts == nil {
		return nil, errors.New("moderation manager: post repository cannot be nil")
	}
	if deps.Settings == nil {
		return nil, errors.New("moderation manager: settings repository cannot be nil")
	}
	if deps.PostLogger == nil {
		return nil, errors.New("moderation manager: post logger cannot be nil")
	}
	if deps.Files == nil {
		return nil, errors.New("moderation manager: attachment store cannot be nil")
	}
	if deps.AccessChecker == nil {
		return nil, errors.New("moderation manager: access checker cannot be nil")
	}

	return &Manager{
		bot:           deps.Bot,
		users:         deps.Users,
		posts:         deps.Posts,
		settings:      deps.Settings,
		postLogger:    deps.PostLogger,
		files:         deps.Files,
		accessChecker: deps.AccessChecker,
		debug:         deps.Debug,
	}, nil
}
