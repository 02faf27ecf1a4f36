package database

import (
	"context"
	"postsuggest-bot/internal/database/models"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// GetUser returns ErrUserNotFound when the user never interacted with the bot.
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	// EnsureUser creates the user on first interaction or refreshes the stored names.
	// Admin and ban flags of an existing user are left untouched.
	EnsureUser(ctx context.Context, user models.User) (*models.User, error)
	// SetBanned returns ErrUserNotFound for unknown users.
	SetBanned(ctx context.Context, userID int64, banned bool) error
	ListAdmins(ctx context.Context) ([]models.User, error)
	CountAdmins(ctx context.Context) (int64, error)
}

// PostRepository defines the interface for pending post storage.
type PostRepository interface {
	// CreatePost assigns the post ID and post date.
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, postID int64) (*models.Post, error)
	MarkPublished(ctx context.Context, postID int64) error
	DeletePost(ctx context.Context, postID int64) error
	CountPosts(ctx context.Context) (int64, error)
	// ListAttachmentPaths returns the attachment paths of every stored post.
	ListAttachmentPaths(ctx context.Context) ([]string, error)
}

// SettingsRepository defines the interface for the singleton settings row.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	// ConfigureChannel stores the destination channel and grants admin rights
	// to the initializer, creating the user row if needed.
	ConfigureChannel(ctx context.Context, channel string, initializer models.User) (*models.Settings, error)
}

// PostLogger defines the interface for logging moderated posts.
type PostLogger interface {
	LogModeration(ctx context.Context, entry models.PostLog) error
}

// UserActionLogger defines the interface for logging user actions.
type UserActionLogger interface {
	// LogUserAction logs an action performed by a user.
	LogUserAction(ctx context.Context, userID int64, action string, details map[string]interface{}) error
}

// Store bundles every repository served by a single backend.
type Store interface {
	UserRepository
	PostRepository
	SettingsRepository
	PostLogger
	UserActionLogger
	Close() error
}
