// Package mocks holds testify mocks shared by the package tests.
package mocks

import (
	"context"
	"postsuggest-bot/internal/database"
	"postsuggest-bot/internal/database/models"
	"postsuggest-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/mock"
)

// --- Bot ---

// MockBot is a mock implementing the telegoapi.BotAPI interface
type MockBot struct {
	mock.Mock
}

var _ telegoapi.BotAPI = (*MockBot)(nil)

func (m *MockBot) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SetMyCommands(ctx context.Context, params *telego.SetMyCommandsParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBot) AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBot) SendPhoto(ctx context.Context, params *telego.SendPhotoParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SendVideo(ctx context.Context, params *telego.SendVideoParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) EditMessageCaption(ctx context.Context, params *telego.EditMessageCaptionParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) GetFile(ctx context.Context, params *telego.GetFileParams) (*telego.File, error) {
	args := m.Called(ctx, params)
	if file, ok := args.Get(0).(*telego.File); ok {
		return file, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) FileDownloadURL(filepath string) string {
	args := m.Called(filepath)
	return args.String(0)
}

// --- Access ---

// MockAccessChecker is a mock for auth.AccessCheckerInterface
type MockAccessChecker struct {
	mock.Mock
}

func (m *MockAccessChecker) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccessChecker) IsBanned(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// --- Storage ---

// MockStore is a mock for database.Store. It satisfies every repository interface.
type MockStore struct {
	mock.Mock
}

var _ database.Store = (*MockStore)(nil)

func (m *MockStore) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) EnsureUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if stored, ok := args.Get(0).(*models.User); ok {
		return stored, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) SetBanned(ctx context.Context, userID int64, banned bool) error {
	args := m.Called(ctx, userID, banned)
	return args.Error(0)
}

func (m *MockStore) ListAdmins(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if admins, ok := args.Get(0).([]models.User); ok {
		return admins, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) CountAdmins(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CreatePost(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockStore) GetPost(ctx context.Context, postID int64) (*models.Post, error) {
	args := m.Called(ctx, postID)
	if post, ok := args.Get(0).(*models.Post); ok {
		return post, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) MarkPublished(ctx context.Context, postID int64) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *MockStore) DeletePost(ctx context.Context, postID int64) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *MockStore) CountPosts(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) ListAttachmentPaths(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if paths, ok := args.Get(0).([]string); ok {
		return paths, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) GetSettings(ctx context.Context) (*models.Settings, error) {
	args := m.Called(ctx)
	if settings, ok := args.Get(0).(*models.Settings); ok {
		return settings, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) ConfigureChannel(ctx context.Context, channel string, initializer models.User) (*models.Settings, error) {
	args := m.Called(ctx, channel, initializer)
	if settings, ok := args.Get(0).(*models.Settings); ok {
		return settings, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) LogModeration(ctx context.Context, entry models.PostLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStore) LogUserAction(ctx context.Context, userID int64, action string, details map[string]interface{}) error {
	args := m.Called(ctx, userID, action, details)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Moderation ---

// MockModerationManager is a mock for the media submission entry point of the moderation workflow.
type MockModerationManager struct {
	mock.Mock
}

func (m *MockModerationManager) HandleMedia(ctx context.Context, message telego.Message) (bool, error) {
	args := m.Called(ctx, message)
	return args.Bool(0), args.Error(1)
}

func (m *MockModerationManager) HandleCallbackQuery(ctx context.Context, query telego.CallbackQuery) (bool, error) {
	args := m.Called(ctx, query)
	return args.Bool(0), args.Error(1)
}
