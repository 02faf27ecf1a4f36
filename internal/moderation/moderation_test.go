package moderation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"postsuggest-bot/internal/database"
	"postsuggest-bot/internal/database/models"
	"postsuggest-bot/internal/locales"
	"postsuggest-bot/internal/mocks"
	telegoapi "postsuggest-bot/pkg/telegoapi"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	locales.Init("en")
	os.Exit(m.Run())
}

// fakeFiles stores attachments in a temporary directory without touching Telegram.
type fakeFiles struct {
	dir         string
	downloadErr error
	removed     []string
}

func (f *fakeFiles) Download(_ context.Context, _ telegoapi.BotAPI, fileID string, mediaType models.MediaType) (string, error) {
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	path := filepath.Join(f.dir, fileID+"."+mediaType.Extension())
	return path, os.WriteFile(path, []byte(fileID), 0o644)
}

func (f *fakeFiles) Open(path string) (*os.File, error) {
	return os.Open(path)
}

func (f *fakeFiles) Remove(path string) error {
	f.removed = append(f.removed, path)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

type testEnv struct {
	manager *Manager
	bot     *mocks.MockBot
	store   *mocks.MockStore
	checker *mocks.MockAccessChecker
	files   *fakeFiles
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		bot:     new(mocks.MockBot),
		store:   new(mocks.MockStore),
		checker: new(mocks.MockAccessChecker),
		files:   &fakeFiles{dir: t.TempDir()},
	}
	manager, err := NewManager(ManagerDeps{
		Bot:           env.bot,
		Users:         env.store,
		Posts:         env.store,
		Settings:      env.store,
		PostLogger:    env.store,
		Files:         env.files,
		AccessChecker: env.checker,
	})
	require.NoError(t, err)
	env.manager = manager
	return env
}

func (e *testEnv) assertExpectations(t *testing.T) {
	e.bot.AssertExpectations(t)
	e.store.AssertExpectations(t)
	e.checker.AssertExpectations(t)
}

func msg(id string) string {
	return locales.GetMessage(locales.DefaultLocalizer(), id, nil, nil)
}

func textTo(chatID int64, text string) interface{} {
	return mock.MatchedBy(func(p *telego.SendMessageParams) bool {
		return p.ChatID.ID == chatID && p.Text == text
	})
}

func captionEdit(chatID int64, messageID int, text string) interface{} {
	return mock.MatchedBy(func(p *telego.EditMessageCaptionParams) bool {
		return p.ChatID.ID == chatID && p.MessageID == messageID && p.Caption == text && p.ReplyMarkup == nil
	})
}

func TestNewManagerValidatesDeps(t *testing.T) {
	_, err := NewManager(ManagerDeps{})
	assert.Error(t, err)
}

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		data   string
		want   CallbackData
		wantOK bool
	}{
		{data: "approve_12", want: CallbackData{Action: ActionApprove, PostID: 12}, wantOK: true},
		{data: "reject_7", want: CallbackData{Action: ActionReject, PostID: 7}, wantOK: true},
		{data: "approve_", wantOK: false},
		{data: "approve_-1", wantOK: false},
		{data: "publish_3", wantOK: false},
		{data: "review:abc:approve:0", wantOK: false},
		{data: "approve_99999999999999999999", wantOK: false},
	}
	for _, tc := range tests {
		t.Run(tc.data, func(t *testing.T) {
			got, ok := ParseCallbackData(tc.data)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	assert.Equal(t, "reject_7", CallbackData{Action: ActionReject, PostID: 7}.String())
}

func TestChannelChatID(t *testing.T) {
	assert.Equal(t, telego.ChatID{ID: -1001234567890}, ChannelChatID("-1001234567890"))
	assert.Equal(t, telego.ChatID{Username: "@memes"}, ChannelChatID("@memes"))
	assert.Equal(t, telego.ChatID{Username: "@memes"}, ChannelChatID(" memes "))
}

func TestCaptions(t *testing.T) {
	localizer := locales.DefaultLocalizer()

	withText := &models.Post{OwnerName: "Ivan Petrov", Text: "look"}
	assert.Equal(t, "New post from Ivan Petrov\n\nlook", reviewCaption(localizer, withText))
	assert.Equal(t, "look\n\nAuthor: Ivan Petrov", publicationCaption(localizer, withText))

	bare := &models.Post{OwnerName: "Ivan"}
	assert.Equal(t, "New post from Ivan", reviewCaption(localizer, bare))
	assert.Equal(t, "Author: Ivan", publicationCaption(localizer, bare))

	keyboard := reviewKeyboard(localizer, 5)
	require.Len(t, keyboard.InlineKeyboard, 1)
	require.Len(t, keyboard.InlineKeyboard[0], 2)
	assert.Equal(t, "approve_5", keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "reject_5", keyboard.InlineKeyboard[0][1].CallbackData)
}

func TestCaptionsFitTelegramLimit(t *testing.T) {
	localizer := locales.DefaultLocalizer()
	post := &models.Post{OwnerName: "Ivan Petrov", Text: strings.Repeat("ж", MaxCaptionLength)}

	review := reviewCaption(localizer, post)
	assert.Equal(t, MaxCaptionLength, utf8.RuneCountInString(review))
	assert.True(t, strings.HasPrefix(review, "New post from Ivan Petrov\n\nжж"))
	assert.True(t, strings.HasSuffix(review, "…"))

	published := publicationCaption(localizer, post)
	assert.Equal(t, MaxCaptionLength, utf8.RuneCountInString(published))
	assert.True(t, strings.HasSuffix(published, "…\n\nAuthor: Ivan Petrov"))

	exact := &models.Post{OwnerName: "Ivan", Text: strings.Repeat("a", MaxCaptionLength-len("\n\nAuthor: Ivan"))}
	assert.Equal(t, exact.Text+"\n\nAuthor: Ivan", publicationCaption(localizer, exact))
}

func privateMessage() telego.Message {
	return telego.Message{
		MessageID: 3,
		From:      &telego.User{ID: 42, FirstName: "Ivan", LastName: "Petrov", Username: "ivan"},
		Chat:      telego.Chat{ID: 42, Type: telego.ChatTypePrivate},
	}
}

func TestHandleMediaIgnoresForeignMessages(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	text := privateMessage()
	text.Text = "hi"
	processed, err := env.manager.HandleMedia(ctx, text)
	assert.NoError(t, err)
	assert.False(t, processed)

	group := privateMessage()
	group.Chat.Type = telego.ChatTypeSupergroup
	group.Photo = []telego.PhotoSize{{FileID: "p"}}
	processed, err = env.manager.HandleMedia(ctx, group)
	assert.NoError(t, err)
	assert.False(t, processed)

	env.assertExpectations(t)
}

func TestHandleMediaBannedUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	message := privateMessage()
	message.Video = &telego.Video{FileID: "v"}

	env.checker.On("IsBanned", ctx, int64(42)).Return(true, nil)
	env.bot.On("SendMessage", ctx, textTo(42, msg("MsgSubmitBanned"))).Return(&telego.Message{}, nil)

	processed, err := env.manager.HandleMedia(ctx, message)
	assert.NoError(t, err)
	assert.True(t, processed)
	env.store.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything)
	env.assertExpectations(t)
}

func TestHandleMediaFansOutToAdmins(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	message := privateMessage()
	message.Caption = "funny"
	message.Photo = []telego.PhotoSize{{FileID: "small", Width: 90, Height: 90}, {FileID: "big", Width: 1280, Height: 1280}}

	owner := models.User{UserID: 42, Username: "ivan", FirstName: "Ivan", LastName: "Petrov"}
	env.checker.On("IsBanned", ctx, int64(42)).Return(false, nil)
	env.store.On("EnsureUser", ctx, owner).Return(&owner, nil)
	env.store.On("CreatePost", ctx, mock.MatchedBy(func(p *models.Post) bool {
		return p.OwnerID == 42 &&
			p.OwnerName == "Ivan Petrov" &&
			p.MediaType == models.MediaPhoto &&
			p.Text == "funny" &&
			filepath.Base(p.AttachmentPath) == "big.jpg"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Post).PostID = 5
	}).Return(nil)
	env.store.On("ListAdmins", ctx).Return([]models.User{{UserID: 1}, {UserID: 2}}, nil)

	sentToAdmin := func(adminID int64) interface{} {
		return mock.MatchedBy(func(p *telego.SendPhotoParams) bool {
			keyboard, ok := p.ReplyMarkup.(*telego.InlineKeyboardMarkup)
			return p.ChatID.ID == adminID &&
				p.Caption == "New post from Ivan Petrov\n\nfunny" &&
				ok && keyboard.InlineKeyboard[0][0].CallbackData == "approve_5"
		})
	}
	env.bot.On("SendPhoto", ctx, sentToAdmin(1)).Return(nil, errors.New("bot was blocked by the user")).Once()
	env.bot.On("SendPhoto", ctx, sentToAdmin(2)).Return(&telego.Message{MessageID: 11}, nil).Once()
	env.bot.On("SendMessage", ctx, textTo(42, msg("MsgSubmitReceived"))).Return(&telego.Message{}, nil)

	processed, err := env.manager.HandleMedia(ctx, message)
	assert.NoError(t, err)
	assert.True(t, processed)
	assert.FileExists(t, filepath.Join(env.files.dir, "big.jpg"))
	env.assertExpectations(t)
}

func TestHandleMediaCreatePostFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	message := privateMessage()
	message.Video = &telego.Video{FileID: "clip"}

	owner := models.User{UserID: 42, Username: "ivan", FirstName: "Ivan", LastName: "Petrov"}
	env.checker.On("IsBanned", ctx, int64(42)).Return(false, nil)
	env.store.On("EnsureUser", ctx, owner).Return(&owner, nil)
	env.store.On("CreatePost", ctx, mock.Anything).Return(errors.New("disk full"))
	env.bot.On("SendMessage", ctx, textTo(42, msg("MsgSubmitError"))).Return(&telego.Message{}, nil)

	processed, err := env.manager.HandleMedia(ctx, message)
	assert.Error(t, err)
	assert.True(t, processed)
	assert.NoFileExists(t, filepath.Join(env.files.dir, "clip.mp4"))
	env.store.AssertNotCalled(t, "ListAdmins", mock.Anything)
	env.assertExpectations(t)
}

func TestHandleMediaDownloadFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.files.downloadErr = errors.New("file is too big")

	message := privateMessage()
	message.Video = &telego.Video{FileID: "clip"}

	env.checker.On("IsBanned", ctx, int64(42)).Return(false, nil)
	env.bot.On("SendMessage", ctx, textTo(42, msg("MsgSubmitError"))).Return(&telego.Message{}, nil)

	processed, err := env.manager.HandleMedia(ctx, message)
	assert.Error(t, err)
	assert.True(t, processed)
	env.store.AssertNotCalled(t, "EnsureUser", mock.Anything, mock.Anything)
	env.assertExpectations(t)
}

// pendingPost writes an attachment file and returns a post referencing it.
func pendingPost(t *testing.T, env *testEnv) *models.Post {
	t.Helper()
	path := filepath.Join(env.files.dir, "pending.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpg"), 0o644))
	return &models.Post{
		PostID:         5,
		OwnerID:        42,
		OwnerName:      "Ivan Petrov",
		AttachmentPath: path,
		MediaType:      models.MediaPhoto,
		Text:           "funny",
	}
}

func reviewQuery(data string) telego.CallbackQuery {
	return telego.CallbackQuery{
		ID:      "q1",
		From:    telego.User{ID: 1},
		Data:    data,
		Message: &telego.Message{MessageID: 10, Chat: telego.Chat{ID: 1}},
	}
}

func TestHandleCallbackQueryForeignData(t *testing.T) {
	env := newTestEnv(t)
	processed, err := env.manager.HandleCallbackQuery(context.Background(), reviewQuery("something_else"))
	assert.NoError(t, err)
	assert.False(t, processed)
	env.assertExpectations(t)
}

func TestHandleCallbackQueryNotAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.bot.On("AnswerCallbackQuery", ctx, &telego.AnswerCallbackQueryParams{CallbackQueryID: "q1"}).Return(nil)
	env.checker.On("IsAdmin", ctx, int64(1)).Return(false, nil)
	env.bot.On("EditMessageCaption", ctx, captionEdit(1, 10, msg("MsgReviewNoRights"))).Return(&telego.Message{}, nil)

	processed, err := env.manager.HandleCallbackQuery(ctx, reviewQuery("approve_5"))
	assert.NoError(t, err)
	assert.True(t, processed)
	env.store.AssertNotCalled(t, "GetPost", mock.Anything, mock.Anything)
	env.assertExpectations(t)
}

func TestHandleCallbackQueryPostNotFound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.bot.On("AnswerCallbackQuery", ctx, mock.Anything).Return(nil)
	env.checker.On("IsAdmin", ctx, int64(1)).Return(true, nil)
	env.store.On("GetPost", ctx, int64(5)).Return(nil, database.ErrPostNotFound)
	env.bot.On("EditMessageCaption", ctx, captionEdit(1, 10, msg("MsgReviewPostNotFound"))).Return(&telego.Message{}, nil)

	processed, err := env.manager.HandleCallbackQuery(ctx, reviewQuery("reject_5"))
	assert.NoError(t, err)
	assert.True(t, processed)
	env.assertExpectations(t)
}

func TestHandleCallbackQueryApprove(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	post := pendingPost(t, env)

	env.bot.On("AnswerCallbackQuery", ctx, mock.Anything).Return(nil)
	env.checker.On("IsAdmin", ctx, int64(1)).Return(true, nil)
	env.store.On("GetPost", ctx, int64(5)).Return(post, nil)
	env.store.On("GetSettings", ctx).Return(&models.Settings{ID: models.SettingsID, Initialized: true, TargetChannel: "@memes"}, nil)
	env.bot.On("SendPhoto", ctx, mock.MatchedBy(func(p *telego.SendPhotoParams) bool {
		return p.ChatID.Username == "@memes" &&
			p.Caption == "funny\n\nAuthor: Ivan Petrov" &&
			p.ReplyMarkup == nil
	})).Return(&telego.Message{MessageID: 77}, nil)
	env.store.On("MarkPublished", ctx, int64(5)).Return(nil)
	env.bot.On("SendMessage", ctx, textTo(42, msg("MsgOwnerApproved"))).Return(&telego.Message{}, nil)
	env.bot.On("EditMessageCaption", ctx, captionEdit(1, 10, msg("MsgReviewPublished"))).Return(&telego.Message{}, nil)
	env.store.On("LogModeration", ctx, mock.MatchedBy(func(e models.PostLog) bool {
		return e.PostID == 5 &&
			e.Decision == models.DecisionApproved &&
			e.ModeratorID == 1 &&
			e.ChannelID == "@memes" &&
			e.ChannelPostID == 77
	})).Return(nil)
	env.store.On("DeletePost", ctx, int64(5)).Return(nil)

	processed, err := env.manager.HandleCallbackQuery(ctx, reviewQuery("approve_5"))
	assert.NoError(t, err)
	assert.True(t, processed)
	assert.NoFileExists(t, post.AttachmentPath)
	env.assertExpectations(t)
}

func TestHandleCallbackQueryApproveAlreadyPublished(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	post := pendingPost(t, env)
	post.IsPublished = true

	env.bot.On("AnswerCallbackQuery", ctx, mock.Anything).Return(nil)
	env.checker.On("IsAdmin", ctx, int64(1)).Return(true, nil)
	env.store.On("GetPost", ctx, int64(5)).Return(post, nil)
	env.bot.On("SendMessage", ctx, textTo(42, msg("MsgOwnerApproved"))).Return(&telego.Message{}, nil)
	env.bot.On("EditMessageCaption", ctx, captionEdit(1, 10, msg("MsgReviewPublished"))).Return(&telego.Message{}, nil)
	env.store.On("LogModeration", ctx, mock.Anything).Return(nil)
	env.store.On("DeletePost", ctx, int64(5)).Return(nil)

	processed, err := env.manager.HandleCallbackQuery(ctx, reviewQuery("approve_5"))
	assert.NoError(t, err)
	assert.True(t, processed)
	env.bot.AssertNotCalled(t, "SendPhoto", mock.Anything, mock.Anything)
	env.store.AssertNotCalled(t, "GetSettings", mock.Anything)
	env.assertExpectations(t)
}

func TestHandleCallbackQueryApproveNotInitialized(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	post := pendingPost(t, env)

	env.bot.On("AnswerCallbackQuery", ctx, mock.Anything).Return(nil)
	env.checker.On("IsAdmin", ctx, int64(1)).Return(true, nil)
	env.store.On("GetPost", ctx, int64(5)).Return(post, nil)
	env.store.On("GetSettings", ctx).Return(nil, database.ErrSettingsNotFound)
	env.bot.On("EditMessageCaption", ctx, captionEdit(1, 10, msg("MsgReviewPublishError"))).Return(&telego.Message{}, nil)

	processed, err := env.manager.HandleCallbackQuery(ctx, reviewQuery("approve_5"))
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.True(t, processed)
	assert.FileExists(t, post.AttachmentPath, "the post must stay reviewable")
	env.store.AssertNotCalled(t, "DeletePost", mock.Anything, mock.Anything)
	env.assertExpectations(t)
}

func TestHandleCallbackQueryApprovePublishFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	post := pendingPost(t, env)

	env.bot.On("AnswerCallbackQuery", ctx, mock.Anything).Return(nil)
	env.checker.On("IsAdmin", ctx, int64(1)).Return(true, nil)
	env.store.On("GetPost", ctx, int64(5)).Return(post, nil)
	env.store.On("GetSettings", ctx).Return(&models.Settings{Initialized: true, TargetChannel: "-100200300"}, nil)
	env.bot.On("SendPhoto", ctx, mock.MatchedBy(func(p *telego.SendPhotoParams) bool {
		return p.ChatID.ID == -100200300
	})).Return(nil, errors.New("chat not found"))
	env.bot.On("EditMessageCaption", ctx, captionEdit(1, 10, msg("MsgReviewPublishError"))).Return(&telego.Message{}, nil)

	processed, err := env.manager.HandleCallbackQuery(ctx, reviewQuery("approve_5"))
	assert.Error(t, err)
	assert.True(t, processed)
	assert.FileExists(t, post.AttachmentPath)
	env.store.AssertNotCalled(t, "MarkPublished", mock.Anything, mock.Anything)
	env.store.AssertNotCalled(t, "DeletePost", mock.Anything, mock.Anything)
	env.assertExpectations(t)
}

func TestHandleCallbackQueryApproveMissingAttachment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	post := pendingPost(t, env)
	require.NoError(t, os.Remove(post.AttachmentPath))

	env.bot.On("AnswerCallbackQuery", ctx, mock.Anything).Return(nil)
	env.checker.On("IsAdmin", ctx, int64(1)).Return(true, nil)
	env.store.On("GetPost", ctx, int64(5)).Return(post, nil)
	env.store.On("GetSettings", ctx).Return(&models.Settings{Initialized: true, TargetChannel: "@memes"}, nil)
	env.bot.On("EditMessageCaption", ctx, captionEdit(1, 10, msg("MsgReviewPostNotFound"))).Return(&telego.Message{}, nil)
	env.store.On("LogModeration", ctx, mock.MatchedBy(func(e models.PostLog) bool {
		return e.PostID == 5 && e.Decision == models.DecisionDropped && e.ChannelID == ""
	})).Return(nil)
	env.store.On("DeletePost", ctx, int64(5)).Return(nil)

	processed, err := env.manager.HandleCallbackQuery(ctx, reviewQuery("approve_5"))
	assert.NoError(t, err)
	assert.True(t, processed)
	env.bot.AssertNotCalled(t, "SendPhoto", mock.Anything, mock.Anything)
	env.bot.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
	env.store.AssertNotCalled(t, "MarkPublished", mock.Anything, mock.Anything)
	env.assertExpectations(t)
}

func TestHandleCallbackQueryReject(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	post := pendingPost(t, env)

	env.bot.On("AnswerCallbackQuery", ctx, mock.Anything).Return(nil)
	env.checker.On("IsAdmin", ctx, int64(1)).Return(true, nil)
	env.store.On("GetPost", ctx, int64(5)).Return(post, nil)
	env.bot.On("SendMessage", ctx, textTo(42, msg("MsgOwnerRejected"))).Return(&telego.Message{}, nil)
	env.bot.On("EditMessageCaption", ctx, captionEdit(1, 10, msg("MsgReviewRejected"))).Return(&telego.Message{}, nil)
	env.store.On("LogModeration", ctx, mock.MatchedBy(func(e models.PostLog) bool {
		return e.Decision == models.DecisionRejected && e.ChannelID == ""
	})).Return(nil)
	env.store.On("DeletePost", ctx, int64(5)).Return(nil)

	processed, err := env.manager.HandleCallbackQuery(ctx, reviewQuery("reject_5"))
	assert.NoError(t, err)
	assert.True(t, processed)
	assert.NoFileExists(t, post.AttachmentPath)
	assert.Equal(t, []string{post.AttachmentPath}, env.files.removed)
	env.assertExpectations(t)
}
