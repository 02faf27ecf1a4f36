package moderation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"postsuggest-bot/internal/database/models"
	"postsuggest-bot/internal/locales"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// extractMedia picks the file to store from a message: the largest photo size or the video.
// Telegram lists photo sizes in ascending order.
func extractMedia(message *telego.Message) (fileID string, mediaType models.MediaType, ok bool) {
	if len(message.Photo) > 0 {
		return message.Photo[len(message.Photo)-1].FileID, models.MediaPhoto, true
	}
	if message.Video != nil {
		return message.Video.FileID, models.MediaVideo, true
	}
	return "", "", false
}

// HandleMedia accepts a photo or video sent in a private chat and queues it for review.
// It returns processed=false for messages it does not handle.
func (m *Manager) HandleMedia(ctx context.Context, message telego.Message) (processed bool, err error) {
	if message.From == nil || message.Chat.Type != telego.ChatTypePrivate {
		return false, nil
	}
	fileID, mediaType, ok := extractMedia(&message)
	if !ok {
		return false, nil
	}

	userID := message.From.ID
	chatID := message.Chat.ID
	logPrefix := fmt.Sprintf("[Submit User:%d Msg:%d]", userID, message.MessageID)
	localizer := locales.ForLanguage(message.From.LanguageCode)

	banned, err := m.accessChecker.IsBanned(ctx, userID)
	if err != nil {
		m.reply(ctx, chatID, locales.GetMessage(localizer, "MsgSubmitError", nil, nil))
		return true, fmt.Errorf("%s ban check failed: %w", logPrefix, err)
	}
	if banned {
		log.Printf("%s Banned user tried to submit %s", logPrefix, mediaType)
		m.reply(ctx, chatID, locales.GetMessage(localizer, "MsgSubmitBanned", nil, nil))
		return true, nil
	}

	path, err := m.files.Download(ctx, m.bot, fileID, mediaType)
	if err != nil {
		m.reply(ctx, chatID, locales.GetMessage(localizer, "MsgSubmitError", nil, nil))
		return true, fmt.Errorf("%s %w", logPrefix, err)
	}

	owner, err := m.users.EnsureUser(ctx, models.FromTelegramUser(message.From))
	if err != nil {
		m.discardFile(path)
		m.reply(ctx, chatID, locales.GetMessage(localizer, "MsgSubmitError", nil, nil))
		return true, fmt.Errorf("%s %w", logPrefix, err)
	}

	post := &models.Post{
		OwnerID:        owner.UserID,
		OwnerName:      owner.FullName(),
		AttachmentPath: path,
		MediaType:      mediaType,
		Text:           message.Caption,
	}
	if err := m.posts.CreatePost(ctx, post); err != nil {
		m.discardFile(path)
		m.reply(ctx, chatID, locales.GetMessage(localizer, "MsgSubmitError", nil, nil))
		return true, fmt.Errorf("%s %w", logPrefix, err)
	}
	log.Printf("%s Created post %d (%s)", logPrefix, post.PostID, mediaType)

	if err := m.notifyAdmins(ctx, post); err != nil {
		log.Printf("%s Failed to notify admins about post %d: %v", logPrefix, post.PostID, err)
		sentry.CaptureException(fmt.Errorf("%s notify admins: %w", logPrefix, err))
	}

	m.reply(ctx, chatID, locales.GetMessage(localizer, "MsgSubmitReceived", nil, nil))
	return true, nil
}

// notifyAdmins sends the post with review buttons to every administrator.
// A failed delivery to one administrator does not stop delivery to the others.
func (m *Manager) notifyAdmins(ctx context.Context, post *models.Post) error {
	admins, err := m.users.ListAdmins(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		log.Printf("[Review Post:%d] No administrators to notify", post.PostID)
		return nil
	}

	localizer := locales.DefaultLocalizer()
	caption := reviewCaption(localizer, post)
	keyboard := reviewKeyboard(localizer, post.PostID)

	var errs []error
	for _, admin := range admins {
		if _, err := m.sendMedia(ctx, tu.ID(admin.UserID), post, caption, keyboard); err != nil {
			log.Printf("[Review Post:%d] Failed to send to admin %d: %v", post.PostID, admin.UserID, err)
			errs = append(errs, fmt.Errorf("admin %d: %w", admin.UserID, err))
			continue
		}
		if m.debug {
			log.Printf("[Review Post:%d] Sent to admin %d", post.PostID, admin.UserID)
		}
	}
	return errors.Join(errs...)
}

// sendMedia uploads the stored attachment of a post to a chat.
func (m *Manager) sendMedia(ctx context.Context, chatID telego.ChatID, post *models.Post, caption string, keyboard *telego.InlineKeyboardMarkup) (*telego.Message, error) {
	file, err := m.files.Open(post.AttachmentPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch post.MediaType {
	case models.MediaPhoto:
		params := tu.Photo(chatID, tu.File(file)).WithCaption(caption)
		if keyboard != nil {
			params = params.WithReplyMarkup(keyboard)
		}
		return m.bot.SendPhoto(ctx, params)
	case models.MediaVideo:
		params := tu.Video(chatID, tu.File(file)).WithCaption(caption)
		if keyboard != nil {
			params = params.WithReplyMarkup(keyboard)
		}
		return m.bot.SendVideo(ctx, params)
	default:
		return nil, fmt.Errorf("unsupported media type %q", post.MediaType)
	}
}

func (m *Manager) reply(ctx context.Context, chatID int64, text string) {
	if _, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
	}
}

func (m *Manager) discardFile(path string) {
	if err := m.files.Remove(path); err != nil {
		log.Printf("[Submit] %v", err)
	}
}
