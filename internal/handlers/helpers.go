package handlers

import (
	"context"
	"log"
	"postsuggest-bot/internal/database/models"
	"postsuggest-bot/internal/locales"
	telegoapi "postsuggest-bot/pkg/telegoapi"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// sendSuccess sends a reply to the user. Delivery failures are only logged.
func (h *MessageHandler) sendSuccess(ctx context.Context, bot telegoapi.BotAPI, chatID int64, text string) error {
	_, err := bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
	if err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
	}
	return nil
}

// sendError sends a generic error message to the user.
// The original error is returned so the update loop can report it.
func (h *MessageHandler) sendError(ctx context.Context, bot telegoapi.BotAPI, message telego.Message, originalErr error) error {
	log.Printf("Error for user in chat %d: %v", message.Chat.ID, originalErr)

	errMsg := locales.GetMessage(h.getLocalizer(message.From), "MsgErrorGeneral", nil, nil)
	if _, sendErr := bot.SendMessage(ctx, tu.Message(tu.ID(message.Chat.ID), errMsg)); sendErr != nil {
		log.Printf("Error sending generic error message to chat %d: %v", message.Chat.ID, sendErr)
	}
	return originalErr
}

// getLocalizer picks the user's language when it is supported, the default language otherwise.
func (h *MessageHandler) getLocalizer(user *telego.User) *i18n.Localizer {
	if user == nil {
		return locales.DefaultLocalizer()
	}
	return locales.ForLanguage(user.LanguageCode)
}

// RecordUserActivity combines updating user info and logging the action.
func (h *MessageHandler) RecordUserActivity(ctx context.Context, user *telego.User, action string, details map[string]interface{}) {
	if user == nil {
		log.Printf("Attempted to record activity for nil user, action: %s", action)
		return
	}

	if _, err := h.users.EnsureUser(ctx, models.FromTelegramUser(user)); err != nil {
		log.Printf("Error updating user %d (%s) in DB during action %s: %v", user.ID, user.Username, action, err)
		// Continue to log the action even if DB update fails
	}

	h.logAction(ctx, user, action, details)
}

func (h *MessageHandler) logAction(ctx context.Context, user *telego.User, action string, details map[string]interface{}) {
	if err := h.actionLogger.LogUserAction(ctx, user.ID, action, details); err != nil {
		log.Printf("Error logging action %s for user %d (%s): %v", action, user.ID, user.Username, err)
	}
}

// commandArgs returns the whitespace separated arguments following the command.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// isAdmin reports whether the sender is an administrator. Lookup errors count as "not admin".
func (h *MessageHandler) isAdmin(ctx context.Context, logPrefix string, userID int64) bool {
	isAdmin, err := h.accessChecker.IsAdmin(ctx, userID)
	if err != nil {
		log.Printf("%s Error checking admin status: %v. Assuming non-admin.", logPrefix, err)
		return false
	}
	return isAdmin
}
