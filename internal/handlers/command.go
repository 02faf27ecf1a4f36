package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"postsuggest-bot/internal/database"
	"postsuggest-bot/internal/locales"
	telegoapi "postsuggest-bot/pkg/telegoapi"
	"strings"

	"github.com/mymmrac/telego"
)

// HandleStart handles the /start command.
// It sets up the bot commands, registers the user, logs the action, and sends a welcome message.
func (h *MessageHandler) HandleStart(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	if err := h.setupCommands(ctx, bot); err != nil {
		return h.sendError(ctx, bot, message, fmt.Errorf("failed to set up commands: %w", err))
	}

	h.RecordUserActivity(ctx, message.From, ActionCommandStart, map[string]interface{}{
		"chat_id": message.Chat.ID,
	})

	startMsg := locales.GetMessage(h.getLocalizer(message.From), "MsgStart", nil, nil)
	return h.sendSuccess(ctx, bot, message.Chat.ID, startMsg)
}

// HandleHelp handles the /help command.
// Administrative commands are listed only for administrators.
func (h *MessageHandler) HandleHelp(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	userID := message.From.ID
	localizer := h.getLocalizer(message.From)

	isAdmin := h.isAdmin(ctx, fmt.Sprintf("[Cmd:help User:%d]", userID), userID)
	log.Printf("[Cmd:help User:%d] Admin status check result: %t", userID, isAdmin)

	var helpText strings.Builder
	helpText.WriteString(locales.GetMessage(localizer, "MsgHelpHeader", nil, nil) + "\n")
	for _, cmd := range h.commands {
		if cmd.AdminOnly && !isAdmin {
			continue
		}
		localizedDesc := locales.GetMessage(localizer, cmd.Description, nil, nil)
		helpText.WriteString(fmt.Sprintf("/%s - %s\n", cmd.Command, localizedDesc))
	}
	footerKey := "MsgHelpFooterUser"
	if isAdmin {
		footerKey = "MsgHelpFooterAdmin"
	}
	helpText.WriteString(locales.GetMessage(localizer, footerKey, nil, nil))

	h.RecordUserActivity(ctx, message.From, ActionCommandHelp, map[string]interface{}{
		"chat_id":  message.Chat.ID,
		"is_admin": isAdmin,
	})

	return h.sendSuccess(ctx, bot, message.Chat.ID, helpText.String())
}

// HandleStatus handles the /status command.
// It reports the configured channel, the number of posts awaiting review and the number of administrators.
func (h *MessageHandler) HandleStatus(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	userID := message.From.ID
	logPrefix := fmt.Sprintf("[Cmd:status User:%d]", userID)
	localizer := h.getLocalizer(message.From)

	if !h.isAdmin(ctx, logPrefix, userID) {
		log.Printf("%s Non-admin user attempted to use /status.", logPrefix)
		return h.sendSuccess(ctx, bot, message.Chat.ID, locales.GetMessage(localizer, "MsgErrorRequiresAdmin", nil, nil))
	}

	initialized := false
	channel := locales.GetMessage(localizer, "MsgStatusNoChannel", nil, nil)
	settings, err := h.settings.GetSettings(ctx)
	switch {
	case err == nil:
		initialized = settings.Initialized
		if settings.TargetChannel != "" {
			channel = settings.TargetChannel
		}
	case !errors.Is(err, database.ErrSettingsNotFound):
		return h.sendError(ctx, bot, message, err)
	}

	pending, err := h.posts.CountPosts(ctx)
	if err != nil {
		return h.sendError(ctx, bot, message, err)
	}
	admins, err := h.users.CountAdmins(ctx)
	if err != nil {
		return h.sendError(ctx, bot, message, err)
	}

	initializedText := locales.GetMessage(localizer, "MsgNo", nil, nil)
	if initialized {
		initializedText = locales.GetMessage(localizer, "MsgYes", nil, nil)
	}
	statusText := locales.GetMessage(localizer, "MsgStatus", map[string]interface{}{
		"Initialized": initializedText,
		"Channel":     channel,
		"Pending":     pending,
		"Admins":      admins,
	}, nil)

	h.RecordUserActivity(ctx, message.From, ActionCommandStatus, map[string]interface{}{
		"chat_id": message.Chat.ID,
		"pending": pending,
	})

	return h.sendSuccess(ctx, bot, message.Chat.ID, statusText)
}

// HandleVersion handles the /version command.
func (h *MessageHandler) HandleVersion(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	versionText := locales.GetMessage(h.getLocalizer(message.From), "MsgVersion", map[string]interface{}{
		"Version": h.version,
	}, nil)

	h.RecordUserActivity(ctx, message.From, ActionCommandVersion, map[string]interface{}{
		"chat_id": message.Chat.ID,
		"version": h.version,
	})

	return h.sendSuccess(ctx, bot, message.Chat.ID, versionText)
}

// --- Helper Functions ---

// setupCommands registers the bot's commands with Telegram using the default language descriptions.
func (h *MessageHandler) setupCommands(ctx context.Context, bot telegoapi.BotAPI) error {
	if len(h.commands) == 0 {
		log.Println("No commands defined in handler, skipping SetMyCommands.")
		return nil
	}

	localizer := locales.DefaultLocalizer()
	commands := make([]telego.BotCommand, 0, len(h.commands))
	for _, cmd := range h.commands {
		commands = append(commands, telego.BotCommand{
			Command:     cmd.Command,
			Description: locales.GetMessage(localizer, cmd.Description, nil, nil),
		})
	}

	err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	log.Printf("Successfully set %d bot commands.", len(commands))
	return nil
}
