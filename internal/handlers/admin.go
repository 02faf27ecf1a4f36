package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"postsuggest-bot/internal/database"
	"postsuggest-bot/internal/database/models"
	"postsuggest-bot/internal/locales"
	telegoapi "postsuggest-bot/pkg/telegoapi"
	"strconv"

	"github.com/mymmrac/telego"
)

// HandleInit handles the /init <channel> command.
// The first call configures the bot and makes the caller an administrator;
// once configured, only administrators may change the channel.
func (h *MessageHandler) HandleInit(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	userID := message.From.ID
	logPrefix := fmt.Sprintf("[Cmd:init User:%d]", userID)
	localizer := h.getLocalizer(message.From)

	args := commandArgs(message.Text)
	if len(args) != 1 {
		return h.sendSuccess(ctx, bot, message.Chat.ID, locales.GetMessage(localizer, "MsgInitUsage", nil, nil))
	}
	channel := args[0]

	settings, err := h.settings.GetSettings(ctx)
	switch {
	case err == nil && settings.Initialized:
		if !h.isAdmin(ctx, logPrefix, userID) {
			log.Printf("%s Non-admin user attempted to change settings.", logPrefix)
			return h.sendSuccess(ctx, bot, message.Chat.ID, locales.GetMessage(localizer, "MsgInitOnlyAdmin", nil, nil))
		}
	case err != nil && !errors.Is(err, database.ErrSettingsNotFound):
		return h.sendError(ctx, bot, message, err)
	}

	if _, err := h.settings.ConfigureChannel(ctx, channel, models.FromTelegramUser(message.From)); err != nil {
		return h.sendError(ctx, bot, message, err)
	}
	log.Printf("%s Destination channel set to %s", logPrefix, channel)

	h.RecordUserActivity(ctx, message.From, ActionCommandInit, map[string]interface{}{
		"chat_id": message.Chat.ID,
		"channel": channel,
	})

	return h.sendSuccess(ctx, bot, message.Chat.ID, locales.GetMessage(localizer, "MsgInitSuccess", nil, nil))
}

// HandleBan handles the /ban <user_id> command.
func (h *MessageHandler) HandleBan(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	return h.setBanned(ctx, bot, message, true)
}

// HandleUnban handles the /unban <user_id> command.
func (h *MessageHandler) HandleUnban(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	return h.setBanned(ctx, bot, message, false)
}

func (h *MessageHandler) setBanned(ctx context.Context, bot telegoapi.BotAPI, message telego.Message, banned bool) error {
	command, action := "unban", ActionCommandUnban
	onlyAdminKey, usageKey, successKey := "MsgUnbanOnlyAdmin", "MsgUnbanUsage", "MsgUnbanSuccess"
	if banned {
		command, action = "ban", ActionCommandBan
		onlyAdminKey, usageKey, successKey = "MsgBanOnlyAdmin", "MsgBanUsage", "MsgBanSuccess"
	}

	userID := message.From.ID
	logPrefix := fmt.Sprintf("[Cmd:%s User:%d]", command, userID)
	localizer := h.getLocalizer(message.From)

	if !h.isAdmin(ctx, logPrefix, userID) {
		log.Printf("%s Non-admin user attempted to use /%s.", logPrefix, command)
		return h.sendSuccess(ctx, bot, message.Chat.ID, locales.GetMessage(localizer, onlyAdminKey, nil, nil))
	}

	args := commandArgs(message.Text)
	if len(args) != 1 {
		return h.sendSuccess(ctx, bot, message.Chat.ID, locales.GetMessage(localizer, usageKey, nil, nil))
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return h.sendSuccess(ctx, bot, message.Chat.ID, locales.GetMessage(localizer, usageKey, nil, nil))
	}

	if err := h.users.SetBanned(ctx, targetID, banned); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return h.sendSuccess(ctx, bot, message.Chat.ID, locales.GetMessage(localizer, "MsgUserNotFound", nil, nil))
		}
		return h.sendError(ctx, bot, message, err)
	}
	log.Printf("%s User %d banned=%t", logPrefix, targetID, banned)

	h.RecordUserActivity(ctx, message.From, action, map[string]interface{}{
		"chat_id":   message.Chat.ID,
		"target_id": targetID,
	})

	return h.sendSuccess(ctx, bot, message.Chat.ID, locales.GetMessage(localizer, successKey, map[string]interface{}{
		"UserID": targetID,
	}, nil))
}
