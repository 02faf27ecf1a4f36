package handlers

import (
	"context"
	"errors"
	"postsuggest-bot/internal/auth"
	"postsuggest-bot/internal/database"
	telegoapi "postsuggest-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
)

// CommandFunc handles a single bot command.
type CommandFunc func(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error

// Command represents a bot command, mapping the command string to its description and handler function.
type Command struct {
	Command     string      // The command string (e.g., "start").
	Description string      // Locale key of the description shown in /help and the Telegram menu.
	AdminOnly   bool        // Hidden from /help for regular users.
	Handler     CommandFunc // The function to execute when the command is received.
}

// HandlerDeps holds the dependencies required by the MessageHandler.
type HandlerDeps struct {
	Users         database.UserRepository
	Posts         database.PostRepository
	Settings      database.SettingsRepository
	ActionLogger  database.UserActionLogger
	AccessChecker auth.AccessCheckerInterface
	Moderation    ModerationManagerInterface
	Version       string
	Debug         bool
}

// MessageHandler handles bot commands and forwards media submissions to the moderation workflow.
type MessageHandler struct {
	commands []Command

	users         database.UserRepository
	posts         database.PostRepository
	settings      database.SettingsRepository
	actionLogger  database.UserActionLogger
	accessChecker auth.AccessCheckerInterface
	moderation    ModerationManagerInterface
	version       string
	debug         bool
}

// NewMessageHandler creates and initializes a new MessageHandler instance.
// It validates dependencies and defines the available bot commands.
func NewMessageHandler(deps HandlerDeps) (*MessageHandler, error) {
	if deps.Users == nil {
		return nil, errors.New("message handler: user repository cannot be nil")
	}
	if deps.Posts == nil {
		return nil, errors.New("message handler: post repository cannot be nil")
	}
	if deps.Settings == nil {
		return nil, errors.New("message handler: settings repository cannot be nil")
	}
	if deps.ActionLogger == nil {
		return nil, errors.New("message handler: action logger cannot be nil")
	}
	if deps.AccessChecker == nil {
		return nil, errors.New("message handler: access checker cannot be nil")
	}
	if deps.Moderation == nil {
		return nil, errors.New("message handler: moderation manager cannot be nil")
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	h := &MessageHandler{
		users:         deps.Users,
		posts:         deps.Posts,
		settings:      deps.Settings,
		actionLogger:  deps.ActionLogger,
		accessChecker: deps.AccessChecker,
		moderation:    deps.Moderation,
		version:       version,
		debug:         deps.Debug,
	}
	h.commands = []Command{
		{Command: "start", Description: "CmdStartDesc", Handler: h.HandleStart},
		{Command: "help", Description: "CmdHelpDesc", Handler: h.HandleHelp},
		{Command: "init", Description: "CmdInitDesc", Handler: h.HandleInit},
		{Command: "ban", Description: "CmdBanDesc", AdminOnly: true, Handler: h.HandleBan},
		{Command: "unban", Description: "CmdUnbanDesc", AdminOnly: true, Handler: h.HandleUnban},
		{Command: "status", Description: "CmdStatusDesc", AdminOnly: true, Handler: h.HandleStatus},
		{Command: "version", Description: "CmdVersionDesc", Handler: h.HandleVersion},
	}
	return h, nil
}

// GetCommandHandler retrieves the handler function associated with a specific command string (e.g., "start").
// It returns nil if the command is not found.
func (h *MessageHandler) GetCommandHandler(command string) CommandFunc {
	for _, cmd := range h.commands {
		if cmd.Command == command {
			return cmd.Handler
		}
	}
	return nil
}
