package bot

import (
	"context"
	"postsuggest-bot/internal/handlers"
	telegoapi "postsuggest-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
)

// HandlerProvider routes commands and media messages.
type HandlerProvider interface {
	GetCommandHandler(command string) handlers.CommandFunc
	HandlePhoto(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error
	HandleVideo(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error
}

// CallbackProcessor handles inline button presses.
type CallbackProcessor interface {
	HandleCallbackQuery(ctx context.Context, query telego.CallbackQuery) (processed bool, err error)
}
