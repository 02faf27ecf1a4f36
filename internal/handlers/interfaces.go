package handlers

import (
	"context"

	"github.com/mymmrac/telego"
)

// ModerationManagerInterface defines the submission operation used by MessageHandler.
type ModerationManagerInterface interface {
	HandleMedia(ctx context.Context, message telego.Message) (processed bool, err error)
}
