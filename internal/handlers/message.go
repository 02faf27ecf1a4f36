package handlers

import (
	"context"
	"log"
	telegoapi "postsuggest-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
)

// HandlePhoto passes a photo to the moderation workflow.
func (h *MessageHandler) HandlePhoto(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	return h.handleSubmission(ctx, message, ActionSubmitPhoto)
}

// HandleVideo passes a video to the moderation workflow.
func (h *MessageHandler) HandleVideo(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	return h.handleSubmission(ctx, message, ActionSubmitVideo)
}

func (h *MessageHandler) handleSubmission(ctx context.Context, message telego.Message, action string) error {
	processed, err := h.moderation.HandleMedia(ctx, message)
	if !processed {
		if h.debug {
			log.Printf("[Media User:%d Chat:%d] Ignored by moderation", message.From.ID, message.Chat.ID)
		}
		return err
	}

	// The moderation workflow already stored the user, so only the action is logged.
	h.logAction(ctx, message.From, action, map[string]interface{}{
		"chat_id":    message.Chat.ID,
		"message_id": message.MessageID,
		"failed":     err != nil,
	})
	return err
}
