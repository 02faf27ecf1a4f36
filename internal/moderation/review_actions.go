package moderation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"postsuggest-bot/internal/database"
	"postsuggest-bot/internal/database/models"
	"postsuggest-bot/internal/locales"
	telegoapi "postsuggest-bot/pkg/telegoapi"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

const publishRetries = 3

// ErrNotInitialized is returned when a post is approved before /init configured the channel.
var ErrNotInitialized = errors.New("destination channel is not configured")

// handleApprove publishes the post unless an earlier attempt already did, then finalizes it.
// On a publishing failure the post and its file are kept so the decision can be retried.
func (m *Manager) handleApprove(ctx context.Context, localizer *i18n.Localizer, moderatorID int64, reviewMessage *telego.Message, post *models.Post) error {
	var channel string
	var channelPostID int

	if !post.IsPublished {
		settings, err := m.settings.GetSettings(ctx)
		switch {
		case errors.Is(err, database.ErrSettingsNotFound):
			err = ErrNotInitialized
		case err == nil && (!settings.Initialized || settings.TargetChannel == ""):
			err = ErrNotInitialized
		}
		if err != nil {
			m.editReviewMessage(ctx, reviewMessage, locales.GetMessage(localizer, "MsgReviewPublishError", nil, nil))
			return fmt.Errorf("failed to publish post %d: %w", post.PostID, err)
		}

		channel = settings.TargetChannel
		sent, err := m.publish(ctx, channel, post)
		if errors.Is(err, os.ErrNotExist) {
			return m.dropPost(ctx, localizer, moderatorID, reviewMessage, post)
		}
		if err != nil {
			m.editReviewMessage(ctx, reviewMessage, locales.GetMessage(localizer, "MsgReviewPublishError", nil, nil))
			return err
		}
		if sent != nil {
			channelPostID = sent.MessageID
		}
		if err := m.posts.MarkPublished(ctx, post.PostID); err != nil {
			log.Printf("[Review Post:%d] Failed to mark post published: %v", post.PostID, err)
		}
	}

	m.notifyOwner(ctx, post.OwnerID, "MsgOwnerApproved")
	m.editReviewMessage(ctx, reviewMessage, locales.GetMessage(localizer, "MsgReviewPublished", nil, nil))
	return m.finalize(ctx, post, moderatorID, models.DecisionApproved, channel, channelPostID)
}

// handleReject notifies the submitter and drops the post.
func (m *Manager) handleReject(ctx context.Context, localizer *i18n.Localizer, moderatorID int64, reviewMessage *telego.Message, post *models.Post) error {
	m.notifyOwner(ctx, post.OwnerID, "MsgOwnerRejected")
	m.editReviewMessage(ctx, reviewMessage, locales.GetMessage(localizer, "MsgReviewRejected", nil, nil))
	return m.finalize(ctx, post, moderatorID, models.DecisionRejected, "", 0)
}

// dropPost removes a post whose attachment no longer exists, since it can never be published.
func (m *Manager) dropPost(ctx context.Context, localizer *i18n.Localizer, moderatorID int64, reviewMessage *telego.Message, post *models.Post) error {
	log.Printf("[Review Post:%d] Attachment %s is missing, dropping post", post.PostID, post.AttachmentPath)
	m.editReviewMessage(ctx, reviewMessage, locales.GetMessage(localizer, "MsgReviewPostNotFound", nil, nil))
	return m.finalize(ctx, post, moderatorID, models.DecisionDropped, "", 0)
}

// publish sends the post to the destination channel.
func (m *Manager) publish(ctx context.Context, channel string, post *models.Post) (*telego.Message, error) {
	log.Printf("[Review Post:%d] Publishing to channel %s...", post.PostID, channel)
	caption := publicationCaption(locales.DefaultLocalizer(), post)
	sent, err := telegoapi.SendWithRetry(ctx, fmt.Sprintf("Post:%d", post.PostID), publishRetries, func() (*telego.Message, error) {
		return m.sendMedia(ctx, ChannelChatID(channel), post, caption, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send post %d to channel %s: %w", post.PostID, channel, err)
	}
	log.Printf("[Review Post:%d] Successfully published", post.PostID)
	return sent, nil
}

// notifyOwner tells the submitter about the decision. Failures are only logged.
func (m *Manager) notifyOwner(ctx context.Context, ownerID int64, msgID string) {
	text := locales.GetMessage(locales.DefaultLocalizer(), msgID, nil, nil)
	if _, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(ownerID), text)); err != nil {
		log.Printf("[Review] Failed to notify owner %d: %v", ownerID, err)
	}
}

// editReviewMessage replaces the caption of the review message, dropping its buttons.
func (m *Manager) editReviewMessage(ctx context.Context, reviewMessage *telego.Message, text string) {
	if reviewMessage == nil {
		return
	}
	_, err := m.bot.EditMessageCaption(ctx, &telego.EditMessageCaptionParams{
		ChatID:    tu.ID(reviewMessage.Chat.ID),
		MessageID: reviewMessage.MessageID,
		Caption:   text,
	})
	if err != nil {
		log.Printf("[Review] Failed to edit message %d in chat %d: %v", reviewMessage.MessageID, reviewMessage.Chat.ID, err)
	}
}

// finalize records the decision, removes the attachment and deletes the post.
func (m *Manager) finalize(ctx context.Context, post *models.Post, moderatorID int64, decision models.Decision, channel string, channelPostID int) error {
	entry := models.PostLog{
		PostID:        post.PostID,
		OwnerID:       post.OwnerID,
		OwnerName:     post.OwnerName,
		ModeratorID:   moderatorID,
		Decision:      decision,
		Caption:       post.Text,
		MediaType:     post.MediaType,
		ChannelID:     channel,
		ChannelPostID: channelPostID,
		SubmittedAt:   post.PostDate,
		DecidedAt:     time.Now(),
	}
	if err := m.postLogger.LogModeration(ctx, entry); err != nil {
		log.Printf("[Review Post:%d] Failed to log decision: %v", post.PostID, err)
	}

	if err := m.files.Remove(post.AttachmentPath); err != nil {
		log.Printf("[Review Post:%d] %v", post.PostID, err)
	}

	if err := m.posts.DeletePost(ctx, post.PostID); err != nil && !errors.Is(err, database.ErrPostNotFound) {
		return err
	}
	log.Printf("[Review Post:%d] Post %s by %d", post.PostID, decision, moderatorID)
	return nil
}
