package moderation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"postsuggest-bot/internal/database"
	"postsuggest-bot/internal/locales"
	"regexp"
	"strconv"

	"github.com/mymmrac/telego"
)

// CallbackAction is the moderation decision encoded in a review button.
type CallbackAction string

const (
	ActionApprove CallbackAction = "approve"
	ActionReject  CallbackAction = "reject"
)

var callbackPattern = regexp.MustCompile(`^(approve|reject)_(\d+)$`)

// CallbackData is the parsed payload of a review button.
type CallbackData struct {
	Action CallbackAction
	PostID int64
}

// String encodes the payload as "<action>_<post id>".
func (d CallbackData) String() string {
	return fmt.Sprintf("%s_%d", d.Action, d.PostID)
}

// ParseCallbackData parses review button data. ok is false for foreign callback data.
func ParseCallbackData(data string) (CallbackData, bool) {
	match := callbackPattern.FindStringSubmatch(data)
	if match == nil {
		return CallbackData{}, false
	}
	postID, err := strconv.ParseInt(match[2], 10, 64)
	if err != nil {
		return CallbackData{}, false
	}
	return CallbackData{Action: CallbackAction(match[1]), PostID: postID}, true
}

// HandleCallbackQuery applies an approve/reject decision.
// Returns true if the callback was processed by this handler, false otherwise.
// The query is always answered once it is recognized.
func (m *Manager) HandleCallbackQuery(ctx context.Context, query telego.CallbackQuery) (processed bool, err error) {
	data, ok := ParseCallbackData(query.Data)
	if !ok {
		return false, nil
	}

	moderatorID := query.From.ID
	logPrefix := fmt.Sprintf("[Review Post:%d Admin:%d]", data.PostID, moderatorID)
	log.Printf("%s Action: %s", logPrefix, data.Action)

	if err := m.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{CallbackQueryID: query.ID}); err != nil {
		log.Printf("%s Error answering callback query %s: %v", logPrefix, query.ID, err)
	}

	var reviewMessage *telego.Message
	if query.Message != nil {
		if msg, ok := query.Message.(*telego.Message); ok && msg != nil {
			reviewMessage = msg
		} else {
			log.Printf("%s Warning: callback message is inaccessible, review message will not be updated", logPrefix)
		}
	}
	localizer := locales.ForLanguage(query.From.LanguageCode)

	isAdmin, err := m.accessChecker.IsAdmin(ctx, moderatorID)
	if err != nil {
		return true, fmt.Errorf("%s admin check failed: %w", logPrefix, err)
	}
	if !isAdmin {
		log.Printf("%s User is not admin, ignoring review action", logPrefix)
		m.editReviewMessage(ctx, reviewMessage, locales.GetMessage(localizer, "MsgReviewNoRights", nil, nil))
		return true, nil
	}

	post, err := m.posts.GetPost(ctx, data.PostID)
	if err != nil {
		if errors.Is(err, database.ErrPostNotFound) {
			log.Printf("%s Post no longer exists", logPrefix)
			m.editReviewMessage(ctx, reviewMessage, locales.GetMessage(localizer, "MsgReviewPostNotFound", nil, nil))
			return true, nil
		}
		return true, fmt.Errorf("%s %w", logPrefix, err)
	}

	switch data.Action {
	case ActionApprove:
		err = m.handleApprove(ctx, localizer, moderatorID, reviewMessage, post)
	case ActionReject:
		err = m.handleReject(ctx, localizer, moderatorID, reviewMessage, post)
	}
	if err != nil {
		return true, fmt.Errorf("%s %w", logPrefix, err)
	}
	return true, nil
}
