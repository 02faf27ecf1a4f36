package moderation

import (
	"postsuggest-bot/internal/database/models"
	"postsuggest-bot/internal/locales"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// MaxCaptionLength is the longest media caption Telegram accepts.
const MaxCaptionLength = 1024

const captionSeparator = "\n\n"

// fitText shortens text so that it and fixed, joined by a separator, fit in a caption.
func fitText(text, fixed string) string {
	room := MaxCaptionLength - utf8.RuneCountInString(fixed) - utf8.RuneCountInString(captionSeparator)
	if utf8.RuneCountInString(text) <= room {
		return text
	}
	if room <= 1 {
		return ""
	}
	runes := []rune(text)
	return string(runes[:room-1]) + "…"
}

// reviewCaption builds the caption administrators see for a pending post.
func reviewCaption(localizer *i18n.Localizer, post *models.Post) string {
	caption := locales.GetMessage(localizer, "MsgReviewCaption", map[string]interface{}{
		"Name": post.OwnerName,
	}, nil)
	if text := fitText(post.Text, caption); text != "" {
		caption += captionSeparator + text
	}
	return caption
}

// reviewKeyboard builds the Approve/Reject row attached to a review message.
func reviewKeyboard(localizer *i18n.Localizer, postID int64) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "MsgReviewApproveButton", nil, nil)).
				WithCallbackData(CallbackData{Action: ActionApprove, PostID: postID}.String()),
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "MsgReviewRejectButton", nil, nil)).
				WithCallbackData(CallbackData{Action: ActionReject, PostID: postID}.String()),
		),
	)
}

// publicationCaption builds the caption of a post published to the channel.
func publicationCaption(localizer *i18n.Localizer, post *models.Post) string {
	author := locales.GetMessage(localizer, "MsgPublishAuthor", map[string]interface{}{
		"Name": post.OwnerName,
	}, nil)
	text := fitText(post.Text, author)
	if text == "" {
		return author
	}
	return text + captionSeparator + author
}

// ChannelChatID converts a stored channel reference into a chat ID.
// Numeric values such as -1001234567890 are chat IDs, anything else is treated as a username.
func ChannelChatID(channel string) telego.ChatID {
	channel = strings.TrimSpace(channel)
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		return tu.ID(id)
	}
	if !strings.HasPrefix(channel, "@") {
		channel = "@" + channel
	}
	return tu.Username(channel)
}
