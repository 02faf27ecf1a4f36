package models

import "time"

// Decision is the outcome of moderating a post.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
	// DecisionDropped marks a post removed because its attachment was lost.
	DecisionDropped Decision = "dropped"
)

// PostLog stores information about a moderated post.
type PostLog struct {
	ID            uint      `gorm:"primaryKey" bson:"-"`
	PostID        int64     `gorm:"index" bson:"post_id"`
	OwnerID       int64     `bson:"owner_id"`
	OwnerName     string    `bson:"owner_name,omitempty"`
	ModeratorID   int64     `bson:"moderator_id"`
	Decision      Decision  `gorm:"type:varchar(16)" bson:"decision"`
	Caption       string    `bson:"caption,omitempty"`
	MediaType     MediaType `gorm:"type:varchar(16)" bson:"media_type"`
	ChannelID     string    `bson:"channel_id,omitempty"`
	ChannelPostID int       `bson:"channel_post_id,omitempty"`
	SubmittedAt   time.Time `bson:"submitted_at"`
	DecidedAt     time.Time `bson:"decided_at"`
}

func (PostLog) TableName() string { return "post_logs" }
