package models

import "time"

// MediaType is the kind of attachment carried by a post.
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

// Extension returns the file extension used for stored attachments.
func (t MediaType) Extension() string {
	switch t {
	case MediaPhoto:
		return "jpg"
	case MediaVideo:
		return "mp4"
	default:
		return "bin"
	}
}

// Post is a submission waiting for a moderation decision.
type Post struct {
	PostID         int64     `gorm:"column:post_id;primaryKey;autoIncrement" bson:"_id"`
	OwnerID        int64     `gorm:"column:owner_id;index" bson:"owner_id"`
	OwnerName      string    `gorm:"column:owner_name" bson:"owner_name"`
	AttachmentPath string    `gorm:"column:attachment_path" bson:"attachment_path"`
	MediaType      MediaType `gorm:"column:media_type;type:varchar(16)" bson:"media_type"`
	Text           string    `gorm:"column:text" bson:"text,omitempty"`
	PostDate       time.Time `gorm:"column:post_date" bson:"post_date"`
	IsPublished    bool      `gorm:"column:is_published;not null;default:false" bson:"is_published"`
}

func (Post) TableName() string { return "posts" }
