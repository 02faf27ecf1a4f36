package models

import "time"

// UserAction is an audit entry for a command handled on behalf of a user.
type UserAction struct {
	ID      uint                   `gorm:"primaryKey" bson:"-"`
	UserID  int64                  `gorm:"index" bson:"user_id"`
	Action  string                 `bson:"action"`
	Details map[string]interface{} `gorm:"serializer:json;type:text" bson:"details,omitempty"`
	Time    time.Time              `bson:"time"`
}

func (UserAction) TableName() string { return "user_actions" }
