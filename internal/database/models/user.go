package models

import (
	"strings"
	"time"

	"github.com/mymmrac/telego"
)

// User represents a Telegram user known to the bot.
type User struct {
	UserID    int64     `gorm:"column:user_id;primaryKey;autoIncrement:false" bson:"user_id"`
	Username  string    `gorm:"column:username" bson:"username,omitempty"`
	FirstName string    `gorm:"column:first_name" bson:"first_name,omitempty"`
	LastName  string    `gorm:"column:last_name" bson:"last_name,omitempty"`
	IsAdmin   bool      `gorm:"column:is_admin;not null;default:false" bson:"is_admin"`
	IsBanned  bool      `gorm:"column:is_banned;not null;default:false" bson:"is_banned"`
	JoinDate  time.Time `gorm:"column:join_date" bson:"join_date"`
}

// TableName pins the table name used by gorm.
func (User) TableName() string { return "users" }

// FullName joins first and last name the way Telegram clients display them.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// FromTelegramUser copies identity fields of a Telegram user. Flags are left unset.
func FromTelegramUser(u *telego.User) User {
	if u == nil {
		return User{}
	}
	return User{
		UserID:    u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
