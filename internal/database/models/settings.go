package models

// SettingsID is the primary key of the only settings row.
const SettingsID = 1

// Settings holds the bot-wide configuration made with /init.
type Settings struct {
	ID            int    `gorm:"column:id;primaryKey;autoIncrement:false" bson:"_id"`
	Initialized   bool   `gorm:"column:initialized;not null;default:false" bson:"initialized"`
	TargetChannel string `gorm:"column:target_channel" bson:"target_channel"`
	InitializerID int64  `gorm:"column:initializer_id" bson:"initializer_id"`
}

func (Settings) TableName() string { return "settings" }
