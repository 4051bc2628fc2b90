package model

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationChannel string

const (
	ChannelSMTP    NotificationChannel = "smtp"
	ChannelWebhook NotificationChannel = "webhook"
	ChannelNone    NotificationChannel = "none"
)

// MaxNotificationSIDLength bounds the sid column of the audit table.
const MaxNotificationSIDLength = 64

// Notification is the audit record of one notification attempt.
type Notification struct {
	ID         uint                `gorm:"primaryKey"`
	SID        string              `gorm:"column:sid;type:varchar(64);index"`
	Status     string              `gorm:"type:varchar(50)"`
	Subject    string              `gorm:"type:varchar(256)"`
	Recipients string              `gorm:"type:varchar(1024)"`
	Channel    NotificationChannel `gorm:"type:varchar(16)"`
	Sent       bool                `gorm:"not null;default:false"`
	Error      *string             `gorm:"type:text"`
	Details    datatypes.JSON
	CreatedAt  time.Time
}
