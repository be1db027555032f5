package model

import (
	"time"

	"gorm.io/gorm"
)

// Fan-out outcome recorded on a NotificationLog.
const (
	NotificationSent    = "sent"
	NotificationPartial = "partial"
	NotificationFailed  = "failed"
)

// NotificationLog audit tally of one fan-out. Table notifications.
type NotificationLog struct {
	ID               string    `gorm:"column:id;type:varchar(64);primaryKey"     json:"id"`
	Subject          string    `gorm:"type:varchar(255);not null"                json:"subject"`
	Message          string    `gorm:"type:text;not null"                        json:"message"`
	NotificationType string    `gorm:"type:varchar(50);not null"                 json:"notification_type"` // announcement | staff_registration | staff_decision
	RecipientType    string    `gorm:"type:varchar(20);not null"                 json:"recipient_type"`
	Barangay         *string   `gorm:"type:varchar(100)"                         json:"barangay,omitempty"`
	TotalRecipients  int       `gorm:"not null;default:0"                        json:"total_recipients"`
	EmailSent        int       `gorm:"not null;default:0"                        json:"email_sent"`
	SMSSent          int       `gorm:"column:sms_sent;not null;default:0"        json:"sms_sent"`
	Failed           int       `gorm:"not null;default:0"                        json:"failed"`
	Status           string    `gorm:"type:varchar(20);not null;default:'sent'"  json:"status"`
	SentBy           *string   `gorm:"type:varchar(64)"                          json:"sent_by,omitempty"`
	SentByName       *string   `gorm:"type:varchar(100)"                         json:"sent_by_name,omitempty"`
	CreatedAt        time.Time `gorm:"not null;index"                            json:"created_at"`
}

// TableName table name.
func (NotificationLog) TableName() string { return "notifications" }

// BeforeCreate assigns an id when the caller did not.
func (n *NotificationLog) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = NewID()
	}
	return nil
}
