package dto

// ── Notification DTOs ──

// Recipient groups a fan-out can target.
const (
	RecipientFarmers = "farmer"
	RecipientStaff   = "staff"
	RecipientAll     = "all"
)

// SendNotificationRequest announcement fan-out. SendEmail defaults to true.
type SendNotificationRequest struct {
	Subject          string `json:"subject"           binding:"required,max=255"`
	Message          string `json:"message"           binding:"required,max=5000"`
	RecipientType    string `json:"recipient_type"    binding:"required,oneof=farmer staff all"`
	Barangay         string `json:"barangay"          binding:"omitempty,max=100"`
	NotificationType string `json:"notification_type" binding:"omitempty,max=50"`
	SendEmail        *bool  `json:"send_email"`
	SendSMS          bool   `json:"send_sms"`
}

// EmailEnabled reports whether e-mail should be sent.
func (r *SendNotificationRequest) EmailEnabled() bool {
	return r.SendEmail == nil || *r.SendEmail
}

// NotificationListRequest query parameters.
type NotificationListRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}
