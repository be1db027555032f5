package dto

import "time"

// ── Auth responses ──

// LoginResponse issued token plus the caller's profile.
type LoginResponse struct {
	AccessToken   string       `json:"access_token"`
	ExpiresIn     int          `json:"expires_in"` // seconds
	User          UserResponse `json:"user"`
	DutySessionID string       `json:"duty_session_id,omitempty"` // staff only
}

// RegisterResponse created account; PendingApproval is true for staff.
type RegisterResponse struct {
	User            UserResponse `json:"user"`
	PendingApproval bool         `json:"pending_approval"`
}

// ── User responses ──

// UserResponse account without credentials.
type UserResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Barangay   string `json:"barangay,omitempty"`
	Role       string `json:"role"`
	IsApproved bool   `json:"is_approved"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// FormatTime RFC3339 or empty for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
