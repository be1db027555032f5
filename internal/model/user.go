package model

import "gorm.io/gorm"

// Roles recognized by the access gates.
const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleFarmer = "farmer"
)

// Account statuses.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User account, table users. Staff accounts start unapproved and cannot log in until an admin approves them.
type User struct {
	UserID       string `gorm:"column:id;type:varchar(64);primaryKey"           json:"id"`
	Name         string `gorm:"type:varchar(100);not null"                      json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"          json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                      json:"-"`
	Phone        string `gorm:"type:varchar(30)"                                json:"phone,omitempty"`
	Barangay     string `gorm:"type:varchar(100)"                               json:"barangay,omitempty"`
	Role         string `gorm:"type:varchar(20);not null;index"                 json:"role"`
	IsApproved   bool   `gorm:"not null"                                        json:"is_approved"`
	Status       string `gorm:"type:varchar(20);not null;default:'active'"      json:"status"`
	BaseModel
}

// TableName table name.
func (User) TableName() string { return "users" }

// BeforeCreate assigns an id when the caller did not.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.UserID == "" {
		u.UserID = NewID()
	}
	return nil
}

// IsPendingStaff reports whether u is a staff applicant awaiting approval.
func (u *User) IsPendingStaff() bool {
	return u.Role == RoleStaff && !u.IsApproved
}

// IsActive reports whether the account may sign in at all.
func (u *User) IsActive() bool {
	return u.Status == "" || u.Status == UserStatusActive
}
