package model

import (
	"time"

	"gorm.io/gorm"
)

// DutyStatus lifecycle state of a duty session.
type DutyStatus string

const (
	DutyPending  DutyStatus = "pending"
	DutyApproved DutyStatus = "approved"
	DutyRejected DutyStatus = "rejected"
	DutyEnded    DutyStatus = "ended"
)

// Valid reports whether s is one of the four known states.
func (s DutyStatus) Valid() bool {
	switch s {
	case DutyPending, DutyApproved, DutyRejected, DutyEnded:
		return true
	}
	return false
}

// DutySession one staff member's on-duty request, from login to admin decision to end. Table duty_sessions.
//
// Staff fields are a snapshot taken at login. ApprovedBy/ApprovedTime are stamped by both the approve and
// the reject decision; EndedBy/EndedTime/EndNotes only when an admin force-ends the session.
type DutySession struct {
	ID           string     `gorm:"column:id;type:varchar(64);primaryKey"  json:"id"`
	StaffID      string     `gorm:"type:varchar(64);not null;index"        json:"staff_id"`
	StaffName    string     `gorm:"type:varchar(100);not null"             json:"staff_name"`
	StaffEmail   string     `gorm:"type:varchar(255);not null"             json:"staff_email"`
	LoginTime    time.Time  `gorm:"not null;index"                         json:"login_time"`
	LogoutTime   *time.Time `json:"logout_time"`
	DutyStatus   DutyStatus `gorm:"type:varchar(20);not null;index"        json:"duty_status"`
	ApprovedBy   *string    `gorm:"type:varchar(100)"                      json:"approved_by"`
	ApprovedTime *time.Time `json:"approved_time"`
	Notes        string     `gorm:"type:text"                              json:"notes"`
	EndedBy      *string    `gorm:"type:varchar(100)"                      json:"ended_by,omitempty"`
	EndedTime    *time.Time `json:"ended_time,omitempty"`
	EndNotes     string     `gorm:"type:text"                              json:"end_notes,omitempty"`
	Version      int        `gorm:"not null;default:1"                     json:"version"`
}

// TableName table name.
func (DutySession) TableName() string { return "duty_sessions" }

// BeforeCreate assigns an id when the caller did not.
func (s *DutySession) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	return nil
}

// IsActive pending or approved.
func (s *DutySession) IsActive() bool {
	return s.DutyStatus == DutyPending || s.DutyStatus == DutyApproved
}

// IsTerminal rejected or ended; no transition leaves these states.
func (s *DutySession) IsTerminal() bool {
	return s.DutyStatus == DutyRejected || s.DutyStatus == DutyEnded
}

// Clone returns a deep copy so stored records are never aliased by callers.
func (s *DutySession) Clone() *DutySession {
	if s == nil {
		return nil
	}
	c := *s
	c.LogoutTime = cloneTime(s.LogoutTime)
	c.ApprovedTime = cloneTime(s.ApprovedTime)
	c.EndedTime = cloneTime(s.EndedTime)
	c.ApprovedBy = cloneString(s.ApprovedBy)
	c.EndedBy = cloneString(s.EndedBy)
	return &c
}

// DutyStats aggregate counts over all duty sessions. ActiveNow counts approved sessions only.
type DutyStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Ended     int `json:"ended"`
	ActiveNow int `json:"active_now"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
