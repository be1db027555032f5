package dto

import "github.com/marvingabia/da-agrimanage-gabia/internal/model"

// ── Duty session DTOs ──

// DutySessionListRequest optional status filter.
type DutySessionListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected ended"`
}

// ApproveDutyRequest admin's approval notes.
type ApproveDutyRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=1000"`
}

// RejectDutyRequest admin's rejection reason.
type RejectDutyRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=1000"`
}

// EndDutyRequest admin's notes on a forced end.
type EndDutyRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=1000"`
}

// StaffDutyStatus one approved staff member and the session they are on, if any.
type StaffDutyStatus struct {
	StaffID string             `json:"staff_id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Phone   string             `json:"phone,omitempty"`
	OnDuty  bool               `json:"on_duty"`
	Session *model.DutySession `json:"session,omitempty"`
}

// DutyStatusCounts summary line of the status board.
type DutyStatusCounts struct {
	LoggedIn        int `json:"logged_in"`
	PendingApproval int `json:"pending_approval"`
	TotalStaff      int `json:"total_staff"`
}

// DutyStatusBoard admin view of every approved staff member's duty state.
type DutyStatusBoard struct {
	Staff  []StaffDutyStatus `json:"staff"`
	Counts DutyStatusCounts  `json:"counts"`
}
