package dto

import "github.com/marvingabia/da-agrimanage-gabia/internal/model"

// ── Staff account DTOs ──

// StaffDecisionRequest optional reason given with an approve or reject.
type StaffDecisionRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=1000"`
}

// ToUserResponse drops credentials from an account record.
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:         u.UserID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Barangay:   u.Barangay,
		Role:       u.Role,
		IsApproved: u.IsApproved,
		Status:     u.Status,
		CreatedAt:  FormatTime(u.CreatedAt),
	}
}

// ToUserResponses maps a slice.
func ToUserResponses(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, ToUserResponse(&users[i]))
	}
	return out
}
