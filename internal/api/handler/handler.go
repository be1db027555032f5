package handler

import (
	"github.com/marvingabia/da-agrimanage-gabia/config"
	"github.com/marvingabia/da-agrimanage-gabia/internal/service"
)

// Handler aggregates every HTTP handler.
type Handler struct {
	Auth         *AuthHandler
	Duty         *DutyHandler
	Staff        *StaffHandler
	Notification *NotificationHandler
	Export       *ExportHandler
}

// NewHandler wires handlers to services.
func NewHandler(svc *service.Service, cookie *config.CookieConfig) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, cookie),
		Duty:         NewDutyHandler(svc.Duty),
		Staff:        NewStaffHandler(svc.Staff),
		Notification: NewNotificationHandler(svc.Notification),
		Export:       NewExportHandler(svc.Export),
	}
}

// Business codes. 1xxxx auth, 2xxxx users/staff, 3xxxx duty.
const (
	codeValidation         = 10001
	codeUnauthenticated    = 10002
	codeInvalidCredentials = 11001
	codePendingApproval    = 11002
	codeAccountInactive    = 11003
	codeRoleMismatch       = 11004

	codeEmailExists     = 20001
	codeUserNotFound    = 20002
	codeStaffNotFound   = 21001
	codeStaffNotPending = 21002

	codeDutyNotFound          = 30001
	codeDutyInvalidTransition = 30002
	codeDutyActive            = 30003
	codeDutyConflict          = 30004
	codeDutyInvalidStatus     = 30005
)
