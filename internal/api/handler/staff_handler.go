package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/marvingabia/da-agrimanage-gabia/internal/dto"
	"github.com/marvingabia/da-agrimanage-gabia/internal/service"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/response"
)

// StaffHandler admin review of staff registrations.
type StaffHandler struct {
	staffSvc service.StaffApprovalService
}

// NewStaffHandler creates a StaffHandler.
func NewStaffHandler(staffSvc service.StaffApprovalService) *StaffHandler {
	return &StaffHandler{staffSvc: staffSvc}
}

// ListPending staff accounts awaiting approval.
// GET /api/v1/admin/staff/pending
func (h *StaffHandler) ListPending(c *gin.Context) {
	users, err := h.staffSvc.ListPending(c.Request.Context())
	if err != nil {
		h.handleStaffError(c, err)
		return
	}
	staff := dto.ToUserResponses(users)
	response.OK(c, "", gin.H{"staff": staff, "count": len(staff)})
}

// ListApproved approved staff accounts.
// GET /api/v1/admin/staff
func (h *StaffHandler) ListApproved(c *gin.Context) {
	users, err := h.staffSvc.ListApproved(c.Request.Context())
	if err != nil {
		h.handleStaffError(c, err)
		return
	}
	staff := dto.ToUserResponses(users)
	response.OK(c, "", gin.H{"staff": staff, "count": len(staff)})
}

// Approve lets the staff member sign in.
// POST /api/v1/admin/staff/:id/approve
func (h *StaffHandler) Approve(c *gin.Context) {
	user, err := h.staffSvc.Approve(c.Request.Context(), c.Param("id"), actorName(c))
	if err != nil {
		h.handleStaffError(c, err)
		return
	}
	response.OK(c, user.Name+" has been approved and can now login", gin.H{"user": dto.ToUserResponse(user)})
}

// Reject deletes the registration.
// POST /api/v1/admin/staff/:id/reject
func (h *StaffHandler) Reject(c *gin.Context) {
	var req dto.StaffDecisionRequest
	if !bindBody(c, &req) {
		return
	}

	user, err := h.staffSvc.Reject(c.Request.Context(), c.Param("id"), actorName(c), req.Reason)
	if err != nil {
		h.handleStaffError(c, err)
		return
	}
	response.OK(c, user.Name+"'s registration has been rejected", gin.H{"user": dto.ToUserResponse(user)})
}

func (h *StaffHandler) handleStaffError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStaffNotFound):
		response.NotFound(c, codeStaffNotFound, err.Error())
	case errors.Is(err, service.ErrStaffNotPending):
		response.Conflict(c, codeStaffNotPending, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
