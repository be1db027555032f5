package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/marvingabia/da-agrimanage-gabia/internal/dto"
	"github.com/marvingabia/da-agrimanage-gabia/internal/model"
	"github.com/marvingabia/da-agrimanage-gabia/internal/service"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/response"
)

// DutyHandler duty session review for admins and the staff "am I on duty" view.
type DutyHandler struct {
	dutySvc service.DutyService
}

// NewDutyHandler creates a DutyHandler.
func NewDutyHandler(dutySvc service.DutyService) *DutyHandler {
	return &DutyHandler{dutySvc: dutySvc}
}

// ──────── admin ────────

// ListSessions every session, newest first, optionally filtered by status.
// GET /api/v1/admin/duty/sessions?status=
func (h *DutyHandler) ListSessions(c *gin.Context) {
	var req dto.DutySessionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, codeDutyInvalidStatus, "status must be one of pending, approved, rejected, ended")
		return
	}

	var (
		sessions []model.DutySession
		err      error
	)
	if req.Status == "" {
		sessions, err = h.dutySvc.ListAll(c.Request.Context())
	} else {
		sessions, err = h.dutySvc.ListByStatus(c.Request.Context(), model.DutyStatus(req.Status))
	}
	if err != nil {
		h.handleDutyError(c, err)
		return
	}
	response.OK(c, "", gin.H{"sessions": sessions, "count": len(sessions)})
}

// ListPending sessions awaiting a decision.
// GET /api/v1/admin/duty/sessions/pending
func (h *DutyHandler) ListPending(c *gin.Context) {
	sessions, err := h.dutySvc.ListPending(c.Request.Context())
	if err != nil {
		h.handleDutyError(c, err)
		return
	}
	response.OK(c, "", gin.H{"sessions": sessions, "count": len(sessions)})
}

// ListActive pending and approved sessions.
// GET /api/v1/admin/duty/sessions/active
func (h *DutyHandler) ListActive(c *gin.Context) {
	sessions, err := h.dutySvc.ListActive(c.Request.Context())
	if err != nil {
		h.handleDutyError(c, err)
		return
	}
	response.OK(c, "", gin.H{"sessions": sessions, "count": len(sessions)})
}

// GetSession one session by id.
// GET /api/v1/admin/duty/sessions/:id
func (h *DutyHandler) GetSession(c *gin.Context) {
	session, err := h.dutySvc.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleDutyError(c, err)
		return
	}
	response.OK(c, "", gin.H{"session": session})
}

// Stats counts per status.
// GET /api/v1/admin/duty/stats
func (h *DutyHandler) Stats(c *gin.Context) {
	stats, err := h.dutySvc.Stats(c.Request.Context())
	if err != nil {
		h.handleDutyError(c, err)
		return
	}
	response.OK(c, "", gin.H{"stats": stats})
}

// StatusBoard approved staff with their current duty session.
// GET /api/v1/admin/duty/status-board
func (h *DutyHandler) StatusBoard(c *gin.Context) {
	board, err := h.dutySvc.StaffDutyStatus(c.Request.Context())
	if err != nil {
		h.handleDutyError(c, err)
		return
	}
	response.OK(c, "", gin.H{"staff": board.Staff, "counts": board.Counts})
}

// Approve puts the staff member on duty.
// PUT /api/v1/admin/duty/sessions/:id/approve
func (h *DutyHandler) Approve(c *gin.Context) {
	var req dto.ApproveDutyRequest
	if !bindBody(c, &req) {
		return
	}

	session, err := h.dutySvc.Approve(c.Request.Context(), c.Param("id"), actorName(c), req.Notes)
	if err != nil {
		h.handleDutyError(c, err)
		return
	}
	response.OK(c, session.StaffName+" is now approved for duty", gin.H{"session": session})
}

// Reject declines the duty request.
// PUT /api/v1/admin/duty/sessions/:id/reject
func (h *DutyHandler) Reject(c *gin.Context) {
	var req dto.RejectDutyRequest
	if !bindBody(c, &req) {
		return
	}

	session, err := h.dutySvc.Reject(c.Request.Context(), c.Param("id"), actorName(c), req.Reason)
	if err != nil {
		h.handleDutyError(c, err)
		return
	}
	response.OK(c, "Duty request from "+session.StaffName+" has been rejected", gin.H{"session": session})
}

// End force-ends a session on the admin's behalf.
// PUT /api/v1/admin/duty/sessions/:id/end
func (h *DutyHandler) End(c *gin.Context) {
	var req dto.EndDutyRequest
	if !bindBody(c, &req) {
		return
	}

	admin := actorName(c)
	session, err := h.dutySvc.End(c.Request.Context(), c.Param("id"), &admin, req.Notes)
	if err != nil {
		h.handleDutyError(c, err)
		return
	}
	response.OK(c, "Duty session for "+session.StaffName+" has been ended", gin.H{"session": session})
}

// ──────── staff ────────

// MySession the caller's active session.
// GET /api/v1/duty/me
func (h *DutyHandler) MySession(c *gin.Context) {
	staffID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.dutySvc.FindActiveSession(c.Request.Context(), staffID)
	if err != nil {
		if errors.Is(err, service.ErrDutySessionNotFound) {
			response.OK(c, "You are not on duty.", gin.H{"on_duty": false, "session": nil})
			return
		}
		h.handleDutyError(c, err)
		return
	}

	msg := "Your duty session is awaiting admin approval."
	if session.DutyStatus == model.DutyApproved {
		msg = "You are on duty."
	}
	response.OK(c, msg, gin.H{"on_duty": session.DutyStatus == model.DutyApproved, "session": session})
}

// MyHistory the caller's sessions, newest first.
// GET /api/v1/duty/me/history
func (h *DutyHandler) MyHistory(c *gin.Context) {
	staffID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sessions, err := h.dutySvc.ListByStaff(c.Request.Context(), staffID)
	if err != nil {
		h.handleDutyError(c, err)
		return
	}
	response.OK(c, "", gin.H{"sessions": sessions, "count": len(sessions)})
}

func (h *DutyHandler) handleDutyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDutySessionNotFound):
		response.NotFound(c, codeDutyNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, codeDutyInvalidTransition, err.Error())
	case errors.Is(err, service.ErrDutySessionConflict):
		response.Conflict(c, codeDutyConflict, err.Error())
	case errors.Is(err, service.ErrDutySessionActive):
		response.Conflict(c, codeDutyActive, err.Error())
	case errors.Is(err, service.ErrInvalidDutyStatus):
		response.BadRequest(c, codeDutyInvalidStatus, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
