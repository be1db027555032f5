package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/marvingabia/da-agrimanage-gabia/internal/dto"
	"github.com/marvingabia/da-agrimanage-gabia/internal/model"
	"github.com/marvingabia/da-agrimanage-gabia/internal/service"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/response"
)

const defaultNotificationListLimit = 50

// NotificationHandler announcement fan-out and its audit log.
type NotificationHandler struct {
	notifySvc service.NotificationService
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(notifySvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifySvc: notifySvc}
}

// Send fans an announcement out to farmers, staff or both.
// POST /api/v1/admin/notifications
func (h *NotificationHandler) Send(c *gin.Context) {
	var req dto.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeValidation, "subject, message and recipient_type are required")
		return
	}

	entry, err := h.notifySvc.FanOut(c.Request.Context(), &req, actor(c))
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	response.OK(c, fanOutMessage(entry), gin.H{"notification": entry})
}

// List recent fan-outs, newest first.
// GET /api/v1/admin/notifications?limit=
func (h *NotificationHandler) List(c *gin.Context) {
	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, codeValidation, "limit must be between 1 and 200")
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultNotificationListLimit
	}

	logs, err := h.notifySvc.ListLogs(c.Request.Context(), req.Limit)
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}
	response.OK(c, "", gin.H{"notifications": logs, "count": len(logs)})
}

func fanOutMessage(n *model.NotificationLog) string {
	if n.TotalRecipients == 0 {
		return "No recipients matched; nothing was sent."
	}
	switch n.Status {
	case model.NotificationFailed:
		return fmt.Sprintf("Notification could not be delivered to any of %d recipients.", n.TotalRecipients)
	case model.NotificationPartial:
		return fmt.Sprintf("Notification sent to %d recipients with %d failed deliveries (%d e-mail, %d SMS delivered).",
			n.TotalRecipients, n.Failed, n.EmailSent, n.SMSSent)
	default:
		return fmt.Sprintf("Notification sent to %d recipients (%d e-mail, %d SMS).",
			n.TotalRecipients, n.EmailSent, n.SMSSent)
	}
}
