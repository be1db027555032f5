package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/marvingabia/da-agrimanage-gabia/internal/dto"
	"github.com/marvingabia/da-agrimanage-gabia/internal/service"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler spreadsheet and calendar downloads.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportDutySessions .xlsx of duty sessions.
// GET /api/v1/admin/duty/export?status=
func (h *ExportHandler) ExportDutySessions(c *gin.Context) {
	var req dto.DutySessionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, codeDutyInvalidStatus, "status must be one of pending, approved, rejected, ended")
		return
	}

	buf, filename, err := h.exportSvc.ExportDutySessions(c.Request.Context(), req.Status)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// MyCalendar iCalendar feed of the caller's duty sessions.
// GET /api/v1/duty/me/calendar.ics
func (h *ExportHandler) MyCalendar(c *gin.Context) {
	staffID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, err := h.exportSvc.DutyCalendar(c.Request.Context(), staffID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="duty.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDutyStatus):
		response.BadRequest(c, codeDutyInvalidStatus, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
