package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the failure envelope: {"success": false, "code": ..., "error": ...}.
type ErrorBody struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Error   string `json:"error"`
}

// ── success ──

// OK 200 with a display message and named payload fields,
// e.g. {"success": true, "message": "...", "session": {...}}.
func OK(c *gin.Context, message string, payload gin.H) {
	c.JSON(http.StatusOK, envelope(message, payload))
}

// Created 201
func Created(c *gin.Context, message string, payload gin.H) {
	c.JSON(http.StatusCreated, envelope(message, payload))
}

func envelope(message string, payload gin.H) gin.H {
	body := gin.H{"success": true, "message": message}
	for k, v := range payload {
		if k == "success" || k == "message" {
			continue
		}
		body[k] = v
	}
	return body
}

// ── failure ──

// Error generic failure response.
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, ErrorBody{
		Success: false,
		Code:    code,
		Error:   message,
	})
}

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// Conflict 409
func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, 50000, "Internal server error. Please try again later.")
}
