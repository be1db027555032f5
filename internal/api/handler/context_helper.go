package handler

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marvingabia/da-agrimanage-gabia/internal/api/middleware"
	"github.com/marvingabia/da-agrimanage-gabia/internal/service"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/response"
)

// MustGetUserID reads user_id set by Authenticate.
// It writes a 401 and returns false when absent; callers return immediately.
func MustGetUserID(c *gin.Context) (string, bool) {
	uid := c.GetString(middleware.CtxUserID)
	if uid == "" {
		response.Unauthorized(c, codeUnauthenticated, "authentication required")
		return "", false
	}
	return uid, true
}

// actorName display name of the caller, used to stamp approvals. Falls back to the email.
func actorName(c *gin.Context) string {
	if name := c.GetString(middleware.CtxUserName); name != "" {
		return name
	}
	if email := c.GetString(middleware.CtxUserEmail); email != "" {
		return email
	}
	return "admin"
}

func actor(c *gin.Context) *service.Actor {
	return &service.Actor{
		ID:   c.GetString(middleware.CtxUserID),
		Name: actorName(c),
	}
}

// sessionToken what logout needs from the caller's token.
func sessionToken(c *gin.Context) *service.SessionToken {
	tok := &service.SessionToken{
		UserID: c.GetString(middleware.CtxUserID),
		Role:   c.GetString(middleware.CtxRole),
		JTI:    c.GetString(middleware.CtxTokenJTI),
	}
	if v, ok := c.Get(middleware.CtxTokenExp); ok {
		if exp, ok := v.(time.Time); ok {
			tok.ExpiresAt = exp
		}
	}
	return tok
}

// bindBody binds an optional JSON body; an empty body is not an error,
// whether announced by Content-Length: 0 or a chunked request that carries nothing.
func bindBody(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		response.BadRequest(c, codeValidation, "invalid request body")
		return false
	}
	return true
}
