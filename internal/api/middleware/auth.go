package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marvingabia/da-agrimanage-gabia/pkg/jwt"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/response"
)

// Context keys set by Authenticate.
const (
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxUserName  = "user_name"
	CtxUserEmail = "user_email"
	CtxTokenJTI  = "token_jti"
	CtxTokenExp  = "token_exp"

	// AccessTokenCookie cookie read when no Authorization header is present.
	AccessTokenCookie = "access_token"
)

// Business codes for gate denials.
const (
	CodeUnauthenticated = 10002
	CodeForbidden       = 10003
	CodeRateLimited     = 10004
	CodeBodyTooLarge    = 10005
)

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Authenticate resolves the caller from the access token, if any.
// It never aborts: a missing or bad token leaves the context anonymous and the gates decide.
// revoked may be nil, in which case revocation is not checked.
func Authenticate(jwtMgr *jwt.Manager, revoked RevocationChecker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil || !claims.IsAccess() {
			c.Next()
			return
		}

		if revoked != nil && claims.ID != "" {
			blacklisted, err := revoked.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				// degrade open when Redis is unreachable
				logger.Warn("token revocation check failed", zap.Error(err))
			} else if blacklisted {
				c.Next()
				return
			}
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxUserName, claims.Name)
		c.Set(CtxUserEmail, claims.Email)
		c.Set(CtxTokenJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(CtxTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

// RequireRole admits callers whose role is in roles.
//
// Requests under apiPrefix get JSON 401/403 bodies. Interactive requests are redirected to
// loginPath when anonymous, and get the access-denied page when their role is not allowed.
func RequireRole(apiPrefix, loginPath string, roles ...string) gin.HandlerFunc {
	allowed := roleSet(roles)

	return func(c *gin.Context) {
		api := strings.HasPrefix(c.Request.URL.Path, apiPrefix)

		role := c.GetString(CtxRole)
		if role == "" {
			if api {
				response.Unauthorized(c, CodeUnauthenticated, "authentication required")
			} else {
				target := loginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
				c.Redirect(http.StatusFound, target)
			}
			c.Abort()
			return
		}

		if !allowed[role] {
			if api {
				response.Forbidden(c, CodeForbidden, "access denied")
			} else {
				c.Data(http.StatusForbidden, "text/html; charset=utf-8", []byte(accessDeniedPage))
			}
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireExactRole admits one role only and always answers denials with JSON.
func RequireExactRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetString(CtxRole)
		if got == "" {
			response.Unauthorized(c, CodeUnauthenticated, "authentication required")
			c.Abort()
			return
		}
		if got != role {
			response.Forbidden(c, CodeForbidden, "access denied: "+role+" only")
			c.Abort()
			return
		}
		c.Next()
	}
}

func roleSet(roles []string) map[string]bool {
	set := make(map[string]bool, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return set
}

const accessDeniedPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Access Denied | DA AgriManage</title></head>
<body style="font-family: Arial, sans-serif; text-align: center; padding: 60px;">
  <h1 style="color: #2d5016;">Access Denied</h1>
  <p>You do not have permission to view this page.</p>
  <p><a href="/">Return to the home page</a></p>
</body>
</html>`
