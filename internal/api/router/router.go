package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marvingabia/da-agrimanage-gabia/config"
	"github.com/marvingabia/da-agrimanage-gabia/internal/api/handler"
	"github.com/marvingabia/da-agrimanage-gabia/internal/api/middleware"
	"github.com/marvingabia/da-agrimanage-gabia/internal/dto"
	"github.com/marvingabia/da-agrimanage-gabia/internal/model"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/jwt"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/redis"
)

const (
	maxBodyBytes = 1 << 20

	loginRateLimit    = 10
	registerRateLimit = 5
	rateLimitWindow   = time.Minute
)

// Setup builds the gin engine. rdb may be nil; revocation and rate limiting are then skipped.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := dto.RegisterValidators(); err != nil {
		return nil, err
	}

	// keep the interfaces nil rather than wrapping a nil *redis.Client
	var (
		revocations middleware.RevocationChecker
		limiter     middleware.RateLimiter
	)
	if rdb != nil {
		revocations = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))
	r.Use(middleware.Authenticate(jwtMgr, revocations, logger))

	// ── health ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── interactive admin page ──
	r.GET("/admin", middleware.RequireRole(cfg.Server.APIPrefix, cfg.Server.LoginPath, model.RoleAdmin), func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(adminPage))
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(limiter, loginRateLimit, rateLimitWindow), h.Auth.Login)
			auth.POST("/register", middleware.RateLimit(limiter, registerRateLimit, rateLimitWindow), h.Auth.Register)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.RequireRole(cfg.Server.APIPrefix, cfg.Server.LoginPath, model.RoleAdmin, model.RoleStaff, model.RoleFarmer))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
		}

		// staff's own duty view
		duty := v1.Group("/duty")
		duty.Use(middleware.RequireExactRole(model.RoleStaff))
		{
			duty.GET("/me", h.Duty.MySession)
			duty.GET("/me/history", h.Duty.MyHistory)
			duty.GET("/me/calendar.ics", h.Export.MyCalendar)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireExactRole(model.RoleAdmin))
		{
			dutyAdmin := admin.Group("/duty")
			{
				dutyAdmin.GET("/sessions", h.Duty.ListSessions)
				dutyAdmin.GET("/sessions/pending", h.Duty.ListPending)
				dutyAdmin.GET("/sessions/active", h.Duty.ListActive)
				dutyAdmin.GET("/sessions/:id", h.Duty.GetSession)
				dutyAdmin.PUT("/sessions/:id/approve", h.Duty.Approve)
				dutyAdmin.PUT("/sessions/:id/reject", h.Duty.Reject)
				dutyAdmin.PUT("/sessions/:id/end", h.Duty.End)
				dutyAdmin.GET("/stats", h.Duty.Stats)
				dutyAdmin.GET("/status-board", h.Duty.StatusBoard)
				dutyAdmin.GET("/export", h.Export.ExportDutySessions)
			}

			staff := admin.Group("/staff")
			{
				staff.GET("", h.Staff.ListApproved)
				staff.GET("/pending", h.Staff.ListPending)
				staff.POST("/:id/approve", h.Staff.Approve)
				staff.POST("/:id/reject", h.Staff.Reject)
			}

			notifications := admin.Group("/notifications")
			{
				notifications.POST("", h.Notification.Send)
				notifications.GET("", h.Notification.List)
			}
		}
	}

	return r, nil
}

const adminPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Admin | DA AgriManage</title></head>
<body style="font-family: Arial, sans-serif; padding: 40px;">
  <h1 style="color: #2d5016;">DA AgriManage Administration</h1>
  <p>Duty sessions, staff approvals and announcements are managed through /api/v1/admin.</p>
</body>
</html>`
