package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/marvingabia/da-agrimanage-gabia/config"
	"github.com/marvingabia/da-agrimanage-gabia/internal/repository"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/jwt"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/notify"
)

// Service aggregates every service.
type Service struct {
	Auth         AuthService
	Duty         DutyService
	Staff        StaffApprovalService
	Notification NotificationService
	Export       ExportService
}

// NewService wires the services. revoker may be nil.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	gateway notify.Gateway,
	revoker TokenRevoker,
	logger *zap.Logger,
) *Service {
	loc, err := time.LoadLocation(cfg.Database.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, exports use UTC", zap.String("timezone", cfg.Database.Timezone))
		loc = time.UTC
	}

	duty := NewDutyService(repo, cfg.Duty.SupersedeActive, logger.Named("duty"))
	notification := NewNotificationService(repo, gateway, logger.Named("notify"))

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, duty, notification, revoker, logger.Named("auth")),
		Duty:         duty,
		Staff:        NewStaffApprovalService(repo, gateway, cfg.Notify.StaffDecisions, logger.Named("staff")),
		Notification: notification,
		Export:       NewExportService(duty, loc, logger.Named("export")),
	}
}
