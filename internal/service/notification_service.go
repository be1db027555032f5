package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/marvingabia/da-agrimanage-gabia/internal/dto"
	"github.com/marvingabia/da-agrimanage-gabia/internal/model"
	"github.com/marvingabia/da-agrimanage-gabia/internal/repository"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/notify"
)

// Notification types recorded on the audit log.
const (
	NotificationAnnouncement      = "announcement"
	NotificationStaffRegistration = "staff_registration"
)

// Actor who triggered an operation, taken from the caller's token.
type Actor struct {
	ID   string
	Name string
}

// NotificationService per-recipient fan-out with an audit tally.
type NotificationService interface {
	// FanOut sends to every approved, active user in the target group and persists the tally.
	FanOut(ctx context.Context, req *dto.SendNotificationRequest, actor *Actor) (*model.NotificationLog, error)
	// NotifyAdmins e-mails every active admin.
	NotifyAdmins(ctx context.Context, notificationType, subject, body string) (*model.NotificationLog, error)
	ListLogs(ctx context.Context, limit int) ([]model.NotificationLog, error)
}

type notificationService struct {
	repo    *repository.Repository
	gateway notify.Gateway
	logger  *zap.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(repo *repository.Repository, gateway notify.Gateway, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, gateway: gateway, logger: logger}
}

func (s *notificationService) FanOut(ctx context.Context, req *dto.SendNotificationRequest, actor *Actor) (*model.NotificationLog, error) {
	recipients, err := s.resolveRecipients(ctx, req.RecipientType, req.Barangay)
	if err != nil {
		return nil, err
	}

	notificationType := req.NotificationType
	if notificationType == "" {
		notificationType = NotificationAnnouncement
	}

	entry := &model.NotificationLog{
		Subject:          req.Subject,
		Message:          req.Message,
		NotificationType: notificationType,
		RecipientType:    req.RecipientType,
	}
	if req.Barangay != "" {
		entry.Barangay = &req.Barangay
	}
	if actor != nil {
		entry.SentBy = &actor.ID
		entry.SentByName = &actor.Name
	}

	s.deliver(ctx, entry, recipients, req.EmailEnabled(), req.SendSMS)
	return s.record(ctx, entry)
}

func (s *notificationService) NotifyAdmins(ctx context.Context, notificationType, subject, body string) (*model.NotificationLog, error) {
	admins, err := s.repo.User.List(ctx, &repository.UserListFilters{
		Role:   model.RoleAdmin,
		Status: model.UserStatusActive,
	})
	if err != nil {
		s.logger.Error("list admins failed", zap.Error(err))
		return nil, err
	}

	entry := &model.NotificationLog{
		Subject:          subject,
		Message:          body,
		NotificationType: notificationType,
		RecipientType:    model.RoleAdmin,
	}
	s.deliver(ctx, entry, admins, true, false)
	return s.record(ctx, entry)
}

func (s *notificationService) ListLogs(ctx context.Context, limit int) ([]model.NotificationLog, error) {
	logs, err := s.repo.Notification.List(ctx, limit)
	if err != nil {
		s.logger.Error("list notification logs failed", zap.Error(err))
		return nil, err
	}
	if logs == nil {
		logs = []model.NotificationLog{}
	}
	return logs, nil
}

// resolveRecipients approved, active accounts of the group, optionally in one barangay.
func (s *notificationService) resolveRecipients(ctx context.Context, recipientType, barangay string) ([]model.User, error) {
	roles := []string{recipientType}
	if recipientType == dto.RecipientAll {
		roles = []string{model.RoleFarmer, model.RoleStaff}
	}

	approved := true
	var recipients []model.User
	for _, role := range roles {
		users, err := s.repo.User.List(ctx, &repository.UserListFilters{
			Role:     role,
			Approved: &approved,
			Status:   model.UserStatusActive,
			Barangay: barangay,
		})
		if err != nil {
			s.logger.Error("resolve notification recipients failed", zap.String("role", role), zap.Error(err))
			return nil, err
		}
		recipients = append(recipients, users...)
	}
	return recipients, nil
}

// deliver one attempt per channel per recipient; each failed attempt counts once.
func (s *notificationService) deliver(ctx context.Context, entry *model.NotificationLog, recipients []model.User, email, sms bool) {
	entry.TotalRecipients = len(recipients)
	smsText := entry.Subject + "\n\n" + notify.StripHTML(entry.Message)

	for _, u := range recipients {
		if ctx.Err() != nil {
			s.logger.Warn("notification fan-out cancelled",
				zap.String("subject", entry.Subject),
				zap.Int("total", entry.TotalRecipients),
			)
			break
		}

		if email && u.Email != "" {
			if res := s.gateway.SendEmail(ctx, u.Email, entry.Subject, entry.Message); res.Success {
				entry.EmailSent++
			} else {
				entry.Failed++
			}
		}
		if sms && u.Phone != "" {
			if res := s.gateway.SendSMS(ctx, u.Phone, smsText); res.Success {
				entry.SMSSent++
			} else {
				entry.Failed++
			}
		}
	}

	switch {
	case entry.Failed == 0:
		entry.Status = model.NotificationSent
	case entry.EmailSent+entry.SMSSent == 0:
		entry.Status = model.NotificationFailed
	default:
		entry.Status = model.NotificationPartial
	}
}

func (s *notificationService) record(ctx context.Context, entry *model.NotificationLog) (*model.NotificationLog, error) {
	if err := s.repo.Notification.Create(ctx, entry); err != nil {
		s.logger.Error("save notification log failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("notification fan-out finished",
		zap.String("type", entry.NotificationType),
		zap.Int("total", entry.TotalRecipients),
		zap.Int("email_sent", entry.EmailSent),
		zap.Int("sms_sent", entry.SMSSent),
		zap.Int("failed", entry.Failed),
	)
	return entry, nil
}
