package service

import (
	"context"
	"errors"
	"fmt"
	"html"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marvingabia/da-agrimanage-gabia/internal/model"
	"github.com/marvingabia/da-agrimanage-gabia/internal/repository"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/notify"
)

var (
	// ErrStaffNotFound no staff account with the given id.
	ErrStaffNotFound = errors.New("staff member not found")
	// ErrStaffNotPending the account was already approved and can no longer be rejected.
	ErrStaffNotPending = errors.New("staff account is already approved")
)

// StaffApprovalService admin gate on staff self-registration.
//
// A registered staff account cannot sign in until approved. Approval flips is_approved;
// rejection deletes the account, so the applicant has to register again.
type StaffApprovalService interface {
	ListPending(ctx context.Context) ([]model.User, error)
	ListApproved(ctx context.Context) ([]model.User, error)
	Approve(ctx context.Context, staffID, adminName string) (*model.User, error)
	// Reject deletes a pending applicant and returns the record as it was before deletion.
	// Approved accounts are refused with ErrStaffNotPending.
	Reject(ctx context.Context, staffID, adminName, reason string) (*model.User, error)
}

type staffApprovalService struct {
	repo          *repository.Repository
	mailer        notify.EmailSender
	sendDecisions bool
	logger        *zap.Logger
}

// NewStaffApprovalService creates a StaffApprovalService. mailer may be nil when decisions are not e-mailed.
func NewStaffApprovalService(repo *repository.Repository, mailer notify.EmailSender, sendDecisions bool, logger *zap.Logger) StaffApprovalService {
	return &staffApprovalService{
		repo:          repo,
		mailer:        mailer,
		sendDecisions: sendDecisions && mailer != nil,
		logger:        logger,
	}
}

func (s *staffApprovalService) ListPending(ctx context.Context) ([]model.User, error) {
	pending := false
	return s.listStaff(ctx, &pending)
}

func (s *staffApprovalService) ListApproved(ctx context.Context) ([]model.User, error) {
	approved := true
	return s.listStaff(ctx, &approved)
}

func (s *staffApprovalService) listStaff(ctx context.Context, approved *bool) ([]model.User, error) {
	users, err := s.repo.User.List(ctx, &repository.UserListFilters{Role: model.RoleStaff, Approved: approved})
	if err != nil {
		s.logger.Error("list staff accounts failed", zap.Error(err))
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (s *staffApprovalService) Approve(ctx context.Context, staffID, adminName string) (*model.User, error) {
	user, err := s.getStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}

	// already approved: nothing to write, nobody to tell
	if user.IsApproved {
		return user, nil
	}

	user.IsApproved = true
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("approve staff failed", zap.String("staff_id", staffID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("staff account approved",
		zap.String("staff_id", staffID),
		zap.String("admin", adminName),
	)
	s.notifyDecision(ctx, user, "Your staff account has been approved",
		fmt.Sprintf("<p>Hello %s,</p><p>Your staff registration was approved by %s. You can now log in to DA AgriManage.</p>",
			html.EscapeString(user.Name), html.EscapeString(adminName)))
	return user, nil
}

func (s *staffApprovalService) Reject(ctx context.Context, staffID, adminName, reason string) (*model.User, error) {
	user, err := s.getStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if !user.IsPendingStaff() {
		return nil, ErrStaffNotPending
	}

	if err := s.repo.User.Delete(ctx, staffID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		s.logger.Error("reject staff failed", zap.String("staff_id", staffID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("staff account rejected",
		zap.String("staff_id", staffID),
		zap.String("admin", adminName),
		zap.String("reason", reason),
	)

	body := fmt.Sprintf("<p>Hello %s,</p><p>Your staff registration was not approved.</p>", html.EscapeString(user.Name))
	if reason != "" {
		body += fmt.Sprintf("<p>Reason: %s</p>", html.EscapeString(reason))
	}
	body += "<p>You may register again once the issue has been resolved.</p>"
	s.notifyDecision(ctx, user, "Your staff registration was not approved", body)
	return user, nil
}

func (s *staffApprovalService) getStaff(ctx context.Context, staffID string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		s.logger.Error("get staff failed", zap.String("staff_id", staffID), zap.Error(err))
		return nil, err
	}
	if user.Role != model.RoleStaff {
		return nil, ErrStaffNotFound
	}
	return user, nil
}

// notifyDecision best-effort; the outcome never changes the decision.
func (s *staffApprovalService) notifyDecision(ctx context.Context, user *model.User, subject, body string) {
	if !s.sendDecisions || user.Email == "" {
		return
	}
	res := s.mailer.SendEmail(ctx, user.Email, subject, body)
	if !res.Success {
		s.logger.Warn("staff decision e-mail not delivered",
			zap.String("staff_id", user.UserID),
			zap.String("error", res.Error),
		)
	}
}
