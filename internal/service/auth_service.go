package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/marvingabia/da-agrimanage-gabia/config"
	"github.com/marvingabia/da-agrimanage-gabia/internal/dto"
	"github.com/marvingabia/da-agrimanage-gabia/internal/model"
	"github.com/marvingabia/da-agrimanage-gabia/internal/repository"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/jwt"
)

// ── Auth errors ──

var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrStaffPendingApproval = errors.New("your staff registration is pending admin approval; you will be able to log in once an administrator approves your account")
	ErrAccountInactive      = errors.New("your account is not active, please contact the administrator")
	ErrRoleMismatch         = errors.New("this account is not registered under the selected role")
	ErrEmailExists          = errors.New("email is already registered")
	ErrUserNotFound         = errors.New("user not found")
)

// TokenRevoker blacklists an access token id until it would have expired anyway.
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// SessionToken the parts of the caller's token that logout needs.
type SessionToken struct {
	UserID    string
	Role      string
	JTI       string
	ExpiresAt time.Time
}

// AuthService registration, login and logout.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	// Login checks the password before the approval gate, so a wrong password never reveals a pending account.
	// A successful staff login opens a duty session.
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	// Logout revokes the token and, for staff, ends their active duty session.
	Logout(ctx context.Context, token *SessionToken) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type authService struct {
	cfg      *config.Config
	repo     *repository.Repository
	jwtMgr   *jwt.Manager
	duty     DutyService
	notifier NotificationService
	revoker  TokenRevoker
	logger   *zap.Logger

	bcryptCost int
}

// NewAuthService creates an AuthService. revoker may be nil when Redis is not available.
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	duty DutyService,
	notifier NotificationService,
	revoker TokenRevoker,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:        cfg,
		repo:       repo,
		jwtMgr:     jwtMgr,
		duty:       duty,
		notifier:   notifier,
		revoker:    revoker,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := normalizeEmail(req.Email)

	// 1. Email uniqueness
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("lookup email failed", zap.Error(err))
		return nil, err
	}

	// 2. Hash
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	// 3. Staff wait for approval, farmers do not
	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(req.Phone),
		Barangay:     strings.TrimSpace(req.Barangay),
		Role:         req.Role,
		IsApproved:   req.Role != model.RoleStaff,
		Status:       model.UserStatusActive,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("create user failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role),
		zap.Bool("approved", user.IsApproved),
	)

	if user.IsPendingStaff() {
		s.alertAdmins(ctx, user)
	}

	return &dto.RegisterResponse{
		User:            dto.ToUserResponse(user),
		PendingApproval: user.IsPendingStaff(),
	}, nil
}

// alertAdmins best-effort; registration succeeds regardless.
func (s *authService) alertAdmins(ctx context.Context, user *model.User) {
	if !s.cfg.Notify.AdminRegistrationAlerts || s.notifier == nil {
		return
	}

	subject := "New staff registration awaiting approval"
	body := fmt.Sprintf(
		"<p>A new staff account was registered and needs your approval.</p>"+
			"<p><strong>Name:</strong> %s<br><strong>Email:</strong> %s</p>"+
			"<p>Review it under Staff Management in the admin dashboard.</p>",
		html.EscapeString(user.Name), html.EscapeString(user.Email),
	)
	if _, err := s.notifier.NotifyAdmins(ctx, NotificationStaffRegistration, subject, body); err != nil {
		s.logger.Warn("registration alert not sent", zap.String("user_id", user.UserID), zap.Error(err))
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 1. Look up
	user, err := s.repo.User.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("lookup user failed", zap.Error(err))
		return nil, err
	}

	// 2. Password (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. Gates
	if user.IsPendingStaff() {
		return nil, ErrStaffPendingApproval
	}
	if !user.IsActive() {
		return nil, ErrAccountInactive
	}
	if req.Role != "" && req.Role != user.Role {
		return nil, ErrRoleMismatch
	}

	// 4. Token
	token, err := s.jwtMgr.GenerateAccessToken(jwt.Identity{
		UserID: user.UserID,
		Role:   user.Role,
		Name:   user.Name,
		Email:  user.Email,
	})
	if err != nil {
		s.logger.Error("generate access token failed", zap.Error(err))
		return nil, err
	}

	resp := &dto.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:        dto.ToUserResponse(user),
	}

	// 5. Staff go on duty pending admin approval
	if user.Role == model.RoleStaff {
		session, err := s.duty.Create(ctx, user.UserID, user.Name, user.Email)
		if err != nil {
			return nil, err
		}
		resp.DutySessionID = session.ID
	}

	return resp, nil
}

func (s *authService) Logout(ctx context.Context, token *SessionToken) error {
	if s.revoker != nil && token.JTI != "" {
		if ttl := time.Until(token.ExpiresAt); ttl > 0 {
			if err := s.revoker.BlacklistToken(ctx, token.JTI, ttl); err != nil {
				s.logger.Warn("revoke access token failed", zap.String("user_id", token.UserID), zap.Error(err))
			}
		}
	}

	if token.Role != model.RoleStaff {
		return nil
	}

	session, err := s.duty.FindActiveSession(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, ErrDutySessionNotFound) {
			return nil
		}
		return err
	}
	if _, err := s.duty.End(ctx, session.ID, nil, ""); err != nil && !errors.Is(err, ErrInvalidTransition) {
		return err
	}
	return nil
}

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("get user failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	resp := dto.ToUserResponse(user)
	return &resp, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
