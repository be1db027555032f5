package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marvingabia/da-agrimanage-gabia/internal/dto"
	"github.com/marvingabia/da-agrimanage-gabia/internal/model"
	"github.com/marvingabia/da-agrimanage-gabia/internal/repository"
	pkgerrors "github.com/marvingabia/da-agrimanage-gabia/pkg/errors"
)

// ── Duty session errors ──

var (
	ErrDutySessionNotFound = errors.New("duty session not found")
	ErrInvalidTransition   = errors.New("duty session cannot make this transition from its current status")
	ErrDutySessionActive   = errors.New("staff member already has an active duty session")
	ErrDutySessionConflict = errors.New("duty session was modified concurrently, reload and retry")
	ErrInvalidDutyStatus   = errors.New("unknown duty status")
)

// SupersededEndNotes end_notes on a session closed because its owner logged in again.
const SupersededEndNotes = "superseded by new login"

// DutyService duty session store and lifecycle.
//
// Transitions:
//   - pending  → approved  (Approve)
//   - pending  → rejected  (Reject)
//   - pending | approved → ended (End)
//
// rejected and ended are terminal. Anything else fails with ErrInvalidTransition.
type DutyService interface {
	Create(ctx context.Context, staffID, staffName, staffEmail string) (*model.DutySession, error)
	FindByID(ctx context.Context, id string) (*model.DutySession, error)
	// FindActiveSession the staff member's pending or approved session; ErrDutySessionNotFound when off duty.
	FindActiveSession(ctx context.Context, staffID string) (*model.DutySession, error)
	ListByStatus(ctx context.Context, status model.DutyStatus) ([]model.DutySession, error)
	ListPending(ctx context.Context) ([]model.DutySession, error)
	ListActive(ctx context.Context) ([]model.DutySession, error)
	ListAll(ctx context.Context) ([]model.DutySession, error)
	ListByStaff(ctx context.Context, staffID string) ([]model.DutySession, error)
	Stats(ctx context.Context) (*model.DutyStats, error)

	Approve(ctx context.Context, id, adminName, notes string) (*model.DutySession, error)
	Reject(ctx context.Context, id, adminName, reason string) (*model.DutySession, error)
	// End closes a session. A nil adminName is the staff member's own logout and leaves the ended_* fields unset.
	End(ctx context.Context, id string, adminName *string, notes string) (*model.DutySession, error)

	StaffDutyStatus(ctx context.Context) (*dto.DutyStatusBoard, error)
}

type dutyService struct {
	repo            *repository.Repository
	supersedeActive bool
	logger          *zap.Logger

	// mu serializes read-modify-write on sessions within this process
	mu    sync.Mutex
	clock func() time.Time
}

// NewDutyService creates a DutyService. With supersedeActive a new login ends the staff
// member's previous active session; without it the login is refused.
func NewDutyService(repo *repository.Repository, supersedeActive bool, logger *zap.Logger) DutyService {
	return &dutyService{
		repo:            repo,
		supersedeActive: supersedeActive,
		logger:          logger,
		clock:           time.Now,
	}
}

// ──────── Store ────────

func (s *dutyService) Create(ctx context.Context, staffID, staffName, staffEmail string) (*model.DutySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	session := &model.DutySession{
		ID:         model.NewID(),
		StaffID:    staffID,
		StaffName:  staffName,
		StaffEmail: staffEmail,
		LoginTime:  now,
		DutyStatus: model.DutyPending,
	}

	// supersede and insert commit together or not at all
	prev, err := s.repo.DutySession.OpenSession(ctx, session, func(prev *model.DutySession) error {
		if !s.supersedeActive {
			return ErrDutySessionActive
		}
		prev.DutyStatus = model.DutyEnded
		prev.LogoutTime = &now
		prev.EndNotes = SupersededEndNotes
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDutySessionActive) {
			return nil, err
		}
		return nil, s.persistError("open duty session", session.ID, err)
	}

	if prev != nil {
		s.logger.Info("duty session superseded",
			zap.String("session_id", prev.ID),
			zap.String("staff_id", staffID),
		)
	}
	s.logger.Info("duty session created",
		zap.String("session_id", session.ID),
		zap.String("staff_id", staffID),
	)
	return session, nil
}

func (s *dutyService) FindByID(ctx context.Context, id string) (*model.DutySession, error) {
	session, err := s.repo.DutySession.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDutySessionNotFound
		}
		s.logger.Error("get duty session failed", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}
	return session, nil
}

func (s *dutyService) FindActiveSession(ctx context.Context, staffID string) (*model.DutySession, error) {
	session, err := s.repo.DutySession.FindActiveByStaff(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDutySessionNotFound
		}
		s.logger.Error("find active duty session failed", zap.String("staff_id", staffID), zap.Error(err))
		return nil, err
	}
	return session, nil
}

func (s *dutyService) ListByStatus(ctx context.Context, status model.DutyStatus) ([]model.DutySession, error) {
	if !status.Valid() {
		return nil, ErrInvalidDutyStatus
	}
	return s.list("list duty sessions by status", func() ([]model.DutySession, error) {
		return s.repo.DutySession.ListByStatus(ctx, status)
	})
}

func (s *dutyService) ListPending(ctx context.Context) ([]model.DutySession, error) {
	return s.ListByStatus(ctx, model.DutyPending)
}

func (s *dutyService) ListActive(ctx context.Context) ([]model.DutySession, error) {
	return s.list("list active duty sessions", func() ([]model.DutySession, error) {
		return s.repo.DutySession.ListActive(ctx)
	})
}

func (s *dutyService) ListAll(ctx context.Context) ([]model.DutySession, error) {
	return s.list("list duty sessions", func() ([]model.DutySession, error) {
		return s.repo.DutySession.ListAll(ctx)
	})
}

func (s *dutyService) ListByStaff(ctx context.Context, staffID string) ([]model.DutySession, error) {
	return s.list("list staff duty sessions", func() ([]model.DutySession, error) {
		return s.repo.DutySession.ListByStaff(ctx, staffID)
	})
}

func (s *dutyService) list(op string, fetch func() ([]model.DutySession, error)) ([]model.DutySession, error) {
	sessions, err := fetch()
	if err != nil {
		s.logger.Error(op+" failed", zap.Error(err))
		return nil, err
	}
	if sessions == nil {
		sessions = []model.DutySession{}
	}
	return sessions, nil
}

func (s *dutyService) Stats(ctx context.Context) (*model.DutyStats, error) {
	counts, err := s.repo.DutySession.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("count duty sessions failed", zap.Error(err))
		return nil, err
	}

	stats := &model.DutyStats{
		Pending:  counts[model.DutyPending],
		Approved: counts[model.DutyApproved],
		Rejected: counts[model.DutyRejected],
		Ended:    counts[model.DutyEnded],
	}
	stats.Total = stats.Pending + stats.Approved + stats.Rejected + stats.Ended
	stats.ActiveNow = stats.Approved
	return stats, nil
}

// ──────── Lifecycle ────────

func (s *dutyService) Approve(ctx context.Context, id, adminName, notes string) (*model.DutySession, error) {
	return s.transition(ctx, id, adminName, "approved", []model.DutyStatus{model.DutyPending},
		func(session *model.DutySession, now time.Time) {
			session.DutyStatus = model.DutyApproved
			session.ApprovedBy = &adminName
			session.ApprovedTime = &now
			session.Notes = notes
		})
}

func (s *dutyService) Reject(ctx context.Context, id, adminName, reason string) (*model.DutySession, error) {
	return s.transition(ctx, id, adminName, "rejected", []model.DutyStatus{model.DutyPending},
		func(session *model.DutySession, now time.Time) {
			session.DutyStatus = model.DutyRejected
			session.ApprovedBy = &adminName
			session.ApprovedTime = &now
			session.Notes = reason
			session.LogoutTime = &now
		})
}

func (s *dutyService) End(ctx context.Context, id string, adminName *string, notes string) (*model.DutySession, error) {
	actor := "self"
	if adminName != nil {
		actor = *adminName
	}
	return s.transition(ctx, id, actor, "ended", []model.DutyStatus{model.DutyPending, model.DutyApproved},
		func(session *model.DutySession, now time.Time) {
			session.DutyStatus = model.DutyEnded
			session.LogoutTime = &now
			if adminName != nil {
				by := *adminName
				session.EndedBy = &by
				session.EndedTime = &now
				session.EndNotes = notes
			}
		})
}

// transition loads the session, checks its status against from, applies the change and persists it.
func (s *dutyService) transition(
	ctx context.Context,
	id, actor, verb string,
	from []model.DutyStatus,
	apply func(*model.DutySession, time.Time),
) (*model.DutySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !statusIn(session.DutyStatus, from) {
		s.logger.Info("duty transition refused",
			zap.String("session_id", id),
			zap.String("status", string(session.DutyStatus)),
			zap.String("target", verb),
		)
		return nil, ErrInvalidTransition
	}

	apply(session, s.clock())
	if err := s.repo.DutySession.Update(ctx, session); err != nil {
		return nil, s.persistError("update duty session", id, err)
	}

	s.logger.Info("duty session "+verb,
		zap.String("session_id", session.ID),
		zap.String("staff_id", session.StaffID),
		zap.String("actor", actor),
	)
	return session, nil
}

func (s *dutyService) persistError(op, id string, err error) error {
	switch {
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		s.logger.Warn(op+": version conflict", zap.String("session_id", id))
		return ErrDutySessionConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrDutySessionNotFound
	default:
		s.logger.Error(op+" failed", zap.String("session_id", id), zap.Error(err))
		return err
	}
}

func statusIn(status model.DutyStatus, set []model.DutyStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

// ──────── Status board ────────

func (s *dutyService) StaffDutyStatus(ctx context.Context) (*dto.DutyStatusBoard, error) {
	allStaff, err := s.repo.User.List(ctx, &repository.UserListFilters{Role: model.RoleStaff})
	if err != nil {
		s.logger.Error("list staff failed", zap.Error(err))
		return nil, err
	}

	active, err := s.repo.DutySession.ListActive(ctx)
	if err != nil {
		s.logger.Error("list active duty sessions failed", zap.Error(err))
		return nil, err
	}

	// newest first, so the first session seen per staff wins
	byStaff := make(map[string]*model.DutySession, len(active))
	for i := range active {
		if _, seen := byStaff[active[i].StaffID]; !seen {
			byStaff[active[i].StaffID] = &active[i]
		}
	}

	board := &dto.DutyStatusBoard{
		Staff:  make([]dto.StaffDutyStatus, 0),
		Counts: dto.DutyStatusCounts{TotalStaff: len(allStaff)},
	}
	for _, u := range allStaff {
		if !u.IsApproved {
			continue
		}
		entry := dto.StaffDutyStatus{
			StaffID: u.UserID,
			Name:    u.Name,
			Email:   u.Email,
			Phone:   u.Phone,
		}
		if session, ok := byStaff[u.UserID]; ok {
			entry.Session = session
			entry.OnDuty = session.DutyStatus == model.DutyApproved
			board.Counts.LoggedIn++
			if session.DutyStatus == model.DutyPending {
				board.Counts.PendingApproval++
			}
		}
		board.Staff = append(board.Staff, entry)
	}
	return board, nil
}
