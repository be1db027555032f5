package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marvingabia/da-agrimanage-gabia/internal/model"
	pkgerrors "github.com/marvingabia/da-agrimanage-gabia/pkg/errors"
)

// DutySessionRepository duty session store. Every list is ordered by login_time, newest first.
// Lookups of a missing id return gorm.ErrRecordNotFound regardless of the backing.
type DutySessionRepository interface {
	Create(ctx context.Context, session *model.DutySession) error
	GetByID(ctx context.Context, id string) (*model.DutySession, error)
	// Update persists a transition; pkgerrors.ErrOptimisticLock when session.Version is stale.
	Update(ctx context.Context, session *model.DutySession) error
	// OpenSession inserts next as the staff member's only active session. Every active session
	// the staff member already has is passed to supersede and written back with it, atomically;
	// an error from supersede aborts with nothing written. Returns the newest superseded session, or nil.
	OpenSession(ctx context.Context, next *model.DutySession, supersede func(prev *model.DutySession) error) (*model.DutySession, error)
	// FindActiveByStaff the staff member's newest pending or approved session.
	FindActiveByStaff(ctx context.Context, staffID string) (*model.DutySession, error)
	ListByStatus(ctx context.Context, status model.DutyStatus) ([]model.DutySession, error)
	ListActive(ctx context.Context) ([]model.DutySession, error)
	ListAll(ctx context.Context) ([]model.DutySession, error)
	ListByStaff(ctx context.Context, staffID string) ([]model.DutySession, error)
	CountByStatus(ctx context.Context) (map[model.DutyStatus]int, error)
}

var activeStatuses = []model.DutyStatus{model.DutyPending, model.DutyApproved}

// dutySessionRepo GORM implementation, table duty_sessions.
type dutySessionRepo struct {
	db *gorm.DB
}

// NewDutySessionRepo creates the durable DutySessionRepository.
func NewDutySessionRepo(db *gorm.DB) DutySessionRepository {
	return &dutySessionRepo{db: db}
}

func (r *dutySessionRepo) Create(ctx context.Context, session *model.DutySession) error {
	if session.Version == 0 {
		session.Version = 1
	}
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *dutySessionRepo) GetByID(ctx context.Context, id string) (*model.DutySession, error) {
	var session model.DutySession
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *dutySessionRepo) Update(ctx context.Context, session *model.DutySession) error {
	return updateVersioned(r.db.WithContext(ctx), session)
}

// OpenSession locks the staff account row and its active sessions so concurrent logins of the
// same staff member serialize, even across instances sharing the database.
func (r *dutySessionRepo) OpenSession(ctx context.Context, next *model.DutySession, supersede func(prev *model.DutySession) error) (*model.DutySession, error) {
	var superseded *model.DutySession

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner []string
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Model(&model.User{}).
			Where("id = ?", next.StaffID).
			Pluck("id", &owner).Error; err != nil {
			return err
		}

		var active []model.DutySession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("staff_id = ? AND duty_status IN ?", next.StaffID, activeStatuses).
			Order("login_time DESC").
			Find(&active).Error; err != nil {
			return err
		}

		for i := range active {
			prev := &active[i]
			if err := supersede(prev); err != nil {
				return err
			}
			if err := updateVersioned(tx, prev); err != nil {
				return err
			}
			if superseded == nil {
				superseded = prev
			}
		}

		if next.Version == 0 {
			next.Version = 1
		}
		return tx.Create(next).Error
	})
	if err != nil {
		return nil, err
	}
	return superseded, nil
}

func updateVersioned(db *gorm.DB, session *model.DutySession) error {
	oldVersion := session.Version
	result := db.
		Model(&model.DutySession{}).
		Where("id = ? AND version = ?", session.ID, oldVersion).
		Updates(map[string]interface{}{
			"logout_time":   session.LogoutTime,
			"duty_status":   session.DutyStatus,
			"approved_by":   session.ApprovedBy,
			"approved_time": session.ApprovedTime,
			"notes":         session.Notes,
			"ended_by":      session.EndedBy,
			"ended_time":    session.EndedTime,
			"end_notes":     session.EndNotes,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	session.Version = oldVersion + 1
	return nil
}

func (r *dutySessionRepo) FindActiveByStaff(ctx context.Context, staffID string) (*model.DutySession, error) {
	var session model.DutySession
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND duty_status IN ?", staffID, activeStatuses).
		Order("login_time DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *dutySessionRepo) ListByStatus(ctx context.Context, status model.DutyStatus) ([]model.DutySession, error) {
	return r.list(ctx, r.db.Where("duty_status = ?", status))
}

func (r *dutySessionRepo) ListActive(ctx context.Context) ([]model.DutySession, error) {
	return r.list(ctx, r.db.Where("duty_status IN ?", activeStatuses))
}

func (r *dutySessionRepo) ListAll(ctx context.Context) ([]model.DutySession, error) {
	return r.list(ctx, r.db)
}

func (r *dutySessionRepo) ListByStaff(ctx context.Context, staffID string) ([]model.DutySession, error) {
	return r.list(ctx, r.db.Where("staff_id = ?", staffID))
}

func (r *dutySessionRepo) list(ctx context.Context, scope *gorm.DB) ([]model.DutySession, error) {
	var sessions []model.DutySession
	err := scope.WithContext(ctx).
		Order("login_time DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *dutySessionRepo) CountByStatus(ctx context.Context) (map[model.DutyStatus]int, error) {
	var rows []struct {
		DutyStatus model.DutyStatus
		N          int
	}
	err := r.db.WithContext(ctx).
		Model(&model.DutySession{}).
		Select("duty_status, COUNT(*) AS n").
		Group("duty_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.DutyStatus]int, len(rows))
	for _, row := range rows {
		counts[row.DutyStatus] = row.N
	}
	return counts, nil
}
