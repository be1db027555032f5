package repository

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/marvingabia/da-agrimanage-gabia/internal/model"
	pkgerrors "github.com/marvingabia/da-agrimanage-gabia/pkg/errors"
)

type memoryEntry struct {
	session *model.DutySession
	seq     uint64 // insertion order, breaks login_time ties
}

// MemoryDutySessionRepo volatile DutySessionRepository: a map keyed by id.
// Sessions do not survive a restart and are not shared between instances.
type MemoryDutySessionRepo struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	nextSeq uint64
}

// NewMemoryDutySessionRepo creates an empty in-process store.
func NewMemoryDutySessionRepo() *MemoryDutySessionRepo {
	return &MemoryDutySessionRepo{entries: make(map[string]*memoryEntry)}
}

func (r *MemoryDutySessionRepo) Create(_ context.Context, session *model.DutySession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == "" {
		session.ID = model.NewID()
	}
	if session.Version == 0 {
		session.Version = 1
	}
	r.nextSeq++
	r.entries[session.ID] = &memoryEntry{session: session.Clone(), seq: r.nextSeq}
	return nil
}

func (r *MemoryDutySessionRepo) GetByID(_ context.Context, id string) (*model.DutySession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e.session.Clone(), nil
}

func (r *MemoryDutySessionRepo) Update(_ context.Context, session *model.DutySession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[session.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if e.session.Version != session.Version {
		return pkgerrors.ErrOptimisticLock
	}

	session.Version++
	stored := session.Clone()
	// identity and login snapshot are immutable
	stored.StaffID = e.session.StaffID
	stored.StaffName = e.session.StaffName
	stored.StaffEmail = e.session.StaffEmail
	stored.LoginTime = e.session.LoginTime
	e.session = stored
	return nil
}

// OpenSession stages every change before applying any, all under the write lock.
func (r *MemoryDutySessionRepo) OpenSession(_ context.Context, next *model.DutySession, supersede func(prev *model.DutySession) error) (*model.DutySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := r.matchLocked(func(s *model.DutySession) bool {
		return s.StaffID == next.StaffID && s.IsActive()
	})

	staged := make([]*model.DutySession, 0, len(active))
	for _, e := range active {
		prev := e.session.Clone()
		if err := supersede(prev); err != nil {
			return nil, err
		}
		prev.Version = e.session.Version + 1
		staged = append(staged, prev)
	}

	for i, e := range active {
		stored := staged[i].Clone()
		stored.StaffID = e.session.StaffID
		stored.StaffName = e.session.StaffName
		stored.StaffEmail = e.session.StaffEmail
		stored.LoginTime = e.session.LoginTime
		e.session = stored
	}

	if next.ID == "" {
		next.ID = model.NewID()
	}
	if next.Version == 0 {
		next.Version = 1
	}
	r.nextSeq++
	r.entries[next.ID] = &memoryEntry{session: next.Clone(), seq: r.nextSeq}

	if len(staged) == 0 {
		return nil, nil
	}
	return staged[0], nil
}

func (r *MemoryDutySessionRepo) FindActiveByStaff(_ context.Context, staffID string) (*model.DutySession, error) {
	found := r.collect(func(s *model.DutySession) bool {
		return s.StaffID == staffID && s.IsActive()
	})
	if len(found) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &found[0], nil
}

func (r *MemoryDutySessionRepo) ListByStatus(_ context.Context, status model.DutyStatus) ([]model.DutySession, error) {
	return r.collect(func(s *model.DutySession) bool { return s.DutyStatus == status }), nil
}

func (r *MemoryDutySessionRepo) ListActive(_ context.Context) ([]model.DutySession, error) {
	return r.collect((*model.DutySession).IsActive), nil
}

func (r *MemoryDutySessionRepo) ListAll(_ context.Context) ([]model.DutySession, error) {
	return r.collect(func(*model.DutySession) bool { return true }), nil
}

func (r *MemoryDutySessionRepo) ListByStaff(_ context.Context, staffID string) ([]model.DutySession, error) {
	return r.collect(func(s *model.DutySession) bool { return s.StaffID == staffID }), nil
}

func (r *MemoryDutySessionRepo) CountByStatus(_ context.Context) (map[model.DutyStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[model.DutyStatus]int)
	for _, e := range r.entries {
		counts[e.session.DutyStatus]++
	}
	return counts, nil
}

// collect copies matching sessions ordered by login_time descending, newest insert first on ties.
func (r *MemoryDutySessionRepo) collect(match func(*model.DutySession) bool) []model.DutySession {
	r.mu.RLock()
	matched := r.matchLocked(match)
	r.mu.RUnlock()

	result := make([]model.DutySession, 0, len(matched))
	for _, e := range matched {
		result = append(result, *e.session.Clone())
	}
	return result
}

// matchLocked sorted matching entries; the caller holds r.mu.
func (r *MemoryDutySessionRepo) matchLocked(match func(*model.DutySession) bool) []*memoryEntry {
	matched := make([]*memoryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if match(e.session) {
			matched = append(matched, e)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.session.LoginTime.Equal(b.session.LoginTime) {
			return a.session.LoginTime.After(b.session.LoginTime)
		}
		return a.seq > b.seq
	})
	return matched
}
