package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marvingabia/da-agrimanage-gabia/config"
	"github.com/marvingabia/da-agrimanage-gabia/internal/model"
	"github.com/marvingabia/da-agrimanage-gabia/internal/repository"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/jwt"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/notify"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user id
	seq   int
	err   error // returned by every call when set
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if m.err != nil {
		return m.err
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	if user.UserID == "" {
		user.UserID = model.NewID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if m.err != nil {
		return m.err
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, f *repository.UserListFilters) ([]model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.User
	for _, u := range m.users {
		if f != nil {
			if f.Role != "" && u.Role != f.Role {
				continue
			}
			if f.Approved != nil && u.IsApproved != *f.Approved {
				continue
			}
			if f.Status != "" && u.Status != f.Status {
				continue
			}
			if f.Barangay != "" && u.Barangay != f.Barangay {
				continue
			}
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// ── Mock NotificationLogRepository ──

type mockNotificationRepo struct {
	logs []model.NotificationLog
	err  error
}

func (m *mockNotificationRepo) Create(_ context.Context, log *model.NotificationLog) error {
	if m.err != nil {
		return m.err
	}
	if log.ID == "" {
		log.ID = model.NewID()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockNotificationRepo) List(_ context.Context, limit int) ([]model.NotificationLog, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]model.NotificationLog, 0, len(m.logs))
	for i := len(m.logs) - 1; i >= 0; i-- {
		out = append(out, m.logs[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ── Failing DutySessionRepository ──

// failingDutyRepo wraps the in-memory store and injects an error on chosen operations.
type failingDutyRepo struct {
	*repository.MemoryDutySessionRepo
	updateErr error
	listErr   error
	insertErr error
}

func (f *failingDutyRepo) Update(ctx context.Context, s *model.DutySession) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.MemoryDutySessionRepo.Update(ctx, s)
}

// OpenSession runs the real supersede step and then fails the insert, so nothing may be kept.
func (f *failingDutyRepo) OpenSession(ctx context.Context, next *model.DutySession, supersede func(prev *model.DutySession) error) (*model.DutySession, error) {
	if f.insertErr == nil {
		return f.MemoryDutySessionRepo.OpenSession(ctx, next, supersede)
	}
	return f.MemoryDutySessionRepo.OpenSession(ctx, next, func(prev *model.DutySession) error {
		if err := supersede(prev); err != nil {
			return err
		}
		return f.insertErr
	})
}

func (f *failingDutyRepo) ListAll(ctx context.Context) ([]model.DutySession, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.MemoryDutySessionRepo.ListAll(ctx)
}

// ── Fake gateway ──

type sentMessage struct {
	Channel string
	To      string
	Subject string
	Body    string
}

// fakeGateway records every send; addresses in fail are refused.
type fakeGateway struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]bool
}

func newFakeGateway(fail ...string) *fakeGateway {
	g := &fakeGateway{fail: make(map[string]bool)}
	for _, f := range fail {
		g.fail[f] = true
	}
	return g
}

func (g *fakeGateway) SendEmail(_ context.Context, to, subject, body string) notify.Result {
	return g.record(sentMessage{Channel: "email", To: to, Subject: subject, Body: body})
}

func (g *fakeGateway) SendSMS(_ context.Context, to, text string) notify.Result {
	return g.record(sentMessage{Channel: "sms", To: to, Body: text})
}

func (g *fakeGateway) record(m sentMessage) notify.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail[m.To] {
		return notify.Result{Success: false, Error: "refused"}
	}
	g.sent = append(g.sent, m)
	return notify.Result{Success: true, ID: "fake-" + m.To}
}

func (g *fakeGateway) sentTo(channel string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, m := range g.sent {
		if m.Channel == channel {
			out = append(out, m.To)
		}
	}
	return out
}

// ── Fake token revoker ──

type fakeRevoker struct {
	revoked map[string]time.Duration
}

func (r *fakeRevoker) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if r.revoked == nil {
		r.revoked = make(map[string]time.Duration)
	}
	r.revoked[jti] = ttl
	return nil
}

// ── Fixture ──

type testEnv struct {
	repo    *repository.Repository
	users   *mockUserRepo
	notes   *mockNotificationRepo
	gateway *fakeGateway
	revoker *fakeRevoker
	cfg     *config.Config
	jwtMgr  *jwt.Manager
	svc     *Service
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret-key-0123456789",
			AccessTokenTTL: time.Hour,
		},
		Database: config.DatabaseConfig{Timezone: "UTC"},
		Duty:     config.DutyConfig{Store: config.DutyStoreMemory, SupersedeActive: true},
		Notify:   config.NotifyConfig{StaffDecisions: true, AdminRegistrationAlerts: true},
	}
}

func newTestEnv(cfg *config.Config, failAddresses ...string) *testEnv {
	env := &testEnv{
		users:   newMockUserRepo(),
		notes:   &mockNotificationRepo{},
		gateway: newFakeGateway(failAddresses...),
		revoker: &fakeRevoker{},
		cfg:     cfg,
		jwtMgr:  jwt.NewManager(&cfg.Auth),
	}
	env.repo = &repository.Repository{
		User:         env.users,
		DutySession:  repository.NewMemoryDutySessionRepo(),
		Notification: env.notes,
	}
	env.svc = NewService(cfg, env.repo, env.jwtMgr, env.gateway, env.revoker, zap.NewNop())
	// cheap hashing for tests
	env.svc.Auth.(*authService).bcryptCost = 4
	return env
}

func (e *testEnv) seedUser(name, email, role string, approved bool) *model.User {
	u := &model.User{
		Name:       name,
		Email:      email,
		Role:       role,
		IsApproved: approved,
		Status:     model.UserStatusActive,
	}
	_ = e.users.Create(context.Background(), u)
	return u
}
