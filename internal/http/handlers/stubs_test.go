package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/aura-backend/internal/domain"
	"github.com/tbourn/aura-backend/internal/services"
)

// ---- stubs ----

type stubUsers struct {
	registerFn   func(services.RegisterInput) (*domain.User, error)
	loginFn      func(services.LoginInput) (*services.Session, error)
	getFn        func(uint) (*services.Profile, error)
	updateFn     func(uint, services.UpdateUserInput) (*services.Profile, error)
	deactivateFn func(uint) error
}

func (s *stubUsers) Register(_ context.Context, in services.RegisterInput) (*domain.User, error) {
	return s.registerFn(in)
}
func (s *stubUsers) Login(_ context.Context, in services.LoginInput) (*services.Session, error) {
	return s.loginFn(in)
}
func (s *stubUsers) Get(_ context.Context, id uint) (*services.Profile, error) { return s.getFn(id) }
func (s *stubUsers) Update(_ context.Context, id uint, in services.UpdateUserInput) (*services.Profile, error) {
	return s.updateFn(id, in)
}
func (s *stubUsers) Deactivate(_ context.Context, id uint) error { return s.deactivateFn(id) }

type stubTeams struct {
	createFn  func(uint, services.CreateTeamInput) (*domain.Team, error)
	joinFn    func(uint, uint, services.JoinTeamInput) (*domain.Team, error)
	leaveFn   func(uint) error
	updateFn  func(uint, uint, services.UpdateTeamInput) (*domain.Team, error)
	deleteFn  func(uint, uint) error
	addFn     func(uint, services.AddMemberInput) (*domain.Team, error)
	removeFn  func(uint, uint) error
	getFn     func(uint) (*domain.Team, error)
	listFn    func(int, int) ([]domain.Team, int64, error)
	count     int64
	latest    *time.Time
	listCalls int
}

func (s *stubTeams) CreateTeam(_ context.Context, uid uint, in services.CreateTeamInput) (*domain.Team, error) {
	return s.createFn(uid, in)
}
func (s *stubTeams) JoinTeam(_ context.Context, uid, tid uint, in services.JoinTeamInput) (*domain.Team, error) {
	return s.joinFn(uid, tid, in)
}
func (s *stubTeams) LeaveTeam(_ context.Context, uid uint) error { return s.leaveFn(uid) }
func (s *stubTeams) UpdateTeam(_ context.Context, tid, rid uint, in services.UpdateTeamInput) (*domain.Team, error) {
	return s.updateFn(tid, rid, in)
}
func (s *stubTeams) DeleteTeam(_ context.Context, tid, rid uint) error { return s.deleteFn(tid, rid) }
func (s *stubTeams) AddMember(_ context.Context, mid uint, in services.AddMemberInput) (*domain.Team, error) {
	return s.addFn(mid, in)
}
func (s *stubTeams) RemoveMember(_ context.Context, mid, uid uint) error { return s.removeFn(mid, uid) }
func (s *stubTeams) GetTeam(_ context.Context, tid uint) (*domain.Team, error) { return s.getFn(tid) }
func (s *stubTeams) ListTeams(_ context.Context, p, size int) ([]domain.Team, int64, error) {
	s.listCalls++
	return s.listFn(p, size)
}
func (s *stubTeams) TeamsStats(context.Context) (int64, *time.Time, error) {
	return s.count, s.latest, nil
}

type stubRecognitions struct {
	createFn    func(uint, services.RecognitionInput) (*domain.Recognition, error)
	batchFn     func(uint, []services.RecognitionInput) (*services.BatchResult, error)
	getFn       func(uint) (*domain.Recognition, error)
	deleteFn    func(uint, uint) error
	listFn      func(uint, int, int) ([]domain.Recognition, int64, error)
	createCalls int
	lastList    string
}

func (s *stubRecognitions) Create(_ context.Context, gid uint, in services.RecognitionInput) (*domain.Recognition, error) {
	s.createCalls++
	return s.createFn(gid, in)
}
func (s *stubRecognitions) CreateBatch(_ context.Context, gid uint, items []services.RecognitionInput) (*services.BatchResult, error) {
	s.createCalls++
	return s.batchFn(gid, items)
}
func (s *stubRecognitions) Get(_ context.Context, id uint) (*domain.Recognition, error) {
	return s.getFn(id)
}
func (s *stubRecognitions) Delete(_ context.Context, id, rid uint) error { return s.deleteFn(id, rid) }
func (s *stubRecognitions) ListSent(_ context.Context, uid uint, p, size int) ([]domain.Recognition, int64, error) {
	s.lastList = "sent"
	return s.listFn(uid, p, size)
}
func (s *stubRecognitions) ListReceived(_ context.Context, uid uint, p, size int) ([]domain.Recognition, int64, error) {
	s.lastList = "received"
	return s.listFn(uid, p, size)
}

type stubSentiments struct {
	createFn func(uint, services.SentimentInput) (*domain.SentimentEntry, error)
	getFn    func(uint, uint) (*domain.SentimentEntry, error)
	deleteFn func(uint, uint) error
	listFn   func(uint, int, int) ([]domain.SentimentEntry, int64, error)
}

func (s *stubSentiments) Create(_ context.Context, uid uint, in services.SentimentInput) (*domain.SentimentEntry, error) {
	return s.createFn(uid, in)
}
func (s *stubSentiments) Get(_ context.Context, id, rid uint) (*domain.SentimentEntry, error) {
	return s.getFn(id, rid)
}
func (s *stubSentiments) Delete(_ context.Context, id, rid uint) error { return s.deleteFn(id, rid) }
func (s *stubSentiments) List(_ context.Context, uid uint, p, size int) ([]domain.SentimentEntry, int64, error) {
	return s.listFn(uid, p, size)
}

type stubReports struct {
	personalFn     func(uint) (*domain.PersonalReport, error)
	teamFn         func(uint) (*domain.TeamReport, error)
	getPersonalFn  func(uint, uint) (*domain.PersonalReport, error)
	getTeamFn      func(uint) (*domain.TeamReport, error)
	personalHistFn func(uint, int, int) ([]domain.PersonalReport, int64, error)
	teamHistFn     func(uint, int, int) ([]domain.TeamReport, int64, error)
	count          int64
	latest         *time.Time
}

func (s *stubReports) GeneratePersonal(_ context.Context, uid uint) (*domain.PersonalReport, error) {
	return s.personalFn(uid)
}
func (s *stubReports) GenerateTeam(_ context.Context, tid uint) (*domain.TeamReport, error) {
	return s.teamFn(tid)
}
func (s *stubReports) GetPersonal(_ context.Context, id, rid uint) (*domain.PersonalReport, error) {
	return s.getPersonalFn(id, rid)
}
func (s *stubReports) GetTeam(_ context.Context, id uint) (*domain.TeamReport, error) {
	return s.getTeamFn(id)
}
func (s *stubReports) PersonalHistory(_ context.Context, uid uint, p, size int) ([]domain.PersonalReport, int64, error) {
	return s.personalHistFn(uid, p, size)
}
func (s *stubReports) TeamHistory(_ context.Context, tid uint, p, size int) ([]domain.TeamReport, int64, error) {
	return s.teamHistFn(tid, p, size)
}
func (s *stubReports) TeamReportsStats(context.Context, uint) (int64, *time.Time, error) {
	return s.count, s.latest, nil
}

// memIdem is an in-memory IdempotencyStore.
type memIdem struct {
	mu   sync.Mutex
	rows map[string]*domain.Idempotency
}

func newMemIdem() *memIdem { return &memIdem{rows: map[string]*domain.Idempotency{}} }

func idemKey(userID uint, scope, key string) string {
	return fmt.Sprintf("%d|%s|%s", userID, scope, key)
}

func (m *memIdem) Lookup(_ context.Context, userID uint, scope, key string) (*domain.Idempotency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[idemKey(userID, scope, key)], nil
}

func (m *memIdem) Remember(_ context.Context, userID uint, scope, key string, status int, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := idemKey(userID, scope, key)
	if _, exists := m.rows[k]; !exists {
		m.rows[k] = &domain.Idempotency{Key: key, Status: status, Body: body}
	}
	return nil
}

// ---- harness ----

// asUser stands in for the Authenticate middleware.
func asUser(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", id)
		c.Next()
	}
}

func newEngine(uid uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-test")
		c.Next()
	})
	if uid != 0 {
		r.Use(asUser(uid))
	}
	return r
}

func ptr[T any](v T) *T { return &v }
