package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/aura-backend/internal/domain"
	"github.com/tbourn/aura-backend/internal/repo"
)

// newServiceDB opens a unique in-memory database per test with the full
// schema migrated.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec("PRAGMA foreign_keys=ON;").Error)
	require.NoError(t, repo.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// testClock is a settable clock in UTC.
type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) set(t time.Time) { c.t = t }

func (c *testClock) clock() Clock { return Clock{Now: c.Now, Location: time.UTC} }

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func newUser(t *testing.T, db *gorm.DB, name string) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:         name,
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: "x",
		Role:         domain.RoleNewUser,
		Active:       true,
	}
	require.NoError(t, repo.CreateUser(context.Background(), db, u))
	return u
}

// newTeamWith creates a team managed by the first user; the rest join as
// employees.
func newTeamWith(t *testing.T, db *gorm.DB, name string, users ...*domain.User) *domain.Team {
	t.Helper()
	ctx := context.Background()
	ms := &MembershipService{DB: db}
	team, err := ms.CreateTeam(ctx, users[0].ID, CreateTeamInput{Name: name, Title: "Lead"})
	require.NoError(t, err)
	for _, u := range users[1:] {
		_, err := ms.JoinTeam(ctx, u.ID, team.ID, JoinTeamInput{Title: "Engineer"})
		require.NoError(t, err)
	}
	return team
}

func reload(t *testing.T, db *gorm.DB, id uint) *domain.User {
	t.Helper()
	u, err := repo.GetUser(context.Background(), db, id)
	require.NoError(t, err)
	return u
}

func f64(v float64) *float64 { return &v }
