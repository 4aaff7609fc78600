package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"happy":              "Happy",
		"  very   TIRED \n ": "Very Tired",
		"motivado":           "Motivado",
		"":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeLabel(in), "input %q", in)
	}
}

func TestCreateSentiment_OnePerDay(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	ana := newUser(t, db, "Ana")
	newTeamWith(t, db, "Alpha", ana)

	clk := &testClock{t: at(2025, time.March, 10, 9)}
	s := &SentimentService{DB: db, Clock: clk.clock()}

	e, err := s.Create(ctx, ana.ID, SentimentInput{Label: " calm ", Score: f64(7)})
	require.NoError(t, err)
	assert.Equal(t, "Calm", e.Label)
	assert.Equal(t, "2025-03-10", e.DayKey)

	clk.set(at(2025, time.March, 10, 22))
	_, err = s.Create(ctx, ana.ID, SentimentInput{Label: "tired"})
	assert.ErrorIs(t, err, ErrSentimentExists)

	clk.set(at(2025, time.March, 11, 8))
	_, err = s.Create(ctx, ana.ID, SentimentInput{Label: "tired"})
	require.NoError(t, err)
}

func TestCreateSentiment_ValidationBeforeRules(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	loner := newUser(t, db, "Loner")
	s := &SentimentService{DB: db, Clock: (&testClock{t: at(2025, time.March, 10, 9)}).clock()}

	long := strings.Repeat("d", 501)
	cases := []struct {
		name string
		in   SentimentInput
		msg  string
	}{
		{"blank label", SentimentInput{Label: "   "}, "label is required"},
		{"long label", SentimentInput{Label: strings.Repeat("x", 51)}, "label must be at most 50 characters"},
		{"score high", SentimentInput{Label: "ok", Score: f64(10.5)}, "score must be at most 10"},
		{"score low", SentimentInput{Label: "ok", Score: f64(-1)}, "score must be at least 0"},
		{"long description", SentimentInput{Label: "ok", Description: &long}, "description must be at most 500 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(ctx, loner.ID, tc.in)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}

	// Valid input reaches the membership rule.
	_, err := s.Create(ctx, loner.ID, SentimentInput{Label: "ok", Score: f64(0)})
	assert.ErrorIs(t, err, ErrNotInTeam)
	_, err = s.Create(ctx, 999, SentimentInput{Label: "ok"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSentiment_OwnerOnlyAccess(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	ana, bob := newUser(t, db, "Ana"), newUser(t, db, "Bob")
	newTeamWith(t, db, "Alpha", ana, bob)

	clk := &testClock{t: at(2025, time.March, 10, 9)}
	s := &SentimentService{DB: db, Clock: clk.clock()}

	e, err := s.Create(ctx, ana.ID, SentimentInput{Label: "good"})
	require.NoError(t, err)
	clk.set(at(2025, time.March, 11, 9))
	_, err = s.Create(ctx, ana.ID, SentimentInput{Label: "better"})
	require.NoError(t, err)

	_, err = s.Get(ctx, e.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.ErrorIs(t, s.Delete(ctx, e.ID, bob.ID), ErrNotOwner)

	items, total, err := s.List(ctx, ana.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "Better", items[0].Label)

	require.NoError(t, s.Delete(ctx, e.ID, ana.ID))
	_, err = s.Get(ctx, e.ID, ana.ID)
	assert.ErrorIs(t, err, ErrSentimentNotFound)
}
