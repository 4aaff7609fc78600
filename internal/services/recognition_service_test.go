package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/aura-backend/internal/repo"
)

func TestCreateRecognition_AlphaScenario(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	ana, bob, cid := newUser(t, db, "Ana"), newUser(t, db, "Bob"), newUser(t, db, "Cid")
	newTeamWith(t, db, "Alpha", ana, bob, cid)

	clk := &testClock{}
	s := &RecognitionService{DB: db, Clock: clk.clock()}

	// Day 1: first recognition succeeds, a second one the same day is refused.
	clk.set(at(2025, time.March, 10, 9))
	rec, err := s.Create(ctx, ana.ID, RecognitionInput{ReceiverID: bob.ID, Title: "Great demo"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", rec.Giver.Name)
	assert.Equal(t, "Bob", rec.Receiver.Name)

	clk.set(at(2025, time.March, 10, 17))
	_, err = s.Create(ctx, ana.ID, RecognitionInput{ReceiverID: cid.ID, Title: "Thanks"})
	assert.ErrorIs(t, err, ErrDailyLimit)

	// Day 2: same receiver again this month is refused; another receiver is fine.
	clk.set(at(2025, time.March, 11, 9))
	_, err = s.Create(ctx, ana.ID, RecognitionInput{ReceiverID: bob.ID, Title: "Again"})
	assert.ErrorIs(t, err, ErrMonthlyLimit)
	_, err = s.Create(ctx, ana.ID, RecognitionInput{ReceiverID: cid.ID, Title: "Thanks"})
	require.NoError(t, err)

	// Next month the pair is allowed again.
	clk.set(at(2025, time.April, 1, 9))
	_, err = s.Create(ctx, ana.ID, RecognitionInput{ReceiverID: bob.ID, Title: "New month"})
	require.NoError(t, err)
}

func TestCreateRecognition_RuleOrder(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	ana, bob := newUser(t, db, "Ana"), newUser(t, db, "Bob")
	loner, outsider, gone := newUser(t, db, "Loner"), newUser(t, db, "Outsider"), newUser(t, db, "Gone")
	newTeamWith(t, db, "Alpha", ana, bob, gone)
	newTeamWith(t, db, "Beta", outsider)
	require.NoError(t, repo.UpdateUser(ctx, db, gone.ID, map[string]any{"active": false}))

	clk := &testClock{t: at(2025, time.March, 10, 9)}
	s := &RecognitionService{DB: db, Clock: clk.clock()}

	cases := []struct {
		name    string
		giver   uint
		in      RecognitionInput
		wantErr error
	}{
		{"giver missing", 999, RecognitionInput{ReceiverID: bob.ID, Title: "x"}, ErrUserNotFound},
		{"giver inactive", gone.ID, RecognitionInput{ReceiverID: bob.ID, Title: "x"}, ErrGiverInactive},
		{"giver teamless", loner.ID, RecognitionInput{ReceiverID: bob.ID, Title: "x"}, ErrGiverNoTeam},
		{"receiver missing", ana.ID, RecognitionInput{ReceiverID: 999, Title: "x"}, ErrReceiverNotFound},
		{"receiver inactive", ana.ID, RecognitionInput{ReceiverID: gone.ID, Title: "x"}, ErrReceiverInactive},
		{"other team", ana.ID, RecognitionInput{ReceiverID: outsider.ID, Title: "x"}, ErrReceiverNotTeammate},
		{"self", ana.ID, RecognitionInput{ReceiverID: ana.ID, Title: "x"}, ErrSelfRecognition},
		{"blank title", ana.ID, RecognitionInput{ReceiverID: bob.ID, Title: "  "}, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(ctx, tc.giver, tc.in)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCreateBatch_DuplicateItemFailsAlone(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	ana, bob, cid := newUser(t, db, "Ana"), newUser(t, db, "Bob"), newUser(t, db, "Cid")
	newTeamWith(t, db, "Alpha", ana, bob, cid)

	clk := &testClock{t: at(2025, time.March, 10, 9)}
	s := &RecognitionService{DB: db, Clock: clk.clock()}

	res, err := s.CreateBatch(ctx, ana.ID, []RecognitionInput{
		{ReceiverID: bob.ID, Title: "One"},
		{ReceiverID: bob.ID, Title: "Dup"},
		{ReceiverID: cid.ID, Title: "Two"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Successes)
	assert.Equal(t, 1, res.Failures)
	require.Len(t, res.Details, 3)

	assert.Equal(t, BatchSuccess, res.Details[0].Status)
	assert.NotNil(t, res.Details[0].ID)
	assert.Equal(t, BatchFailure, res.Details[1].Status)
	assert.Equal(t, bob.ID, res.Details[1].ReceiverID)
	assert.Equal(t, ErrMonthlyLimit.Error(), res.Details[1].Error)
	assert.Nil(t, res.Details[1].ID)
	assert.Equal(t, BatchSuccess, res.Details[2].Status)
}

func TestCreateBatch_DailyPolicyAndLimits(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	ana, bob, cid := newUser(t, db, "Ana"), newUser(t, db, "Bob"), newUser(t, db, "Cid")
	newTeamWith(t, db, "Alpha", ana, bob, cid)

	clk := &testClock{t: at(2025, time.March, 10, 9)}
	s := &RecognitionService{DB: db, Clock: clk.clock(), BatchDailyLimit: true, BatchMax: 2}

	_, err := s.CreateBatch(ctx, ana.ID, nil)
	assert.ErrorIs(t, err, ErrBatchEmpty)
	_, err = s.CreateBatch(ctx, ana.ID, make([]RecognitionInput, 3))
	assert.ErrorIs(t, err, ErrBatchTooLarge)
	_, err = s.CreateBatch(ctx, 999, []RecognitionInput{{ReceiverID: bob.ID, Title: "x"}})
	assert.ErrorIs(t, err, ErrUserNotFound)

	res, err := s.CreateBatch(ctx, ana.ID, []RecognitionInput{
		{ReceiverID: bob.ID, Title: "One"},
		{ReceiverID: cid.ID, Title: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Successes)
	assert.Contains(t, res.Details[1].Error, "title is required")

	res, err = s.CreateBatch(ctx, ana.ID, []RecognitionInput{{ReceiverID: cid.ID, Title: "Two"}})
	require.NoError(t, err)
	assert.Equal(t, ErrDailyLimit.Error(), res.Details[0].Error)

	// The v1 daily rule still sees batch rows.
	_, err = s.Create(ctx, ana.ID, RecognitionInput{ReceiverID: cid.ID, Title: "v1"})
	assert.ErrorIs(t, err, ErrDailyLimit)
}

func TestRecognition_DeleteGetAndLists(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	ana, bob, cid := newUser(t, db, "Ana"), newUser(t, db, "Bob"), newUser(t, db, "Cid")
	newTeamWith(t, db, "Alpha", ana, bob, cid)

	clk := &testClock{t: at(2025, time.March, 10, 9)}
	s := &RecognitionService{DB: db, Clock: clk.clock()}

	r1, err := s.Create(ctx, ana.ID, RecognitionInput{ReceiverID: bob.ID, Title: "First"})
	require.NoError(t, err)
	clk.set(at(2025, time.March, 11, 9))
	r2, err := s.Create(ctx, cid.ID, RecognitionInput{ReceiverID: bob.ID, Title: "Second"})
	require.NoError(t, err)

	got, err := s.Get(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)

	items, total, err := s.ListReceived(ctx, bob.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, r2.ID, items[0].ID, "newest first")

	items, total, err = s.ListSent(ctx, bob.ID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	assert.ErrorIs(t, s.Delete(ctx, r1.ID, bob.ID), ErrNotGiver)
	require.NoError(t, s.Delete(ctx, r1.ID, ana.ID))
	_, err = s.Get(ctx, r1.ID)
	assert.ErrorIs(t, err, ErrRecognitionNotFound)
	assert.ErrorIs(t, s.Delete(ctx, r1.ID, ana.ID), ErrRecognitionNotFound)
}

func TestInsertRecognition_UniqueIndexesMapToRules(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	ana, bob, cid := newUser(t, db, "Ana"), newUser(t, db, "Bob"), newUser(t, db, "Cid")
	newTeamWith(t, db, "Alpha", ana, bob, cid)
	s := &RecognitionService{DB: db, Clock: (&testClock{}).clock()}

	// The pre-checks are bypassed; only the store's indexes decide.
	day := at(2025, time.March, 10, 9)
	_, err := s.insert(ctx, ana.ID, RecognitionInput{ReceiverID: bob.ID, Title: "First"}, day, true)
	require.NoError(t, err)

	_, err = s.insert(ctx, ana.ID, RecognitionInput{ReceiverID: cid.ID, Title: "Second"}, day.Add(2*time.Hour), true)
	require.ErrorIs(t, err, ErrDailyLimit)
	assert.Equal(t, "daily_limit", Code(err))

	_, err = s.insert(ctx, ana.ID, RecognitionInput{ReceiverID: bob.ID, Title: "Unclaimed"}, at(2025, time.March, 20, 9), false)
	require.ErrorIs(t, err, ErrMonthlyLimit)
	assert.Equal(t, "monthly_limit", Code(err))

	n, err := repo.CountPairBetween(ctx, db, ana.ID, bob.ID, at(2025, time.March, 1, 0), at(2025, time.April, 1, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
