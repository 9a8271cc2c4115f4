package attempts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/testprep/internal/assessment"
)

func testBank(t *testing.T) *assessment.Bank {
	t.Helper()
	b, err := assessment.NewBank([]assessment.Item{
		{Prompt: "q1", Options: []string{"a", "b"}, Correct: 0},
		{Prompt: "q2", Options: []string{"a", "b"}, Correct: 1},
	})
	require.NoError(t, err)
	return b
}

func TestStartAndGet(t *testing.T) {
	r := NewRegistry()
	e, created, err := r.Start(7, 3, testBank(t))
	require.NoError(t, err)
	assert.True(t, created)

	_, err = uuid.Parse(e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), e.UserID)
	assert.Equal(t, int64(3), e.TestID)
	assert.False(t, e.StartedAt.IsZero())

	got, err := r.Get(e.ID, 7)
	require.NoError(t, err)
	assert.Same(t, e, got)
}

func TestGet_OtherUserHidden(t *testing.T) {
	r := NewRegistry()
	e, _, err := r.Start(7, 3, testBank(t))
	require.NoError(t, err)

	_, err = r.Get(e.ID, 8)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get("nope", 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStart_EmptyBank(t *testing.T) {
	r := NewRegistry()
	_, _, err := r.Start(1, 1, nil)
	assert.ErrorIs(t, err, assessment.ErrInvalidBank)
	assert.Equal(t, 0, r.Len())
}

func TestFinishAndActive(t *testing.T) {
	r := NewRegistry()
	a, _, err := r.Start(1, 1, testBank(t))
	require.NoError(t, err)
	b, _, err := r.Start(1, 2, testBank(t))
	require.NoError(t, err)
	_, _, err = r.Start(2, 1, testBank(t))
	require.NoError(t, err)

	assert.Len(t, r.ActiveForUser(1), 2)

	_, err = b.Submit(func(assessment.Report) error { return nil })
	require.NoError(t, err)
	active := r.ActiveForUser(1)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)

	r.Finish(b.ID)
	assert.Equal(t, 2, r.Len())
	_, err = r.Get(b.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStart_ResumesOpenAttempt(t *testing.T) {
	r := NewRegistry()
	first, created, err := r.Start(1, 1, testBank(t))
	require.NoError(t, err)
	require.True(t, created)

	for i := 0; i < 100; i++ {
		again, created, err := r.Start(1, 1, testBank(t))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Same(t, first, again)
	}
	assert.Equal(t, 1, r.Len())

	_, err = first.Submit(func(assessment.Report) error { return nil })
	require.NoError(t, err)
	next, created, err := r.Start(1, 1, testBank(t))
	require.NoError(t, err)
	assert.True(t, created, "an archived attempt is not resumed")
	assert.NotEqual(t, first.ID, next.ID)
}

func TestSweep(t *testing.T) {
	r := NewRegistry()
	clock := time.Unix(0, 0).UTC()
	r.now = func() time.Time { return clock }

	stale, _, err := r.Start(1, 1, testBank(t))
	require.NoError(t, err)
	_, _, err = r.Start(2, 1, testBank(t))
	require.NoError(t, err)

	clock = clock.Add(5 * time.Hour)
	fresh, _, err := r.Start(1, 2, testBank(t))
	require.NoError(t, err)

	clock = clock.Add(2 * time.Hour)
	assert.Equal(t, 2, r.Sweep(6*time.Hour))
	assert.Equal(t, 1, r.Len())

	_, err = r.Get(stale.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get(fresh.ID, 1)
	assert.NoError(t, err)

	assert.Equal(t, 0, r.Sweep(6*time.Hour))
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.RunSweeper(ctx, time.Millisecond, time.Hour) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestEntrySubmit_RetriesFailedArchive(t *testing.T) {
	r := NewRegistry()
	e, _, err := r.Start(1, 1, testBank(t))
	require.NoError(t, err)
	require.NoError(t, e.Attempt.SelectAnswer(0, 0))

	diskFull := errors.New("disk full")
	_, err = e.Submit(func(assessment.Report) error { return diskFull })
	require.ErrorIs(t, err, diskFull)
	assert.True(t, e.Attempt.Submitted())
	assert.False(t, e.Archived())
	assert.Len(t, r.ActiveForUser(1), 1, "unarchived attempts stay visible")

	var stored assessment.Report
	rep, err := e.Submit(func(rep assessment.Report) error {
		stored = rep
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, rep.ScorePercent)
	assert.Equal(t, rep, stored)
	assert.True(t, e.Archived())
	assert.Empty(t, r.ActiveForUser(1))

	_, err = e.Submit(func(assessment.Report) error { return nil })
	assert.ErrorIs(t, err, assessment.ErrAttemptAlreadySubmitted)
}
