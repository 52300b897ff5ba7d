package app_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"androbot/internal/app"
	"androbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextQuestionRequiresUserAndSpecialty(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	seedQuestions(t, service, 1)

	_, err := service.NextQuestion(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = service.RegisterUser(ctx, domain.User{UserID: 1})
	require.NoError(t, err)
	_, err = service.NextQuestion(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrSpecialtyNotSet)
}

func TestNextQuestionWalksPoolWithoutRepeats(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)
	registerWithSpecialty(t, service, 1)
	pool := seedQuestions(t, service, 3)

	seen := make(map[int64]bool)
	for i := 0; i < 3; i++ {
		q := answer(t, service, 1)
		assert.False(t, seen[q.ID], "question %d repeated", q.ID)
		assert.Contains(t, pool, q.ID)
		seen[q.ID] = true
	}

	_, err := service.NextQuestion(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNoNewQuestions)

	sessions := store.Sessions(1)
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Finished, "exhausting the pool finishes the session")
	_, active, _ := store.ActiveSession(ctx, 1)
	assert.False(t, active)
}

func TestNextQuestionWithoutAnswerMayRepeat(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	registerWithSpecialty(t, service, 1)
	seedQuestions(t, service, 1)

	first, err := service.NextQuestion(ctx, 1)
	require.NoError(t, err)
	second, err := service.NextQuestion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "an unanswered question stays a candidate")
}

func TestNextQuestionEmptyPool(t *testing.T) {
	service, store := newTestService(t)
	registerWithSpecialty(t, service, 1)

	_, err := service.NextQuestion(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNoNewQuestions)
	assert.Empty(t, store.Sessions(1))
}

func TestResetSessionStartsNewCycle(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)
	registerWithSpecialty(t, service, 1)
	seedQuestions(t, service, 2)

	answer(t, service, 1)
	started, err := service.HasStartedTest(ctx, 1)
	require.NoError(t, err)
	assert.True(t, started)

	require.NoError(t, service.ResetSession(ctx, 1))
	require.NoError(t, service.ResetSession(ctx, 1), "reset is idempotent")

	started, err = service.HasStartedTest(ctx, 1)
	require.NoError(t, err)
	assert.False(t, started)

	// session-scoped exclusion: both questions are candidates again
	answer(t, service, 1)
	answer(t, service, 1)
	_, err = service.NextQuestion(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNoNewQuestions)
	assert.Len(t, store.Sessions(1), 2)
}

func TestLifetimeExclusionSurvivesReset(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, app.WithExclusion(app.ExclusionLifetime))
	registerWithSpecialty(t, service, 1)
	seedQuestions(t, service, 2)

	first := answer(t, service, 1)
	require.NoError(t, service.ResetSession(ctx, 1))

	second := answer(t, service, 1)
	assert.NotEqual(t, first.ID, second.ID)
	_, err := service.NextQuestion(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNoNewQuestions)
}

func TestNextQuestionIsRandom(t *testing.T) {
	ctx := context.Background()
	firsts := make(map[int64]bool)
	for seed := int64(0); seed < 20; seed++ {
		service, _ := newTestService(t, app.WithRand(rand.New(rand.NewSource(seed))))
		registerWithSpecialty(t, service, 1)
		seedQuestions(t, service, 5)
		q, err := service.NextQuestion(ctx, 1)
		require.NoError(t, err)
		firsts[q.ID] = true
	}
	assert.Greater(t, len(firsts), 1, "selection should not always pick the same question")
}

func TestConcurrentNextQuestionKeepsOneActiveSession(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)
	registerWithSpecialty(t, service, 1)
	seedQuestions(t, service, 10)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = service.NextQuestion(ctx, 1)
		}()
	}
	wg.Wait()

	active := 0
	for _, s := range store.Sessions(1) {
		if !s.Finished {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestCurrentQuestion(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	registerWithSpecialty(t, service, 1)
	seedQuestions(t, service, 2)

	_, err := service.CurrentQuestion(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNoCurrentSession)

	q, err := service.NextQuestion(ctx, 1)
	require.NoError(t, err)
	current, err := service.CurrentQuestion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, q.ID, current.ID)
}
