package app_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"androbot/internal/app"
	"androbot/internal/domain"
	"androbot/internal/infra/memory"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...app.Option) (*app.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	opts = append([]app.Option{
		app.WithRand(rand.New(rand.NewSource(1))),
		app.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	return app.NewService(store, opts...), store
}

// registerWithSpecialty creates user id with the test specialty selected.
func registerWithSpecialty(t *testing.T, service *app.Service, id int64) {
	t.Helper()
	ctx := context.Background()
	_, err := service.RegisterUser(ctx, domain.User{UserID: id, Name: "Ann", Username: "ann"})
	require.NoError(t, err)
	require.NoError(t, service.SelectSpecialty(ctx, id, domain.SpecialtyTest))
}

func seedQuestions(t *testing.T, service *app.Service, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		q, err := service.AddQuestion(context.Background(), domain.Question{
			Specialty: domain.SpecialtyTest,
			Category:  domain.CategoryGeneral,
			Prompt:    "What is a Fragment?",
			Answer:    "A reusable portion of UI.",
		})
		require.NoError(t, err)
		ids = append(ids, q.ID)
	}
	return ids
}

// answer asks for the next question and answers it with text.
func answer(t *testing.T, service *app.Service, userID int64) domain.Question {
	t.Helper()
	ctx := context.Background()
	q, err := service.NextQuestion(ctx, userID)
	require.NoError(t, err)
	stored, err := service.SubmitAnswer(ctx, domain.AnswerSubmission{
		QuestionID: q.ID,
		UserID:     userID,
		Mode:       domain.AnswerModeText,
		Text:       "my answer",
	})
	require.NoError(t, err)
	require.NotNil(t, stored)
	return q
}
