package memory

import (
	"context"
	"errors"
	"testing"

	"androbot/internal/domain"
)

func TestStoreRejectsDuplicateUser(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.CreateUser(ctx, domain.User{UserID: 1, Name: "Ann"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreateUser(ctx, domain.User{UserID: 1, Name: "Other"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	user, ok, _ := store.GetUser(ctx, 1)
	if !ok || user.Name != "Ann" {
		t.Fatalf("expected original user kept, got %+v", user)
	}
}

func TestStoreKeepsOneActiveSession(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	seedUser(t, store, 1)
	q1 := seedQuestion(t, store, domain.SpecialtyTest)
	q2 := seedQuestion(t, store, domain.SpecialtyTest)

	first, err := store.AssignQuestion(ctx, 1, q1)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	second, err := store.AssignQuestion(ctx, 1, q2)
	if err != nil {
		t.Fatalf("assign 2: %v", err)
	}
	if first.ID != second.ID || *second.QuestionID != q2 {
		t.Fatalf("expected the same session repointed, got %+v then %+v", first, second)
	}

	if err := store.FinishSession(ctx, first.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, ok, _ := store.ActiveSession(ctx, 1); ok {
		t.Fatalf("expected no active session after finish")
	}
	third, err := store.AssignQuestion(ctx, 1, q1)
	if err != nil {
		t.Fatalf("assign 3: %v", err)
	}
	if third.ID == first.ID {
		t.Fatalf("expected a fresh session")
	}
	if got := len(store.Sessions(1)); got != 2 {
		t.Fatalf("expected 2 sessions, got %d", got)
	}
}

func TestStoreAnsweredQuestionIDsByScope(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	seedUser(t, store, 1)
	q1 := seedQuestion(t, store, domain.SpecialtyTest)
	q2 := seedQuestion(t, store, domain.SpecialtyTest)
	s1, s2 := int64(1), int64(2)

	for _, a := range []domain.Answer{
		{QuestionID: q1, UserID: 1, SessionID: &s1, Text: "a"},
		{QuestionID: q1, UserID: 1, SessionID: &s1, Text: "again"},
		{QuestionID: q2, UserID: 1, SessionID: &s2, Text: "b"},
	} {
		if _, err := store.AddAnswer(ctx, a); err != nil {
			t.Fatalf("add answer: %v", err)
		}
	}

	inSession, _ := store.AnsweredQuestionIDs(ctx, 1, &s1)
	if len(inSession) != 1 || inSession[0] != q1 {
		t.Fatalf("expected [%d] for session 1, got %v", q1, inSession)
	}
	lifetime, _ := store.AnsweredQuestionIDs(ctx, 1, nil)
	if len(lifetime) != 2 {
		t.Fatalf("expected 2 distinct ids, got %v", lifetime)
	}
}

func TestStoreRefusesToDeleteAnsweredQuestions(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	seedUser(t, store, 1)
	q := seedQuestion(t, store, domain.SpecialtyTest)
	seedQuestion(t, store, domain.SpecialtyAndroid)

	if _, err := store.AddAnswer(ctx, domain.Answer{QuestionID: q, UserID: 1, Text: "x"}); err != nil {
		t.Fatalf("add answer: %v", err)
	}
	if _, err := store.DeleteQuestions(ctx, domain.SpecialtyTest); !errors.Is(err, domain.ErrQuestionInUse) {
		t.Fatalf("expected ErrQuestionInUse, got %v", err)
	}
	n, err := store.DeleteQuestions(ctx, domain.SpecialtyAndroid)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 removed, got %d err=%v", n, err)
	}
	ids, _ := store.QuestionIDs(ctx, domain.SpecialtyTest)
	if len(ids) != 1 {
		t.Fatalf("expected test question kept, got %v", ids)
	}
}

func TestStoreDeleteUserCascades(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	seedUser(t, store, 1)
	seedUser(t, store, 2)
	q := seedQuestion(t, store, domain.SpecialtyTest)

	for _, id := range []int64{1, 2} {
		if _, err := store.AssignQuestion(ctx, id, q); err != nil {
			t.Fatalf("assign: %v", err)
		}
		if _, err := store.AddAnswer(ctx, domain.Answer{QuestionID: q, UserID: id, Text: "x"}); err != nil {
			t.Fatalf("answer: %v", err)
		}
		if err := store.AddEvent(ctx, domain.Event{UserID: id, Type: domain.EventStart}); err != nil {
			t.Fatalf("event: %v", err)
		}
		if err := store.UpsertBotScore(ctx, domain.BotScore{UserID: id, Score: 5}); err != nil {
			t.Fatalf("bot score: %v", err)
		}
	}

	if err := store.DeleteUser(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.GetUser(ctx, 1); ok {
		t.Fatalf("expected user gone")
	}
	if len(store.Sessions(1)) != 0 || len(store.Events(1)) != 0 {
		t.Fatalf("expected owned rows gone")
	}
	if ids, _ := store.AnsweredQuestionIDs(ctx, 1, nil); len(ids) != 0 {
		t.Fatalf("expected answers gone, got %v", ids)
	}
	if scores, _ := store.BotScores(ctx, 1); len(scores) != 0 {
		t.Fatalf("expected bot score gone")
	}
	if len(store.Sessions(2)) != 1 || len(store.Events(2)) != 1 {
		t.Fatalf("expected other user untouched")
	}
	if err := store.DeleteUser(ctx, 1); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func seedUser(t *testing.T, store *Store, id int64) {
	t.Helper()
	if _, err := store.CreateUser(context.Background(), domain.User{UserID: id, Specialty: domain.SpecialtyTest}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func seedQuestion(t *testing.T, store *Store, specialty domain.Specialty) int64 {
	t.Helper()
	q, err := store.AddQuestion(context.Background(), domain.Question{Specialty: specialty, Prompt: "p", Answer: "a"})
	if err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return q.ID
}

func TestStoreDeleteQuestionsCascades(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	seedUser(t, store, 1)
	q := seedQuestion(t, store, domain.SpecialtyAndroid)
	kept := seedQuestion(t, store, domain.SpecialtyTest)

	session, err := store.AssignQuestion(ctx, 1, q)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	for _, id := range []int64{q, kept} {
		if _, err := store.AddQuestionScore(ctx, domain.QuestionScore{QuestionID: id, UserID: 1, Score: domain.ScoreWrong}); err != nil {
			t.Fatalf("score: %v", err)
		}
		if err := store.AddProblemQuestionReview(ctx, domain.ProblemQuestionReview{QuestionID: id, UserID: 1, Text: "?"}); err != nil {
			t.Fatalf("problem review: %v", err)
		}
		if err := store.UpsertTrainingMaterialRequest(ctx, domain.TrainingMaterialRequest{QuestionID: id, UserID: 1}); err != nil {
			t.Fatalf("material: %v", err)
		}
	}

	if n, err := store.DeleteQuestions(ctx, domain.SpecialtyAndroid); err != nil || n != 1 {
		t.Fatalf("expected 1 removed, got %d err=%v", n, err)
	}

	scores, _ := store.QuestionScores(ctx, 1)
	if len(scores) != 1 || scores[0].QuestionID != kept {
		t.Fatalf("expected only the kept question's score, got %+v", scores)
	}
	if problems := store.ProblemReviews(1); len(problems) != 1 || problems[0].QuestionID != kept {
		t.Fatalf("expected only the kept question's review, got %+v", problems)
	}
	if materials := store.TrainingMaterialRequests(1); len(materials) != 1 || materials[0].QuestionID != kept {
		t.Fatalf("expected only the kept question's material request, got %+v", materials)
	}
	active, ok, _ := store.ActiveSession(ctx, 1)
	if !ok || active.ID != session.ID || active.QuestionID != nil {
		t.Fatalf("expected session kept with question cleared, got %+v ok=%v", active, ok)
	}
}
