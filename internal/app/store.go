package app

import (
	"context"

	"androbot/internal/domain"
)

// UserStore persists users keyed by their external id.
type UserStore interface {
	// CreateUser fails with domain.ErrUserExists for a duplicate id.
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUser(ctx context.Context, userID int64) (domain.User, bool, error)
	UpdateUserSpecialty(ctx context.Context, userID int64, specialty domain.Specialty) error
	// DeleteUser removes the user with everything it owns.
	DeleteUser(ctx context.Context, userID int64) error
}

// QuestionStore persists the question bank.
type QuestionStore interface {
	AddQuestion(ctx context.Context, question domain.Question) (domain.Question, error)
	GetQuestion(ctx context.Context, id int64) (domain.Question, bool, error)
	// DeleteQuestions fails with domain.ErrQuestionInUse when answers reference them.
	DeleteQuestions(ctx context.Context, specialty domain.Specialty) (int, error)
	QuestionIDs(ctx context.Context, specialty domain.Specialty) ([]int64, error)
}

// SessionStore keeps at most one non-finished session per user.
type SessionStore interface {
	ActiveSession(ctx context.Context, userID int64) (domain.Session, bool, error)
	// AssignQuestion points the active session at questionID, creating the session if needed.
	AssignQuestion(ctx context.Context, userID, questionID int64) (domain.Session, error)
	FinishSession(ctx context.Context, sessionID int64) error
}

type AnswerStore interface {
	AddAnswer(ctx context.Context, answer domain.Answer) (domain.Answer, error)
	// AnsweredQuestionIDs returns distinct question ids answered by the user; a nil sessionID
	// means across all sessions.
	AnsweredQuestionIDs(ctx context.Context, userID int64, sessionID *int64) ([]int64, error)
}

type ScoreStore interface {
	AddQuestionScore(ctx context.Context, score domain.QuestionScore) (domain.QuestionScore, error)
	QuestionScores(ctx context.Context, userID int64) ([]domain.QuestionScore, error)
	UpsertBotScore(ctx context.Context, score domain.BotScore) error
	BotScores(ctx context.Context, userID int64) ([]domain.BotScore, error)
}

type FeedbackStore interface {
	UpsertBotReview(ctx context.Context, review domain.BotReview) error
	AddProblemQuestionReview(ctx context.Context, review domain.ProblemQuestionReview) error
	UpsertTrainingMaterialRequest(ctx context.Context, req domain.TrainingMaterialRequest) error
}

type EventStore interface {
	AddEvent(ctx context.Context, event domain.Event) error
}

// Store is the entity store. Every method is atomic.
type Store interface {
	UserStore
	QuestionStore
	SessionStore
	AnswerStore
	ScoreStore
	FeedbackStore
	EventStore
}

// QuestionCatalog resolves the question ids of a specialty, usually through a cache.
type QuestionCatalog interface {
	QuestionIDs(ctx context.Context, specialty domain.Specialty) ([]int64, error)
	Invalidate(ctx context.Context, specialty domain.Specialty) error
}

// storeCatalog reads straight from the store; used when no cache is wired.
type storeCatalog struct {
	store QuestionStore
}

func (c storeCatalog) QuestionIDs(ctx context.Context, specialty domain.Specialty) ([]int64, error) {
	return c.store.QuestionIDs(ctx, specialty)
}

func (storeCatalog) Invalidate(context.Context, domain.Specialty) error { return nil }
