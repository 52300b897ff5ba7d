package app

import (
	"context"
	"fmt"

	"androbot/internal/domain"
	"go.uber.org/zap"
)

// NextQuestion assigns a random question the user has not passed yet to the active session,
// creating the session when there is none. When nothing is left the active session is finished
// and domain.ErrNoNewQuestions is returned.
func (s *Service) NextQuestion(ctx context.Context, userID int64) (domain.Question, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	user, ok, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return domain.Question{}, err
	}
	if !ok {
		return domain.Question{}, domain.ErrUserNotFound
	}
	if user.Specialty == "" {
		return domain.Question{}, domain.ErrSpecialtyNotSet
	}

	session, hasSession, err := s.store.ActiveSession(ctx, userID)
	if err != nil {
		return domain.Question{}, err
	}

	pool, err := s.catalog.QuestionIDs(ctx, user.Specialty)
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question pool: %w", err)
	}

	passed, err := s.passedQuestions(ctx, userID, session, hasSession)
	if err != nil {
		return domain.Question{}, err
	}

	candidates := make([]int64, 0, len(pool))
	for _, id := range pool {
		if !passed[id] {
			candidates = append(candidates, id)
		}
	}

	if len(candidates) == 0 {
		if hasSession {
			if err := s.store.FinishSession(ctx, session.ID); err != nil {
				return domain.Question{}, err
			}
			s.log.Info("question pool exhausted, session finished",
				zap.Int64("userId", userID), zap.Int64("sessionId", session.ID))
		}
		return domain.Question{}, domain.ErrNoNewQuestions
	}

	questionID := s.pick(candidates)
	question, ok, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	if !ok {
		// Stale cache entry; the next call reloads the pool.
		_ = s.catalog.Invalidate(ctx, user.Specialty)
		return domain.Question{}, fmt.Errorf("%w: %d", domain.ErrQuestionNotFound, questionID)
	}
	if _, err := s.store.AssignQuestion(ctx, userID, questionID); err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

func (s *Service) passedQuestions(ctx context.Context, userID int64, session domain.Session, hasSession bool) (map[int64]bool, error) {
	var ids []int64
	var err error
	switch s.exclusion {
	case ExclusionLifetime:
		ids, err = s.store.AnsweredQuestionIDs(ctx, userID, nil)
	default:
		if !hasSession {
			return map[int64]bool{}, nil
		}
		sessionID := session.ID
		ids, err = s.store.AnsweredQuestionIDs(ctx, userID, &sessionID)
	}
	if err != nil {
		return nil, err
	}
	return toSet(ids), nil
}

// HasStartedTest reports whether the active session already points at a question.
func (s *Service) HasStartedTest(ctx context.Context, userID int64) (bool, error) {
	session, ok, err := s.store.ActiveSession(ctx, userID)
	if err != nil {
		return false, err
	}
	return ok && session.QuestionID != nil, nil
}

// ResetSession finishes the active session, keeping its answers. It is a no-op without one.
func (s *Service) ResetSession(ctx context.Context, userID int64) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	session, ok, err := s.store.ActiveSession(ctx, userID)
	if err != nil || !ok {
		return err
	}
	return s.store.FinishSession(ctx, session.ID)
}

// CurrentQuestion returns the question assigned to the active session.
func (s *Service) CurrentQuestion(ctx context.Context, userID int64) (domain.Question, error) {
	session, ok, err := s.store.ActiveSession(ctx, userID)
	if err != nil {
		return domain.Question{}, err
	}
	if !ok || session.QuestionID == nil {
		return domain.Question{}, domain.ErrNoCurrentSession
	}
	question, ok, err := s.store.GetQuestion(ctx, *session.QuestionID)
	if err != nil {
		return domain.Question{}, err
	}
	if !ok {
		return domain.Question{}, fmt.Errorf("%w: %d", domain.ErrQuestionNotFound, *session.QuestionID)
	}
	return question, nil
}
