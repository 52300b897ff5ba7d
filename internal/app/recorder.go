package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"androbot/internal/domain"
)

// SubmitAnswer stores an answer against the active session. A submission without text and
// without an audio reference is not an answer: it returns (nil, nil) and nothing is stored.
func (s *Service) SubmitAnswer(ctx context.Context, sub domain.AnswerSubmission) (*domain.Answer, error) {
	if err := s.checkAnswerMode(sub.Mode); err != nil {
		return nil, err
	}
	if sub.Blank() {
		return nil, nil
	}

	unlock := s.locks.lock(sub.UserID)
	defer unlock()

	session, ok, err := s.store.ActiveSession(ctx, sub.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNoCurrentSession
	}

	sessionID := session.ID
	answer, err := s.store.AddAnswer(ctx, domain.Answer{
		QuestionID: sub.QuestionID,
		UserID:     sub.UserID,
		SessionID:  &sessionID,
		Mode:       sub.Mode,
		Text:       strings.TrimSpace(sub.Text),
		AudioRef:   strings.TrimSpace(sub.AudioRef),
		CreatedAt:  s.now(),
	})
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// RecordQuestionScore appends a self-reported score; earlier scores are kept as history.
func (s *Service) RecordQuestionScore(ctx context.Context, questionID, userID int64, score domain.Score) error {
	if !score.Valid() {
		return fmt.Errorf("%w: %d", domain.ErrInvalidScore, int(score))
	}
	_, err := s.store.AddQuestionScore(ctx, domain.QuestionScore{
		QuestionID: questionID,
		UserID:     userID,
		Score:      score,
		CreatedAt:  s.now(),
	})
	return err
}

// AggregateUserScore averages the latest score of every scored question as a percentage of
// domain.MaxScore. Older retries stay in the history but do not count.
func (s *Service) AggregateUserScore(ctx context.Context, userID int64) (float64, error) {
	scores, err := s.store.QuestionScores(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(scores) == 0 {
		return 0, domain.ErrNoScores
	}
	// scores come back in insertion order, so the last one per question wins
	latest := make(map[int64]domain.Score, len(scores))
	for _, sc := range scores {
		latest[sc.QuestionID] = sc.Score
	}
	var sum int
	for _, sc := range latest {
		sum += int(sc)
	}
	return float64(sum) / float64(len(latest)) / float64(domain.MaxScore) * 100, nil
}

// RecordBotScore replaces the user's rating of the bot.
func (s *Service) RecordBotScore(ctx context.Context, userID int64, score int) error {
	if score < domain.MinBotScore || score > domain.MaxBotScore {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidBotScore, score)
	}
	return s.store.UpsertBotScore(ctx, domain.BotScore{UserID: userID, Score: score, UpdatedAt: s.now()})
}

// RecordBotReview replaces the user's free-text review of the bot.
func (s *Service) RecordBotReview(ctx context.Context, userID int64, text string) error {
	return s.store.UpsertBotReview(ctx, domain.BotReview{
		UserID:    userID,
		Text:      strings.TrimSpace(text),
		UpdatedAt: s.now(),
	})
}

// ReportProblemQuestion records that the user could not make sense of a question.
func (s *Service) ReportProblemQuestion(ctx context.Context, userID, questionID int64, text string) error {
	return s.store.AddProblemQuestionReview(ctx, domain.ProblemQuestionReview{
		UserID:     userID,
		QuestionID: questionID,
		Text:       strings.TrimSpace(text),
		CreatedAt:  s.now(),
	})
}

func (s *Service) RequestTrainingMaterial(ctx context.Context, userID, questionID int64) error {
	return s.store.UpsertTrainingMaterialRequest(ctx, domain.TrainingMaterialRequest{
		UserID:     userID,
		QuestionID: questionID,
		CreatedAt:  s.now(),
	})
}

// Profile reports progress in the active session and the aggregate score, if any.
func (s *Service) Profile(ctx context.Context, userID int64) (domain.Profile, error) {
	user, ok, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if !ok {
		return domain.Profile{}, domain.ErrUserNotFound
	}
	profile := domain.Profile{User: user}

	if user.Specialty != "" {
		pool, err := s.catalog.QuestionIDs(ctx, user.Specialty)
		if err != nil {
			return domain.Profile{}, err
		}
		profile.Total = len(pool)
	}
	if session, ok, err := s.store.ActiveSession(ctx, userID); err != nil {
		return domain.Profile{}, err
	} else if ok {
		sessionID := session.ID
		answered, err := s.store.AnsweredQuestionIDs(ctx, userID, &sessionID)
		if err != nil {
			return domain.Profile{}, err
		}
		profile.Answered = len(answered)
	}

	score, err := s.AggregateUserScore(ctx, userID)
	switch {
	case err == nil:
		profile.Score = &score
	case !errors.Is(err, domain.ErrNoScores):
		return domain.Profile{}, err
	}
	return profile, nil
}
