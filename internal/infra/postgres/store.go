package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"androbot/internal/domain"
	"github.com/uptrace/bun"
)

// Store is the relational Entity Store on top of bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	m := userModel{
		UserID:    user.UserID,
		Name:      user.Name,
		Username:  user.Username,
		Specialty: string(user.Specialty),
		CreatedAt: user.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		if code, _ := pgError(err); code == codeUniqueViolation {
			return domain.User{}, domain.ErrUserExists
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return m.toDomain(), nil
}

func (s *Store) GetUser(ctx context.Context, userID int64) (domain.User, bool, error) {
	var m userModel
	err := s.db.NewSelect().Model(&m).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("get user: %w", err)
	}
	return m.toDomain(), true, nil
}

func (s *Store) UpdateUserSpecialty(ctx context.Context, userID int64, specialty domain.Specialty) error {
	res, err := s.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("specialty = ?", string(specialty)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update specialty: %w", err)
	}
	return expectRow(res, domain.ErrUserNotFound)
}

// DeleteUser relies on ON DELETE CASCADE for everything the user owns.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	res, err := s.db.NewDelete().Model((*userModel)(nil)).Where("user_id = ?", userID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectRow(res, domain.ErrUserNotFound)
}

func (s *Store) AddQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	m := questionModel{
		Specialty: string(question.Specialty),
		Category:  string(question.Category),
		Prompt:    question.Prompt,
		Answer:    question.Answer,
		Info:      question.Info,
		CreatedAt: question.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
		return domain.Question{}, fmt.Errorf("add question: %w", err)
	}
	return m.toDomain(), nil
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (domain.Question, bool, error) {
	var m questionModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, false, nil
	}
	if err != nil {
		return domain.Question{}, false, fmt.Errorf("get question: %w", err)
	}
	return m.toDomain(), true, nil
}

func (s *Store) DeleteQuestions(ctx context.Context, specialty domain.Specialty) (int, error) {
	res, err := s.db.NewDelete().Model((*questionModel)(nil)).Where("specialty = ?", string(specialty)).Exec(ctx)
	if err != nil {
		if code, _ := pgError(err); code == codeForeignKeyViolation {
			return 0, fmt.Errorf("%w: %s", domain.ErrQuestionInUse, specialty)
		}
		return 0, fmt.Errorf("delete questions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) QuestionIDs(ctx context.Context, specialty domain.Specialty) ([]int64, error) {
	ids := make([]int64, 0)
	err := s.db.NewSelect().
		Model((*questionModel)(nil)).
		Column("id").
		Where("specialty = ?", string(specialty)).
		Order("id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("question ids: %w", err)
	}
	return ids, nil
}

func (s *Store) ActiveSession(ctx context.Context, userID int64) (domain.Session, bool, error) {
	return activeSession(ctx, s.db, userID)
}

func activeSession(ctx context.Context, db bun.IDB, userID int64) (domain.Session, bool, error) {
	var m sessionModel
	err := db.NewSelect().Model(&m).Where("user_id = ?", userID).Where("NOT finished").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("active session: %w", err)
	}
	return m.toDomain(), true, nil
}

// AssignQuestion points the active session at a question or opens a new session. The partial
// unique index on sessions rejects a second unfinished session; losing that race means another
// writer created it first, so the assignment is retried once against it.
func (s *Store) AssignQuestion(ctx context.Context, userID, questionID int64) (domain.Session, error) {
	session, err := s.assignQuestion(ctx, userID, questionID)
	if code, _ := pgError(err); code == codeUniqueViolation {
		session, err = s.assignQuestion(ctx, userID, questionID)
	}
	if err != nil {
		return domain.Session{}, mapForeignKey(err, "assign question")
	}
	return session, nil
}

func (s *Store) assignQuestion(ctx context.Context, userID, questionID int64) (domain.Session, error) {
	var out domain.Session
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()
		current, ok, err := activeSession(ctx, tx, userID)
		if err != nil {
			return err
		}
		if ok {
			m := sessionModel{ID: current.ID}
			_, err := tx.NewUpdate().
				Model(&m).
				Set("question_id = ?", questionID).
				Set("updated_at = ?", now).
				WherePK().
				Returning("*").
				Exec(ctx)
			if err != nil {
				return err
			}
			out = m.toDomain()
			return nil
		}
		m := sessionModel{UserID: userID, QuestionID: &questionID, CreatedAt: now, UpdatedAt: now}
		if _, err := tx.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
			return err
		}
		out = m.toDomain()
		return nil
	})
	return out, err
}

func (s *Store) FinishSession(ctx context.Context, sessionID int64) error {
	res, err := s.db.NewUpdate().
		Model((*sessionModel)(nil)).
		Set("finished = true").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", sessionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return expectRow(res, domain.ErrNoCurrentSession)
}

func (s *Store) AddAnswer(ctx context.Context, answer domain.Answer) (domain.Answer, error) {
	m := answerModel{
		QuestionID: answer.QuestionID,
		UserID:     answer.UserID,
		SessionID:  answer.SessionID,
		Mode:       string(answer.Mode),
		Text:       answer.Text,
		AudioRef:   answer.AudioRef,
		CreatedAt:  answer.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
		return domain.Answer{}, mapForeignKey(err, "add answer")
	}
	answer.ID = m.ID
	return answer, nil
}

func (s *Store) AnsweredQuestionIDs(ctx context.Context, userID int64, sessionID *int64) ([]int64, error) {
	ids := make([]int64, 0)
	q := s.db.NewSelect().
		Model((*answerModel)(nil)).
		ColumnExpr("DISTINCT question_id").
		Where("user_id = ?", userID)
	if sessionID != nil {
		q = q.Where("session_id = ?", *sessionID)
	}
	if err := q.Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("answered question ids: %w", err)
	}
	return ids, nil
}

func (s *Store) AddQuestionScore(ctx context.Context, score domain.QuestionScore) (domain.QuestionScore, error) {
	m := questionScoreModel{
		QuestionID: score.QuestionID,
		UserID:     score.UserID,
		Score:      int(score.Score),
		CreatedAt:  score.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
		return domain.QuestionScore{}, mapForeignKey(err, "add question score")
	}
	score.ID = m.ID
	return score, nil
}

// QuestionScores returns a user's scores in recording order.
func (s *Store) QuestionScores(ctx context.Context, userID int64) ([]domain.QuestionScore, error) {
	var rows []questionScoreModel
	if err := s.db.NewSelect().Model(&rows).Where("user_id = ?", userID).Order("id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("question scores: %w", err)
	}
	out := make([]domain.QuestionScore, 0, len(rows))
	for _, m := range rows {
		out = append(out, domain.QuestionScore{
			ID:         m.ID,
			QuestionID: m.QuestionID,
			UserID:     m.UserID,
			Score:      domain.Score(m.Score),
			CreatedAt:  m.CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) UpsertBotScore(ctx context.Context, score domain.BotScore) error {
	m := botScoreModel{UserID: score.UserID, Score: score.Score, UpdatedAt: score.UpdatedAt}
	_, err := s.db.NewInsert().
		Model(&m).
		On("CONFLICT (user_id) DO UPDATE").
		Set("score = EXCLUDED.score").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return mapForeignKey(err, "upsert bot score")
	}
	return nil
}

func (s *Store) BotScores(ctx context.Context, userID int64) ([]domain.BotScore, error) {
	var rows []botScoreModel
	if err := s.db.NewSelect().Model(&rows).Where("user_id = ?", userID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("bot scores: %w", err)
	}
	out := make([]domain.BotScore, 0, len(rows))
	for _, m := range rows {
		out = append(out, domain.BotScore{UserID: m.UserID, Score: m.Score, UpdatedAt: m.UpdatedAt})
	}
	return out, nil
}

func (s *Store) UpsertBotReview(ctx context.Context, review domain.BotReview) error {
	m := botReviewModel{UserID: review.UserID, Text: review.Text, UpdatedAt: review.UpdatedAt}
	_, err := s.db.NewInsert().
		Model(&m).
		On("CONFLICT (user_id) DO UPDATE").
		Set("text = EXCLUDED.text").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return mapForeignKey(err, "upsert bot review")
	}
	return nil
}

func (s *Store) AddProblemQuestionReview(ctx context.Context, review domain.ProblemQuestionReview) error {
	m := problemReviewModel{
		UserID:     review.UserID,
		QuestionID: review.QuestionID,
		Text:       review.Text,
		CreatedAt:  review.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return mapForeignKey(err, "add problem review")
	}
	return nil
}

func (s *Store) UpsertTrainingMaterialRequest(ctx context.Context, req domain.TrainingMaterialRequest) error {
	m := materialRequestModel{UserID: req.UserID, QuestionID: req.QuestionID, CreatedAt: req.CreatedAt}
	_, err := s.db.NewInsert().
		Model(&m).
		On("CONFLICT (user_id, question_id) DO UPDATE").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	if err != nil {
		return mapForeignKey(err, "upsert training material request")
	}
	return nil
}

func (s *Store) AddEvent(ctx context.Context, event domain.Event) error {
	params := event.Params
	if params == nil {
		params = []string{}
	}
	m := eventModel{UserID: event.UserID, Type: string(event.Type), Params: params, CreatedAt: event.CreatedAt}
	if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return mapForeignKey(err, "add event")
	}
	return nil
}

// mapForeignKey turns a foreign key violation into the matching not-found error.
func mapForeignKey(err error, op string) error {
	code, constraint := pgError(err)
	if code == codeForeignKeyViolation {
		switch {
		case strings.Contains(constraint, "question_id"):
			return fmt.Errorf("%s: %w", op, domain.ErrQuestionNotFound)
		case strings.Contains(constraint, "user_id"):
			return fmt.Errorf("%s: %w", op, domain.ErrUserNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
