package postgres

import (
	"time"

	"androbot/internal/domain"
	"github.com/uptrace/bun"
)

type userModel struct {
	bun.BaseModel `bun:"table:tg_users"`

	UserID    int64     `bun:"user_id,pk"`
	Name      string    `bun:"name"`
	Username  string    `bun:"username"`
	Specialty string    `bun:"specialty"`
	CreatedAt time.Time `bun:"created_at"`
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		UserID:    m.UserID,
		Name:      m.Name,
		Username:  m.Username,
		Specialty: domain.Specialty(m.Specialty),
		CreatedAt: m.CreatedAt,
	}
}

type questionModel struct {
	bun.BaseModel `bun:"table:question"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Specialty string    `bun:"specialty"`
	Category  string    `bun:"category"`
	Prompt    string    `bun:"prompt"`
	Answer    string    `bun:"answer"`
	Info      string    `bun:"info"`
	CreatedAt time.Time `bun:"created_at"`
}

func (m questionModel) toDomain() domain.Question {
	return domain.Question{
		ID:        m.ID,
		Specialty: domain.Specialty(m.Specialty),
		Category:  domain.Category(m.Category),
		Prompt:    m.Prompt,
		Answer:    m.Answer,
		Info:      m.Info,
		CreatedAt: m.CreatedAt,
	}
}

type sessionModel struct {
	bun.BaseModel `bun:"table:sessions"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     int64     `bun:"user_id"`
	QuestionID *int64    `bun:"question_id"`
	Finished   bool      `bun:"finished"`
	CreatedAt  time.Time `bun:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at"`
}

func (m sessionModel) toDomain() domain.Session {
	return domain.Session{
		ID:         m.ID,
		UserID:     m.UserID,
		QuestionID: m.QuestionID,
		Finished:   m.Finished,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type answerModel struct {
	bun.BaseModel `bun:"table:answers"`

	ID         int64     `bun:"id,pk,autoincrement"`
	QuestionID int64     `bun:"question_id"`
	UserID     int64     `bun:"user_id"`
	SessionID  *int64    `bun:"session_id"`
	Mode       string    `bun:"mode"`
	Text       string    `bun:"text"`
	AudioRef   string    `bun:"audio_ref"`
	CreatedAt  time.Time `bun:"created_at"`
}

type questionScoreModel struct {
	bun.BaseModel `bun:"table:question_scores"`

	ID         int64     `bun:"id,pk,autoincrement"`
	QuestionID int64     `bun:"question_id"`
	UserID     int64     `bun:"user_id"`
	Score      int       `bun:"score"`
	CreatedAt  time.Time `bun:"created_at"`
}

type botScoreModel struct {
	bun.BaseModel `bun:"table:bot_scores"`

	UserID    int64     `bun:"user_id,pk"`
	Score     int       `bun:"score"`
	UpdatedAt time.Time `bun:"updated_at"`
}

type botReviewModel struct {
	bun.BaseModel `bun:"table:bot_reviews"`

	UserID    int64     `bun:"user_id,pk"`
	Text      string    `bun:"text"`
	UpdatedAt time.Time `bun:"updated_at"`
}

type problemReviewModel struct {
	bun.BaseModel `bun:"table:problem_question_reviews"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     int64     `bun:"user_id"`
	QuestionID int64     `bun:"question_id"`
	Text       string    `bun:"text"`
	CreatedAt  time.Time `bun:"created_at"`
}

type materialRequestModel struct {
	bun.BaseModel `bun:"table:training_material_requests"`

	UserID     int64     `bun:"user_id,pk"`
	QuestionID int64     `bun:"question_id,pk"`
	CreatedAt  time.Time `bun:"created_at"`
}

type eventModel struct {
	bun.BaseModel `bun:"table:events"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    int64     `bun:"user_id"`
	Type      string    `bun:"type"`
	Params    []string  `bun:"params,array"`
	CreatedAt time.Time `bun:"created_at"`
}
