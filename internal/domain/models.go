package domain

import (
	"strings"
	"time"
)

// User is a bot user keyed by the external (chat) identity.
type User struct {
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Specialty Specialty `json:"specialty,omitempty"` // empty until selected
	CreatedAt time.Time `json:"createdAt"`
}

// Question is a prompt with its reference answer.
type Question struct {
	ID        int64     `json:"id"`
	Specialty Specialty `json:"specialty"`
	Category  Category  `json:"category"`
	Prompt    string    `json:"prompt"`
	Answer    string    `json:"answer"`
	Info      string    `json:"info,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is one attempt-cycle of a user through a specialty's question pool.
type Session struct {
	ID         int64
	UserID     int64
	QuestionID *int64
	Finished   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Answer is a submitted answer. SessionID is the session active at submission time.
type Answer struct {
	ID         int64
	QuestionID int64
	UserID     int64
	SessionID  *int64
	Mode       AnswerMode
	Text       string
	AudioRef   string
	CreatedAt  time.Time
}

// AnswerSubmission is the recorder's input.
type AnswerSubmission struct {
	QuestionID int64
	UserID     int64
	Mode       AnswerMode
	Text       string
	AudioRef   string
}

// Blank reports whether the submission carries no actual answer.
func (s AnswerSubmission) Blank() bool {
	return strings.TrimSpace(s.Text) == "" && strings.TrimSpace(s.AudioRef) == ""
}

// QuestionScore is a self-reported correctness mark. Retries append new rows.
type QuestionScore struct {
	ID         int64
	QuestionID int64
	UserID     int64
	Score      Score
	CreatedAt  time.Time
}

// BotScore is the single rating a user gives the bot.
type BotScore struct {
	UserID    int64
	Score     int
	UpdatedAt time.Time
}

// MaxEventParams bounds Event.Params.
const MaxEventParams = 5

// Event is an append-only analytics record.
type Event struct {
	ID        int64
	UserID    int64
	Type      EventType
	Params    []string
	CreatedAt time.Time
}

type BotReview struct {
	UserID    int64
	Text      string
	UpdatedAt time.Time
}

type ProblemQuestionReview struct {
	ID         int64
	UserID     int64
	QuestionID int64
	Text       string
	CreatedAt  time.Time
}

type TrainingMaterialRequest struct {
	UserID     int64
	QuestionID int64
	CreatedAt  time.Time
}

// Profile summarizes a user's progress in the current cycle.
type Profile struct {
	User     User     `json:"user"`
	Answered int      `json:"answered"`
	Total    int      `json:"total"`
	Score    *float64 `json:"score,omitempty"`
}
