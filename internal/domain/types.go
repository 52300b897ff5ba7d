package domain

import (
	"fmt"
	"strings"
)

// Specialty is the subject a user is quizzed on.
type Specialty string

const (
	SpecialtyAndroid Specialty = "Android Developer"
	SpecialtyTest    Specialty = "test"
)

// Specialties is the closed set of specialties. Configuration may only narrow it.
var Specialties = []Specialty{SpecialtyAndroid, SpecialtyTest}

// ParseSpecialty matches case-insensitively against the closed set.
func ParseSpecialty(raw string) (Specialty, error) {
	for _, s := range Specialties {
		if strings.EqualFold(strings.TrimSpace(raw), string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSpecialty, raw)
}

// AnswerMode is the channel through which a user answers.
type AnswerMode string

const (
	AnswerModeText   AnswerMode = "text"
	AnswerModeVoice  AnswerMode = "voice"
	AnswerModeMental AnswerMode = "mental"
)

var AnswerModes = []AnswerMode{AnswerModeText, AnswerModeVoice, AnswerModeMental}

func ParseAnswerMode(raw string) (AnswerMode, error) {
	for _, m := range AnswerModes {
		if strings.EqualFold(strings.TrimSpace(raw), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAnswerMode, raw)
}

// Category groups questions inside a specialty.
type Category string

const (
	CategoryGeneral  Category = "General"
	CategoryView     Category = "View"
	CategoryActivity Category = "Activity"
)

var Categories = []Category{CategoryGeneral, CategoryView, CategoryActivity}

func ParseCategory(raw string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(strings.TrimSpace(raw), string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
}

// Score is the ordinal self-reported correctness of an answer.
type Score int

const (
	ScoreWrong  Score = 0
	ScorePartly Score = 1
	ScoreRight  Score = 2
)

// MaxScore is the ordinal used to normalise aggregates.
const MaxScore = ScoreRight

func (s Score) Valid() bool {
	return s >= ScoreWrong && s <= ScoreRight
}

func (s Score) String() string {
	switch s {
	case ScoreWrong:
		return "wrong"
	case ScorePartly:
		return "partly"
	case ScoreRight:
		return "right"
	}
	return fmt.Sprintf("score(%d)", int(s))
}

// ParseScore accepts either the ordinal or its name. Anything unrecognised is an error.
func ParseScore(raw string) (Score, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "0", "wrong":
		return ScoreWrong, nil
	case "1", "partly":
		return ScorePartly, nil
	case "2", "right":
		return ScoreRight, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidScore, raw)
}

// Bot rating bounds, inclusive.
const (
	MinBotScore = 1
	MaxBotScore = 10
)

// EventType names an analytics event.
type EventType string

const (
	EventRegistration       EventType = "registration"
	EventStart              EventType = "start"
	EventProfile            EventType = "profile"
	EventRepeat             EventType = "repeat"
	EventSpeciality         EventType = "speciality"
	EventAlreadyTried       EventType = "already_tried"
	EventContinueTask       EventType = "continue_task"
	EventResetProgress      EventType = "reset_progress"
	EventDescriptSpeciality EventType = "descript_speciality"
	EventAnswerType         EventType = "answer_type"
	EventTaskStart          EventType = "task_start"
	EventTaskTry            EventType = "task_try"
	EventSendSolution       EventType = "send_solution"
	EventSaveRepeat         EventType = "save_repeat"
	EventUnclear            EventType = "unclear"
	EventFinishSpeciality   EventType = "finish_speciality"
	EventTaskGrade          EventType = "task_grade"
	EventBotGrade           EventType = "bot_grade"
	EventBotReview          EventType = "bot_review"
	EventThanks             EventType = "thanks"
	EventDontKnow           EventType = "dont_know"
)
