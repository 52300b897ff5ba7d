package domain

import "errors"

var (
	// ErrUserExists is returned when registering a user whose external id is already stored.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when an operation references an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrQuestionNotFound indicates a question id does not resolve to a stored question.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuestionInUse is returned when removing questions that answers still reference.
	ErrQuestionInUse = errors.New("question is referenced by answers")
	// ErrSpecialtyNotSet is returned when a user asks for a question before choosing a specialty.
	ErrSpecialtyNotSet = errors.New("user specialty not selected")
	// ErrUnknownSpecialty indicates a specialty outside the active set.
	ErrUnknownSpecialty = errors.New("unknown specialty")
	// ErrUnknownAnswerMode indicates an answer mode outside the active set.
	ErrUnknownAnswerMode = errors.New("unknown answer mode")
	// ErrUnknownCategory indicates a question category outside the known set.
	ErrUnknownCategory = errors.New("unknown question category")
	// ErrNoNewQuestions is returned when every question of the specialty was already passed.
	ErrNoNewQuestions = errors.New("no new questions")
	// ErrNoCurrentSession is returned when an operation needs an active session and there is none.
	ErrNoCurrentSession = errors.New("no current session")
	// ErrInvalidScore indicates a self-reported question score outside wrong/partly/right.
	ErrInvalidScore = errors.New("invalid question score")
	// ErrInvalidBotScore indicates a bot rating outside the accepted range.
	ErrInvalidBotScore = errors.New("bot score must be between 1 and 10")
	// ErrNoScores is returned when aggregating a user without any recorded score.
	ErrNoScores = errors.New("no scores recorded")
	// ErrTooManyEventParams is returned when an event carries more than MaxEventParams values.
	ErrTooManyEventParams = errors.New("too many event parameters")
)
