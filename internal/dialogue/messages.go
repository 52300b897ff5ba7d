package dialogue

import (
	"errors"

	"androbot/internal/domain"
)

// Message is a key the presentation layer renders into user-facing text.
type Message string

const (
	MessageWelcome          Message = "welcome"
	MessageWelcomeBack      Message = "welcome_back"
	MessageMainMenu         Message = "main_menu"
	MessageProfile          Message = "profile"
	MessageAlreadyStarted   Message = "already_started"
	MessageChooseAnswerMode Message = "choose_answer_mode"
	MessageAreYouReady      Message = "are_you_ready"
	MessageQuestion         Message = "question"
	MessageEmptyAnswer      Message = "empty_answer"
	MessageAnswerSaved      Message = "answer_saved"
	MessageOfferReference   Message = "offer_reference"
	MessageReferenceAnswer  Message = "reference_answer"
	MessageScoreSaved       Message = "score_saved"
	MessageMaterialNoted    Message = "material_noted"
	MessageNoNewQuestions   Message = "no_new_questions"
	MessageUserScore        Message = "user_score"
	MessageAskBotScore      Message = "ask_bot_score"
	MessageAskReview        Message = "ask_review"
	MessageThanks           Message = "thanks"
	MessageFinished         Message = "finished"

	MessageUnexpectedInput   Message = "unexpected_input"
	MessageUserNotFound      Message = "user_not_found"
	MessageChooseSpecialty   Message = "choose_specialty"
	MessageUnknownSpecialty  Message = "unknown_specialty"
	MessageUnknownAnswerMode Message = "unknown_answer_mode"
	MessageNoCurrentSession  Message = "no_current_session"
	MessageInvalidScore      Message = "invalid_score"
	MessageInvalidBotScore   Message = "invalid_bot_score"
	MessageNoScores          Message = "no_scores"
	MessageInternalError     Message = "internal_error"
)

// prompts is the default message for a state the effect did not speak for.
var prompts = map[State]Message{
	StateMainMenu:           MessageMainMenu,
	StateHasStartedTest:     MessageAlreadyStarted,
	StateSelectAnswerType:   MessageChooseAnswerMode,
	StateAreYouReady:        MessageAreYouReady,
	StateAskQuestion:        MessageQuestion,
	StateGotAnswer:          MessageAnswerSaved,
	StateDoNotUnderstand:    MessageOfferReference,
	StateNoAnswer:           MessageOfferReference,
	StateAnswerScoredByUser: MessageScoreSaved,
	StateUserScore:          MessageUserScore,
	StateBotScore:           MessageAskBotScore,
	StateBotReview:          MessageAskReview,
	StateFinish:             MessageThanks,
}

// translate maps a failed effect to the message shown and the state the user lands in.
// expected reports whether the error is part of normal conversation flow.
func translate(err error, current State) (msg Message, next State, expected bool) {
	switch {
	case errors.Is(err, ErrUnexpectedInput):
		return MessageUnexpectedInput, current, true
	case errors.Is(err, domain.ErrUserNotFound):
		return MessageUserNotFound, StateMainMenu, true
	case errors.Is(err, domain.ErrSpecialtyNotSet):
		return MessageChooseSpecialty, StateMainMenu, true
	case errors.Is(err, domain.ErrUnknownSpecialty):
		return MessageUnknownSpecialty, current, true
	case errors.Is(err, domain.ErrUnknownAnswerMode):
		return MessageUnknownAnswerMode, current, true
	case errors.Is(err, domain.ErrNoCurrentSession):
		return MessageNoCurrentSession, StateMainMenu, true
	case errors.Is(err, domain.ErrInvalidScore):
		return MessageInvalidScore, current, true
	case errors.Is(err, domain.ErrInvalidBotScore):
		return MessageInvalidBotScore, current, true
	case errors.Is(err, domain.ErrNoNewQuestions):
		return MessageNoNewQuestions, StateUserScore, true
	case errors.Is(err, domain.ErrNoScores):
		return MessageNoScores, current, true
	}
	return MessageInternalError, current, false
}
