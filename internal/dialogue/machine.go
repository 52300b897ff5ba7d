package dialogue

import (
	"errors"
	"fmt"
	"sort"
)

// State is what the bot expects from the user next.
type State string

const (
	StateMainMenu           State = "main_menu"
	StateHasStartedTest     State = "has_started_test"
	StateSelectAnswerType   State = "select_answer_type"
	StateAreYouReady        State = "are_you_ready"
	StateAskQuestion        State = "ask_question"
	StateGotAnswer          State = "got_answer"
	StateDoNotUnderstand    State = "do_not_understand"
	StateNoAnswer           State = "no_answer"
	StateAnswerScoredByUser State = "answer_scored_by_user"
	StateUserScore          State = "user_score"
	StateBotScore           State = "bot_score"
	StateBotReview          State = "bot_review"
	StateFinish             State = "finish"
)

// States lists every state.
var States = []State{
	StateMainMenu, StateHasStartedTest, StateSelectAnswerType, StateAreYouReady, StateAskQuestion,
	StateGotAnswer, StateDoNotUnderstand, StateNoAnswer, StateAnswerScoredByUser, StateUserScore,
	StateBotScore, StateBotReview, StateFinish,
}

// InputKind classifies a user event.
type InputKind string

const (
	InputStart           InputKind = "start"
	InputProfile         InputKind = "profile"
	InputSpecialty       InputKind = "specialty"
	InputContinue        InputKind = "continue"
	InputRestart         InputKind = "restart"
	InputAnswerMode      InputKind = "answer_mode"
	InputReady           InputKind = "ready"
	InputCancel          InputKind = "cancel"
	InputAnswer          InputKind = "answer"
	InputDontUnderstand  InputKind = "dont_understand"
	InputDontKnow        InputKind = "dont_know"
	InputShowAnswer      InputKind = "show_answer"
	InputSelfScore       InputKind = "self_score"
	InputNext            InputKind = "next"
	InputFinish          InputKind = "finish"
	InputRequestMaterial InputKind = "request_material"
	InputBotScore        InputKind = "bot_score"
	InputReview          InputKind = "review"
	InputSkip            InputKind = "skip"
)

// Effect is the side effect a transition asks the engine to run.
type Effect int

const (
	EffectNone Effect = iota
	EffectRegister
	EffectShowProfile
	EffectChooseSpecialty
	EffectResumeSession
	EffectResetSession
	EffectChooseAnswerMode
	EffectAskQuestion
	EffectSubmitAnswer
	EffectDontUnderstand
	EffectDontKnow
	EffectRevealAnswer
	EffectScoreAnswer
	EffectRequestMaterial
	EffectShowUserScore
	EffectRateBot
	EffectReviewBot
	EffectBackToMenu
	EffectSkipReview
)

// Step is one row of the transition table. Branch, when set, is taken instead of Next if the
// effect reports the alternative outcome (an existing session, an exhausted question pool or a
// rejected empty answer).
type Step struct {
	Effect Effect
	Next   State
	Branch State
}

// ErrUnexpectedInput is returned for a (state, input) pair the table does not declare.
var ErrUnexpectedInput = errors.New("unexpected input for state")

var askNext = Step{Effect: EffectAskQuestion, Next: StateAskQuestion, Branch: StateUserScore}
var showScore = Step{Effect: EffectShowUserScore, Next: StateUserScore}
var toMenu = Step{Effect: EffectBackToMenu, Next: StateMainMenu}

var transitions = map[State]map[InputKind]Step{
	StateMainMenu: {
		InputProfile:   {Effect: EffectShowProfile, Next: StateMainMenu},
		InputSpecialty: {Effect: EffectChooseSpecialty, Next: StateSelectAnswerType, Branch: StateHasStartedTest},
	},
	StateHasStartedTest: {
		InputContinue: {Effect: EffectResumeSession, Next: StateSelectAnswerType},
		InputRestart:  {Effect: EffectResetSession, Next: StateSelectAnswerType},
		InputCancel:   toMenu,
	},
	StateSelectAnswerType: {
		InputAnswerMode: {Effect: EffectChooseAnswerMode, Next: StateAreYouReady},
		InputCancel:     toMenu,
	},
	StateAreYouReady: {
		InputReady:  askNext,
		InputCancel: toMenu,
	},
	StateAskQuestion: {
		InputAnswer:         {Effect: EffectSubmitAnswer, Next: StateGotAnswer, Branch: StateAskQuestion},
		InputDontUnderstand: {Effect: EffectDontUnderstand, Next: StateDoNotUnderstand},
		InputDontKnow:       {Effect: EffectDontKnow, Next: StateNoAnswer},
		InputFinish:         showScore,
	},
	StateGotAnswer: {
		InputShowAnswer: {Effect: EffectRevealAnswer, Next: StateGotAnswer},
		InputSelfScore:  {Effect: EffectScoreAnswer, Next: StateAnswerScoredByUser},
	},
	StateDoNotUnderstand: {
		InputShowAnswer:      {Effect: EffectRevealAnswer, Next: StateNoAnswer},
		InputNext:            askNext,
		InputRequestMaterial: {Effect: EffectRequestMaterial, Next: StateDoNotUnderstand},
		InputFinish:          showScore,
	},
	StateNoAnswer: {
		InputShowAnswer:      {Effect: EffectRevealAnswer, Next: StateNoAnswer},
		InputNext:            askNext,
		InputRequestMaterial: {Effect: EffectRequestMaterial, Next: StateNoAnswer},
		InputFinish:          showScore,
	},
	StateAnswerScoredByUser: {
		InputNext:            askNext,
		InputRequestMaterial: {Effect: EffectRequestMaterial, Next: StateAnswerScoredByUser},
		InputFinish:          showScore,
	},
	StateUserScore: {
		InputNext:   {Effect: EffectNone, Next: StateBotScore},
		InputCancel: toMenu,
	},
	StateBotScore: {
		InputBotScore: {Effect: EffectRateBot, Next: StateBotReview},
		InputSkip:     {Effect: EffectSkipReview, Next: StateFinish},
	},
	StateBotReview: {
		InputReview: {Effect: EffectReviewBot, Next: StateFinish},
		InputSkip:   {Effect: EffectSkipReview, Next: StateFinish},
	},
	StateFinish: {},
}

// Transition looks up what to do with an input in a state. It has no side effects.
// InputStart is accepted everywhere and always leads to the main menu.
func Transition(state State, kind InputKind) (Step, error) {
	if kind == InputStart {
		return Step{Effect: EffectRegister, Next: StateMainMenu}, nil
	}
	row, ok := transitions[state]
	if !ok {
		return Step{}, fmt.Errorf("unknown state %q", state)
	}
	step, ok := row[kind]
	if !ok {
		return Step{}, fmt.Errorf("%w: %s in %s", ErrUnexpectedInput, kind, state)
	}
	return step, nil
}

// Expected lists the inputs a state accepts besides InputStart, sorted for stable output.
func Expected(state State) []InputKind {
	row := transitions[state]
	kinds := make([]InputKind, 0, len(row))
	for kind := range row {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
