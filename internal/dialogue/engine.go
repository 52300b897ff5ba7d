package dialogue

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"androbot/internal/domain"
	"go.uber.org/zap"
)

// Quiz is the part of app.Service the engine drives.
type Quiz interface {
	RegisterUser(ctx context.Context, user domain.User) (domain.User, error)
	SelectSpecialty(ctx context.Context, userID int64, specialty domain.Specialty) error
	HasStartedTest(ctx context.Context, userID int64) (bool, error)
	ResetSession(ctx context.Context, userID int64) error
	NextQuestion(ctx context.Context, userID int64) (domain.Question, error)
	CurrentQuestion(ctx context.Context, userID int64) (domain.Question, error)
	SubmitAnswer(ctx context.Context, sub domain.AnswerSubmission) (*domain.Answer, error)
	RecordQuestionScore(ctx context.Context, questionID, userID int64, score domain.Score) error
	AggregateUserScore(ctx context.Context, userID int64) (float64, error)
	RecordBotScore(ctx context.Context, userID int64, score int) error
	RecordBotReview(ctx context.Context, userID int64, text string) error
	ReportProblemQuestion(ctx context.Context, userID, questionID int64, text string) error
	RequestTrainingMaterial(ctx context.Context, userID, questionID int64) error
	Profile(ctx context.Context, userID int64) (domain.Profile, error)
	LogEvent(ctx context.Context, userID int64, eventType domain.EventType, params ...string) error
	Specialties() []domain.Specialty
	AnswerModes() []domain.AnswerMode
}

// Conversation is the per-user dialogue state kept between updates.
type Conversation struct {
	State      State             `json:"state"`
	AnswerMode domain.AnswerMode `json:"answerMode,omitempty"`
}

// StateStore persists conversations by user id. A missing entry is reported with ok=false.
type StateStore interface {
	Load(ctx context.Context, userID int64) (Conversation, bool, error)
	Save(ctx context.Context, userID int64, conv Conversation) error
	Delete(ctx context.Context, userID int64) error
}

// Input is one classified user event.
type Input struct {
	Kind      InputKind `json:"type"`
	Text      string    `json:"text,omitempty"`
	AudioRef  string    `json:"audio,omitempty"`
	Specialty string    `json:"specialty,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	Score     string    `json:"score,omitempty"`
}

// Update is an input together with the identity of its sender.
type Update struct {
	UserID   int64
	Name     string
	Username string
	Input    Input
}

// Reply is what the transport renders back to the user.
type Reply struct {
	State     State           `json:"state"`
	Message   Message         `json:"message"`
	Question  *QuestionView   `json:"question,omitempty"`
	Reference string          `json:"reference,omitempty"`
	Info      string          `json:"info,omitempty"`
	Score     *float64        `json:"score,omitempty"`
	Profile   *domain.Profile `json:"profile,omitempty"`
	Options   []InputKind     `json:"options,omitempty"`
	Choices   []string        `json:"choices,omitempty"`
}

// QuestionView hides the reference answer of a question being asked.
type QuestionView struct {
	ID       int64           `json:"id"`
	Category domain.Category `json:"category"`
	Prompt   string          `json:"prompt"`
}

// Intent markers stored as the text of answers the user declined to give.
const (
	IntentDontUnderstand = "[dont_understand]"
	IntentDontKnow       = "[dont_know]"
	IntentMental         = "[mental]"
)

// Engine runs transitions against the quiz service.
type Engine struct {
	quiz Quiz
	log  *zap.Logger
}

func NewEngine(quiz Quiz, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{quiz: quiz, log: log}
}

// outcome is what an effect produced.
type outcome struct {
	branch bool
	reply  Reply
	event  domain.EventType
	params []string
}

// Handle applies an update to a conversation. It never fails: errors become message keys and
// the returned conversation is the one to persist.
func (e *Engine) Handle(ctx context.Context, conv Conversation, upd Update) (Reply, Conversation) {
	state := conv.State
	if state == "" {
		state = StateMainMenu
	}

	step, err := Transition(state, upd.Input.Kind)
	if err != nil {
		if state == StateFinish {
			return Reply{State: StateFinish, Message: MessageFinished}, conv
		}
		return e.fail(err, state, conv, upd)
	}

	out, err := e.run(ctx, step.Effect, &conv, upd)
	if err != nil {
		return e.fail(err, state, conv, upd)
	}

	next := step.Next
	if out.branch && step.Branch != "" {
		next = step.Branch
	}
	reply := out.reply
	if next == StateUserScore && reply.Score == nil {
		e.attachScore(ctx, &reply, upd.UserID)
	}
	e.finishReply(&reply, next)
	conv.State = next

	if out.event != "" {
		if err := e.quiz.LogEvent(ctx, upd.UserID, out.event, out.params...); err != nil {
			e.log.Warn("event not recorded", zap.Int64("userId", upd.UserID),
				zap.String("event", string(out.event)), zap.Error(err))
		}
	}
	return reply, conv
}

func (e *Engine) fail(err error, state State, conv Conversation, upd Update) (Reply, Conversation) {
	msg, next, expected := translate(err, state)
	fields := []zap.Field{
		zap.Int64("userId", upd.UserID),
		zap.String("state", string(state)),
		zap.String("input", string(upd.Input.Kind)),
		zap.Error(err),
	}
	if expected {
		e.log.Debug("input rejected", fields...)
	} else {
		e.log.Error("dialogue step failed", fields...)
	}
	reply := Reply{Message: msg}
	e.finishReply(&reply, next)
	conv.State = next
	return reply, conv
}

func (e *Engine) finishReply(reply *Reply, next State) {
	reply.State = next
	if reply.Message == "" {
		reply.Message = prompts[next]
	}
	reply.Options = Expected(next)
	switch next {
	case StateMainMenu:
		for _, s := range e.quiz.Specialties() {
			reply.Choices = append(reply.Choices, string(s))
		}
	case StateSelectAnswerType:
		for _, m := range e.quiz.AnswerModes() {
			reply.Choices = append(reply.Choices, string(m))
		}
	}
}

func (e *Engine) attachScore(ctx context.Context, reply *Reply, userID int64) {
	score, err := e.quiz.AggregateUserScore(ctx, userID)
	switch {
	case err == nil:
		reply.Score = &score
	case errors.Is(err, domain.ErrNoScores):
	default:
		e.log.Warn("aggregate score unavailable", zap.Int64("userId", userID), zap.Error(err))
	}
}

func (e *Engine) run(ctx context.Context, effect Effect, conv *Conversation, upd Update) (outcome, error) {
	userID := upd.UserID
	in := upd.Input

	switch effect {
	case EffectNone:
		return outcome{}, nil

	case EffectRegister:
		conv.AnswerMode = ""
		_, err := e.quiz.RegisterUser(ctx, domain.User{UserID: userID, Name: upd.Name, Username: upd.Username})
		if errors.Is(err, domain.ErrUserExists) {
			return outcome{reply: Reply{Message: MessageWelcomeBack}, event: domain.EventStart}, nil
		}
		if err != nil {
			return outcome{}, err
		}
		return outcome{reply: Reply{Message: MessageWelcome}, event: domain.EventRegistration}, nil

	case EffectShowProfile:
		profile, err := e.quiz.Profile(ctx, userID)
		if err != nil {
			return outcome{}, err
		}
		return outcome{reply: Reply{Message: MessageProfile, Profile: &profile}, event: domain.EventProfile}, nil

	case EffectChooseSpecialty:
		specialty, err := domain.ParseSpecialty(in.Specialty)
		if err != nil {
			return outcome{}, err
		}
		if err := e.quiz.SelectSpecialty(ctx, userID, specialty); err != nil {
			return outcome{}, err
		}
		started, err := e.quiz.HasStartedTest(ctx, userID)
		if err != nil {
			return outcome{}, err
		}
		if started {
			return outcome{branch: true, event: domain.EventAlreadyTried, params: []string{string(specialty)}}, nil
		}
		return outcome{event: domain.EventSpeciality, params: []string{string(specialty)}}, nil

	case EffectResumeSession:
		return outcome{event: domain.EventContinueTask}, nil

	case EffectResetSession:
		if err := e.quiz.ResetSession(ctx, userID); err != nil {
			return outcome{}, err
		}
		return outcome{event: domain.EventResetProgress}, nil

	case EffectChooseAnswerMode:
		mode, err := e.activeMode(in.Mode)
		if err != nil {
			return outcome{}, err
		}
		conv.AnswerMode = mode
		return outcome{event: domain.EventAnswerType, params: []string{string(mode)}}, nil

	case EffectAskQuestion:
		q, err := e.quiz.NextQuestion(ctx, userID)
		if errors.Is(err, domain.ErrNoNewQuestions) {
			return outcome{
				branch: true,
				reply:  Reply{Message: MessageNoNewQuestions},
				event:  domain.EventFinishSpeciality,
			}, nil
		}
		if err != nil {
			return outcome{}, err
		}
		view := &QuestionView{ID: q.ID, Category: q.Category, Prompt: q.Prompt}
		return outcome{
			reply:  Reply{Message: MessageQuestion, Question: view},
			event:  domain.EventTaskStart,
			params: []string{strconv.FormatInt(q.ID, 10)},
		}, nil

	case EffectSubmitAnswer:
		q, err := e.quiz.CurrentQuestion(ctx, userID)
		if err != nil {
			return outcome{}, err
		}
		sub := domain.AnswerSubmission{
			QuestionID: q.ID,
			UserID:     userID,
			Mode:       modeOrDefault(conv.AnswerMode),
			Text:       in.Text,
			AudioRef:   in.AudioRef,
		}
		// A mental answer has no content; the user only confirms it was given.
		if sub.Mode == domain.AnswerModeMental && strings.TrimSpace(sub.Text) == "" && sub.AudioRef == "" {
			sub.Text = IntentMental
		}
		answer, err := e.quiz.SubmitAnswer(ctx, sub)
		if err != nil {
			return outcome{}, err
		}
		qid := strconv.FormatInt(q.ID, 10)
		if answer == nil {
			return outcome{branch: true, reply: Reply{Message: MessageEmptyAnswer}, event: domain.EventTaskTry, params: []string{qid}}, nil
		}
		return outcome{event: domain.EventSendSolution, params: []string{qid, string(answer.Mode)}}, nil

	case EffectDontUnderstand:
		q, err := e.declineQuestion(ctx, conv, userID, IntentDontUnderstand)
		if err != nil {
			return outcome{}, err
		}
		if err := e.quiz.ReportProblemQuestion(ctx, userID, q.ID, in.Text); err != nil {
			return outcome{}, err
		}
		return outcome{event: domain.EventUnclear, params: []string{strconv.FormatInt(q.ID, 10)}}, nil

	case EffectDontKnow:
		q, err := e.declineQuestion(ctx, conv, userID, IntentDontKnow)
		if err != nil {
			return outcome{}, err
		}
		return outcome{event: domain.EventDontKnow, params: []string{strconv.FormatInt(q.ID, 10)}}, nil

	case EffectRevealAnswer:
		q, err := e.quiz.CurrentQuestion(ctx, userID)
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			reply:  Reply{Message: MessageReferenceAnswer, Reference: q.Answer, Info: q.Info},
			event:  domain.EventRepeat,
			params: []string{strconv.FormatInt(q.ID, 10)},
		}, nil

	case EffectScoreAnswer:
		score, err := domain.ParseScore(in.Score)
		if err != nil {
			return outcome{}, err
		}
		q, err := e.quiz.CurrentQuestion(ctx, userID)
		if err != nil {
			return outcome{}, err
		}
		if err := e.quiz.RecordQuestionScore(ctx, q.ID, userID, score); err != nil {
			return outcome{}, err
		}
		return outcome{event: domain.EventTaskGrade, params: []string{strconv.FormatInt(q.ID, 10), score.String()}}, nil

	case EffectRequestMaterial:
		q, err := e.quiz.CurrentQuestion(ctx, userID)
		if err != nil {
			return outcome{}, err
		}
		if err := e.quiz.RequestTrainingMaterial(ctx, userID, q.ID); err != nil {
			return outcome{}, err
		}
		return outcome{
			reply:  Reply{Message: MessageMaterialNoted},
			event:  domain.EventSaveRepeat,
			params: []string{strconv.FormatInt(q.ID, 10)},
		}, nil

	case EffectShowUserScore:
		return outcome{event: domain.EventFinishSpeciality}, nil

	case EffectRateBot:
		score, err := strconv.Atoi(in.Score)
		if err != nil {
			return outcome{}, domain.ErrInvalidBotScore
		}
		if err := e.quiz.RecordBotScore(ctx, userID, score); err != nil {
			return outcome{}, err
		}
		return outcome{event: domain.EventBotGrade, params: []string{strconv.Itoa(score)}}, nil

	case EffectReviewBot:
		if err := e.quiz.RecordBotReview(ctx, userID, in.Text); err != nil {
			return outcome{}, err
		}
		return outcome{event: domain.EventBotReview}, nil

	case EffectSkipReview:
		return outcome{event: domain.EventThanks}, nil

	case EffectBackToMenu:
		conv.AnswerMode = ""
		return outcome{}, nil
	}
	return outcome{}, errors.New("unknown effect " + strconv.Itoa(int(effect)))
}

// declineQuestion marks the current question wrong and records the intent as its answer so the
// selector treats it as passed.
func (e *Engine) declineQuestion(ctx context.Context, conv *Conversation, userID int64, intent string) (domain.Question, error) {
	q, err := e.quiz.CurrentQuestion(ctx, userID)
	if err != nil {
		return domain.Question{}, err
	}
	// answer first: a failed insert must not leave a score behind for a question still open
	if _, err := e.quiz.SubmitAnswer(ctx, domain.AnswerSubmission{
		QuestionID: q.ID,
		UserID:     userID,
		Mode:       modeOrDefault(conv.AnswerMode),
		Text:       intent,
	}); err != nil {
		return domain.Question{}, err
	}
	if err := e.quiz.RecordQuestionScore(ctx, q.ID, userID, domain.ScoreWrong); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func (e *Engine) activeMode(raw string) (domain.AnswerMode, error) {
	mode, err := domain.ParseAnswerMode(raw)
	if err != nil {
		return "", err
	}
	for _, m := range e.quiz.AnswerModes() {
		if m == mode {
			return mode, nil
		}
	}
	return "", domain.ErrUnknownAnswerMode
}

func modeOrDefault(mode domain.AnswerMode) domain.AnswerMode {
	if mode == "" {
		return domain.AnswerModeText
	}
	return mode
}
