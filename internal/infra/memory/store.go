package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"androbot/internal/domain"
)

// Store is an in-memory entity store. A single lock makes every call atomic.
type Store struct {
	mu sync.RWMutex

	users     map[int64]domain.User
	questions map[int64]domain.Question
	sessions  map[int64]domain.Session
	answers   []domain.Answer
	scores    []domain.QuestionScore
	botScores map[int64]domain.BotScore
	reviews   map[int64]domain.BotReview
	problems  []domain.ProblemQuestionReview
	materials map[materialKey]domain.TrainingMaterialRequest
	events    []domain.Event

	nextQuestionID int64
	nextSessionID  int64
	nextAnswerID   int64
	nextScoreID    int64
	nextProblemID  int64
	nextEventID    int64
}

type materialKey struct {
	userID     int64
	questionID int64
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]domain.User),
		questions: make(map[int64]domain.Question),
		sessions:  make(map[int64]domain.Session),
		botScores: make(map[int64]domain.BotScore),
		reviews:   make(map[int64]domain.BotReview),
		materials: make(map[materialKey]domain.TrainingMaterialRequest),
	}
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.UserID]; ok {
		return domain.User{}, domain.ErrUserExists
	}
	s.users[user.UserID] = user
	return user, nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	return user, ok, nil
}

func (s *Store) UpdateUserSpecialty(_ context.Context, userID int64, specialty domain.Specialty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Specialty = specialty
	s.users[userID] = user
	return nil
}

func (s *Store) DeleteUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.users, userID)
	delete(s.botScores, userID)
	delete(s.reviews, userID)
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
		}
	}
	for key := range s.materials {
		if key.userID == userID {
			delete(s.materials, key)
		}
	}
	s.answers = filter(s.answers, func(a domain.Answer) bool { return a.UserID != userID })
	s.scores = filter(s.scores, func(sc domain.QuestionScore) bool { return sc.UserID != userID })
	s.problems = filter(s.problems, func(p domain.ProblemQuestionReview) bool { return p.UserID != userID })
	s.events = filter(s.events, func(e domain.Event) bool { return e.UserID != userID })
	return nil
}

func (s *Store) AddQuestion(_ context.Context, question domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextQuestionID++
	question.ID = s.nextQuestionID
	s.questions[question.ID] = question
	return question, nil
}

func (s *Store) GetQuestion(_ context.Context, id int64) (domain.Question, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	return q, ok, nil
}

func (s *Store) DeleteQuestions(_ context.Context, specialty domain.Specialty) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doomed := make(map[int64]bool)
	for id, q := range s.questions {
		if q.Specialty == specialty {
			doomed[id] = true
		}
	}
	for _, a := range s.answers {
		if doomed[a.QuestionID] {
			return 0, fmt.Errorf("%w: question %d", domain.ErrQuestionInUse, a.QuestionID)
		}
	}
	for id := range doomed {
		delete(s.questions, id)
	}
	// same rules as the postgres foreign keys
	s.scores = filter(s.scores, func(sc domain.QuestionScore) bool { return !doomed[sc.QuestionID] })
	s.problems = filter(s.problems, func(p domain.ProblemQuestionReview) bool { return !doomed[p.QuestionID] })
	for key := range s.materials {
		if doomed[key.questionID] {
			delete(s.materials, key)
		}
	}
	for id, session := range s.sessions {
		if session.QuestionID != nil && doomed[*session.QuestionID] {
			session.QuestionID = nil
			s.sessions[id] = session
		}
	}
	return len(doomed), nil
}

func (s *Store) QuestionIDs(_ context.Context, specialty domain.Specialty) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0)
	for id, q := range s.questions {
		if q.Specialty == specialty {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) ActiveSession(_ context.Context, userID int64) (domain.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.activeLocked(userID)
	return session, ok, nil
}

func (s *Store) activeLocked(userID int64) (domain.Session, bool) {
	for _, session := range s.sessions {
		if session.UserID == userID && !session.Finished {
			return session, true
		}
	}
	return domain.Session{}, false
}

func (s *Store) AssignQuestion(_ context.Context, userID, questionID int64) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return domain.Session{}, domain.ErrUserNotFound
	}
	if _, ok := s.questions[questionID]; !ok {
		return domain.Session{}, domain.ErrQuestionNotFound
	}
	qid := questionID
	session, ok := s.activeLocked(userID)
	if !ok {
		s.nextSessionID++
		session = domain.Session{ID: s.nextSessionID, UserID: userID, CreatedAt: time.Now()}
	}
	session.QuestionID = &qid
	session.UpdatedAt = time.Now()
	s.sessions[session.ID] = session
	return session, nil
}

func (s *Store) FinishSession(_ context.Context, sessionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrNoCurrentSession
	}
	session.Finished = true
	s.sessions[sessionID] = session
	return nil
}

// Sessions returns every session of a user, finished ones included, ordered by id.
func (s *Store) Sessions(userID int64) []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) AddAnswer(_ context.Context, answer domain.Answer) (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[answer.QuestionID]; !ok {
		return domain.Answer{}, domain.ErrQuestionNotFound
	}
	s.nextAnswerID++
	answer.ID = s.nextAnswerID
	s.answers = append(s.answers, answer)
	return answer, nil
}

func (s *Store) AnsweredQuestionIDs(_ context.Context, userID int64, sessionID *int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[int64]bool)
	ids := make([]int64, 0)
	for _, a := range s.answers {
		if a.UserID != userID || seen[a.QuestionID] {
			continue
		}
		if sessionID != nil && (a.SessionID == nil || *a.SessionID != *sessionID) {
			continue
		}
		seen[a.QuestionID] = true
		ids = append(ids, a.QuestionID)
	}
	return ids, nil
}

func (s *Store) AddQuestionScore(_ context.Context, score domain.QuestionScore) (domain.QuestionScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextScoreID++
	score.ID = s.nextScoreID
	s.scores = append(s.scores, score)
	return score, nil
}

func (s *Store) QuestionScores(_ context.Context, userID int64) ([]domain.QuestionScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(s.scores, func(sc domain.QuestionScore) bool { return sc.UserID == userID }), nil
}

func (s *Store) UpsertBotScore(_ context.Context, score domain.BotScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.botScores[score.UserID] = score
	return nil
}

func (s *Store) BotScores(_ context.Context, userID int64) ([]domain.BotScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if score, ok := s.botScores[userID]; ok {
		return []domain.BotScore{score}, nil
	}
	return nil, nil
}

func (s *Store) UpsertBotReview(_ context.Context, review domain.BotReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[review.UserID] = review
	return nil
}

// BotReview returns the stored review of a user.
func (s *Store) BotReview(userID int64) (domain.BotReview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	review, ok := s.reviews[userID]
	return review, ok
}

func (s *Store) AddProblemQuestionReview(_ context.Context, review domain.ProblemQuestionReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProblemID++
	review.ID = s.nextProblemID
	s.problems = append(s.problems, review)
	return nil
}

// ProblemReviews returns the problem reports filed by a user.
func (s *Store) ProblemReviews(userID int64) []domain.ProblemQuestionReview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(s.problems, func(p domain.ProblemQuestionReview) bool { return p.UserID == userID })
}

func (s *Store) UpsertTrainingMaterialRequest(_ context.Context, req domain.TrainingMaterialRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials[materialKey{userID: req.UserID, questionID: req.QuestionID}] = req
	return nil
}

func (s *Store) TrainingMaterialRequests(userID int64) []domain.TrainingMaterialRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.TrainingMaterialRequest
	for key, req := range s.materials {
		if key.userID == userID {
			out = append(out, req)
		}
	}
	return out
}

func (s *Store) AddEvent(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEventID++
	event.ID = s.nextEventID
	s.events = append(s.events, event)
	return nil
}

// Events returns the events of a user in insertion order.
func (s *Store) Events(userID int64) []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(s.events, func(e domain.Event) bool { return e.UserID == userID })
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
