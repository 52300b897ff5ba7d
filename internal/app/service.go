package app

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"androbot/internal/domain"
	"go.uber.org/zap"
)

// Exclusion decides which earlier answers remove a question from the candidate set.
type Exclusion string

const (
	// ExclusionSession only excludes questions answered in the active session.
	ExclusionSession Exclusion = "session"
	// ExclusionLifetime excludes every question the user ever answered.
	ExclusionLifetime Exclusion = "lifetime"
)

func ParseExclusion(raw string) (Exclusion, error) {
	switch Exclusion(raw) {
	case "", ExclusionSession:
		return ExclusionSession, nil
	case ExclusionLifetime:
		return ExclusionLifetime, nil
	}
	return "", fmt.Errorf("unknown exclusion policy %q", raw)
}

// Service contains the quiz use cases: question selection, answer recording and scoring.
type Service struct {
	store   Store
	catalog QuestionCatalog
	log     *zap.Logger
	locks   *userLocks
	now     func() time.Time

	exclusion   Exclusion
	specialties map[domain.Specialty]bool
	modes       map[domain.AnswerMode]bool

	rndMu sync.Mutex
	rnd   *rand.Rand
}

type Option func(*Service)

// WithCatalog routes specialty lookups through a cache.
func WithCatalog(catalog QuestionCatalog) Option {
	return func(s *Service) { s.catalog = catalog }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithExclusion(e Exclusion) Option {
	return func(s *Service) { s.exclusion = e }
}

// WithSpecialties narrows the active specialties.
func WithSpecialties(specialties ...domain.Specialty) Option {
	return func(s *Service) { s.specialties = toSet(specialties) }
}

// WithAnswerModes narrows the active answer modes.
func WithAnswerModes(modes ...domain.AnswerMode) Option {
	return func(s *Service) { s.modes = toSet(modes) }
}

// WithRand is test-only for deterministic selection.
func WithRand(rnd *rand.Rand) Option {
	return func(s *Service) { s.rnd = rnd }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		catalog:     storeCatalog{store: store},
		log:         zap.NewNop(),
		locks:       newUserLocks(),
		now:         time.Now,
		exclusion:   ExclusionSession,
		specialties: toSet(domain.Specialties),
		modes:       toSet(domain.AnswerModes),
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Specialties lists the active specialties in canonical order.
func (s *Service) Specialties() []domain.Specialty {
	return activeOf(domain.Specialties, s.specialties)
}

// AnswerModes lists the active answer modes in canonical order.
func (s *Service) AnswerModes() []domain.AnswerMode {
	return activeOf(domain.AnswerModes, s.modes)
}

func (s *Service) checkSpecialty(specialty domain.Specialty) error {
	if !s.specialties[specialty] {
		return fmt.Errorf("%w: %q", domain.ErrUnknownSpecialty, specialty)
	}
	return nil
}

func (s *Service) checkAnswerMode(mode domain.AnswerMode) error {
	if !s.modes[mode] {
		return fmt.Errorf("%w: %q", domain.ErrUnknownAnswerMode, mode)
	}
	return nil
}

func (s *Service) pick(ids []int64) int64 {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return ids[s.rnd.Intn(len(ids))]
}

func toSet[T comparable](values []T) map[T]bool {
	set := make(map[T]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func activeOf[T comparable](all []T, active map[T]bool) []T {
	out := make([]T, 0, len(all))
	for _, v := range all {
		if active[v] {
			out = append(out, v)
		}
	}
	return out
}
