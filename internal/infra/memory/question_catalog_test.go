package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"androbot/internal/domain"
)

func TestQuestionCatalogCaches(t *testing.T) {
	loader := &countingLoader{ids: map[domain.Specialty][]int64{domain.SpecialtyTest: {1, 2, 3}}}
	catalog := NewQuestionCatalog(loader, time.Minute)

	ids, err := catalog.QuestionIDs(context.Background(), domain.SpecialtyTest)
	if err != nil {
		t.Fatalf("question ids: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %v", ids)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}

	ids[0] = 99
	again, err := catalog.QuestionIDs(context.Background(), domain.SpecialtyTest)
	if err != nil {
		t.Fatalf("question ids 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
	if again[0] != 1 {
		t.Fatalf("cached pool was mutated through a returned slice: %v", again)
	}
}

func TestQuestionCatalogExpiresAndInvalidates(t *testing.T) {
	loader := &countingLoader{ids: map[domain.Specialty][]int64{domain.SpecialtyTest: {1}}}
	catalog := NewQuestionCatalog(loader, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	catalog.clock = func() time.Time { return now }
	ctx := context.Background()

	if _, err := catalog.QuestionIDs(ctx, domain.SpecialtyTest); err != nil {
		t.Fatalf("question ids: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := catalog.QuestionIDs(ctx, domain.SpecialtyTest); err != nil {
		t.Fatalf("question ids after ttl: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.count())
	}

	loader.set(domain.SpecialtyTest, []int64{1, 2})
	if err := catalog.Invalidate(ctx, domain.SpecialtyTest); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	ids, err := catalog.QuestionIDs(ctx, domain.SpecialtyTest)
	if err != nil {
		t.Fatalf("question ids after invalidate: %v", err)
	}
	if len(ids) != 2 || loader.count() != 3 {
		t.Fatalf("expected refilled pool, got %v after %d loads", ids, loader.count())
	}
}

func TestQuestionCatalogDoesNotCacheErrors(t *testing.T) {
	loader := &countingLoader{err: errors.New("db down")}
	catalog := NewQuestionCatalog(loader, time.Minute)

	if _, err := catalog.QuestionIDs(context.Background(), domain.SpecialtyTest); err == nil {
		t.Fatalf("expected loader error")
	}
	loader.mu.Lock()
	loader.err = nil
	loader.mu.Unlock()
	if _, err := catalog.QuestionIDs(context.Background(), domain.SpecialtyTest); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
}

type countingLoader struct {
	mu    sync.Mutex
	ids   map[domain.Specialty][]int64
	err   error
	calls int
}

func (l *countingLoader) QuestionIDs(_ context.Context, specialty domain.Specialty) ([]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return append([]int64(nil), l.ids[specialty]...), nil
}

func (l *countingLoader) set(specialty domain.Specialty, ids []int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids[specialty] = ids
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// gatedLoader holds its first load until released, returning the pool as it was when the load began.
type gatedLoader struct {
	*countingLoader
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (l *gatedLoader) QuestionIDs(ctx context.Context, specialty domain.Specialty) ([]int64, error) {
	first := false
	l.once.Do(func() { first = true })
	ids, err := l.countingLoader.QuestionIDs(ctx, specialty)
	if first {
		close(l.started)
		<-l.release
	}
	return ids, err
}

func TestQuestionCatalogDropsFillStartedBeforeInvalidate(t *testing.T) {
	loader := &gatedLoader{
		countingLoader: &countingLoader{ids: map[domain.Specialty][]int64{domain.SpecialtyTest: {1, 2}}},
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	catalog := NewQuestionCatalog(loader, time.Minute)

	stale := make(chan []int64)
	go func() {
		ids, _ := catalog.QuestionIDs(context.Background(), domain.SpecialtyTest)
		stale <- ids
	}()
	<-loader.started

	loader.set(domain.SpecialtyTest, []int64{1, 2, 3})
	if err := catalog.Invalidate(context.Background(), domain.SpecialtyTest); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	close(loader.release)
	if ids := <-stale; len(ids) != 2 {
		t.Fatalf("expected the in-flight caller to get the old pool, got %v", ids)
	}

	ids, err := catalog.QuestionIDs(context.Background(), domain.SpecialtyTest)
	if err != nil {
		t.Fatalf("question ids: %v", err)
	}
	if len(ids) != 3 || loader.count() != 2 {
		t.Fatalf("expected a fresh load after invalidate, got %v after %d loads", ids, loader.count())
	}
}
