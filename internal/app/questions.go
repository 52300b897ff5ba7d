package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"androbot/internal/domain"
	"go.uber.org/zap"
)

// AddQuestion stores a question and drops the cached pool of its specialty.
func (s *Service) AddQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	if err := s.validateQuestion(question); err != nil {
		return domain.Question{}, err
	}
	question.CreatedAt = s.now()
	stored, err := s.store.AddQuestion(ctx, question)
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, question.Specialty)
	return stored, nil
}

// RemoveQuestions deletes every question of a specialty. It is an administrative action and
// must not run against live traffic of the same specialty.
func (s *Service) RemoveQuestions(ctx context.Context, specialty domain.Specialty) (int, error) {
	if err := s.checkSpecialty(specialty); err != nil {
		return 0, err
	}
	n, err := s.store.DeleteQuestions(ctx, specialty)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, specialty)
	s.log.Info("questions removed", zap.String("specialty", string(specialty)), zap.Int("count", n))
	return n, nil
}

// ImportQuestions loads semicolon separated rows (category; prompt; answer; info) into a
// specialty. The whole input is parsed before anything is written, so a bad row or an unknown
// specialty leaves the store untouched.
func (s *Service) ImportQuestions(ctx context.Context, specialty domain.Specialty, r io.Reader, drop bool) (int, error) {
	if err := s.checkSpecialty(specialty); err != nil {
		return 0, err
	}
	questions, err := ParseQuestions(specialty, r)
	if err != nil {
		return 0, err
	}
	if drop {
		if _, err := s.RemoveQuestions(ctx, specialty); err != nil {
			return 0, err
		}
	}
	for i, q := range questions {
		if _, err := s.AddQuestion(ctx, q); err != nil {
			return i, fmt.Errorf("add question %d: %w", i+1, err)
		}
	}
	s.log.Info("questions imported", zap.String("specialty", string(specialty)), zap.Int("count", len(questions)))
	return len(questions), nil
}

// ParseQuestions reads the bulk import format.
func ParseQuestions(specialty domain.Specialty, r io.Reader) ([]domain.Question, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var out []domain.Question
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) < 3 || len(record) > 4 {
			return nil, fmt.Errorf("line %d: expected 3 or 4 fields, got %d", line, len(record))
		}
		category, err := domain.ParseCategory(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		q := domain.Question{
			Specialty: specialty,
			Category:  category,
			Prompt:    strings.TrimSpace(record[1]),
			Answer:    strings.TrimSpace(record[2]),
		}
		if len(record) == 4 {
			q.Info = strings.TrimSpace(record[3])
		}
		if q.Prompt == "" || q.Answer == "" {
			return nil, fmt.Errorf("line %d: prompt and answer are required", line)
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *Service) validateQuestion(q domain.Question) error {
	if err := s.checkSpecialty(q.Specialty); err != nil {
		return err
	}
	if q.Category != "" {
		if _, err := domain.ParseCategory(string(q.Category)); err != nil {
			return err
		}
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return errors.New("question prompt is empty")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, specialty domain.Specialty) {
	if err := s.catalog.Invalidate(ctx, specialty); err != nil {
		s.log.Warn("question catalog invalidation failed", zap.String("specialty", string(specialty)), zap.Error(err))
	}
}
