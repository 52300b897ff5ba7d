package app

import (
	"context"

	"androbot/internal/domain"
	"go.uber.org/zap"
)

// RegisterUser stores a new user. A known user yields domain.ErrUserExists.
func (s *Service) RegisterUser(ctx context.Context, user domain.User) (domain.User, error) {
	if user.Specialty != "" {
		if err := s.checkSpecialty(user.Specialty); err != nil {
			return domain.User{}, err
		}
	}
	unlock := s.locks.lock(user.UserID)
	defer unlock()

	user.CreatedAt = s.now()
	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	s.log.Info("user registered", zap.Int64("userId", created.UserID), zap.String("username", created.Username))
	return created, nil
}

func (s *Service) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	user, ok, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// SelectSpecialty switches the user's specialty. The active session is kept; callers decide
// whether to resume or reset it.
func (s *Service) SelectSpecialty(ctx context.Context, userID int64, specialty domain.Specialty) error {
	if err := s.checkSpecialty(specialty); err != nil {
		return err
	}
	unlock := s.locks.lock(userID)
	defer unlock()
	return s.store.UpdateUserSpecialty(ctx, userID, specialty)
}

// RemoveUser deletes the user together with its sessions, answers, scores, reviews and events.
func (s *Service) RemoveUser(ctx context.Context, userID int64) error {
	unlock := s.locks.lock(userID)
	defer unlock()
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.log.Info("user removed", zap.Int64("userId", userID))
	return nil
}
