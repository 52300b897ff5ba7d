package app

import (
	"context"
	"fmt"

	"androbot/internal/domain"
)

// LogEvent appends an analytics event with at most domain.MaxEventParams parameters.
func (s *Service) LogEvent(ctx context.Context, userID int64, eventType domain.EventType, params ...string) error {
	if len(params) > domain.MaxEventParams {
		return fmt.Errorf("%w: %d > %d", domain.ErrTooManyEventParams, len(params), domain.MaxEventParams)
	}
	return s.store.AddEvent(ctx, domain.Event{
		UserID:    userID,
		Type:      eventType,
		Params:    append([]string(nil), params...),
		CreatedAt: s.now(),
	})
}
