package app_test

import (
	"context"
	"testing"

	"androbot/internal/app"
	"androbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	user, err := service.RegisterUser(ctx, domain.User{UserID: 5, Name: "Ann", Username: "ann"})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, user.CreatedAt)

	_, err = service.RegisterUser(ctx, domain.User{UserID: 5, Name: "Bob"})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	got, err := service.GetUser(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
}

func TestSelectSpecialty(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, app.WithSpecialties(domain.SpecialtyAndroid))
	_, err := service.RegisterUser(ctx, domain.User{UserID: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, service.SelectSpecialty(ctx, 1, domain.SpecialtyTest), domain.ErrUnknownSpecialty)
	assert.ErrorIs(t, service.SelectSpecialty(ctx, 2, domain.SpecialtyAndroid), domain.ErrUserNotFound)
	require.NoError(t, service.SelectSpecialty(ctx, 1, domain.SpecialtyAndroid))

	user, err := service.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SpecialtyAndroid, user.Specialty)
	assert.Equal(t, []domain.Specialty{domain.SpecialtyAndroid}, service.Specialties())
}

func TestRemoveUserCascades(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)
	registerWithSpecialty(t, service, 1)
	seedQuestions(t, service, 1)
	answer(t, service, 1)
	require.NoError(t, service.LogEvent(ctx, 1, domain.EventStart))

	require.NoError(t, service.RemoveUser(ctx, 1))
	_, err := service.GetUser(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Empty(t, store.Sessions(1))
	assert.Empty(t, store.Events(1))
	assert.ErrorIs(t, service.RemoveUser(ctx, 1), domain.ErrUserNotFound)
}

func TestLogEventLimitsParams(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)
	registerWithSpecialty(t, service, 1)

	require.NoError(t, service.LogEvent(ctx, 1, domain.EventTaskGrade, "1", "2", "3", "4", "5"))
	err := service.LogEvent(ctx, 1, domain.EventTaskGrade, "1", "2", "3", "4", "5", "6")
	assert.ErrorIs(t, err, domain.ErrTooManyEventParams)

	events := store.Events(1)
	require.Len(t, events, 1)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, events[0].Params)
	assert.Equal(t, fixedNow, events[0].CreatedAt)
}
