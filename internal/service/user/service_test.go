package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/bloodbank-api/pkg/errors"
	"github.com/jwalitptl/bloodbank-api/pkg/security"
)

func newService() *Service {
	return NewService(memory.NewStore().Users(), security.NewBcryptHasher(bcrypt.MinCost))
}

func TestCreateUser(t *testing.T) {
	svc := newService()
	city := "Pune"

	user, err := svc.CreateUser(context.Background(), &model.CreateUserRequest{
		FullName: " Asha Rao ",
		Email:    "Asha@Example.com",
		Password: "donor-pass",
		Role:     model.RoleDonor,
		City:     &city,
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "Asha Rao", user.FullName)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.NotEqual(t, "donor-pass", user.PasswordHash)

	got, err := svc.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pune", *got.City)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := newService()
	req := &model.CreateUserRequest{FullName: "A", Email: "a@example.com", Password: "password1", Role: model.RoleAdmin}

	_, err := svc.CreateUser(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.CreateUser(context.Background(), req)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestCreateUserValidation(t *testing.T) {
	svc := newService()

	_, err := svc.CreateUser(context.Background(), &model.CreateUserRequest{Email: "a@example.com", Password: "password1", Role: "nurse"})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	_, err = svc.CreateUser(context.Background(), &model.CreateUserRequest{Email: "a@example.com", Password: "short", Role: model.RoleDonor})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestGetUserNotFound(t *testing.T) {
	_, err := newService().GetUser(context.Background(), 99)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
