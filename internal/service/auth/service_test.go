package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository/memory"
	userService "github.com/jwalitptl/bloodbank-api/internal/service/user"
	"github.com/jwalitptl/bloodbank-api/pkg/auth"
	apperrors "github.com/jwalitptl/bloodbank-api/pkg/errors"
	"github.com/jwalitptl/bloodbank-api/pkg/security"
)

func setup(t *testing.T) (*Service, *model.User) {
	t.Helper()
	store := memory.NewStore()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("hospital-pass")
	require.NoError(t, err)
	user := &model.User{FullName: "City Hospital", Email: "ops@hospital.org", PasswordHash: hash, Role: model.RoleHospital}
	require.NoError(t, store.Users().Create(context.Background(), user))

	return NewService(store.Users(), hasher, auth.NewJWTService("secret", 2*time.Hour)), user
}

func TestLoginAndAuthorize(t *testing.T) {
	svc, user := setup(t)

	tok, err := svc.Login(context.Background(), "ops@hospital.org", "hospital-pass")
	require.NoError(t, err)

	claims, err := svc.Authorize(tok.Token, model.RoleAdmin, model.RoleHospital)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleHospital, claims.Role)

	_, err = svc.Authorize(tok.Token)
	assert.NoError(t, err, "no roles admits any token")
}

func TestLoginWithMixedCaseEmail(t *testing.T) {
	store := memory.NewStore()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	ctx := context.Background()

	users := userService.NewService(store.Users(), hasher)
	created, err := users.CreateUser(ctx, &model.CreateUserRequest{
		FullName: "Asha Rao",
		Email:    "Asha@Example.com",
		Password: "password1",
		Role:     model.RoleDonor,
	})
	require.NoError(t, err)

	svc := NewService(store.Users(), hasher, auth.NewJWTService("secret", 2*time.Hour))
	for _, email := range []string{"Asha@Example.com", "asha@example.com", " ASHA@EXAMPLE.COM "} {
		tok, err := svc.Login(ctx, email, "password1")
		require.NoError(t, err, email)

		claims, err := svc.Authorize(tok.Token)
		require.NoError(t, err)
		assert.Equal(t, created.ID, claims.UserID)
	}
}

func TestLoginSameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	svc, _ := setup(t)

	_, errUnknown := svc.Login(context.Background(), "nobody@hospital.org", "hospital-pass")
	_, errWrong := svc.Login(context.Background(), "ops@hospital.org", "nope-nope")

	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
	assert.Equal(t, http.StatusUnauthorized, apperrors.As(errWrong).StatusCode())
}

func TestAuthorizeRoleDenied(t *testing.T) {
	svc, _ := setup(t)
	tok, err := svc.Login(context.Background(), "ops@hospital.org", "hospital-pass")
	require.NoError(t, err)

	_, err = svc.Authorize(tok.Token, model.RoleAdmin)
	appErr := apperrors.As(err)
	assert.Equal(t, http.StatusForbidden, appErr.StatusCode())

	details := appErr.Details.(map[string]interface{})
	assert.Equal(t, []model.Role{model.RoleAdmin}, details["required_roles"])
	assert.Equal(t, model.RoleHospital, details["your_role"])
}

func TestAuthorizeBadTokens(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.Authorize("")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.Authorize("not.a.jwt")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	expired := auth.NewJWTService("secret", -time.Minute)
	tok, err := expired.GenerateAccessToken(&model.User{ID: 1, Role: model.RoleAdmin})
	require.NoError(t, err)
	_, err = svc.Authorize(tok.Token)
	assert.True(t, apperrors.Is(err, apperrors.ErrTokenExpired))
}
