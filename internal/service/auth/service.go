package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
	"github.com/jwalitptl/bloodbank-api/pkg/auth"
	apperrors "github.com/jwalitptl/bloodbank-api/pkg/errors"
	"github.com/jwalitptl/bloodbank-api/pkg/security"
)

const msgInvalidCredentials = "invalid email or password"

type Service struct {
	userRepo repository.UserRepository
	hasher   security.PasswordHasher
	jwtSvc   auth.JWTService
}

func NewService(userRepo repository.UserRepository, hasher security.PasswordHasher, jwtSvc auth.JWTService) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		jwtSvc:   jwtSvc,
	}
}

// Login exchanges credentials for a token. Unknown email and wrong password
// produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, model.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized(msgInvalidCredentials, model.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, apperrors.Unauthorized(msgInvalidCredentials, model.ErrInvalidCredentials)
	}

	token, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	log.Ctx(ctx).Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	return token, nil
}

// Authorize validates token and checks the embedded role against roles. An
// empty roles list admits any valid token.
func (s *Service) Authorize(token string, roles ...model.Role) (*model.TokenClaims, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("token is missing", nil)
	}

	claims, err := s.jwtSvc.ValidateToken(token)
	if errors.Is(err, model.ErrTokenExpired) {
		return nil, apperrors.TokenExpired(err)
	}
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token", err)
	}

	if !claims.HasRole(roles...) {
		return nil, apperrors.Forbidden("access denied", map[string]interface{}{
			"required_roles": roles,
			"your_role":      claims.Role,
		})
	}
	return claims, nil
}
