package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/campusdash/canvas-dashboard-api/internal/canvas"
	"github.com/campusdash/canvas-dashboard-api/internal/dto"
	"github.com/campusdash/canvas-dashboard-api/internal/models"
	appErrors "github.com/campusdash/canvas-dashboard-api/pkg/errors"
)

// identityVerifier proves a Canvas token valid by resolving its owner.
type identityVerifier interface {
	Self(ctx context.Context) (*canvas.UserPayload, error)
}

// AuthService exchanges Canvas personal access tokens for short-lived
// session JWTs. The Canvas token travels inside the claims so later requests
// never have to resend it.
type AuthService struct {
	verifier   identityVerifier
	secret     []byte
	expiration time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// AuthServiceParams groups constructor dependencies.
type AuthServiceParams struct {
	Verifier   identityVerifier
	Secret     string
	Expiration time.Duration
	Logger     *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(params AuthServiceParams) *AuthService {
	expiration := params.Expiration
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		verifier:   params.Verifier,
		secret:     []byte(params.Secret),
		expiration: expiration,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateSession validates the Canvas token against the Canvas API and mints
// a signed session token carrying the caller's identity.
func (s *AuthService) CreateSession(ctx context.Context, canvasToken string) (*dto.SessionResponse, error) {
	user, err := s.verifier.Self(canvas.WithToken(ctx, canvasToken))
	if err != nil {
		s.logger.Warn("canvas token verification failed", zap.Error(err))
		return nil, appErrors.FromError(err)
	}

	issued := s.now()
	expires := issued.Add(s.expiration)
	claims := models.SessionClaims{
		UserID:      user.ID,
		UserName:    user.Name,
		CanvasToken: canvasToken,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session token")
	}

	return &dto.SessionResponse{
		AccessToken: signed,
		ExpiresAt:   expires,
		UserID:      user.ID,
		UserName:    user.Name,
	}, nil
}

// ValidateToken parses and verifies a session token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session token")
	}
	return claims, nil
}
