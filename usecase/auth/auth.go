package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/goalboard/backend/domain"
	"github.com/goalboard/backend/repository"
)

// TokenConfig controls access-token signing and session lifetimes.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   TokenConfig
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, tokens TokenConfig, logger *zap.Logger) *UseCase {
	if tokens.AccessTTL <= 0 {
		tokens.AccessTTL = time.Hour
	}
	if tokens.RefreshTTL <= 0 {
		tokens.RefreshTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

// LoginResult bundles the signed access token with the refresh session.
type LoginResult struct {
	AccessToken string          `json:"access_token"`
	Session     *domain.Session `json:"session"`
}

func (uc *UseCase) Register(ctx context.Context, email, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to hash password", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	created, err := uc.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("user registered", zap.String("user_id", created.ID))
	return created, nil
}

// Login verifies credentials and issues an access token plus a refresh
// session. Unknown email and wrong password are indistinguishable.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrUnauthorized
	}

	token, err := uc.signToken(user)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(uc.tokens.RefreshTTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	return &LoginResult{AccessToken: token, Session: session}, nil
}

// Refresh re-issues an access token against a live session and extends it.
func (uc *UseCase) Refresh(ctx context.Context, sessionID string) (*LoginResult, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}

	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	token, err := uc.signToken(user)
	if err != nil {
		return nil, err
	}

	if err := uc.sessions.Extend(ctx, sessionID, int(uc.tokens.RefreshTTL.Seconds())); err != nil {
		return nil, err
	}
	session.ExpiresAt = time.Now().Add(uc.tokens.RefreshTTL)

	return &LoginResult{AccessToken: token, Session: session}, nil
}

func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *UseCase) signToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"iss":     uc.tokens.Issuer,
		"iat":     now.Unix(),
		"exp":     now.Add(uc.tokens.AccessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(uc.tokens.Secret))
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "failed to sign token", err)
	}
	return signed, nil
}
