package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/thereayou/zenlist-realtime/internal/models"
	"github.com/thereayou/zenlist-realtime/internal/websocket"
	"github.com/thereayou/zenlist-realtime/pkg/auth"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

// Blacklist отозванные токены (cache.TokenBlacklist)
type Blacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}

type AuthResult struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// Authenticator регистрация, вход и проверка токенов для HTTP и WebSocket
type Authenticator struct {
	users     UserStore
	jwt       *auth.JWTManager
	blacklist Blacklist
	log       logger.Logger
}

func NewAuthenticator(users UserStore, jwt *auth.JWTManager, blacklist Blacklist, log logger.Logger) *Authenticator {
	return &Authenticator{users: users, jwt: jwt, blacklist: blacklist, log: log}
}

func (a *Authenticator) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := a.users.FindUserByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("cannot hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		LastSeenAt:   time.Now(),
	}
	if err := a.users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	a.log.Info("User registered", "user_id", user.ID)
	return a.issue(user)
}

// Login выдаёт JWT и обновляет last_seen
func (a *Authenticator) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := a.users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := a.users.UpdateLastSeen(ctx, user.ID); err != nil {
		a.log.Warn("Could not update last seen", "user_id", user.ID, "error", err)
	}

	return a.issue(user)
}

func (a *Authenticator) issue(user *models.User) (*AuthResult, error) {
	token, err := a.jwt.Generate(user.ID.String(), user.Name, user.Email)
	if err != nil {
		return nil, fmt.Errorf("could not generate token: %w", err)
	}
	exp, err := a.jwt.Expiry(token)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: token, ExpiresAt: exp}, nil
}

// Logout ставит токен в черный список до истечения
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	exp, err := a.jwt.Expiry(token)
	if err != nil {
		return apperrors.ErrAuthenticationRequired
	}
	if err := a.blacklist.Add(ctx, token, time.Until(exp)); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}
	return nil
}

// Identify проверяет токен и возвращает личность для привязки соединения
func (a *Authenticator) Identify(ctx context.Context, token string) (websocket.Identity, error) {
	if token == "" {
		return websocket.Identity{}, apperrors.ErrAuthenticationRequired
	}

	revoked, err := a.blacklist.Contains(ctx, token)
	if err != nil {
		a.log.Error("Blacklist check failed", "error", err)
		return websocket.Identity{}, apperrors.ErrAuthenticationRequired
	}
	if revoked {
		return websocket.Identity{}, fmt.Errorf("%w: token is revoked", apperrors.ErrAuthenticationRequired)
	}

	claims, err := a.jwt.Verify(token)
	if err != nil {
		return websocket.Identity{}, fmt.Errorf("%w: invalid token", apperrors.ErrAuthenticationRequired)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return websocket.Identity{}, fmt.Errorf("%w: invalid user id", apperrors.ErrAuthenticationRequired)
	}

	return websocket.Identity{UserID: userID, Name: claims.Name, Email: claims.Email}, nil
}
