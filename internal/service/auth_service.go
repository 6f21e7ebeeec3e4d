package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parking-gate-service/internal/domain/account"
	"parking-gate-service/internal/store"
)

var phoneRe = regexp.MustCompile(`^09\d{9}$`)

type LoginResult struct {
	Token string        `json:"token"`
	User  *account.User `json:"user"`
}

// AuthService issues and validates access tokens. Tokens are signed JWTs
// whose jti is persisted in auth_tokens, so logout revokes server-side
// and validation stays a simple row lookup.
type AuthService struct {
	store    store.Store
	secret   []byte
	lifetime time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(st store.Store, secret string, lifetime time.Duration, log zerolog.Logger) *AuthService {
	return &AuthService{
		store:    st,
		secret:   []byte(secret),
		lifetime: lifetime,
		log:      log,
		now:      time.Now,
	}
}

// Login is passwordless: a valid phone number gets or creates the user
// (with their wallet) and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, phone string) (*LoginResult, error) {
	if !phoneRe.MatchString(phone) {
		return nil, fmt.Errorf("%w: invalid phone number format", ErrInvalidInput)
	}

	user, err := s.store.UserByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		user = &account.User{
			PhoneNumber: phone,
			Role:        account.RoleUser,
			CreatedAt:   s.now(),
			IsActive:    true,
		}
		err = s.store.InTx(ctx, func(tx store.Store) error {
			if err := tx.CreateUser(ctx, user); err != nil {
				return err
			}
			return tx.CreateWallet(ctx, &account.Wallet{
				UserID:      user.ID,
				Balance:     0,
				LastUpdated: user.CreatedAt,
			})
		})
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		s.log.Info().Int64("user_id", user.ID).Msg("new user created on login")
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user is deactivated", ErrUnauthorized)
	}

	now := s.now()
	expiresAt := now.Add(s.lifetime)
	jti := uuid.NewString()

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	if err := s.store.CreateAuthToken(ctx, user.ID, jti, now, expiresAt); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	return &LoginResult{Token: signed, User: user}, nil
}

// ValidateToken resolves a bearer token to its user. Invalid, revoked or
// expired tokens all come back as (nil, nil); errors are store failures.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*account.User, error) {
	jti, ok := s.parseJTI(tokenString)
	if !ok {
		return nil, nil
	}

	userID, expiresAt, err := s.store.AuthTokenUser(ctx, jti)
	if err != nil {
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	if userID == 0 || expiresAt == nil || s.now().After(*expiresAt) {
		return nil, nil
	}

	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, nil
	}
	return user, nil
}

// Logout revokes a single token.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	jti, ok := s.parseJTI(tokenString)
	if !ok {
		return fmt.Errorf("%w: malformed token", ErrUnauthorized)
	}
	return s.store.DeleteAuthToken(ctx, jti)
}

// LogoutAll revokes every token the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) error {
	return s.store.DeleteUserTokens(ctx, userID)
}

func (s *AuthService) parseJTI(tokenString string) (string, bool) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return "", false
	}
	return claims.ID, true
}
