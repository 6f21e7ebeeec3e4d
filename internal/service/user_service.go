package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"parking-gate-service/internal/domain/account"
	"parking-gate-service/internal/store"
)

// UserService covers the admin surface: listing users and changing roles.
type UserService struct {
	store store.Store
	log   zerolog.Logger
}

func NewUserService(st store.Store, log zerolog.Logger) *UserService {
	return &UserService{store: st, log: log}
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]account.User, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListUsers(ctx, limit, offset)
}

func (s *UserService) UpdateRole(ctx context.Context, userID int64, role string) error {
	if role != account.RoleUser && role != account.RoleAdmin {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}

	if err := s.store.UpdateUserRole(ctx, userID, role); err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	s.log.Info().Int64("user_id", userID).Str("role", role).Msg("user role updated")
	return nil
}
