package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"parking-gate-service/internal/domain/account"
	"parking-gate-service/internal/store"
	"parking-gate-service/internal/vision"
)

// PlateService is the ownership registry. Uniqueness is per (user, plate)
// only; two users can register the same plate text, and settlement then
// picks the oldest active registration.
type PlateService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewPlateService(st store.Store, log zerolog.Logger) *PlateService {
	return &PlateService{store: st, log: log, now: time.Now}
}

func (s *PlateService) Register(ctx context.Context, userID int64, plate string) (int64, error) {
	if !vision.ValidOwnershipPlate(plate) {
		return 0, fmt.Errorf("%w: invalid license plate format: %s", ErrInvalidInput, plate)
	}

	existing, err := s.store.UserPlateFor(ctx, userID, plate)
	if err != nil {
		return 0, fmt.Errorf("lookup plate: %w", err)
	}
	if existing != nil {
		return 0, fmt.Errorf("%w: plate %s already registered for user %d", ErrConflict, plate, userID)
	}

	row := &account.UserPlate{
		UserID:       userID,
		Plate:        plate,
		RegisteredAt: s.now(),
		IsActive:     true,
	}
	if err := s.store.CreateUserPlate(ctx, row); err != nil {
		return 0, fmt.Errorf("register plate: %w", err)
	}

	s.log.Info().
		Int64("user_id", userID).
		Int64("plate_id", row.ID).
		Str("plate", plate).
		Msg("plate registered")

	return row.ID, nil
}

// Deactivate soft-deletes a plate registration; history is preserved.
func (s *PlateService) Deactivate(ctx context.Context, plateID, requestingUserID int64) error {
	row, err := s.store.UserPlateByID(ctx, plateID)
	if err != nil {
		return fmt.Errorf("lookup plate: %w", err)
	}
	if row == nil {
		return fmt.Errorf("%w: plate %d", ErrNotFound, plateID)
	}
	if row.UserID != requestingUserID {
		return fmt.Errorf("%w: plate %d does not belong to user %d", ErrUnauthorized, plateID, requestingUserID)
	}
	return s.store.DeactivateUserPlate(ctx, plateID)
}

func (s *PlateService) ListForUser(ctx context.Context, userID int64) ([]account.UserPlate, error) {
	return s.store.PlatesForUser(ctx, userID)
}

// OwnerOf returns the owning user id, or 0 when the plate is unregistered.
func (s *PlateService) OwnerOf(ctx context.Context, plate string) (int64, error) {
	owner, err := s.store.ActiveOwner(ctx, plate)
	if err != nil {
		return 0, fmt.Errorf("lookup owner: %w", err)
	}
	if owner == nil {
		return 0, nil
	}
	return owner.UserID, nil
}
