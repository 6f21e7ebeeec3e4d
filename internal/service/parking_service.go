package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"parking-gate-service/internal/domain/parking"
	"parking-gate-service/internal/store"
)

const (
	settingCapacity     = "capacity"
	settingPricePerHour = "price_per_hour"
)

// ParkingService is the session ledger: it owns entry and exit
// registration and hands settlement off to the engine inside the same
// store transaction.
type ParkingService struct {
	store          store.Store
	settlement     *SettlementEngine
	suppressWindow time.Duration
	log            zerolog.Logger
	now            func() time.Time
}

func NewParkingService(st store.Store, settlement *SettlementEngine, suppressWindow time.Duration, log zerolog.Logger) *ParkingService {
	return &ParkingService{
		store:          st,
		settlement:     settlement,
		suppressWindow: suppressWindow,
		log:            log,
		now:            time.Now,
	}
}

// WasRecentlyRegistered reports whether the plate's most recent entry
// falls inside the suppression window. Exit registration never applies
// this check; a vehicle may leave right after entering.
func (s *ParkingService) WasRecentlyRegistered(ctx context.Context, plate string) (bool, error) {
	last, err := s.store.LastEntryTime(ctx, plate)
	if err != nil {
		return false, fmt.Errorf("last entry time: %w", err)
	}
	if last == nil {
		return false, nil
	}
	return s.now().Sub(*last) < s.suppressWindow, nil
}

// RegisterEntry opens a parking session: an entry row plus an active-car
// row, written atomically. A plate seen again inside the suppression
// window is rejected before anything is written.
func (s *ParkingService) RegisterEntry(ctx context.Context, plate, imagePath string) (*parking.EntryResult, error) {
	if plate == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}

	recent, err := s.WasRecentlyRegistered(ctx, plate)
	if err != nil {
		return nil, err
	}
	if recent {
		s.log.Info().Str("plate", plate).Msg("entry rejected, recent duplicate")
		return nil, fmt.Errorf("%w: plate %s entered within the last %s", ErrConflict, plate, s.suppressWindow)
	}

	entry := &parking.Entry{
		Plate:       plate,
		ImageIn:     imagePath,
		TimestampIn: s.now(),
	}
	err = s.store.InTx(ctx, func(tx store.Store) error {
		if err := tx.CreateEntry(ctx, entry); err != nil {
			return err
		}
		return tx.CreateActiveCar(ctx, &parking.ActiveCar{
			EntryID:     entry.ID,
			Plate:       entry.Plate,
			TimestampIn: entry.TimestampIn,
		})
	})
	if err != nil {
		s.log.Error().Err(err).Str("plate", plate).Msg("failed to register entry")
		return nil, fmt.Errorf("register entry: %w", err)
	}

	s.log.Info().
		Int64("entry_id", entry.ID).
		Str("plate", plate).
		Msg("entry registered")

	return &parking.EntryResult{EntryID: entry.ID, Plate: plate}, nil
}

// RegisterExit closes the plate's oldest open session. The exit insert,
// active-car delete and any settlement writes happen in one transaction;
// a failure anywhere rolls back all of it. Returns ErrNotFound when the
// plate has no active session.
func (s *ParkingService) RegisterExit(ctx context.Context, plate, imagePath string) (*parking.ExitResult, error) {
	if plate == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}

	var result *parking.ExitResult
	err := s.store.InTx(ctx, func(tx store.Store) error {
		// Multiple open sessions for one plate text are possible because
		// suppression is a time window, not a uniqueness constraint. The
		// earliest timestamp_in wins.
		active, err := tx.EarliestActiveCar(ctx, plate)
		if err != nil {
			return fmt.Errorf("lookup active car: %w", err)
		}
		if active == nil {
			return fmt.Errorf("%w: no active session for plate %s", ErrNotFound, plate)
		}

		now := s.now()
		duration := int64(now.Sub(active.TimestampIn).Minutes())
		price, err := s.settingInt(ctx, tx, settingPricePerHour)
		if err != nil {
			return err
		}

		hours := (duration + 59) / 60
		if hours < 1 {
			hours = 1
		}
		cost := hours * int64(price)

		exit := &parking.Exit{
			EntryID:         active.EntryID,
			Plate:           plate,
			ImageOut:        imagePath,
			TimestampOut:    now,
			DurationMinutes: duration,
			Cost:            cost,
		}
		if err := tx.CreateExit(ctx, exit); err != nil {
			return fmt.Errorf("create exit: %w", err)
		}
		if err := tx.DeleteActiveCar(ctx, active.EntryID); err != nil {
			return fmt.Errorf("delete active car: %w", err)
		}

		settled, err := s.settlement.Settle(ctx, tx, plate, cost, exit.ID, now)
		if err != nil {
			return err
		}

		result = &parking.ExitResult{
			EntryID:         active.EntryID,
			ExitID:          exit.ID,
			Plate:           plate,
			DurationMinutes: duration,
			Cost:            cost,
			PaymentStatus:   settled.Status,
			TransactionID:   settled.TransactionID,
			PaymentError:    settled.Message,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("entry_id", result.EntryID).
		Int64("exit_id", result.ExitID).
		Str("plate", plate).
		Int64("duration_minutes", result.DurationMinutes).
		Int64("cost", result.Cost).
		Str("payment_status", string(result.PaymentStatus)).
		Msg("exit registered")

	return result, nil
}

// Status reports occupancy and tariff for the status endpoint.
func (s *ParkingService) Status(ctx context.Context) (*parking.Status, error) {
	capacity, err := s.settingInt(ctx, s.store, settingCapacity)
	if err != nil {
		return nil, err
	}
	price, err := s.settingInt(ctx, s.store, settingPricePerHour)
	if err != nil {
		return nil, err
	}
	active, err := s.store.CountActiveCars(ctx)
	if err != nil {
		return nil, fmt.Errorf("count active cars: %w", err)
	}

	free := int64(capacity) - active
	if free < 0 {
		free = 0
	}
	return &parking.Status{
		Capacity:     capacity,
		ActiveCars:   active,
		FreeSlots:    free,
		PricePerHour: price,
	}, nil
}

func (s *ParkingService) Capacity(ctx context.Context) (int, error) {
	return s.settingInt(ctx, s.store, settingCapacity)
}

func (s *ParkingService) SetCapacity(ctx context.Context, capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidInput)
	}
	return s.store.SetSetting(ctx, settingCapacity, strconv.Itoa(capacity))
}

func (s *ParkingService) PricePerHour(ctx context.Context) (int, error) {
	return s.settingInt(ctx, s.store, settingPricePerHour)
}

func (s *ParkingService) SetPricePerHour(ctx context.Context, price int) error {
	if price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	return s.store.SetSetting(ctx, settingPricePerHour, strconv.Itoa(price))
}

// RecordGateEvent appends one confirmed observation to the audit log.
func (s *ParkingService) RecordGateEvent(ctx context.Context, ev *parking.GateEvent) error {
	if err := s.store.CreateGateEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("plate", ev.Plate).Msg("failed to record gate event")
		return fmt.Errorf("record gate event: %w", err)
	}
	return nil
}

func (s *ParkingService) settingInt(ctx context.Context, st store.Store, key string) (int, error) {
	raw, err := st.GetSetting(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("get setting %s: %w", key, err)
	}
	if raw == "" {
		return 0, fmt.Errorf("%w: setting %s is missing", ErrNotFound, key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("setting %s is not a number: %w", key, err)
	}
	return v, nil
}
