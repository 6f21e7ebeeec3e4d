package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"parking-gate-service/internal/domain/account"
	"parking-gate-service/internal/store"
)

type WalletService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewWalletService(st store.Store, log zerolog.Logger) *WalletService {
	return &WalletService{store: st, log: log, now: time.Now}
}

// Charge adds funds to the user's wallet: balance update plus a charge
// transaction row, atomically.
func (s *WalletService) Charge(ctx context.Context, userID, amount int64) (*account.ChargeResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: charge amount must be positive", ErrInvalidInput)
	}

	var result account.ChargeResult
	err := s.store.InTx(ctx, func(tx store.Store) error {
		wallet, err := tx.WalletByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("lookup wallet: %w", err)
		}
		if wallet == nil {
			return fmt.Errorf("%w: wallet for user %d", ErrNotFound, userID)
		}

		now := s.now()
		newBalance := wallet.Balance + amount
		if err := tx.UpdateWalletBalance(ctx, wallet.ID, newBalance, now); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		charge := &account.Transaction{
			WalletID:    wallet.ID,
			Type:        account.TransactionCharge,
			Amount:      amount,
			Timestamp:   now,
			Description: "Wallet charge",
		}
		if err := tx.CreateTransaction(ctx, charge); err != nil {
			return fmt.Errorf("record charge: %w", err)
		}

		result = account.ChargeResult{NewBalance: newBalance, TransactionID: charge.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", userID).
		Int64("amount", amount).
		Int64("new_balance", result.NewBalance).
		Msg("wallet charged")

	return &result, nil
}

func (s *WalletService) Balance(ctx context.Context, userID int64) (int64, error) {
	wallet, err := s.store.WalletByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("lookup wallet: %w", err)
	}
	if wallet == nil {
		return 0, fmt.Errorf("%w: wallet for user %d", ErrNotFound, userID)
	}
	return wallet.Balance, nil
}

func (s *WalletService) Transactions(ctx context.Context, userID int64, limit, offset int) ([]account.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	wallet, err := s.store.WalletByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup wallet: %w", err)
	}
	if wallet == nil {
		return nil, fmt.Errorf("%w: wallet for user %d", ErrNotFound, userID)
	}
	return s.store.TransactionsForWallet(ctx, wallet.ID, limit, offset)
}
