package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"parking-gate-service/internal/domain/account"
	"parking-gate-service/internal/domain/parking"
	"parking-gate-service/internal/store"
)

// Settlement is the outcome of an automatic payment attempt. Only
// auto_paid carries a transaction id; the failure statuses carry a
// human-readable message instead.
type Settlement struct {
	Status        parking.PaymentStatus
	TransactionID int64
	Message       string
}

// SettlementEngine debits a registered owner's wallet as part of exit
// registration. It always runs on the transaction-scoped store the exit
// was written through, so its writes commit or roll back with the exit.
type SettlementEngine struct {
	log zerolog.Logger
}

func NewSettlementEngine(log zerolog.Logger) *SettlementEngine {
	return &SettlementEngine{log: log}
}

// Settle resolves the plate's owner and attempts the debit. An unowned
// plate settles manually; an underfunded or missing wallet is reported as
// a status, never as an error, and leaves the wallet untouched. Errors
// are store failures only and abort the whole exit transaction.
func (e *SettlementEngine) Settle(ctx context.Context, tx store.Store, plate string, cost, exitID int64, now time.Time) (Settlement, error) {
	owner, err := tx.ActiveOwner(ctx, plate)
	if err != nil {
		return Settlement{}, fmt.Errorf("lookup plate owner: %w", err)
	}
	if owner == nil {
		return Settlement{Status: parking.PaymentManual}, nil
	}

	wallet, err := tx.WalletByUserID(ctx, owner.UserID)
	if err != nil {
		return Settlement{}, fmt.Errorf("lookup wallet: %w", err)
	}
	if wallet == nil {
		e.log.Warn().
			Int64("user_id", owner.UserID).
			Str("plate", plate).
			Msg("registered owner has no wallet")
		return Settlement{
			Status:  parking.PaymentWalletNotFound,
			Message: "Wallet not found for registered user",
		}, nil
	}

	if wallet.Balance < cost {
		return Settlement{
			Status:  parking.PaymentInsufficientBalance,
			Message: fmt.Sprintf("Insufficient balance. Required: %d, Available: %d", cost, wallet.Balance),
		}, nil
	}

	if err := tx.UpdateWalletBalance(ctx, wallet.ID, wallet.Balance-cost, now); err != nil {
		return Settlement{}, fmt.Errorf("debit wallet: %w", err)
	}

	payment := &account.Transaction{
		WalletID:    wallet.ID,
		Type:        account.TransactionPayment,
		Amount:      cost,
		Timestamp:   now,
		Description: fmt.Sprintf("Automatic parking payment for plate %s", plate),
		ExitID:      &exitID,
	}
	if err := tx.CreateTransaction(ctx, payment); err != nil {
		return Settlement{}, fmt.Errorf("record payment: %w", err)
	}

	e.log.Info().
		Int64("user_id", owner.UserID).
		Int64("wallet_id", wallet.ID).
		Int64("amount", cost).
		Int64("transaction_id", payment.ID).
		Str("plate", plate).
		Msg("parking cost auto-paid")

	return Settlement{Status: parking.PaymentAutoPaid, TransactionID: payment.ID}, nil
}
