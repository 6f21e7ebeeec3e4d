package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"parking-gate-service/internal/domain/account"
)

func newWalletFixture(t *testing.T) (*memStore, *WalletService, int64) {
	t.Helper()
	st := newMemStore()
	svc := NewWalletService(st, zerolog.Nop())

	ctx := context.Background()
	user := &account.User{PhoneNumber: "09351112233", Role: account.RoleUser, IsActive: true}
	if err := st.CreateUser(ctx, user); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateWallet(ctx, &account.Wallet{UserID: user.ID}); err != nil {
		t.Fatal(err)
	}
	return st, svc, user.ID
}

func TestChargeRejectsNonPositiveAmounts(t *testing.T) {
	_, svc, userID := newWalletFixture(t)
	ctx := context.Background()

	for _, amount := range []int64{0, -1, -500000} {
		if _, err := svc.Charge(ctx, userID, amount); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Charge(%d): err = %v, want ErrInvalidInput", amount, err)
		}
	}
}

func TestChargeUnknownWallet(t *testing.T) {
	_, svc, _ := newWalletFixture(t)

	if _, err := svc.Charge(context.Background(), 9999, 1000); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBalanceConservation(t *testing.T) {
	st, svc, userID := newWalletFixture(t)
	ctx := context.Background()

	res, err := svc.Charge(ctx, userID, 500000)
	if err != nil {
		t.Fatal(err)
	}
	if res.NewBalance != 500000 {
		t.Errorf("balance after charge = %d", res.NewBalance)
	}

	// Pay part of it out through the settlement path representation: a
	// direct payment transaction plus balance update, as settlement does.
	wallet, _ := st.WalletByUserID(ctx, userID)
	if err := st.UpdateWalletBalance(ctx, wallet.ID, wallet.Balance-120000, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateTransaction(ctx, &account.Transaction{
		WalletID: wallet.ID, Type: account.TransactionPayment, Amount: 120000, Timestamp: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	balance, err := svc.Balance(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 380000 {
		t.Errorf("balance = %d, want 380000", balance)
	}

	// The ledger must reproduce the balance: sum(charge) - sum(payment).
	var ledger int64
	for _, tx := range st.transactions {
		switch tx.Type {
		case account.TransactionCharge, account.TransactionRefund:
			ledger += tx.Amount
		case account.TransactionPayment:
			ledger -= tx.Amount
		}
	}
	if ledger != balance {
		t.Errorf("ledger sum %d != balance %d", ledger, balance)
	}
}

func TestChargeThenEqualPaymentRoundTrips(t *testing.T) {
	st, svc, userID := newWalletFixture(t)
	ctx := context.Background()

	for _, amount := range []int64{1, 777, 500000} {
		before, err := svc.Balance(ctx, userID)
		if err != nil {
			t.Fatal(err)
		}

		if _, err := svc.Charge(ctx, userID, amount); err != nil {
			t.Fatal(err)
		}
		wallet, _ := st.WalletByUserID(ctx, userID)
		if err := st.UpdateWalletBalance(ctx, wallet.ID, wallet.Balance-amount, time.Now()); err != nil {
			t.Fatal(err)
		}

		after, err := svc.Balance(ctx, userID)
		if err != nil {
			t.Fatal(err)
		}
		if after != before {
			t.Errorf("amount %d: balance %d != original %d", amount, after, before)
		}
	}
}

func TestTransactionsPagination(t *testing.T) {
	_, svc, userID := newWalletFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Charge(ctx, userID, 1000); err != nil {
			t.Fatal(err)
		}
	}

	txs, err := svc.Transactions(ctx, userID, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 3 {
		t.Errorf("page length = %d, want 3", len(txs))
	}

	rest, err := svc.Transactions(ctx, userID, 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 2 {
		t.Errorf("second page length = %d, want 2", len(rest))
	}
}
