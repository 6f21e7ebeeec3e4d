// Package store defines the persistence contract the services are written
// against. The gorm-backed implementation lives in internal/repository.
package store

import (
	"context"
	"time"

	"parking-gate-service/internal/domain/account"
	"parking-gate-service/internal/domain/parking"
)

// Store is the shared ledger both camera feeds and the API talk through.
// Lookup methods return (nil, nil) when no row matches; callers translate
// that into their own not-found handling.
type Store interface {
	// InTx runs fn against a transaction-scoped store. Everything fn
	// writes is applied atomically or not at all.
	InTx(ctx context.Context, fn func(Store) error) error

	// Sessions.
	CreateEntry(ctx context.Context, e *parking.Entry) error
	LastEntryTime(ctx context.Context, plate string) (*time.Time, error)
	CreateActiveCar(ctx context.Context, ac *parking.ActiveCar) error
	EarliestActiveCar(ctx context.Context, plate string) (*parking.ActiveCar, error)
	DeleteActiveCar(ctx context.Context, entryID int64) error
	CountActiveCars(ctx context.Context) (int64, error)
	CreateExit(ctx context.Context, e *parking.Exit) error
	CreateGateEvent(ctx context.Context, ev *parking.GateEvent) error

	// Settings.
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Users.
	CreateUser(ctx context.Context, u *account.User) error
	UserByPhone(ctx context.Context, phone string) (*account.User, error)
	UserByID(ctx context.Context, id int64) (*account.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]account.User, error)
	UpdateUserRole(ctx context.Context, id int64, role string) error

	// Wallets and transactions.
	CreateWallet(ctx context.Context, w *account.Wallet) error
	WalletByUserID(ctx context.Context, userID int64) (*account.Wallet, error)
	UpdateWalletBalance(ctx context.Context, walletID, newBalance int64, now time.Time) error
	CreateTransaction(ctx context.Context, t *account.Transaction) error
	TransactionsForWallet(ctx context.Context, walletID int64, limit, offset int) ([]account.Transaction, error)

	// Plate ownership.
	CreateUserPlate(ctx context.Context, p *account.UserPlate) error
	UserPlateByID(ctx context.Context, id int64) (*account.UserPlate, error)
	UserPlateFor(ctx context.Context, userID int64, plate string) (*account.UserPlate, error)
	PlatesForUser(ctx context.Context, userID int64) ([]account.UserPlate, error)
	DeactivateUserPlate(ctx context.Context, id int64) error
	ActiveOwner(ctx context.Context, plate string) (*account.UserPlate, error)

	// Auth tokens.
	CreateAuthToken(ctx context.Context, userID int64, token string, createdAt, expiresAt time.Time) error
	AuthTokenUser(ctx context.Context, token string) (int64, *time.Time, error)
	DeleteAuthToken(ctx context.Context, token string) error
	DeleteUserTokens(ctx context.Context, userID int64) error
}
