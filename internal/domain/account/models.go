package account

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	TransactionCharge  = "charge"
	TransactionPayment = "payment"
	TransactionRefund  = "refund"
)

type User struct {
	ID          int64     `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
}

type Wallet struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Balance     int64     `json:"balance"`
	LastUpdated time.Time `json:"last_updated"`
}

// Transaction rows are append-only; the wallet balance must always equal
// sum(charge) + sum(refund) - sum(payment) over its transactions.
type Transaction struct {
	ID          int64     `json:"id"`
	WalletID    int64     `json:"wallet_id"`
	Type        string    `json:"transaction_type"`
	Amount      int64     `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	ExitID      *int64    `json:"exit_id,omitempty"`
}

type UserPlate struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Plate        string    `json:"plate"`
	RegisteredAt time.Time `json:"registered_at"`
	IsActive     bool      `json:"is_active"`
}

type ChargeResult struct {
	NewBalance    int64 `json:"new_balance"`
	TransactionID int64 `json:"transaction_id"`
}
