package parking

import (
	"time"
)

// PaymentStatus is the outcome of exit settlement. Insufficient balance is a
// normal business outcome, not an error.
type PaymentStatus string

const (
	PaymentManual              PaymentStatus = "manual"
	PaymentAutoPaid            PaymentStatus = "auto_paid"
	PaymentInsufficientBalance PaymentStatus = "insufficient_balance"
	PaymentWalletNotFound      PaymentStatus = "wallet_not_found"
)

type Entry struct {
	ID          int64     `json:"id"`
	Plate       string    `json:"plate"`
	ImageIn     string    `json:"image_in"`
	TimestampIn time.Time `json:"timestamp_in"`
}

type Exit struct {
	ID              int64     `json:"id"`
	EntryID         int64     `json:"entry_id"`
	Plate           string    `json:"plate"`
	ImageOut        string    `json:"image_out"`
	TimestampOut    time.Time `json:"timestamp_out"`
	DurationMinutes int64     `json:"duration_minutes"`
	Cost            int64     `json:"cost"`
}

type ActiveCar struct {
	EntryID     int64     `json:"entry_id"`
	Plate       string    `json:"plate"`
	TimestampIn time.Time `json:"timestamp_in"`
}

type EntryResult struct {
	EntryID int64  `json:"entry_id"`
	Plate   string `json:"plate"`
}

// ExitResult covers the whole exit pipeline: session close plus settlement.
// TransactionID is set only for auto_paid, PaymentError only for the failure
// statuses.
type ExitResult struct {
	EntryID         int64         `json:"entry_id"`
	ExitID          int64         `json:"exit_id"`
	Plate           string        `json:"plate"`
	DurationMinutes int64         `json:"duration"`
	Cost            int64         `json:"cost"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	TransactionID   int64         `json:"transaction_id,omitempty"`
	PaymentError    string        `json:"payment_error,omitempty"`
}

type Status struct {
	Capacity     int   `json:"capacity"`
	ActiveCars   int64 `json:"active_cars"`
	FreeSlots    int64 `json:"free_slots"`
	PricePerHour int   `json:"price_per_hour"`
}

// GateEvent is one confirmed plate observation, broadcast to display clients
// and kept as an audit row with the vote breakdown.
type GateEvent struct {
	ID        int64          `json:"id,omitempty"`
	CameraID  string         `json:"camera_id"`
	Direction string         `json:"direction"`
	Plate     string         `json:"plate"`
	Region    string         `json:"region,omitempty"`
	Votes     map[string]int `json:"votes,omitempty"`
	EventTime time.Time      `json:"event_time"`
}

const (
	DirectionEntry = "entry"
	DirectionExit  = "exit"
)
