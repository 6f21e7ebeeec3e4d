package repository

import (
	"time"

	"gorm.io/datatypes"
)

type Entry struct {
	ID          int64     `gorm:"primaryKey"`
	Plate       string    `gorm:"not null;index"`
	ImageIn     string    `gorm:"not null"`
	TimestampIn time.Time `gorm:"not null"`
}

type Exit struct {
	ID              int64     `gorm:"primaryKey"`
	EntryID         int64     `gorm:"not null"`
	Plate           string    `gorm:"not null;index"`
	ImageOut        string    `gorm:"not null"`
	TimestampOut    time.Time `gorm:"not null"`
	DurationMinutes int64     `gorm:"not null"`
	Cost            int64     `gorm:"not null"`
}

type ActiveCar struct {
	EntryID     int64     `gorm:"primaryKey"`
	Plate       string    `gorm:"not null;index"`
	TimestampIn time.Time `gorm:"not null"`
}

type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"not null"`
}

type User struct {
	ID          int64     `gorm:"primaryKey"`
	PhoneNumber string    `gorm:"not null;uniqueIndex"`
	Role        string    `gorm:"not null;default:user"`
	CreatedAt   time.Time
	IsActive    bool      `gorm:"not null;default:true"`
}

type Wallet struct {
	ID          int64     `gorm:"primaryKey"`
	UserID      int64     `gorm:"not null;uniqueIndex"`
	Balance     int64     `gorm:"not null;default:0"`
	LastUpdated time.Time `gorm:"not null"`
}

type Transaction struct {
	ID              int64     `gorm:"primaryKey"`
	WalletID        int64     `gorm:"not null;index"`
	TransactionType string    `gorm:"not null"`
	Amount          int64     `gorm:"not null"`
	Timestamp       time.Time `gorm:"not null"`
	Description     string    `gorm:"not null;default:''"`
	ExitID          *int64
}

type UserPlate struct {
	ID           int64     `gorm:"primaryKey"`
	UserID       int64     `gorm:"not null;uniqueIndex:ux_user_plates_user_plate"`
	Plate        string    `gorm:"not null;uniqueIndex:ux_user_plates_user_plate;index"`
	RegisteredAt time.Time `gorm:"not null"`
	IsActive     bool      `gorm:"not null;default:true"`
}

type AuthToken struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null"`
	Token     string    `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null"`
}

type GateEvent struct {
	ID        int64          `gorm:"primaryKey"`
	CameraID  string         `gorm:"not null"`
	Direction string         `gorm:"not null"`
	Plate     string         `gorm:"not null;index"`
	Region    string
	Votes     datatypes.JSON `gorm:"type:jsonb"`
	EventTime time.Time      `gorm:"not null;index"`
	CreatedAt time.Time
}
