package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User is the login identity. It lives outside the ledger; an Account points at it.
type User struct {
	gorm.Model
	Username  string `gorm:"uniqueIndex;size:150;not null"`
	Email     string `gorm:"size:255"`
	FirstName string `gorm:"size:100"`
	LastName  string `gorm:"size:100"`
	Password  string `gorm:"size:255" json:"-"`
}

// Account rows are soft-deleted so their numbers are never handed out again.
type Account struct {
	gorm.Model
	OwnerID       uint            `gorm:"uniqueIndex;not null"`
	FirstName     string          `gorm:"size:100"`
	LastName      string          `gorm:"size:100"`
	AccountNumber string          `gorm:"uniqueIndex;size:10;not null"`
	PaymentNumber string          `gorm:"uniqueIndex;size:10;not null"`
	Balance       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	IsAdmin       bool            `gorm:"not null;default:false"`
	IsSuspended   bool            `gorm:"index;not null;default:false"`
	IsClosed      bool            `gorm:"not null;default:false"`
}

// Transaction is immutable once written. Amount is signed: negative is a
// debit from FromAccount's point of view.
type Transaction struct {
	ID            uint            `gorm:"primaryKey"`
	FromAccountID uint            `gorm:"index;not null"`
	ToAccountID   uint            `gorm:"index;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"index;not null"`
}

// AdminLog records a privileged action. Append-only.
type AdminLog struct {
	ID        uint      `gorm:"primaryKey"`
	AdminID   uint      `gorm:"index;not null"`
	Action    string    `gorm:"size:200;not null"`
	CreatedAt time.Time `gorm:"index;not null"`
}
