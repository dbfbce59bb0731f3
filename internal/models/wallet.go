package models

import "time"

// TransactionType classifies wallet movements
type TransactionType string

const (
	TransactionTypeDeduct TransactionType = "deduct"
	TransactionTypeRefund TransactionType = "refund"
	TransactionTypeTopUp  TransactionType = "topup"
)

// Wallet holds a user's balance. Debited by the request-handling layer before
// a job is enqueued; the orchestrator never touches it.
type Wallet struct {
	OwnerID   uint      `gorm:"primarykey" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Balance   float64   `json:"balance"`
}

// TableName overrides the table name
func (Wallet) TableName() string {
	return "wallets"
}

// WalletTransaction records a single balance movement for audit.
type WalletTransaction struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	OwnerID     uint            `json:"owner_id"`
	Delta       float64         `json:"delta"`
	Type        TransactionType `json:"type"`
	RefJobID    *uint           `json:"ref_job_id,omitempty"`
	Description string          `json:"description"`
}

// TableName overrides the table name
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
