package models

import "time"

// TransactionType classifies ledger entries.
type TransactionType string

const (
	TransactionEarned TransactionType = "earned"
	TransactionSpent  TransactionType = "spent"
)

// Transaction is an append-only GC-Token ledger entry. Amount is signed:
// positive for earned, negative for spent.
type Transaction struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	Amount      float64         `db:"amount" json:"amount"`
	Type        TransactionType `db:"type" json:"type"`
	Description string          `db:"description" json:"description"`
	MaterialID  *string         `db:"material_id" json:"material_id,omitempty"`
	Reference   *string         `db:"reference" json:"-"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// TransactionFilter pages through a user's ledger history.
type TransactionFilter struct {
	UserID   string
	Type     *TransactionType
	Page     int
	PageSize int
}
