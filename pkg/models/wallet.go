package models

import (
	"database/sql/driver"
	"time"

	"github.com/uptrace/bun"
)

const (
	WalletTxnCredit = "Credit"
	WalletTxnDebit  = "Debit"
)

type Wallet struct {
	bun.BaseModel `bun:"table:wallets,alias:w"`

	ID           int                `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	UserID       int                `bun:",nullzero" json:"user_id"`
	Balance      float64            `json:"balance"`
	Transactions WalletTransactions `json:"transactions"`
}

type WalletTransaction struct {
	Type   string    `json:"type"`
	Amount float64   `json:"amount"`
	At     time.Time `json:"at"`
}

// WalletTransactions is the append-only transaction log, stored as a JSON
// document in a TEXT column.
type WalletTransactions []WalletTransaction

func (t WalletTransactions) Value() (driver.Value, error) {
	if t == nil {
		t = WalletTransactions{}
	}
	return jsonValue(t)
}

func (t *WalletTransactions) Scan(src interface{}) error {
	return jsonScan(src, t)
}
