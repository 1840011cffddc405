package models

import "gorm.io/gorm"

// Transaction types
const (
	TxnPurchase      = "purchase"
	TxnCredit        = "credit"
	TxnReferralBonus = "referral_bonus"
	TxnQuotaUsage    = "quota_usage"
)

// Transaction is an append-only ledger record. Rows are created once and
// never updated or deleted by the server.
type Transaction struct {
	gorm.Model
	TxnID        string `gorm:"uniqueIndex"` // payment request id or generated wallet-purchase id
	UserID       uint   `gorm:"index"`
	Email        string `gorm:"index"`
	Amount       float64
	Type         string // purchase, credit, referral_bonus, quota_usage
	Details      string
	BalanceAfter float64
	SourceUserID *uint // referred friend, set on referral_bonus only
}
