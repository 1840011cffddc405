package ledger

import (
	"mcqbank/backend/models"

	"gorm.io/gorm"
)

// Ledger owns the wallet balance and the append-only transaction log.
// Balance mutation is a single atomic column increment; the transaction
// record is a separate sequential write, not wrapped in the same database
// transaction as the balance change.
type Ledger struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{DB: db}
}

// WithTx returns a ledger bound to an open transaction so a balance change
// can commit together with other row updates.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{DB: tx}
}

// Credit atomically adds amount to the user's wallet balance.
func (l *Ledger) Credit(userID uint, amount float64) error {
	return l.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("wallet_balance", gorm.Expr("wallet_balance + ?", amount)).Error
}

// Debit atomically subtracts amount from the user's wallet balance. The
// sufficiency check happens before the call; concurrent debits both passing
// a stale check is an accepted race.
func (l *Ledger) Debit(userID uint, amount float64) error {
	return l.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("wallet_balance", gorm.Expr("wallet_balance - ?", amount)).Error
}

// Record appends a transaction row. Rows are immutable once written.
func (l *Ledger) Record(txn *models.Transaction) error {
	return l.DB.Create(txn).Error
}
