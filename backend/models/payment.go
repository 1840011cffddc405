package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment request states
const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentRejected = "rejected"
)

// PaymentRequest is a manual payment awaiting admin review. It moves from
// pending to approved or rejected exactly once; terminal states are final.
type PaymentRequest struct {
	gorm.Model
	Email         string `gorm:"index;not null"`
	TransactionID string // external payment reference entered by the user
	Amount        float64
	PlanType      string // recharge, practice, modelTest, teacher, combo
	DurationDays  int
	QuestionLimit int
	Status        string `gorm:"default:pending;index"`
	SubmittedAt   time.Time
	ApprovedAt    *time.Time
	ExpiryDate    *time.Time
}
