package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name          string
	Email         string `gorm:"unique;not null"`
	PasswordHash  string `gorm:"not null"`
	Role          string `gorm:"default:user"` // user, admin, moderator
	WalletBalance float64
	ReferralCode  string `gorm:"unique"` // this user's own shareable code
	ReferredBy    string // referral code of the referring user, if any
	Institution   string
	Group         string
	Subscriptions []Subscription
}

// Subscription holds one plan entitlement per (user, plan) pair.
// QuestionLimit of -1 means unlimited.
type Subscription struct {
	gorm.Model
	UserID        uint   `gorm:"uniqueIndex:idx_user_plan"`
	Plan          string `gorm:"uniqueIndex:idx_user_plan"` // practice, modelTest, teacher
	IsActive      bool
	ExpiryDate    time.Time
	QuestionLimit int `gorm:"default:0"`
	QuestionUsed  int `gorm:"default:0"`
	LastPaymentID string
}

// Active reports whether the subscription is usable right now.
func (s *Subscription) Active(now time.Time) bool {
	return s.IsActive && s.ExpiryDate.After(now)
}
