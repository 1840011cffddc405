package activation

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"mcqbank/backend/ledger"
	"mcqbank/backend/models"
	"mcqbank/backend/notify"
	"mcqbank/backend/plans"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// ReferralBonusRate is the cut of an approved payment credited to the
// referring user, floored to a whole amount.
const ReferralBonusRate = 0.20

// Engine applies a purchase to a user: entitlement writes, wallet credit,
// transaction logging, referral payout and notifications. All collaborators
// come in through the constructor so the engine tests with fakes.
type Engine struct {
	DB       *gorm.DB
	Ledger   *ledger.Ledger
	Notifier *notify.Notifier
	Logger   *log.Logger
}

func NewEngine(db *gorm.DB, l *ledger.Ledger, n *notify.Notifier, logger *log.Logger) *Engine {
	return &Engine{DB: db, Ledger: l, Notifier: n, Logger: logger}
}

// Result reports what an activation changed.
type Result struct {
	User       *models.User
	Changes    []plans.Change
	ExpiryDate time.Time // nominal expiry to record on the payment request
}

// Activate applies an approved or wallet-paid purchase. referral selects
// whether the referral payout runs; only the admin-approval path pays it.
func (e *Engine) Activate(email, planType string, durationDays, questionLimit int, amount float64, paymentID string, referral bool) (*Result, error) {
	strat, err := plans.For(planType)
	if err != nil {
		return nil, err
	}
	if strat.NeedsDuration() && durationDays <= 0 {
		return nil, plans.ErrInvalidDuration
	}

	var user models.User
	if err := e.DB.Preload("Subscriptions").Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := time.Now()
	purchase := plans.Purchase{DurationDays: durationDays, QuestionLimit: questionLimit, Amount: amount}
	changes := strat.Changes(subscriptionsByPlan(user.Subscriptions), now, purchase)

	err = e.DB.Transaction(func(tx *gorm.DB) error {
		return e.applyChanges(tx, &user, changes, paymentID)
	})
	if err != nil {
		return nil, err
	}

	if credit := strat.WalletCredit(purchase); credit > 0 {
		if err := e.Ledger.Credit(user.ID, credit); err != nil {
			return nil, err
		}
		if err := e.Ledger.Record(&models.Transaction{
			TxnID:        paymentID,
			UserID:       user.ID,
			Email:        user.Email,
			Amount:       credit,
			Type:         models.TxnCredit,
			Details:      fmt.Sprintf("Wallet recharged with %.0f BDT", credit),
			BalanceAfter: user.WalletBalance + credit,
		}); err != nil {
			return nil, err
		}
	}

	if referral {
		e.bestEffort("referral bonus", func() error {
			return e.payReferralBonus(&user, amount)
		})
	}

	e.bestEffort("activation notification", func() error {
		if planType == plans.Recharge {
			return e.Notifier.Push(user.ID, "Recharge successful",
				fmt.Sprintf("Your wallet has been recharged with %.0f BDT.", amount),
				models.NotifySuccess, "")
		}
		return e.Notifier.Push(user.ID, "Subscription activated",
			fmt.Sprintf("Your %s plan is now active.", planType),
			models.NotifySuccess, "")
	})

	return &Result{
		User:       &user,
		Changes:    changes,
		ExpiryDate: plans.LatestExpiry(changes, now),
	}, nil
}

// ActivateWithDebit applies a purchase paid from the wallet. The balance
// decrement and the entitlement writes commit in one database transaction;
// the caller has already checked sufficiency and the minimum-balance floor.
// No referral bonus runs on this path.
func (e *Engine) ActivateWithDebit(user *models.User, planType string, durationDays, questionLimit int, amount float64, paymentID string) (*Result, error) {
	strat, err := plans.For(planType)
	if err != nil {
		return nil, err
	}
	if strat.NeedsDuration() && durationDays <= 0 {
		return nil, plans.ErrInvalidDuration
	}

	now := time.Now()
	purchase := plans.Purchase{DurationDays: durationDays, QuestionLimit: questionLimit, Amount: amount}
	changes := strat.Changes(subscriptionsByPlan(user.Subscriptions), now, purchase)

	err = e.DB.Transaction(func(tx *gorm.DB) error {
		if err := e.Ledger.WithTx(tx).Debit(user.ID, amount); err != nil {
			return err
		}
		if credit := strat.WalletCredit(purchase); credit > 0 {
			if err := e.Ledger.WithTx(tx).Credit(user.ID, credit); err != nil {
				return err
			}
		}
		return e.applyChanges(tx, user, changes, paymentID)
	})
	if err != nil {
		return nil, err
	}

	// balanceAfter comes from the pre-debit read, not re-read after the
	// update; under concurrent debits it can drift from the stored balance.
	if err := e.Ledger.Record(&models.Transaction{
		TxnID:        paymentID,
		UserID:       user.ID,
		Email:        user.Email,
		Amount:       amount,
		Type:         models.TxnPurchase,
		Details:      fmt.Sprintf("Purchased %s plan from wallet", planType),
		BalanceAfter: user.WalletBalance - amount,
	}); err != nil {
		return nil, err
	}

	e.bestEffort("purchase notification", func() error {
		return e.Notifier.Push(user.ID, "Purchase successful",
			fmt.Sprintf("Your %s plan has been activated. %.0f BDT was deducted from your wallet.", planType, amount),
			models.NotifySuccess, "")
	})

	return &Result{
		User:       user,
		Changes:    changes,
		ExpiryDate: plans.LatestExpiry(changes, now),
	}, nil
}

// applyChanges upserts one subscription row per plan change.
func (e *Engine) applyChanges(db *gorm.DB, user *models.User, changes []plans.Change, paymentID string) error {
	existing := subscriptionsByPlan(user.Subscriptions)
	for _, ch := range changes {
		sub := existing[ch.Plan]
		if sub == nil {
			sub = &models.Subscription{UserID: user.ID, Plan: ch.Plan}
		}
		sub.IsActive = true
		sub.ExpiryDate = ch.ExpiryDate
		sub.QuestionLimit = ch.QuestionLimit
		if ch.ResetUsage {
			sub.QuestionUsed = 0
		}
		sub.LastPaymentID = paymentID
		if err := db.Save(sub).Error; err != nil {
			return err
		}
	}
	return nil
}

// payReferralBonus credits the referrer with a cut of the approved amount.
// Runs best-effort: any failure here never fails the activation.
func (e *Engine) payReferralBonus(user *models.User, amount float64) error {
	if user.ReferredBy == "" {
		return nil
	}
	bonus := math.Floor(amount * ReferralBonusRate)
	if bonus <= 0 {
		return nil
	}

	var referrer models.User
	if err := e.DB.Where("referral_code = ?", user.ReferredBy).First(&referrer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if err := e.Ledger.Credit(referrer.ID, bonus); err != nil {
		return err
	}
	if err := e.Ledger.Record(&models.Transaction{
		TxnID:        uuid.NewString(),
		UserID:       referrer.ID,
		Email:        referrer.Email,
		Amount:       bonus,
		Type:         models.TxnReferralBonus,
		Details:      fmt.Sprintf("Referral bonus for %s", user.Email),
		BalanceAfter: referrer.WalletBalance + bonus,
		SourceUserID: &user.ID,
	}); err != nil {
		return err
	}
	return e.Notifier.Push(referrer.ID, "Referral bonus",
		fmt.Sprintf("You earned %.0f BDT because %s purchased a plan.", bonus, user.Name),
		models.NotifySuccess, "")
}

// bestEffort runs a non-critical side effect. Failures are logged and
// swallowed so they cannot fail the primary operation.
func (e *Engine) bestEffort(name string, fn func() error) {
	if err := fn(); err != nil && e.Logger != nil {
		e.Logger.Printf("best-effort step %q failed: %v", name, err)
	}
}

func subscriptionsByPlan(subs []models.Subscription) map[string]*models.Subscription {
	byPlan := make(map[string]*models.Subscription, len(subs))
	for i := range subs {
		byPlan[subs[i].Plan] = &subs[i]
	}
	return byPlan
}
