package plans

import (
	"errors"
	"time"

	"mcqbank/backend/models"
)

// Plan types
const (
	Recharge  = "recharge"
	Practice  = "practice"
	ModelTest = "modelTest"
	Teacher   = "teacher"
	Combo     = "combo"
)

// Unlimited marks a question quota with no cap.
const Unlimited = -1

var (
	ErrUnknownPlan     = errors.New("unknown plan type")
	ErrInvalidDuration = errors.New("duration must be a positive number of days")
)

// ComputeExpiry returns the new expiry for a purchased duration. An active,
// unexpired subscription keeps its unused time and gets the duration added on
// top; anything else starts fresh from now.
func ComputeExpiry(current *models.Subscription, now time.Time, durationDays int) time.Time {
	if current != nil && current.Active(now) {
		return current.ExpiryDate.AddDate(0, 0, durationDays)
	}
	return now.AddDate(0, 0, durationDays)
}

// ComputeTeacherQuota merges a new pack's question limit into the current
// quota. Unlimited (-1) is sticky: once either side is unlimited the result
// stays unlimited. Otherwise the unused remainder of an active subscription
// carries forward on top of the new pack.
func ComputeTeacherQuota(current *models.Subscription, now time.Time, newPackLimit int) int {
	if newPackLimit == Unlimited {
		return Unlimited
	}
	if current != nil && current.Active(now) {
		if current.QuestionLimit == Unlimited {
			return Unlimited
		}
		remaining := current.QuestionLimit - current.QuestionUsed
		if remaining < 0 {
			remaining = 0
		}
		return remaining + newPackLimit
	}
	return newPackLimit
}

// Purchase carries the inputs of one plan purchase.
type Purchase struct {
	DurationDays  int
	QuestionLimit int
	Amount        float64
}

// Change is the entitlement state to write for one plan. ResetUsage is set
// when a new question pack replaces the usage counter.
type Change struct {
	Plan          string
	ExpiryDate    time.Time
	QuestionLimit int
	ResetUsage    bool
}

// Strategy computes the entitlement effect of a purchase for one plan type.
// Both the admin-approval path and the wallet-direct path dispatch through
// the same strategy so the two can never drift apart.
type Strategy interface {
	Plan() string
	// NeedsDuration reports whether the plan requires a positive duration.
	NeedsDuration() bool
	// Changes returns the subscription rows to write. current maps plan name
	// to the user's existing subscription for that plan, if any.
	Changes(current map[string]*models.Subscription, now time.Time, p Purchase) []Change
	// WalletCredit returns the amount added to the wallet balance.
	WalletCredit(p Purchase) float64
}

// For returns the strategy for a plan type.
func For(planType string) (Strategy, error) {
	switch planType {
	case Recharge:
		return rechargeStrategy{}, nil
	case Practice:
		return standardStrategy{plan: Practice}, nil
	case ModelTest:
		return standardStrategy{plan: ModelTest}, nil
	case Teacher:
		return teacherStrategy{}, nil
	case Combo:
		return comboStrategy{}, nil
	}
	return nil, ErrUnknownPlan
}

type rechargeStrategy struct{}

func (rechargeStrategy) Plan() string        { return Recharge }
func (rechargeStrategy) NeedsDuration() bool { return false }
func (rechargeStrategy) Changes(_ map[string]*models.Subscription, _ time.Time, _ Purchase) []Change {
	return nil
}
func (rechargeStrategy) WalletCredit(p Purchase) float64 { return p.Amount }

type standardStrategy struct {
	plan string
}

func (s standardStrategy) Plan() string        { return s.plan }
func (s standardStrategy) NeedsDuration() bool { return true }
func (s standardStrategy) Changes(current map[string]*models.Subscription, now time.Time, p Purchase) []Change {
	return []Change{{
		Plan:          s.plan,
		ExpiryDate:    ComputeExpiry(current[s.plan], now, p.DurationDays),
		QuestionLimit: Unlimited,
	}}
}
func (standardStrategy) WalletCredit(Purchase) float64 { return 0 }

type teacherStrategy struct{}

func (teacherStrategy) Plan() string        { return Teacher }
func (teacherStrategy) NeedsDuration() bool { return true }
func (teacherStrategy) Changes(current map[string]*models.Subscription, now time.Time, p Purchase) []Change {
	cur := current[Teacher]
	return []Change{{
		Plan:          Teacher,
		ExpiryDate:    ComputeExpiry(cur, now, p.DurationDays),
		QuestionLimit: ComputeTeacherQuota(cur, now, p.QuestionLimit),
		ResetUsage:    true,
	}}
}
func (teacherStrategy) WalletCredit(Purchase) float64 { return 0 }

type comboStrategy struct{}

func (comboStrategy) Plan() string        { return Combo }
func (comboStrategy) NeedsDuration() bool { return true }
func (comboStrategy) Changes(current map[string]*models.Subscription, now time.Time, p Purchase) []Change {
	return []Change{
		{
			Plan:          Practice,
			ExpiryDate:    ComputeExpiry(current[Practice], now, p.DurationDays),
			QuestionLimit: Unlimited,
		},
		{
			Plan:          ModelTest,
			ExpiryDate:    ComputeExpiry(current[ModelTest], now, p.DurationDays),
			QuestionLimit: Unlimited,
		},
	}
}
func (comboStrategy) WalletCredit(Purchase) float64 { return 0 }

// LatestExpiry picks the furthest expiry out of a change set. For combo
// purchases this is the user-facing "active until" date.
func LatestExpiry(changes []Change, fallback time.Time) time.Time {
	latest := fallback
	for _, ch := range changes {
		if ch.ExpiryDate.After(latest) {
			latest = ch.ExpiryDate
		}
	}
	return latest
}
