package plans

import (
	"testing"
	"time"

	"mcqbank/backend/models"

	"github.com/stretchr/testify/assert"
)

func TestComputeExpiryExtendsActiveSubscription(t *testing.T) {
	now := time.Now()
	expiry := now.Add(10 * 24 * time.Hour)
	sub := &models.Subscription{IsActive: true, ExpiryDate: expiry}

	got := ComputeExpiry(sub, now, 30)
	assert.Equal(t, expiry.AddDate(0, 0, 30), got, "unused time must be preserved")
}

func TestComputeExpiryFreshStart(t *testing.T) {
	now := time.Now()

	// Expired subscription: stale expiry is discarded.
	expired := &models.Subscription{IsActive: true, ExpiryDate: now.Add(-24 * time.Hour)}
	assert.Equal(t, now.AddDate(0, 0, 7), ComputeExpiry(expired, now, 7))

	// Inactive subscription with future expiry still starts fresh.
	inactive := &models.Subscription{IsActive: false, ExpiryDate: now.Add(90 * 24 * time.Hour)}
	assert.Equal(t, now.AddDate(0, 0, 7), ComputeExpiry(inactive, now, 7))

	// No subscription at all.
	assert.Equal(t, now.AddDate(0, 0, 7), ComputeExpiry(nil, now, 7))
}

func TestComputeTeacherQuotaCarryForward(t *testing.T) {
	now := time.Now()
	sub := &models.Subscription{
		IsActive:      true,
		ExpiryDate:    now.Add(24 * time.Hour),
		QuestionLimit: 100,
		QuestionUsed:  40,
	}

	assert.Equal(t, 110, ComputeTeacherQuota(sub, now, 50))
}

func TestComputeTeacherQuotaUnlimitedIsSticky(t *testing.T) {
	now := time.Now()
	active := &models.Subscription{IsActive: true, ExpiryDate: now.Add(24 * time.Hour)}

	// New pack unlimited.
	assert.Equal(t, Unlimited, ComputeTeacherQuota(active, now, Unlimited))

	// Current active plan unlimited.
	unlimited := &models.Subscription{
		IsActive:      true,
		ExpiryDate:    now.Add(24 * time.Hour),
		QuestionLimit: Unlimited,
	}
	assert.Equal(t, Unlimited, ComputeTeacherQuota(unlimited, now, 50))
}

func TestComputeTeacherQuotaIgnoresExpiredRemainder(t *testing.T) {
	now := time.Now()
	expired := &models.Subscription{
		IsActive:      true,
		ExpiryDate:    now.Add(-24 * time.Hour),
		QuestionLimit: 100,
		QuestionUsed:  10,
	}

	assert.Equal(t, 50, ComputeTeacherQuota(expired, now, 50))
}

func TestComputeTeacherQuotaOverusedClampsToZero(t *testing.T) {
	now := time.Now()
	sub := &models.Subscription{
		IsActive:      true,
		ExpiryDate:    now.Add(24 * time.Hour),
		QuestionLimit: 20,
		QuestionUsed:  30,
	}

	assert.Equal(t, 50, ComputeTeacherQuota(sub, now, 50))
}

func TestComboStrategyExtendsBothPlans(t *testing.T) {
	now := time.Now()
	practiceExpiry := now.Add(5 * 24 * time.Hour)
	current := map[string]*models.Subscription{
		Practice: {Plan: Practice, IsActive: true, ExpiryDate: practiceExpiry},
	}

	strat, err := For(Combo)
	assert.NoError(t, err)

	changes := strat.Changes(current, now, Purchase{DurationDays: 30})
	assert.Len(t, changes, 2)

	byPlan := map[string]Change{}
	for _, ch := range changes {
		byPlan[ch.Plan] = ch
	}

	// Active practice extends; absent modelTest starts fresh.
	assert.Equal(t, practiceExpiry.AddDate(0, 0, 30), byPlan[Practice].ExpiryDate)
	assert.Equal(t, now.AddDate(0, 0, 30), byPlan[ModelTest].ExpiryDate)

	// The user-facing expiry is the later of the two.
	assert.Equal(t, practiceExpiry.AddDate(0, 0, 30), LatestExpiry(changes, now))
}

func TestTeacherStrategyResetsUsage(t *testing.T) {
	now := time.Now()
	current := map[string]*models.Subscription{
		Teacher: {
			Plan:          Teacher,
			IsActive:      true,
			ExpiryDate:    now.Add(24 * time.Hour),
			QuestionLimit: 100,
			QuestionUsed:  40,
		},
	}

	strat, err := For(Teacher)
	assert.NoError(t, err)

	changes := strat.Changes(current, now, Purchase{DurationDays: 30, QuestionLimit: 50})
	assert.Len(t, changes, 1)
	assert.Equal(t, 110, changes[0].QuestionLimit)
	assert.True(t, changes[0].ResetUsage)
}

func TestRechargeStrategy(t *testing.T) {
	strat, err := For(Recharge)
	assert.NoError(t, err)
	assert.False(t, strat.NeedsDuration())
	assert.Empty(t, strat.Changes(nil, time.Now(), Purchase{Amount: 500}))
	assert.Equal(t, 500.0, strat.WalletCredit(Purchase{Amount: 500}))
}

func TestForRejectsUnknownPlan(t *testing.T) {
	_, err := For("lifetime")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}
