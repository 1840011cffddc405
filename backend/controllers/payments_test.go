package controllers_test

import (
	"testing"
	"time"

	"mcqbank/backend/models"
	"mcqbank/backend/plans"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func createPendingRequest(t *testing.T, email, planType string, amount float64) models.PaymentRequest {
	t.Helper()
	request := models.PaymentRequest{
		Email:         email,
		TransactionID: "BKASH123",
		Amount:        amount,
		PlanType:      planType,
		Status:        models.PaymentPending,
		SubmittedAt:   time.Now(),
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("create payment request: %v", err)
	}
	return request
}

func TestApprovePaymentActivatesPlanAndPaysReferrer(t *testing.T) {
	admin := createUser(t, "admin.approve@example.com", "admin", 0, "adm-approve", "")
	referrer := createUser(t, "referrer.approve@example.com", "user", 100, "ref-approve", "")
	buyer := createUser(t, "buyer.approve@example.com", "user", 0, "buyer-approve", "ref-approve")
	request := createPendingRequest(t, buyer.Email, plans.Practice, 1000)

	resp, body := doJSON(t, "POST", idPath("/api/payments/", request.ID, "/approve"), tokenFor(t, admin), fiber.Map{
		"email":        buyer.Email,
		"planType":     plans.Practice,
		"durationDays": 30,
		"amount":       1000,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// Subscription written with a ~30 day expiry.
	var sub models.Subscription
	assert.NoError(t, db.Where("user_id = ? AND plan = ?", buyer.ID, plans.Practice).First(&sub).Error)
	assert.True(t, sub.IsActive)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), sub.ExpiryDate, time.Minute)

	// Request is terminal with its computed expiry recorded.
	var updated models.PaymentRequest
	assert.NoError(t, db.First(&updated, request.ID).Error)
	assert.Equal(t, models.PaymentApproved, updated.Status)
	assert.NotNil(t, updated.ApprovedAt)
	assert.NotNil(t, updated.ExpiryDate)

	// floor(1000 * 0.20) = 200 paid to the referrer and logged.
	var refreshed models.User
	assert.NoError(t, db.First(&refreshed, referrer.ID).Error)
	assert.Equal(t, 300.0, refreshed.WalletBalance)

	var bonus models.Transaction
	assert.NoError(t, db.Where("user_id = ? AND type = ?", referrer.ID, models.TxnReferralBonus).First(&bonus).Error)
	assert.Equal(t, 200.0, bonus.Amount)
	if assert.NotNil(t, bonus.SourceUserID) {
		assert.Equal(t, buyer.ID, *bonus.SourceUserID)
	}
}

func TestApprovePaymentRequiresParseableDuration(t *testing.T) {
	admin := createUser(t, "admin.duration@example.com", "admin", 0, "adm-duration", "")
	buyer := createUser(t, "buyer.duration@example.com", "user", 0, "buyer-duration", "")
	request := createPendingRequest(t, buyer.Email, plans.ModelTest, 500)

	resp, _ := doJSON(t, "POST", idPath("/api/payments/", request.ID, "/approve"), tokenFor(t, admin), fiber.Map{
		"email":        buyer.Email,
		"planType":     plans.ModelTest,
		"durationDays": "not-a-number",
		"amount":       500,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// No side effect: request is still pending.
	var updated models.PaymentRequest
	assert.NoError(t, db.First(&updated, request.ID).Error)
	assert.Equal(t, models.PaymentPending, updated.Status)
}

func TestApprovePaymentAcceptsStringDuration(t *testing.T) {
	admin := createUser(t, "admin.strdur@example.com", "admin", 0, "adm-strdur", "")
	buyer := createUser(t, "buyer.strdur@example.com", "user", 0, "buyer-strdur", "")
	request := createPendingRequest(t, buyer.Email, plans.ModelTest, 500)

	resp, _ := doJSON(t, "POST", idPath("/api/payments/", request.ID, "/approve"), tokenFor(t, admin), fiber.Map{
		"email":        buyer.Email,
		"planType":     plans.ModelTest,
		"durationDays": "15",
		"amount":       500,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestApprovePaymentUserNotFound(t *testing.T) {
	admin := createUser(t, "admin.nouser@example.com", "admin", 0, "adm-nouser", "")
	request := createPendingRequest(t, "ghost@example.com", plans.Practice, 500)

	resp, _ := doJSON(t, "POST", idPath("/api/payments/", request.ID, "/approve"), tokenFor(t, admin), fiber.Map{
		"email":        "ghost@example.com",
		"planType":     plans.Practice,
		"durationDays": 30,
		"amount":       500,
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestApproveRechargeCreditsWallet(t *testing.T) {
	admin := createUser(t, "admin.recharge@example.com", "admin", 0, "adm-recharge", "")
	buyer := createUser(t, "buyer.recharge@example.com", "user", 60, "buyer-recharge", "")
	request := createPendingRequest(t, buyer.Email, plans.Recharge, 500)

	// Recharge needs no duration.
	resp, _ := doJSON(t, "POST", idPath("/api/payments/", request.ID, "/approve"), tokenFor(t, admin), fiber.Map{
		"email":    buyer.Email,
		"planType": plans.Recharge,
		"amount":   500,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var refreshed models.User
	assert.NoError(t, db.First(&refreshed, buyer.ID).Error)
	assert.Equal(t, 560.0, refreshed.WalletBalance)

	var credit models.Transaction
	assert.NoError(t, db.Where("user_id = ? AND type = ?", buyer.ID, models.TxnCredit).First(&credit).Error)
	assert.Equal(t, 500.0, credit.Amount)
	assert.Equal(t, 560.0, credit.BalanceAfter)
}

func TestRejectPaymentLeavesWalletUntouched(t *testing.T) {
	admin := createUser(t, "admin.reject@example.com", "admin", 0, "adm-reject", "")
	buyer := createUser(t, "buyer.reject@example.com", "user", 75, "buyer-reject", "")
	request := createPendingRequest(t, buyer.Email, plans.Practice, 500)

	resp, body := doJSON(t, "POST", idPath("/api/payments/", request.ID, "/reject"), tokenFor(t, admin), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.PaymentRejected, body["Status"])

	var refreshed models.User
	assert.NoError(t, db.First(&refreshed, buyer.ID).Error)
	assert.Equal(t, 75.0, refreshed.WalletBalance)

	var subCount int64
	db.Model(&models.Subscription{}).Where("user_id = ?", buyer.ID).Count(&subCount)
	assert.Equal(t, int64(0), subCount)

	// The requester was told.
	var note models.Notification
	assert.NoError(t, db.Where("user_id = ? AND type = ?", buyer.ID, models.NotifyError).First(&note).Error)
}

func TestRejectPaymentNotFound(t *testing.T) {
	admin := createUser(t, "admin.reject404@example.com", "admin", 0, "adm-reject404", "")

	resp, _ := doJSON(t, "POST", "/api/payments/999999/reject", tokenFor(t, admin), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPayWithWalletBelowFloor(t *testing.T) {
	user := createUser(t, "wallet.floor@example.com", "user", 40, "wallet-floor", "")

	// Balance 40 is rejected for the floor even though 30 <= 40.
	resp, body := doJSON(t, "POST", "/api/payments/wallet", tokenFor(t, user), fiber.Map{
		"email":        user.Email,
		"amount":       30,
		"planType":     plans.Practice,
		"durationDays": 30,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["message"], "at least")
}

func TestPayWithWalletInsufficientBalance(t *testing.T) {
	user := createUser(t, "wallet.insufficient@example.com", "user", 60, "wallet-insufficient", "")

	// Balance 60 passes the floor but cannot cover 100.
	resp, body := doJSON(t, "POST", "/api/payments/wallet", tokenFor(t, user), fiber.Map{
		"email":        user.Email,
		"amount":       100,
		"planType":     plans.Practice,
		"durationDays": 30,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["message"], "Insufficient")
}

func TestPayWithWalletActivatesWithoutReferralBonus(t *testing.T) {
	referrer := createUser(t, "referrer.wallet@example.com", "user", 0, "ref-wallet", "")
	buyer := createUser(t, "buyer.wallet@example.com", "user", 500, "buyer-wallet", "ref-wallet")

	resp, body := doJSON(t, "POST", "/api/payments/wallet", tokenFor(t, buyer), fiber.Map{
		"email":        buyer.Email,
		"amount":       200,
		"planType":     plans.ModelTest,
		"durationDays": 30,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	var refreshed models.User
	assert.NoError(t, db.First(&refreshed, buyer.ID).Error)
	assert.Equal(t, 300.0, refreshed.WalletBalance)

	var sub models.Subscription
	assert.NoError(t, db.Where("user_id = ? AND plan = ?", buyer.ID, plans.ModelTest).First(&sub).Error)
	assert.True(t, sub.IsActive)
	assert.NotEmpty(t, sub.LastPaymentID)

	// Purchase logged against the pre-debit balance.
	var purchase models.Transaction
	assert.NoError(t, db.Where("user_id = ? AND type = ?", buyer.ID, models.TxnPurchase).First(&purchase).Error)
	assert.Equal(t, 300.0, purchase.BalanceAfter)
	assert.Equal(t, sub.LastPaymentID, purchase.TxnID)

	// Direct wallet purchases never pay the referrer.
	var bonusCount int64
	db.Model(&models.Transaction{}).Where("user_id = ? AND type = ?", referrer.ID, models.TxnReferralBonus).Count(&bonusCount)
	assert.Equal(t, int64(0), bonusCount)
}

func TestPayWithWalletComboExtendsBothPlans(t *testing.T) {
	buyer := createUser(t, "buyer.combo@example.com", "user", 1000, "buyer-combo", "")

	resp, _ := doJSON(t, "POST", "/api/payments/wallet", tokenFor(t, buyer), fiber.Map{
		"email":        buyer.Email,
		"amount":       400,
		"planType":     plans.Combo,
		"durationDays": 30,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var subCount int64
	db.Model(&models.Subscription{}).
		Where("user_id = ? AND plan IN ?", buyer.ID, []string{plans.Practice, plans.ModelTest}).
		Count(&subCount)
	assert.Equal(t, int64(2), subCount)
}

func TestCreateRequestNotifiesAdmins(t *testing.T) {
	admin := createUser(t, "admin.fanout@example.com", "admin", 0, "adm-fanout", "")
	user := createUser(t, "user.fanout@example.com", "user", 0, "user-fanout", "")

	resp, body := doJSON(t, "POST", "/api/payments/request", tokenFor(t, user), fiber.Map{
		"email":         user.Email,
		"transactionId": "NAGAD456",
		"amount":        750,
		"planType":      plans.Teacher,
		"durationDays":  90,
		"questionLimit": 100,
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.NotNil(t, body["insertedId"])

	var note models.Notification
	assert.NoError(t, db.Where("user_id = ? AND title = ?", admin.ID, "New payment request").First(&note).Error)
}

func TestDeductQuota(t *testing.T) {
	user := createUser(t, "teacher.quota@example.com", "user", 100, "teacher-quota", "")
	sub := models.Subscription{
		UserID:        user.ID,
		Plan:          plans.Teacher,
		IsActive:      true,
		ExpiryDate:    time.Now().AddDate(0, 0, 30),
		QuestionLimit: 10,
		QuestionUsed:  8,
	}
	assert.NoError(t, db.Create(&sub).Error)

	// Over the remaining quota.
	resp, _ := doJSON(t, "POST", "/api/subscriptions/deduct", tokenFor(t, user), fiber.Map{
		"email": user.Email,
		"count": 3,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Within quota.
	resp, body := doJSON(t, "POST", "/api/subscriptions/deduct", tokenFor(t, user), fiber.Map{
		"email":   user.Email,
		"count":   2,
		"details": "created 2 questions",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	var refreshed models.Subscription
	assert.NoError(t, db.First(&refreshed, sub.ID).Error)
	assert.Equal(t, 10, refreshed.QuestionUsed)

	// Wallet untouched, usage logged.
	var usage models.Transaction
	assert.NoError(t, db.Where("user_id = ? AND type = ?", user.ID, models.TxnQuotaUsage).First(&usage).Error)
	assert.Equal(t, 100.0, usage.BalanceAfter)
}

func TestDeductQuotaWithoutActivePlan(t *testing.T) {
	user := createUser(t, "noplan.quota@example.com", "user", 0, "noplan-quota", "")

	resp, _ := doJSON(t, "POST", "/api/subscriptions/deduct", tokenFor(t, user), fiber.Map{
		"email": user.Email,
		"count": 1,
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
