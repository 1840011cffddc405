package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"mcqbank/backend/activation"
	"mcqbank/backend/config"
	"mcqbank/backend/models"
	"mcqbank/backend/notify"
	"mcqbank/backend/plans"
	"mcqbank/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MinWalletBalance is the pre-debit floor a wallet must hold before it can
// be spent at all.
const MinWalletBalance = 50

type PaymentsController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Engine   *activation.Engine
	Notifier *notify.Notifier
}

func NewPaymentsController(db *gorm.DB, cfg *config.Config, engine *activation.Engine, notifier *notify.Notifier) *PaymentsController {
	return &PaymentsController{DB: db, Cfg: cfg, Engine: engine, Notifier: notifier}
}

// CreateRequest files a manual payment for admin review and fans a
// notification out to every admin.
func (pc *PaymentsController) CreateRequest(c *fiber.Ctx) error {
	var input struct {
		Email         string  `json:"email"`
		TransactionID string  `json:"transactionId"`
		Amount        float64 `json:"amount"`
		PlanType      string  `json:"planType"`
		DurationDays  int     `json:"durationDays"`
		QuestionLimit int     `json:"questionLimit"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Email == "" || input.PlanType == "" {
		return utils.BadRequest(c, "Email and planType are required")
	}
	if input.Amount <= 0 {
		return utils.BadRequest(c, "Amount must be positive")
	}
	if _, err := plans.For(input.PlanType); err != nil {
		return utils.BadRequest(c, "Unknown plan type")
	}

	request := models.PaymentRequest{
		Email:         input.Email,
		TransactionID: input.TransactionID,
		Amount:        input.Amount,
		PlanType:      input.PlanType,
		DurationDays:  input.DurationDays,
		QuestionLimit: input.QuestionLimit,
		Status:        models.PaymentPending,
		SubmittedAt:   time.Now(),
	}

	if err := pc.DB.Create(&request).Error; err != nil {
		return utils.InternalServerError(c, "Could not create payment request")
	}

	// Fan-out is best-effort; the request stands even if a write fails.
	_ = pc.Notifier.NotifyAdmins("New payment request",
		fmt.Sprintf("%s submitted a %s payment of %.0f BDT for review.", input.Email, input.PlanType, input.Amount),
		models.NotifyInfo, fmt.Sprintf("/admin/payments/%d", request.ID))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"message":    "Payment request submitted",
		"insertedId": request.ID,
	})
}

// Approve activates the plan for the requesting user, then marks the
// request approved with its computed expiry.
func (pc *PaymentsController) Approve(c *fiber.Ctx) error {
	requestID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid request ID")
	}

	var input struct {
		Email         string      `json:"email"`
		PlanType      string      `json:"planType"`
		DurationDays  interface{} `json:"durationDays"`
		QuestionLimit int         `json:"questionLimit"`
		Amount        float64     `json:"amount"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Email == "" || input.PlanType == "" {
		return utils.BadRequest(c, "Email and planType are required")
	}

	days := 0
	if input.PlanType != plans.Recharge {
		days, err = parseDuration(input.DurationDays)
		if err != nil || days <= 0 {
			return utils.BadRequest(c, "Duration must be a positive number of days")
		}
	}

	var request models.PaymentRequest
	if err := pc.DB.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Payment request not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	result, err := pc.Engine.Activate(input.Email, input.PlanType, days, input.QuestionLimit, input.Amount, strconv.Itoa(int(request.ID)), true)
	if err != nil {
		switch {
		case errors.Is(err, activation.ErrUserNotFound):
			return utils.NotFound(c, "User not found")
		case errors.Is(err, plans.ErrUnknownPlan), errors.Is(err, plans.ErrInvalidDuration):
			return utils.BadRequest(c, err.Error())
		default:
			return utils.InternalServerError(c, "Could not activate plan")
		}
	}

	now := time.Now()
	request.Status = models.PaymentApproved
	request.ApprovedAt = &now
	expiry := result.ExpiryDate
	request.ExpiryDate = &expiry
	if err := pc.DB.Save(&request).Error; err != nil {
		return utils.InternalServerError(c, "Could not update payment request")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Payment approved and %s plan activated for %s", input.PlanType, input.Email),
	})
}

// Reject marks a pending request rejected and tells the requester. Wallet
// and subscriptions are untouched.
func (pc *PaymentsController) Reject(c *fiber.Ctx) error {
	requestID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid request ID")
	}

	var request models.PaymentRequest
	if err := pc.DB.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Payment request not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	request.Status = models.PaymentRejected
	if err := pc.DB.Save(&request).Error; err != nil {
		return utils.InternalServerError(c, "Could not update payment request")
	}

	var user models.User
	if err := pc.DB.Where("email = ?", request.Email).First(&user).Error; err == nil {
		_ = pc.Notifier.Push(user.ID, "Payment rejected",
			fmt.Sprintf("Your %s payment of %.0f BDT was rejected. Contact support if you believe this is a mistake.", request.PlanType, request.Amount),
			models.NotifyError, "")
	}

	return c.JSON(request)
}

// PayWithWallet purchases a plan directly against the wallet balance,
// skipping the pending/approve workflow. No referral bonus runs here.
func (pc *PaymentsController) PayWithWallet(c *fiber.Ctx) error {
	var input struct {
		Email         string  `json:"email"`
		Amount        float64 `json:"amount"`
		PlanType      string  `json:"planType"`
		DurationDays  int     `json:"durationDays"`
		QuestionLimit int     `json:"questionLimit"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Email == "" || input.PlanType == "" {
		return utils.BadRequest(c, "Email and planType are required")
	}
	if input.Amount <= 0 {
		return utils.BadRequest(c, "Amount must be positive")
	}

	var user models.User
	if err := pc.DB.Preload("Subscriptions").Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	// Both checks run against the pre-debit balance.
	if user.WalletBalance < MinWalletBalance {
		return utils.BadRequest(c, fmt.Sprintf("Wallet balance must be at least %d BDT to pay from wallet", MinWalletBalance))
	}
	if user.WalletBalance < input.Amount {
		return utils.BadRequest(c, "Insufficient wallet balance")
	}

	// A generated id serves as both the transaction key and the
	// subscription's lastPaymentId, since no payment request exists here.
	paymentID := uuid.NewString()

	_, err := pc.Engine.ActivateWithDebit(&user, input.PlanType, input.DurationDays, input.QuestionLimit, input.Amount, paymentID)
	if err != nil {
		switch {
		case errors.Is(err, plans.ErrUnknownPlan), errors.Is(err, plans.ErrInvalidDuration):
			return utils.BadRequest(c, err.Error())
		default:
			return utils.InternalServerError(c, "Could not complete wallet purchase")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("%s plan activated, %.0f BDT deducted from wallet", input.PlanType, input.Amount),
	})
}

// ListRequests returns payment requests for admin review, newest first.
func (pc *PaymentsController) ListRequests(c *fiber.Ctx) error {
	query := pc.DB.Order("submitted_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.PaymentRequest
	if err := query.Find(&requests).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return c.JSON(requests)
}

// parseDuration accepts the duration as either a JSON number or a numeric
// string, since admin clients have sent both.
func parseDuration(v interface{}) (int, error) {
	switch d := v.(type) {
	case float64:
		return int(d), nil
	case string:
		return strconv.Atoi(d)
	case nil:
		return 0, errors.New("duration is missing")
	default:
		return 0, errors.New("duration is not a number")
	}
}
