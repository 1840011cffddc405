package controllers

import (
	"errors"
	"fmt"
	"time"

	"mcqbank/backend/config"
	"mcqbank/backend/ledger"
	"mcqbank/backend/models"
	"mcqbank/backend/plans"
	"mcqbank/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsersController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Ledger *ledger.Ledger
}

func NewUsersController(db *gorm.DB, cfg *config.Config, l *ledger.Ledger) *UsersController {
	return &UsersController{DB: db, Cfg: cfg, Ledger: l}
}

func (uc *UsersController) GetProfile(c *fiber.Ctx) error {
	tokenUser, err := utils.ExtractUserFromToken(c, uc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var user models.User
	if err := uc.DB.Preload("Subscriptions").Where("email = ?", tokenUser.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	subs := make(fiber.Map, len(user.Subscriptions))
	for _, s := range user.Subscriptions {
		subs[s.Plan] = fiber.Map{
			"isActive":      s.IsActive,
			"expiryDate":    s.ExpiryDate,
			"questionLimit": s.QuestionLimit,
			"questionUsed":  s.QuestionUsed,
			"lastPaymentId": s.LastPaymentID,
		}
	}

	return c.JSON(fiber.Map{
		"id":             user.ID,
		"name":           user.Name,
		"email":          user.Email,
		"role":           user.Role,
		"wallet_balance": user.WalletBalance,
		"referral_code":  user.ReferralCode,
		"institution":    user.Institution,
		"group":          user.Group,
		"subscriptions":  subs,
	})
}

func (uc *UsersController) GetTransactions(c *fiber.Ctx) error {
	tokenUser, err := utils.ExtractUserFromToken(c, uc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var transactions []models.Transaction
	if err := uc.DB.Where("email = ?", tokenUser.Email).
		Order("created_at desc").Find(&transactions).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(transactions)
}

// DeductQuota burns question-creation quota from an active teacher plan.
// Unlimited plans (-1) never deduct; every deduction is logged as a
// quota_usage transaction with the wallet balance untouched.
func (uc *UsersController) DeductQuota(c *fiber.Ctx) error {
	var input struct {
		Email   string `json:"email"`
		Count   int    `json:"count"`
		Details string `json:"details"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Email == "" {
		return utils.BadRequest(c, "Email is required")
	}
	if input.Count <= 0 {
		return utils.BadRequest(c, "Count must be positive")
	}

	var user models.User
	if err := uc.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var sub models.Subscription
	err := uc.DB.Where("user_id = ? AND plan = ?", user.ID, plans.Teacher).First(&sub).Error
	if err != nil || !sub.Active(time.Now()) {
		return utils.Forbidden(c, "No active teacher plan")
	}

	if sub.QuestionLimit != plans.Unlimited && sub.QuestionUsed+input.Count > sub.QuestionLimit {
		return utils.BadRequest(c, "Question quota exceeded")
	}

	if sub.QuestionLimit != plans.Unlimited {
		sub.QuestionUsed += input.Count
		if err := uc.DB.Save(&sub).Error; err != nil {
			return utils.InternalServerError(c, "Could not update quota")
		}
	}

	if err := uc.Ledger.Record(&models.Transaction{
		TxnID:        uuid.NewString(),
		UserID:       user.ID,
		Email:        user.Email,
		Amount:       float64(input.Count),
		Type:         models.TxnQuotaUsage,
		Details:      input.Details,
		BalanceAfter: user.WalletBalance,
	}); err != nil {
		return utils.InternalServerError(c, "Could not log quota usage")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("%d question(s) deducted from quota", input.Count),
	})
}
