package controllers

import (
	"errors"
	"strconv"

	"mcqbank/backend/config"
	"mcqbank/backend/models"
	"mcqbank/backend/notify"
	"mcqbank/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type NotificationsController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Notifier *notify.Notifier
}

func NewNotificationsController(db *gorm.DB, cfg *config.Config, notifier *notify.Notifier) *NotificationsController {
	return &NotificationsController{DB: db, Cfg: cfg, Notifier: notifier}
}

// List returns the caller's notifications plus global ones, newest first.
func (nc *NotificationsController) List(c *fiber.Ctx) error {
	tokenUser, err := utils.ExtractUserFromToken(c, nc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var notifications []models.Notification
	if err := nc.DB.Where("user_id = ? OR target = ?", tokenUser.ID, models.TargetGlobal).
		Order("created_at desc").Find(&notifications).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(notifications)
}

func (nc *NotificationsController) MarkRead(c *fiber.Ctx) error {
	notificationID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid notification ID")
	}

	var notification models.Notification
	if err := nc.DB.First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Notification not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	notification.IsRead = true
	if err := nc.DB.Save(&notification).Error; err != nil {
		return utils.InternalServerError(c, "Could not update notification")
	}

	return c.JSON(notification)
}

// Broadcast publishes a global notification (admin only).
func (nc *NotificationsController) Broadcast(c *fiber.Ctx) error {
	var input struct {
		Title   string `json:"title"`
		Message string `json:"message"`
		Type    string `json:"type"`
		Link    string `json:"link"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Title == "" || input.Message == "" {
		return utils.BadRequest(c, "Title and message are required")
	}
	if input.Type == "" {
		input.Type = models.NotifyInfo
	}

	if err := nc.Notifier.Broadcast(input.Title, input.Message, input.Type, input.Link); err != nil {
		return utils.InternalServerError(c, "Could not create notification")
	}

	return utils.Message(c, fiber.StatusCreated, "Notification published")
}
