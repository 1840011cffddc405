package controllers

import (
	"encoding/json"
	"errors"
	"strconv"

	"mcqbank/backend/config"
	"mcqbank/backend/models"
	"mcqbank/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CollectionsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCollectionsController(db *gorm.DB, cfg *config.Config) *CollectionsController {
	return &CollectionsController{DB: db, Cfg: cfg}
}

func (cc *CollectionsController) Create(c *fiber.Ctx) error {
	user, err := utils.ExtractUserFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var input struct {
		Title       string `json:"title"`
		QuestionIDs []uint `json:"questionIds"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Title == "" {
		return utils.BadRequest(c, "Title is required")
	}

	ids, err := json.Marshal(input.QuestionIDs)
	if err != nil {
		return utils.InternalServerError(c, "Could not encode question ids")
	}

	collection := models.Collection{
		Title:       input.Title,
		OwnerID:     user.ID,
		QuestionIDs: datatypes.JSON(ids),
	}

	if err := cc.DB.Create(&collection).Error; err != nil {
		return utils.InternalServerError(c, "Could not create collection")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Collection created",
		"collection": collection,
	})
}

func (cc *CollectionsController) ListMine(c *fiber.Ctx) error {
	user, err := utils.ExtractUserFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var collections []models.Collection
	if err := cc.DB.Where("owner_id = ?", user.ID).Find(&collections).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(collections)
}

func (cc *CollectionsController) Delete(c *fiber.Ctx) error {
	user, err := utils.ExtractUserFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	collectionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid collection ID")
	}

	var collection models.Collection
	if err := cc.DB.First(&collection, collectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Collection not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if collection.OwnerID != user.ID && user.Role != "admin" {
		return utils.Forbidden(c, "You don't have permission to delete this collection")
	}

	if err := cc.DB.Delete(&collection).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete collection")
	}

	return c.JSON(fiber.Map{
		"message": "Collection deleted",
	})
}
