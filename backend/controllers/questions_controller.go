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

type QuestionsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewQuestionsController(db *gorm.DB, cfg *config.Config) *QuestionsController {
	return &QuestionsController{DB: db, Cfg: cfg}
}

// GetQuestions lists questions filtered by any combination of the taxonomy
// fields, with a case-insensitive free-text search over question text,
// subject, chapter, topic, tags and explanation.
func (qc *QuestionsController) GetQuestions(c *fiber.Ctx) error {
	query := qc.DB.Model(&models.Question{})

	filters := map[string]string{
		"\"group\"":  c.Query("group"),
		"class":      c.Query("class"),
		"subject":    c.Query("subject"),
		"chapter":    c.Query("chapter"),
		"topic":      c.Query("topic"),
		"difficulty": c.Query("difficulty"),
		"medium":     c.Query("medium"),
	}
	for column, value := range filters {
		if value != "" {
			query = query.Where(column+" = ?", value)
		}
	}

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"question ILIKE ? OR subject ILIKE ? OR chapter ILIKE ? OR topic ILIKE ? OR tags::text ILIKE ? OR explanation ILIKE ?",
			pattern, pattern, pattern, pattern, pattern, pattern)
	}

	var questions []models.Question
	if err := query.Find(&questions).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch questions")
	}

	return c.JSON(questions)
}

func (qc *QuestionsController) CreateQuestion(c *fiber.Ctx) error {
	var input struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer int      `json:"correctAnswer"`
		Marks         float64  `json:"marks"`
		NegativeMarks float64  `json:"negativeMarks"`
		Group         string   `json:"group"`
		Class         string   `json:"class"`
		Subject       string   `json:"subject"`
		Chapter       string   `json:"chapter"`
		Topic         string   `json:"topic"`
		Difficulty    string   `json:"difficulty"`
		Medium        string   `json:"medium"`
		Tags          []string `json:"tags"`
		Explanation   string   `json:"explanation"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Question == "" {
		return utils.BadRequest(c, "Invalid question data")
	}
	if input.CorrectAnswer < 0 || input.CorrectAnswer >= len(input.Options) {
		return utils.BadRequest(c, "Invalid correct answer index")
	}

	user, err := utils.ExtractUserFromToken(c, qc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	optionsJson, err := json.Marshal(input.Options)
	if err != nil {
		return utils.InternalServerError(c, "Could not encode options")
	}
	tagsJson, err := json.Marshal(input.Tags)
	if err != nil {
		return utils.InternalServerError(c, "Could not encode tags")
	}

	question := models.Question{
		Question:      input.Question,
		Options:       datatypes.JSON(optionsJson),
		CorrectAnswer: input.CorrectAnswer,
		Marks:         input.Marks,
		NegativeMarks: input.NegativeMarks,
		Group:         input.Group,
		Class:         input.Class,
		Subject:       input.Subject,
		Chapter:       input.Chapter,
		Topic:         input.Topic,
		Difficulty:    input.Difficulty,
		Medium:        input.Medium,
		Tags:          datatypes.JSON(tagsJson),
		Explanation:   input.Explanation,
		CreatedByID:   user.ID,
	}

	if err := qc.DB.Create(&question).Error; err != nil {
		return utils.InternalServerError(c, "Failed to save question")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Question saved successfully",
		"insertedId": question.ID,
	})
}

func (qc *QuestionsController) DeleteQuestion(c *fiber.Ctx) error {
	questionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid question ID")
	}

	var question models.Question
	if err := qc.DB.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Question not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := qc.DB.Delete(&question).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete question")
	}

	return c.JSON(fiber.Map{
		"message": "Question deleted",
	})
}
