package controllers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"mcqbank/backend/config"
	"mcqbank/backend/grading"
	"mcqbank/backend/models"
	"mcqbank/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LeaderboardSize caps the leaderboard listing.
const LeaderboardSize = 50

type ExamsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewExamsController(db *gorm.DB, cfg *config.Config) *ExamsController {
	return &ExamsController{DB: db, Cfg: cfg}
}

func (ec *ExamsController) CreateExam(c *fiber.Ctx) error {
	user, err := utils.ExtractUserFromToken(c, ec.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var input struct {
		Title           string    `json:"title"`
		Group           string    `json:"group"`
		QuestionIDs     []uint    `json:"questionIds"`
		TotalMarks      float64   `json:"totalMarks"`
		DurationMinutes int       `json:"durationMinutes"`
		StartTime       time.Time `json:"startTime"`
		EndTime         time.Time `json:"endTime"`
		Status          string    `json:"status"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Title == "" || len(input.QuestionIDs) == 0 {
		return utils.BadRequest(c, "Title and questionIds are required")
	}

	ids, err := json.Marshal(input.QuestionIDs)
	if err != nil {
		return utils.InternalServerError(c, "Could not encode question ids")
	}

	status := input.Status
	if status == "" {
		status = models.ExamDraft
	}

	exam := models.Exam{
		Title:           input.Title,
		Group:           input.Group,
		QuestionIDs:     datatypes.JSON(ids),
		TotalMarks:      input.TotalMarks,
		DurationMinutes: input.DurationMinutes,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		Status:          status,
		CreatedByID:     user.ID,
	}

	if err := ec.DB.Create(&exam).Error; err != nil {
		return utils.InternalServerError(c, "Could not create exam")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Exam created",
		"exam":    exam,
	})
}

func (ec *ExamsController) ListExams(c *fiber.Ctx) error {
	query := ec.DB.Model(&models.Exam{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status = ?", models.ExamActive)
	}
	if group := c.Query("group"); group != "" {
		query = query.Where("\"group\" = ?", group)
	}

	var exams []models.Exam
	if err := query.Order("start_time desc").Find(&exams).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return c.JSON(exams)
}

func (ec *ExamsController) GetExam(c *fiber.Ctx) error {
	examID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid exam ID")
	}

	var exam models.Exam
	if err := ec.DB.First(&exam, examID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Exam not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	order, questions, err := ec.loadExamQuestions(&exam)
	if err != nil {
		return utils.InternalServerError(c, "Could not load questions")
	}

	// Correct answers stay server-side until the exam is graded.
	var out []fiber.Map
	for _, qid := range order {
		q, ok := questions[qid]
		if !ok {
			continue
		}
		var options []string
		json.Unmarshal(q.Options, &options)
		out = append(out, fiber.Map{
			"id":       q.ID,
			"question": q.Question,
			"options":  options,
			"marks":    q.Marks,
			"subject":  q.Subject,
		})
	}

	return c.JSON(fiber.Map{
		"exam":      exam,
		"questions": out,
	})
}

func (ec *ExamsController) ArchiveExam(c *fiber.Ctx) error {
	examID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid exam ID")
	}

	var exam models.Exam
	if err := ec.DB.First(&exam, examID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Exam not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	exam.Status = models.ExamArchived
	if err := ec.DB.Save(&exam).Error; err != nil {
		return utils.InternalServerError(c, "Could not update exam")
	}

	return c.JSON(fiber.Map{
		"message": "Exam archived",
		"exam":    exam,
	})
}

// Submit grades an exam attempt and upserts the student's result. The
// participant counter moves only on the first submission for the
// (exam, student) pair; resubmissions regrade and bump attemptCount.
func (ec *ExamsController) Submit(c *fiber.Ctx) error {
	examID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid exam ID")
	}

	var input struct {
		StudentID uint            `json:"studentId"`
		Answers   map[string]*int `json:"answers"` // null values count as skipped
		TimeTaken int             `json:"timeTaken"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.StudentID == 0 {
		return utils.BadRequest(c, "studentId is required")
	}
	if input.Answers == nil {
		return utils.BadRequest(c, "answers map is required")
	}

	var exam models.Exam
	if err := ec.DB.First(&exam, examID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Exam not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	order, questions, err := ec.loadExamQuestions(&exam)
	if err != nil {
		return utils.InternalServerError(c, "Could not load questions")
	}

	// Keys that are not numeric question ids are ignored.
	answers := make(map[uint]int, len(input.Answers))
	for key, selected := range input.Answers {
		qid, err := strconv.ParseUint(key, 10, 32)
		if err != nil || selected == nil {
			continue
		}
		answers[uint(qid)] = *selected
	}

	summary := grading.Grade(order, questions, answers)

	details, err := json.Marshal(summary.Details)
	if err != nil {
		return utils.InternalServerError(c, "Could not encode result details")
	}

	now := time.Now()
	var result models.ExamResult
	err = ec.DB.Where("exam_id = ? AND student_id = ?", examID, input.StudentID).First(&result).Error
	firstSubmission := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !firstSubmission {
		return utils.InternalServerError(c, "Could not query database")
	}

	if firstSubmission {
		result = models.ExamResult{
			ExamID:        uint(examID),
			StudentID:     input.StudentID,
			ObtainedMarks: summary.ObtainedMarks,
			CorrectCount:  summary.CorrectCount,
			WrongCount:    summary.WrongCount,
			SkippedCount:  summary.SkippedCount,
			TimeTaken:     input.TimeTaken,
			Details:       datatypes.JSON(details),
			AttemptCount:  1,
			SubmittedAt:   now,
		}
		if err := ec.DB.Create(&result).Error; err != nil {
			return utils.InternalServerError(c, "Could not save result")
		}
		// Counted once per distinct student, never on resubmission.
		if err := ec.DB.Model(&models.Exam{}).Where("id = ?", examID).
			UpdateColumn("participants", gorm.Expr("participants + 1")).Error; err != nil {
			return utils.InternalServerError(c, "Could not update participants")
		}
	} else {
		result.ObtainedMarks = summary.ObtainedMarks
		result.CorrectCount = summary.CorrectCount
		result.WrongCount = summary.WrongCount
		result.SkippedCount = summary.SkippedCount
		result.TimeTaken = input.TimeTaken
		result.Details = datatypes.JSON(details)
		result.AttemptCount++
		result.SubmittedAt = now
		if err := ec.DB.Save(&result).Error; err != nil {
			return utils.InternalServerError(c, "Could not save result")
		}
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"resultId": result.ID,
		"score":    result.ObtainedMarks,
	})
}

// GetResult returns a graded result with its questions and the student's
// rank within the exam.
func (ec *ExamsController) GetResult(c *fiber.Ctx) error {
	resultID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid result ID")
	}

	var result models.ExamResult
	if err := ec.DB.First(&result, resultID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Result not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var exam models.Exam
	if err := ec.DB.First(&exam, result.ExamID).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	order, questions, err := ec.loadExamQuestions(&exam)
	if err != nil {
		return utils.InternalServerError(c, "Could not load questions")
	}

	var out []fiber.Map
	for _, qid := range order {
		q, ok := questions[qid]
		if !ok {
			continue
		}
		var options []string
		json.Unmarshal(q.Options, &options)
		out = append(out, fiber.Map{
			"id":             q.ID,
			"question":       q.Question,
			"options":        options,
			"correct_answer": q.CorrectAnswer,
			"marks":          q.Marks,
			"explanation":    q.Explanation,
		})
	}

	var results []models.ExamResult
	if err := ec.DB.Where("exam_id = ?", result.ExamID).Find(&results).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{
		"result":    result,
		"questions": out,
		"rank":      grading.Rank(results, result.ID),
	})
}

// Leaderboard lists the top results of an exam: highest score first,
// ties broken by faster completion.
func (ec *ExamsController) Leaderboard(c *fiber.Ctx) error {
	examID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid exam ID")
	}

	var results []models.ExamResult
	if err := ec.DB.Where("exam_id = ?", examID).
		Order("obtained_marks desc").Order("time_taken asc").
		Limit(LeaderboardSize).Find(&results).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var board []fiber.Map
	for _, r := range results {
		board = append(board, fiber.Map{
			"studentId":     r.StudentID,
			"obtainedMarks": r.ObtainedMarks,
			"timeTaken":     r.TimeTaken,
			"submittedAt":   r.SubmittedAt,
		})
	}

	return c.JSON(board)
}

// loadExamQuestions resolves the exam's stored question-id sequence. Ids
// missing from the bank stay absent from the map and are skipped by callers.
func (ec *ExamsController) loadExamQuestions(exam *models.Exam) ([]uint, map[uint]models.Question, error) {
	var order []uint
	if err := json.Unmarshal(exam.QuestionIDs, &order); err != nil {
		return nil, nil, err
	}

	var questions []models.Question
	if err := ec.DB.Where("id IN ?", order).Find(&questions).Error; err != nil {
		return nil, nil, err
	}

	byID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return order, byID, nil
}
