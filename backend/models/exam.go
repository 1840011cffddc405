package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Question struct {
	gorm.Model
	Question      string `gorm:"not null"`
	Options       datatypes.JSON // JSON array of option strings
	CorrectAnswer int
	Marks         float64 `gorm:"default:1"`
	NegativeMarks float64 // stored with the question, not applied during grading
	Group         string  `gorm:"index"`
	Class         string  `gorm:"index"`
	Subject       string  `gorm:"index"`
	Chapter       string
	Topic         string
	Difficulty    string
	Medium        string
	Tags          datatypes.JSON // JSON array of tag strings
	Explanation   string
	CreatedByID   uint
}

// Exam states
const (
	ExamActive   = "active"
	ExamArchived = "archived"
	ExamDraft    = "draft"
)

// Exam is a timed model test assembled from the question bank.
type Exam struct {
	gorm.Model
	Title           string `gorm:"not null"`
	Group           string
	QuestionIDs     datatypes.JSON // ordered JSON array of question ids
	TotalMarks      float64
	DurationMinutes int
	StartTime       time.Time
	EndTime         time.Time
	Status          string `gorm:"default:draft"` // active, archived, draft
	Participants    int    `gorm:"default:0"`     // distinct students who completed, counted once each
	CreatedByID     uint
}

// ExamResult is unique per (exam, student). Resubmission overwrites the
// grading fields and bumps AttemptCount; CreatedAt keeps the first
// submission's timestamp.
type ExamResult struct {
	gorm.Model
	ExamID        uint `gorm:"uniqueIndex:idx_exam_student"`
	StudentID     uint `gorm:"uniqueIndex:idx_exam_student"`
	ObtainedMarks float64
	CorrectCount  int
	WrongCount    int
	SkippedCount  int
	TimeTaken     int            // seconds
	Details       datatypes.JSON // per-question breakdown
	AttemptCount  int            `gorm:"default:1"`
	SubmittedAt   time.Time
}

// Collection is a teacher-curated set of question references.
type Collection struct {
	gorm.Model
	Title       string `gorm:"not null"`
	OwnerID     uint   `gorm:"index"`
	QuestionIDs datatypes.JSON
}
