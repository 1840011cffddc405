package grading

import "mcqbank/backend/models"

// Answer statuses
const (
	StatusCorrect = "correct"
	StatusWrong   = "wrong"
	StatusSkipped = "skipped"
)

// AnswerDetail is the per-question breakdown stored with a result.
// NegativeMarks is echoed from the question but never subtracted from the
// score; wrong answers simply earn zero.
type AnswerDetail struct {
	QuestionID    uint    `json:"questionId"`
	UserSelected  *int    `json:"userSelected"`
	CorrectAnswer int     `json:"correctAnswer"`
	Status        string  `json:"status"`
	MarkObtained  float64 `json:"markObtained"`
	NegativeMarks float64 `json:"negativeMarks"`
}

type Summary struct {
	ObtainedMarks float64
	CorrectCount  int
	WrongCount    int
	SkippedCount  int
	Details       []AnswerDetail
}

// Grade walks the exam's stored question order and scores the submitted
// answers. Questions missing from the bank are excluded without error, and
// answer keys outside the exam's question set are ignored.
func Grade(order []uint, questions map[uint]models.Question, answers map[uint]int) Summary {
	var sum Summary
	for _, qid := range order {
		q, ok := questions[qid]
		if !ok {
			continue
		}

		mark := q.Marks
		if mark <= 0 {
			mark = 1
		}

		detail := AnswerDetail{
			QuestionID:    qid,
			CorrectAnswer: q.CorrectAnswer,
			NegativeMarks: q.NegativeMarks,
		}

		selected, answered := answers[qid]
		switch {
		case !answered:
			detail.Status = StatusSkipped
			sum.SkippedCount++
		case selected == q.CorrectAnswer:
			detail.UserSelected = &selected
			detail.Status = StatusCorrect
			detail.MarkObtained = mark
			sum.CorrectCount++
			sum.ObtainedMarks += mark
		default:
			detail.UserSelected = &selected
			detail.Status = StatusWrong
			sum.WrongCount++
		}

		sum.Details = append(sum.Details, detail)
	}
	return sum
}

// Beats reports whether result a ranks above result b: higher score first,
// then faster completion on equal score. Equal score and time tie, so two
// results can share the same rank.
func Beats(aMarks float64, aTime int, bMarks float64, bTime int) bool {
	if aMarks != bMarks {
		return aMarks > bMarks
	}
	return aTime < bTime
}

// Rank computes a result's standing among all results of the same exam:
// 1 plus the number of results that beat it.
func Rank(results []models.ExamResult, resultID uint) int {
	rank := 1
	var target *models.ExamResult
	for i := range results {
		if results[i].ID == resultID {
			target = &results[i]
			break
		}
	}
	if target == nil {
		return 0
	}
	for i := range results {
		if results[i].ID == resultID {
			continue
		}
		if Beats(results[i].ObtainedMarks, results[i].TimeTaken, target.ObtainedMarks, target.TimeTaken) {
			rank++
		}
	}
	return rank
}
