package validator

import (
	"fmt"

	"github.com/quizforge/quiz-service/internal/models"
)

// QuestionValidator enforces the authoring-time shape invariants: a
// question is usable in sessions only if its answer count and correct
// count match its type. Play-time code assumes these hold.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateShape checks the answer set against the question type.
func (v *QuestionValidator) ValidateShape(questionType models.QuestionType, answers []models.Answer) error {
	shape, ok := models.ShapeFor(questionType)
	if !ok {
		return fmt.Errorf("unsupported question type: %s", questionType)
	}

	if len(answers) != shape.AnswerCount {
		return fmt.Errorf("%s questions require exactly %d answers, got %d",
			questionType, shape.AnswerCount, len(answers))
	}

	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}

	if correct < shape.MinCorrect || correct > shape.MaxCorrect {
		if shape.MinCorrect == shape.MaxCorrect {
			return fmt.Errorf("%s questions require exactly %d correct answer(s), got %d",
				questionType, shape.MinCorrect, correct)
		}
		return fmt.Errorf("%s questions require at least %d correct answers, got %d",
			questionType, shape.MinCorrect, correct)
	}

	return nil
}

// ValidateQuestion validates a complete question object including answers.
func (v *QuestionValidator) ValidateQuestion(question *models.Question) error {
	if question.Text == "" {
		return fmt.Errorf("question text is required")
	}

	if question.Points < 1 {
		return fmt.Errorf("question points must be positive")
	}

	if question.Position < 1 {
		return fmt.Errorf("question position must be positive")
	}

	for i, a := range question.Answers {
		if a.Text == "" {
			return fmt.Errorf("answer %d text is required", i+1)
		}
	}

	return v.ValidateShape(question.Type, question.Answers)
}

// ValidateBatch validates multiple questions and checks position uniqueness.
func (v *QuestionValidator) ValidateBatch(questions []*models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("question batch cannot be empty")
	}

	seen := make(map[int]bool, len(questions))
	for i, question := range questions {
		if err := v.ValidateQuestion(question); err != nil {
			return fmt.Errorf("validation failed for question %d: %w", i+1, err)
		}
		if seen[question.Position] {
			return fmt.Errorf("duplicate question position %d", question.Position)
		}
		seen[question.Position] = true
	}

	return nil
}
