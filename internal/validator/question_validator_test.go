package validator

import (
	"testing"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func answers(correct ...bool) []models.Answer {
	out := make([]models.Answer, len(correct))
	for i, c := range correct {
		out[i] = models.Answer{Text: "option", IsCorrect: c}
	}
	return out
}

func TestValidateShape_Binary(t *testing.T) {
	v := NewQuestionValidator()

	assert.NoError(t, v.ValidateShape(models.QuestionBinary, answers(true, false)))
	assert.Error(t, v.ValidateShape(models.QuestionBinary, answers(true, false, false)))
	assert.Error(t, v.ValidateShape(models.QuestionBinary, answers(true, true)))
	assert.Error(t, v.ValidateShape(models.QuestionBinary, answers(false, false)))
}

func TestValidateShape_Single(t *testing.T) {
	v := NewQuestionValidator()

	assert.NoError(t, v.ValidateShape(models.QuestionSingle, answers(true, false, false, false)))
	assert.Error(t, v.ValidateShape(models.QuestionSingle, answers(true, false)))
	assert.Error(t, v.ValidateShape(models.QuestionSingle, answers(true, true, false, false)))
}

func TestValidateShape_Multiple(t *testing.T) {
	v := NewQuestionValidator()

	assert.NoError(t, v.ValidateShape(models.QuestionMultiple, answers(true, true, false, false)))
	assert.NoError(t, v.ValidateShape(models.QuestionMultiple, answers(true, true, true, true)))
	assert.Error(t, v.ValidateShape(models.QuestionMultiple, answers(true, false, false, false)))
	assert.Error(t, v.ValidateShape(models.QuestionMultiple, answers(true, true, false)))
}

func TestValidateShape_UnknownType(t *testing.T) {
	v := NewQuestionValidator()
	assert.Error(t, v.ValidateShape(models.QuestionType("essay"), answers(true, false)))
}

func TestValidateQuestion(t *testing.T) {
	v := NewQuestionValidator()

	q := &models.Question{
		Text:     "Capital of France?",
		Type:     models.QuestionSingle,
		Position: 1,
		Points:   100,
		Answers:  answers(true, false, false, false),
	}
	assert.NoError(t, v.ValidateQuestion(q))

	q.Points = 0
	assert.Error(t, v.ValidateQuestion(q))

	q.Points = 100
	q.Text = ""
	assert.Error(t, v.ValidateQuestion(q))
}

func TestValidateBatch_DuplicatePositions(t *testing.T) {
	v := NewQuestionValidator()

	q1 := &models.Question{Text: "q1", Type: models.QuestionBinary, Position: 1, Points: 50, Answers: answers(true, false)}
	q2 := &models.Question{Text: "q2", Type: models.QuestionBinary, Position: 1, Points: 50, Answers: answers(false, true)}

	err := v.ValidateBatch([]*models.Question{q1, q2})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate question position")
}
