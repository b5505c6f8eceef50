package services

import (
	"math"

	"github.com/quizforge/quiz-service/internal/models"
)

// decayFactor computes the linear response-time decay: full credit at 0,
// zero at or beyond the time budget. A non-positive budget disables decay.
// Negative response times (clock skew, missing values) clamp to 0.
func decayFactor(responseTime float64, timeLimit int) float64 {
	if timeLimit <= 0 {
		return 1
	}
	if responseTime < 0 {
		responseTime = 0
	}
	factor := (float64(timeLimit) - responseTime) / float64(timeLimit)
	if factor < 0 {
		return 0
	}
	return factor
}

// decayedPoints applies the decay to a base point value, rounding to the
// nearest integer.
func decayedPoints(points int, responseTime float64, timeLimit int) int {
	return int(math.Round(float64(points) * decayFactor(responseTime, timeLimit)))
}

// ScoreSubmission computes the points earned for one submission.
//
// For binary/single questions the selection must be exactly the correct
// answer to earn anything. For multiple questions every selected correct
// answer earns the decayed point value independently; selecting a wrong
// answer contributes zero and never subtracts.
func ScoreSubmission(question *models.Question, selectedAnswerIDs []uint, responseTime float64, timeLimit int) int {
	if len(selectedAnswerIDs) == 0 {
		return 0
	}

	correctIDs := question.CorrectAnswerIDs()
	correct := make(map[uint]bool, len(correctIDs))
	for _, id := range correctIDs {
		correct[id] = true
	}

	switch question.Type {
	case models.QuestionMultiple:
		total := 0
		for _, id := range selectedAnswerIDs {
			if correct[id] {
				total += decayedPoints(question.Points, responseTime, timeLimit)
			}
		}
		return total
	default:
		// binary and single: a single selection that must be the correct one.
		if len(selectedAnswerIDs) != 1 || !correct[selectedAnswerIDs[0]] {
			return 0
		}
		return decayedPoints(question.Points, responseTime, timeLimit)
	}
}
