package postgres

import (
	"context"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

func (q QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Create(quiz).Error
}

func (q QuizPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Questions.Answers").
		First(&quiz, id).Error; err != nil {
		return nil, err
	}
	quiz.QuestionsCount = len(quiz.Questions)
	for _, question := range quiz.Questions {
		quiz.TotalPoints += question.Points
	}
	return &quiz, nil
}

func (q QuizPostgreSQL) GetByCode(ctx context.Context, code string) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).
		Where("join_code = ?", models.NormalizeCode(code)).
		First(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q QuizPostgreSQL) Update(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Save(quiz).Error
}

func (q QuizPostgreSQL) Delete(ctx context.Context, id uint) error {
	// Questions and answers cascade at the storage boundary.
	return q.db.WithContext(ctx).Select("Questions").Delete(&models.Quiz{ID: id}).Error
}

func (q QuizPostgreSQL) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var quizzes []*models.Quiz
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Quiz{})
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(quizOrderClause(filters.SortBy, filters.SortOrder))

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}

// quizOrderClause builds the ORDER BY fragment from caller-supplied sort
// parameters. Both values reach gorm as raw SQL, so anything outside the
// whitelist falls back to the default ordering.
func quizOrderClause(sortBy, sortOrder string) string {
	switch sortBy {
	case "title":
	default:
		sortBy = "created_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	return sortBy + " " + sortOrder
}

func (q QuizPostgreSQL) SetActive(ctx context.Context, id uint, active bool) error {
	return q.db.WithContext(ctx).Model(&models.Quiz{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

func (q QuizPostgreSQL) IsOwner(ctx context.Context, quizID uint, userID string) (bool, error) {
	var count int64
	if err := q.db.WithContext(ctx).Model(&models.Quiz{}).
		Where("id = ? AND created_by = ?", quizID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (q QuizPostgreSQL) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := q.db.WithContext(ctx).Model(&models.Quiz{}).
		Where("join_code = ?", models.NormalizeCode(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
