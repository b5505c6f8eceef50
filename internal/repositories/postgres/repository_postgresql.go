package postgres

import (
	"context"
	"fmt"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

// RepositoryPostgreSQL bundles the entity repositories over one *gorm.DB.
// Begin returns a new bundle bound to a transaction.
type RepositoryPostgreSQL struct {
	db *gorm.DB
	tx bool
}

func NewRepository(db *gorm.DB) repositories.TransactionRepository {
	return &RepositoryPostgreSQL{db: db}
}

func (r *RepositoryPostgreSQL) Quiz() repositories.QuizRepository {
	return NewQuizPostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) Question() repositories.QuestionRepository {
	return NewQuestionPostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) Session() repositories.SessionRepository {
	return NewSessionPostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) PlayerAnswer() repositories.PlayerAnswerRepository {
	return NewPlayerAnswerPostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) Hosted() repositories.HostedRepository {
	return NewHostedPostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) User() repositories.UserRepository {
	return NewUserPostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) ImportReport() repositories.ImportReportRepository {
	return NewImportReportPostgreSQL(r.db)
}

func (r *RepositoryPostgreSQL) Begin(ctx context.Context) (repositories.Repository, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &RepositoryPostgreSQL{db: tx, tx: true}, nil
}

func (r *RepositoryPostgreSQL) Commit(_ context.Context) error {
	if !r.tx {
		return fmt.Errorf("commit outside of transaction")
	}
	return r.db.Commit().Error
}

func (r *RepositoryPostgreSQL) Rollback(_ context.Context) error {
	if !r.tx {
		return fmt.Errorf("rollback outside of transaction")
	}
	return r.db.Rollback().Error
}

// AutoMigrate creates or updates the schema for all engine entities.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Quiz{},
		&models.Question{},
		&models.Answer{},
		&models.QuizSession{},
		&models.PlayerAnswer{},
		&models.HostedGame{},
		&models.HostedParticipant{},
		&models.ImportReport{},
	)
}
