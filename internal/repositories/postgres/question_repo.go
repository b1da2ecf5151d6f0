package postgres

import (
	"context"
	"errors"

	"github.com/darkruden/mock-interview-ai/internal/models"
	"github.com/darkruden/mock-interview-ai/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Question, error)
	Seed(ctx context.Context, questions []models.Question) error
}

type questionRepo struct {
	db *gorm.DB
}

func NewQuestionRepo(db *gorm.DB) QuestionRepository {
	return &questionRepo{db: db}
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Seed inserts the default question set, leaving existing rows untouched.
func (r *questionRepo) Seed(ctx context.Context, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&questions).Error
}
