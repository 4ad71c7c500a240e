package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"alfredoptarigan/candidate-screener/internal/models"
)

type RecruiterRepository interface {
	Create(ctx context.Context, recruiter *models.Recruiter) error
	FindByUsername(ctx context.Context, username string) (*models.Recruiter, error)
}

type recruiterRepository struct {
	db *gorm.DB
}

func NewRecruiterRepository(db *gorm.DB) RecruiterRepository {
	return &recruiterRepository{db: db}
}

func (r *recruiterRepository) Create(ctx context.Context, recruiter *models.Recruiter) error {
	if err := r.db.WithContext(ctx).Create(recruiter).Error; err != nil {
		return fmt.Errorf("failed to create recruiter: %w", err)
	}
	return nil
}

func (r *recruiterRepository) FindByUsername(ctx context.Context, username string) (*models.Recruiter, error) {
	var recruiter models.Recruiter
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&recruiter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recruiter %q not found: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find recruiter: %w", err)
	}
	return &recruiter, nil
}
