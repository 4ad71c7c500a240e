package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"alfredoptarigan/candidate-screener/internal/models"
)

type UploadJobRepository interface {
	Create(ctx context.Context, job *models.UploadJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.UploadJob, error)
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	SetDetectedRole(ctx context.Context, id uuid.UUID, role string) error
	IncrementProcessed(ctx context.Context, id uuid.UUID, n int) error
	Complete(ctx context.Context, id uuid.UUID, results []models.FileResult) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
	FindPendingJobs(ctx context.Context, limit int) ([]models.UploadJob, error)
	// RequeueInterrupted puts jobs left in processing by a previous run back in the queue.
	RequeueInterrupted(ctx context.Context) (int64, error)
}

type uploadJobRepository struct {
	db *gorm.DB
}

func NewUploadJobRepository(db *gorm.DB) UploadJobRepository {
	return &uploadJobRepository{db: db}
}

func (r *uploadJobRepository) Create(ctx context.Context, job *models.UploadJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = models.StatusQueued
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create upload job: %w", err)
	}
	return nil
}

func (r *uploadJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.UploadJob, error) {
	var job models.UploadJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("upload job %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find upload job: %w", err)
	}
	return &job, nil
}

// Claim moves a queued job to processing. It reports false when another
// worker got there first or the job is no longer queued.
func (r *uploadJobRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.UploadJob{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim upload job: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *uploadJobRepository) SetDetectedRole(ctx context.Context, id uuid.UUID, role string) error {
	return r.update(ctx, id, map[string]interface{}{"detected_role": role})
}

func (r *uploadJobRepository) IncrementProcessed(ctx context.Context, id uuid.UUID, n int) error {
	return r.update(ctx, id, map[string]interface{}{
		"processed_count": gorm.Expr("processed_count + ?", n),
	})
}

func (r *uploadJobRepository) Complete(ctx context.Context, id uuid.UUID, results []models.FileResult) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":          models.StatusCompleted,
		"results":         datatypes.NewJSONSlice(results),
		"processed_count": len(results),
	})
}

func (r *uploadJobRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
	})
}

func (r *uploadJobRepository) FindPendingJobs(ctx context.Context, limit int) ([]models.UploadJob, error) {
	var jobs []models.UploadJob
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return jobs, nil
}

func (r *uploadJobRepository) RequeueInterrupted(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.UploadJob{}).
		Where("status = ?", models.StatusProcessing).
		Updates(map[string]interface{}{
			"status":          models.StatusQueued,
			"processed_count": 0,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to requeue interrupted jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *uploadJobRepository) update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&models.UploadJob{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update upload job: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("upload job %s not found: %w", id, ErrNotFound)
	}

	return nil
}
