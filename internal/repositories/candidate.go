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

type CandidateRepository interface {
	Create(ctx context.Context, candidate *models.Candidate) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.CandidateStatus) error
	// TransitionStatus moves the candidate to "to" only while it is still in
	// "from" and reports whether the row changed.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.CandidateStatus) (bool, error)
	UpdateInterviewResult(ctx context.Context, id uuid.UUID, data *InterviewResultData) error
	AppendFlag(ctx context.Context, id uuid.UUID, flag models.Flag) (int, error)
	Leaderboard(ctx context.Context, recruiter string, limit int) ([]models.Candidate, error)
	List(ctx context.Context, limit, offset int) ([]models.Candidate, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteByRecruiter(ctx context.Context, recruiter string) (int64, error)
}

type InterviewResultData struct {
	InterviewScore float64
	FinalScore     float64
	Decision       string
	Status         models.CandidateStatus
	Transcript     []models.QuestionScore
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) Create(ctx context.Context, candidate *models.Candidate) error {
	if candidate.ID == uuid.Nil {
		candidate.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(candidate).Error; err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

func (r *candidateRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&candidate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("candidate %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find candidate: %w", err)
	}
	return &candidate, nil
}

func (r *candidateRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.CandidateStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update candidate status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("candidate %s not found: %w", id, ErrNotFound)
	}

	return nil
}

func (r *candidateRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.CandidateStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to update candidate status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *candidateRepository) UpdateInterviewResult(ctx context.Context, id uuid.UUID, data *InterviewResultData) error {
	result := r.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"interview_score": data.InterviewScore,
			"final_score":     data.FinalScore,
			"decision":        data.Decision,
			"status":          data.Status,
			"transcript":      datatypes.NewJSONSlice(data.Transcript),
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update interview result: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("candidate %s not found: %w", id, ErrNotFound)
	}

	return nil
}

// AppendFlag adds a violation to the candidate and returns the new flag count.
func (r *candidateRepository) AppendFlag(ctx context.Context, id uuid.UUID, flag models.Flag) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidate models.Candidate
		if err := tx.Where("id = ?", id).First(&candidate).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("candidate %s not found: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to load candidate: %w", err)
		}

		flags := append(candidate.Flags, flag)
		if err := tx.Model(&models.Candidate{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"flags":      flags,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return fmt.Errorf("failed to save flags: %w", err)
		}

		count = len(flags)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Leaderboard returns the recruiter's candidates, best final score first.
func (r *candidateRepository) Leaderboard(ctx context.Context, recruiter string, limit int) ([]models.Candidate, error) {
	var candidates []models.Candidate
	query := r.db.WithContext(ctx).
		Where("recruiter_username = ?", recruiter).
		Order("final_score DESC").
		Order("resume_score DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return candidates, nil
}

func (r *candidateRepository) List(ctx context.Context, limit, offset int) ([]models.Candidate, error) {
	var candidates []models.Candidate
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return candidates, nil
}

// DeleteAll removes every candidate together with all interview sessions and messages.
func (r *candidateRepository) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.InterviewMessage{}).Error; err != nil {
			return fmt.Errorf("failed to delete interview messages: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.InterviewSession{}).Error; err != nil {
			return fmt.Errorf("failed to delete interview sessions: %w", err)
		}
		result := tx.Where("1 = 1").Delete(&models.Candidate{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete candidates: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// DeleteByRecruiter removes one recruiter's candidates with their interview
// sessions and messages.
func (r *candidateRepository) DeleteByRecruiter(ctx context.Context, recruiter string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidateIDs := func() *gorm.DB {
			return tx.Model(&models.Candidate{}).Select("id").Where("recruiter_username = ?", recruiter)
		}
		sessionIDs := tx.Model(&models.InterviewSession{}).Select("id").Where("candidate_id IN (?)", candidateIDs())

		if err := tx.Where("session_id IN (?)", sessionIDs).Delete(&models.InterviewMessage{}).Error; err != nil {
			return fmt.Errorf("failed to delete interview messages: %w", err)
		}
		if err := tx.Where("candidate_id IN (?)", candidateIDs()).Delete(&models.InterviewSession{}).Error; err != nil {
			return fmt.Errorf("failed to delete interview sessions: %w", err)
		}
		result := tx.Where("recruiter_username = ?", recruiter).Delete(&models.Candidate{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete candidates: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
