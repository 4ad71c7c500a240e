package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/candidate-screener/internal/models"
)

type InterviewSessionRepository interface {
	Upsert(ctx context.Context, session *models.InterviewSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.InterviewSession, error)
	FindActiveByCandidate(ctx context.Context, candidateID uuid.UUID) (*models.InterviewSession, error)
	FindIdleActive(ctx context.Context, idleSince time.Time, limit int) ([]models.InterviewSession, error)
	DeactivateByCandidate(ctx context.Context, candidateID uuid.UUID) ([]uuid.UUID, error)
	AppendMessage(ctx context.Context, message *models.InterviewMessage) error
	// ListCandidateMessages returns the conversation log of every session the
	// candidate has had, oldest first.
	ListCandidateMessages(ctx context.Context, candidateID uuid.UUID) ([]models.InterviewMessage, error)
}

type interviewSessionRepository struct {
	db *gorm.DB
}

func NewInterviewSessionRepository(db *gorm.DB) InterviewSessionRepository {
	return &interviewSessionRepository{db: db}
}

// Upsert writes the whole session row, inserting it on first save.
func (r *interviewSessionRepository) Upsert(ctx context.Context, session *models.InterviewSession) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(session).Error
	if err != nil {
		return fmt.Errorf("failed to save interview session: %w", err)
	}
	return nil
}

func (r *interviewSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.InterviewSession, error) {
	var session models.InterviewSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("interview session %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find interview session: %w", err)
	}
	return &session, nil
}

// FindActiveByCandidate returns the newest active session of the candidate.
func (r *interviewSessionRepository) FindActiveByCandidate(ctx context.Context, candidateID uuid.UUID) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := r.db.WithContext(ctx).
		Where("candidate_id = ? AND is_active = ?", candidateID, true).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no active session for candidate %s: %w", candidateID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find active session: %w", err)
	}
	return &session, nil
}

func (r *interviewSessionRepository) FindIdleActive(ctx context.Context, idleSince time.Time, limit int) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND updated_at < ?", true, idleSince).
		Order("updated_at ASC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find idle sessions: %w", err)
	}
	return sessions, nil
}

// DeactivateByCandidate closes every active session of the candidate and
// returns the ids it closed.
func (r *interviewSessionRepository) DeactivateByCandidate(ctx context.Context, candidateID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.InterviewSession{}).
			Where("candidate_id = ? AND is_active = ?", candidateID, true).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to list active sessions: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Model(&models.InterviewSession{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"is_active":  false,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return fmt.Errorf("failed to deactivate sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *interviewSessionRepository) AppendMessage(ctx context.Context, message *models.InterviewMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to append interview message: %w", err)
	}
	return nil
}

func (r *interviewSessionRepository) ListCandidateMessages(ctx context.Context, candidateID uuid.UUID) ([]models.InterviewMessage, error) {
	var messages []models.InterviewMessage
	err := r.db.WithContext(ctx).
		Joins("JOIN interview_sessions ON interview_sessions.id = interview_messages.session_id").
		Where("interview_sessions.candidate_id = ?", candidateID).
		Order("interview_messages.id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list interview messages: %w", err)
	}
	return messages, nil
}
