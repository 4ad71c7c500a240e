package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/candidate-screener/internal/logger"
	"alfredoptarigan/candidate-screener/internal/models"
	"alfredoptarigan/candidate-screener/internal/repositories"
)

// SessionStore keeps interview sessions in the durable repository with a
// write-through, read-through cache in front. The repository is authoritative.
type SessionStore interface {
	Save(ctx context.Context, session *models.InterviewSession) error
	Get(ctx context.Context, id uuid.UUID) (*models.InterviewSession, error)
	// FindActiveByCandidate bypasses the cache.
	FindActiveByCandidate(ctx context.Context, candidateID uuid.UUID) (*models.InterviewSession, error)
	// FindIdleActive lists active sessions untouched since idleSince.
	FindIdleActive(ctx context.Context, idleSince time.Time, limit int) ([]models.InterviewSession, error)
	DeactivateByCandidate(ctx context.Context, candidateID uuid.UUID) error
	AppendMessage(ctx context.Context, sessionID uuid.UUID, role models.MessageRole, content string) error
}

type sessionStore struct {
	repo  repositories.InterviewSessionRepository
	cache SessionCache
	ttl   time.Duration
	log   *zap.Logger
}

// NewSessionStore builds the store. cache may be nil, in which case every
// read goes to the repository.
func NewSessionStore(repo repositories.InterviewSessionRepository, cache SessionCache, ttl time.Duration, log *zap.Logger) SessionStore {
	return &sessionStore{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   logger.OrNop(log),
	}
}

func (s *sessionStore) Save(ctx context.Context, session *models.InterviewSession) error {
	session.UpdatedAt = time.Now()

	if err := s.repo.Upsert(ctx, session); err != nil {
		return err
	}

	s.populate(ctx, session)
	return nil
}

func (s *sessionStore) Get(ctx context.Context, id uuid.UUID) (*models.InterviewSession, error) {
	if cached := s.fromCache(ctx, id); cached != nil {
		return cached, nil
	}

	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	s.populate(ctx, session)
	return session, nil
}

func (s *sessionStore) FindActiveByCandidate(ctx context.Context, candidateID uuid.UUID) (*models.InterviewSession, error) {
	session, err := s.repo.FindActiveByCandidate(ctx, candidateID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *sessionStore) FindIdleActive(ctx context.Context, idleSince time.Time, limit int) ([]models.InterviewSession, error) {
	return s.repo.FindIdleActive(ctx, idleSince, limit)
}

func (s *sessionStore) DeactivateByCandidate(ctx context.Context, candidateID uuid.UUID) error {
	ids, err := s.repo.DeactivateByCandidate(ctx, candidateID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		s.evict(ctx, id)
	}
	return nil
}

func (s *sessionStore) AppendMessage(ctx context.Context, sessionID uuid.UUID, role models.MessageRole, content string) error {
	return s.repo.AppendMessage(ctx, &models.InterviewMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	})
}

func (s *sessionStore) fromCache(ctx context.Context, id uuid.UUID) *models.InterviewSession {
	if s.cache == nil {
		return nil
	}

	blob, err := s.cache.GetSession(ctx, id.String())
	if err != nil {
		s.log.Warn("session cache read failed", zap.String("session_id", id.String()), zap.Error(err))
		return nil
	}
	if blob == nil {
		return nil
	}

	var session models.InterviewSession
	if err := json.Unmarshal(blob, &session); err != nil {
		s.log.Warn("discarding undecodable cached session", zap.String("session_id", id.String()), zap.Error(err))
		s.evict(ctx, id)
		return nil
	}
	return &session
}

func (s *sessionStore) populate(ctx context.Context, session *models.InterviewSession) {
	if s.cache == nil {
		return
	}

	blob, err := json.Marshal(session)
	if err != nil {
		s.log.Warn("failed to encode session for cache", zap.Error(err))
		return
	}

	if err := s.cache.SetSession(ctx, session.ID.String(), blob, s.ttl); err != nil {
		s.log.Warn("session cache write failed", zap.String("session_id", session.ID.String()), zap.Error(err))
	}
}

func (s *sessionStore) evict(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteSession(ctx, id.String()); err != nil {
		s.log.Warn("session cache evict failed", zap.String("session_id", id.String()), zap.Error(err))
	}
}

