package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/candidate-screener/internal/logger"
	"alfredoptarigan/candidate-screener/internal/models"
	"alfredoptarigan/candidate-screener/internal/repositories"
)

const (
	introQuestion     = "Could you please introduce yourself and your background?"
	completionMessage = "Interview Complete."
	defaultRole       = "Candidate"

	gradingUnavailable = "Service unavailable, unable to grade."
	gradingUnparsable  = "Could not parse grading."

	terminationPrefix = "TERMINATED: "
	idleSweepLimit    = 100
)

var fallbackQuestions = []string{
	"Tell me about a challenging project you worked on and how you handled it.",
	"How do you approach debugging a problem you have never seen before?",
	"Describe a time you had to learn a new technology quickly.",
	"How do you make sure the code you ship is reliable?",
	"What would you improve about the last system you worked on?",
}

type CreateSessionRequest struct {
	CandidateID    *uuid.UUID
	ResumeText     string
	JobDescription string
	MatchScore     float64
	// Credential is the signed token a returning browser presents.
	Credential string
}

type SessionView struct {
	Session    *models.InterviewSession
	Question   string
	Resumed    bool
	Credential string
}

type TurnResult struct {
	Session  *models.InterviewSession
	Graded   models.QuestionScore
	Question string
	Message  string
	Finished bool
}

type ViolationResult struct {
	Count      int
	Terminated bool
}

// InterviewService drives a session from creation to its final score.
// Turns on the same session are serialized.
type InterviewService interface {
	Create(ctx context.Context, req CreateSessionRequest) (*SessionView, error)
	Start(ctx context.Context, sessionID uuid.UUID) (*SessionView, error)
	Answer(ctx context.Context, sessionID uuid.UUID, answer string) (*TurnResult, error)
	Finalize(ctx context.Context, sessionID uuid.UUID) (*models.InterviewResultResponse, error)
	ReportViolation(ctx context.Context, sessionID uuid.UUID, violation string) (*ViolationResult, error)
	Terminate(ctx context.Context, sessionID uuid.UUID, reason string) error
	// ExpireIdle closes active sessions idle for longer than idleFor and
	// returns how many were closed.
	ExpireIdle(ctx context.Context, idleFor time.Duration) (int, error)
}

type InterviewOptions struct {
	MaxQuestions   int
	ViolationLimit int
}

type interviewService struct {
	oracle         Oracle
	store          SessionStore
	candidates     repositories.CandidateRepository
	signer         SessionSigner
	promptBuilder  *PromptBuilder
	maxQuestions   int
	violationLimit int
	sessionLocks   *keyedMutex
	candidateLocks *keyedMutex
	log            *zap.Logger
}

func NewInterviewService(
	oracle Oracle,
	store SessionStore,
	candidates repositories.CandidateRepository,
	signer SessionSigner,
	opts InterviewOptions,
	log *zap.Logger,
) InterviewService {
	if opts.MaxQuestions <= 0 {
		opts.MaxQuestions = 5
	}
	if opts.ViolationLimit <= 0 {
		opts.ViolationLimit = 3
	}
	return &interviewService{
		oracle:         oracle,
		store:          store,
		candidates:     candidates,
		signer:         signer,
		promptBuilder:  NewPromptBuilder(),
		maxQuestions:   opts.MaxQuestions,
		violationLimit: opts.ViolationLimit,
		sessionLocks:   newKeyedMutex(),
		candidateLocks: newKeyedMutex(),
		log:            logger.OrNop(log),
	}
}

func (s *interviewService) Create(ctx context.Context, req CreateSessionRequest) (*SessionView, error) {
	if req.CandidateID == nil {
		return s.createSession(ctx, nil, req.ResumeText, req.JobDescription, req.MatchScore)
	}

	unlock := s.candidateLocks.Lock(req.CandidateID.String())
	defer unlock()

	candidate, err := s.findCandidate(ctx, *req.CandidateID)
	if err != nil {
		return nil, err
	}

	if candidate.Status == models.CandidateInterviewing {
		return s.resume(ctx, candidate, req.Credential)
	}
	if candidate.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: interview already completed or terminated", ErrForbidden)
	}

	if err := s.store.DeactivateByCandidate(ctx, candidate.ID); err != nil {
		return nil, err
	}

	view, err := s.createSession(ctx, &candidate.ID, candidate.ResumeText, candidate.JobDescription, candidate.ResumeScore)
	if err != nil {
		return nil, err
	}

	if err := s.candidates.UpdateStatus(ctx, candidate.ID, models.CandidateInterviewing); err != nil {
		return nil, err
	}
	return view, nil
}

// resume hands the caller back its own active session. Anyone without the
// matching credential is refused.
func (s *interviewService) resume(ctx context.Context, candidate *models.Candidate, credential string) (*SessionView, error) {
	active, err := s.store.FindActiveByCandidate(ctx, candidate.ID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: status mismatch, no active session", ErrForbidden)
		}
		return nil, err
	}

	sessionID, err := s.signer.Verify(credential)
	if err != nil || sessionID != active.ID {
		return nil, fmt.Errorf("%w: interview already in progress elsewhere", ErrForbidden)
	}

	s.log.Info("interview resumed",
		zap.String("session_id", active.ID.String()),
		zap.String("candidate_id", candidate.ID.String()),
	)

	return &SessionView{
		Session:    active,
		Question:   active.CurrentQuestion,
		Resumed:    true,
		Credential: credential,
	}, nil
}

func (s *interviewService) createSession(ctx context.Context, candidateID *uuid.UUID, resumeText, jobDescription string, matchScore float64) (*SessionView, error) {
	session := &models.InterviewSession{
		ID:             uuid.New(),
		CandidateID:    candidateID,
		Role:           s.deduceRole(ctx, resumeText, jobDescription),
		ResumeText:     resumeText,
		JobDescription: jobDescription,
		MatchScore:     matchScore,
		IsActive:       true,
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	credential, err := s.signer.Issue(session)
	if err != nil {
		return nil, err
	}

	s.log.Info("interview session created",
		zap.String("session_id", session.ID.String()),
		zap.String("role", session.Role),
	)

	return &SessionView{Session: session, Credential: credential}, nil
}

func (s *interviewService) deduceRole(ctx context.Context, resumeText, jobDescription string) string {
	response, err := s.oracle.GenerateText(ctx, s.promptBuilder.BuildRoleDeductionPrompt(resumeText, jobDescription), 0.1)
	if err != nil {
		s.log.Warn("role deduction failed, using default", zap.Error(err))
		return defaultRole
	}
	if role := parseRoleLabel(response); role != "" {
		return role
	}
	return defaultRole
}

func (s *interviewService) Start(ctx context.Context, sessionID uuid.UUID) (*SessionView, error) {
	unlock := s.sessionLocks.Lock(sessionID.String())
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, ErrSessionInactive
	}
	if session.CurrentQuestion != "" {
		return &SessionView{Session: session, Question: session.CurrentQuestion, Resumed: true}, nil
	}

	question := s.nextQuestion(ctx, session, introQuestion)
	session.CurrentQuestion = question
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	s.appendMessage(ctx, session.ID, models.MessageAssistant, question)

	return &SessionView{Session: session, Question: question}, nil
}

func (s *interviewService) Answer(ctx context.Context, sessionID uuid.UUID, answer string) (*TurnResult, error) {
	unlock := s.sessionLocks.Lock(sessionID.String())
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, ErrSessionInactive
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: answer must not be empty", ErrInvalidAnswer)
	}
	if session.CurrentQuestion == "" {
		return nil, fmt.Errorf("%w: interview has not started", ErrInvalidAnswer)
	}

	s.appendMessage(ctx, session.ID, models.MessageUser, answer)

	graded := s.grade(ctx, session, answer)
	session.Scores = append(session.Scores, graded)

	result := &TurnResult{Session: session, Graded: graded}

	if len(session.Scores) >= s.maxQuestions {
		release, err := s.holdLiveSession(ctx, session)
		if err != nil {
			return nil, err
		}
		defer release()

		session.IsActive = false
		session.CurrentQuestion = ""
		if err := s.store.Save(ctx, session); err != nil {
			return nil, err
		}
		if session.CandidateID != nil {
			if _, err := s.candidates.TransitionStatus(ctx, *session.CandidateID, models.CandidateInterviewing, models.CandidateCompleted); err != nil {
				return nil, err
			}
		}
		s.appendMessage(ctx, session.ID, models.MessageAssistant, completionMessage)

		s.log.Info("interview completed",
			zap.String("session_id", session.ID.String()),
			zap.Int("answers", len(session.Scores)),
		)

		result.Message = completionMessage
		result.Finished = true
		return result, nil
	}

	question := s.nextQuestion(ctx, session, randomFallbackQuestion())

	release, err := s.holdLiveSession(ctx, session)
	if err != nil {
		return nil, err
	}
	defer release()

	session.CurrentQuestion = question
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	s.appendMessage(ctx, session.ID, models.MessageAssistant, question)

	result.Question = question
	return result, nil
}

// holdLiveSession takes the candidate lock before a graded turn is written
// and refuses the write when the session was closed or the candidate reached
// a final status while the oracle was working. Terminations run under the
// same lock, so a turn never resurrects a terminated session.
func (s *interviewService) holdLiveSession(ctx context.Context, session *models.InterviewSession) (func(), error) {
	if session.CandidateID == nil {
		return func() {}, nil
	}

	unlock := s.candidateLocks.Lock(session.CandidateID.String())

	current, err := s.store.Get(ctx, session.ID)
	if err != nil {
		unlock()
		return nil, err
	}
	if !current.IsActive {
		unlock()
		return nil, ErrSessionInactive
	}

	candidate, err := s.findCandidate(ctx, *session.CandidateID)
	if err != nil {
		unlock()
		return nil, err
	}
	if candidate.Status.IsTerminal() {
		unlock()
		return nil, ErrSessionInactive
	}

	return unlock, nil
}

func (s *interviewService) grade(ctx context.Context, session *models.InterviewSession, answer string) models.QuestionScore {
	graded := models.QuestionScore{
		Question: session.CurrentQuestion,
		Answer:   answer,
	}

	prompt := s.promptBuilder.BuildGradingPrompt(session.Role, session.CurrentQuestion, answer)
	response, err := s.oracle.GenerateText(ctx, prompt, 0.2)
	if err != nil {
		s.log.Warn("grading failed", zap.String("session_id", session.ID.String()), zap.Error(err))
		graded.Feedback = gradingUnavailable
		return graded
	}

	grade, err := parseAnswerGrade(response)
	if err != nil {
		s.log.Warn("unusable grading response",
			zap.String("session_id", session.ID.String()),
			zap.Error(err),
			zap.String("response", logger.TruncateForLog(response, 200)),
		)
		graded.Feedback = gradingUnparsable
		return graded
	}

	graded.Score = grade.Score
	graded.Feedback = grade.Feedback
	graded.Strength = grade.Strength
	graded.Gap = grade.Gap
	graded.Improvement = grade.Improvement
	return graded
}

func (s *interviewService) nextQuestion(ctx context.Context, session *models.InterviewSession, fallback string) string {
	response, err := s.oracle.GenerateText(ctx, s.promptBuilder.BuildQuestionPrompt(session), 0.7)
	if err != nil {
		s.log.Warn("question generation failed, using fallback",
			zap.String("session_id", session.ID.String()),
			zap.Error(err),
		)
		return fallback
	}
	question := strings.TrimSpace(response)
	if question == "" {
		return fallback
	}
	return question
}

func randomFallbackQuestion() string {
	return fallbackQuestions[rand.Intn(len(fallbackQuestions))]
}

func (s *interviewService) Finalize(ctx context.Context, sessionID uuid.UUID) (*models.InterviewResultResponse, error) {
	unlock := s.sessionLocks.Lock(sessionID.String())
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsActive {
		return nil, ErrSessionActive
	}

	if session.CandidateID == nil {
		score := ComputeFinalScore(session.MatchScore, session.Scores, 0)
		return resultResponse(session, session.MatchScore, score, 0, string(models.CandidateInterviewed)), nil
	}

	candidate, err := s.findCandidate(ctx, *session.CandidateID)
	if err != nil {
		return nil, err
	}

	flagCount := len(candidate.Flags)
	score := ComputeFinalScore(candidate.ResumeScore, session.Scores, flagCount)

	decision := string(models.CandidateInterviewed)
	status := models.CandidateInterviewed
	if score.Cheating {
		decision = string(models.CandidateRejectedCheating)
		status = models.CandidateRejectedCheating
	}
	if candidate.Status == models.CandidateTerminated {
		status = models.CandidateTerminated
	}

	if err := s.candidates.UpdateInterviewResult(ctx, candidate.ID, &repositories.InterviewResultData{
		InterviewScore: score.InterviewScore,
		FinalScore:     score.Final,
		Decision:       decision,
		Status:         status,
		Transcript:     session.Scores,
	}); err != nil {
		return nil, err
	}

	s.log.Info("interview finalized",
		zap.String("session_id", session.ID.String()),
		zap.String("candidate_id", candidate.ID.String()),
		zap.Float64("final_score", score.Final),
		zap.Int("flags", flagCount),
	)

	return resultResponse(session, candidate.ResumeScore, score, flagCount, decision), nil
}

func resultResponse(session *models.InterviewSession, resumeScore float64, score FinalScore, flagCount int, decision string) *models.InterviewResultResponse {
	resp := &models.InterviewResultResponse{
		SessionID:      session.ID.String(),
		ResumeScore:    resumeScore,
		AverageScore:   score.AverageInterview,
		InterviewScore: score.InterviewScore,
		FinalScore:     score.Final,
		Decision:       decision,
		FlagCount:      flagCount,
		Transcript:     session.Scores,
	}
	if resp.Transcript == nil {
		resp.Transcript = []models.QuestionScore{}
	}
	if session.CandidateID != nil {
		resp.CandidateID = session.CandidateID.String()
	}
	return resp
}

func (s *interviewService) ReportViolation(ctx context.Context, sessionID uuid.UUID, violation string) (*ViolationResult, error) {
	candidateID, err := s.sessionCandidate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	unlock := s.candidateLocks.Lock(candidateID.String())
	defer unlock()

	count, err := s.candidates.AppendFlag(ctx, candidateID, models.Flag{
		Violation: violation,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}

	s.log.Warn("interview violation flagged",
		zap.String("session_id", sessionID.String()),
		zap.String("candidate_id", candidateID.String()),
		zap.String("violation", logger.TruncateForLog(violation, 120)),
		zap.Int("count", count),
	)

	result := &ViolationResult{Count: count}
	if count >= s.violationLimit {
		if err := s.terminate(ctx, candidateID); err != nil {
			return nil, err
		}
		result.Terminated = true
	}
	return result, nil
}

func (s *interviewService) Terminate(ctx context.Context, sessionID uuid.UUID, reason string) error {
	candidateID, err := s.sessionCandidate(ctx, sessionID)
	if err != nil {
		return err
	}

	unlock := s.candidateLocks.Lock(candidateID.String())
	defer unlock()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "terminated by proctor"
	}

	if _, err := s.candidates.AppendFlag(ctx, candidateID, models.Flag{
		Violation: terminationPrefix + reason,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCandidateNotFound
		}
		return err
	}

	return s.terminate(ctx, candidateID)
}

func (s *interviewService) terminate(ctx context.Context, candidateID uuid.UUID) error {
	if err := s.candidates.UpdateStatus(ctx, candidateID, models.CandidateTerminated); err != nil {
		return err
	}
	if err := s.store.DeactivateByCandidate(ctx, candidateID); err != nil {
		return err
	}
	s.log.Warn("interview terminated", zap.String("candidate_id", candidateID.String()))
	return nil
}

// sessionCandidate resolves the candidate behind a session. Standalone
// sessions have none, so flags cannot be recorded for them.
func (s *interviewService) sessionCandidate(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return uuid.Nil, err
	}
	if session.CandidateID == nil {
		return uuid.Nil, fmt.Errorf("%w: session %s is not linked to a candidate", ErrCandidateNotFound, sessionID)
	}
	return *session.CandidateID, nil
}

func (s *interviewService) ExpireIdle(ctx context.Context, idleFor time.Duration) (int, error) {
	idle, err := s.store.FindIdleActive(ctx, time.Now().Add(-idleFor), idleSweepLimit)
	if err != nil {
		return 0, err
	}

	closed := 0
	for i := range idle {
		if err := s.expire(ctx, idle[i].ID); err != nil {
			s.log.Warn("failed to expire idle session",
				zap.String("session_id", idle[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		closed++
	}

	if closed > 0 {
		s.log.Info("expired idle interview sessions", zap.Int("count", closed))
	}
	return closed, nil
}

func (s *interviewService) expire(ctx context.Context, sessionID uuid.UUID) error {
	unlock := s.sessionLocks.Lock(sessionID.String())
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.IsActive {
		return nil
	}

	session.IsActive = false
	if err := s.store.Save(ctx, session); err != nil {
		return err
	}

	if session.CandidateID == nil {
		return nil
	}

	_, err = s.candidates.TransitionStatus(ctx, *session.CandidateID, models.CandidateInterviewing, models.CandidateCompleted)
	return err
}

func (s *interviewService) findCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	candidate, err := s.candidates.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}
	return candidate, nil
}

// appendMessage records the conversation log. The log is auxiliary to the
// scored transcript, so failures are only logged.
func (s *interviewService) appendMessage(ctx context.Context, sessionID uuid.UUID, role models.MessageRole, content string) {
	if err := s.store.AppendMessage(ctx, sessionID, role, content); err != nil {
		s.log.Warn("failed to append interview message",
			zap.String("session_id", sessionID.String()),
			zap.Error(err),
		)
	}
}
