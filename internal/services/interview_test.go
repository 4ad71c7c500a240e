package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/candidate-screener/internal/models"
	"alfredoptarigan/candidate-screener/internal/repositories"
	"alfredoptarigan/candidate-screener/internal/testutil"
)

type interviewFixture struct {
	svc        InterviewService
	oracle     *scriptedOracle
	candidates repositories.CandidateRepository
	sessions   repositories.InterviewSessionRepository
	signer     SessionSigner
}

func newInterviewFixture(t *testing.T) *interviewFixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	_, cache := newTestCache(t)

	var asked atomic.Int32
	oracle := newScriptedOracle().
		on(taskRoleDeduction, "Backend Engineer").
		on(taskGrading, `{"score": 8, "feedback": "Clear answer.", "strength": "structure", "gap": "metrics", "improvement": "quantify"}`)
	oracle.replies[taskNextQuestion] = func(string) (string, error) {
		return fmt.Sprintf("Question %d?", asked.Add(1)), nil
	}

	f := &interviewFixture{
		oracle:     oracle,
		candidates: repositories.NewCandidateRepository(db),
		sessions:   repositories.NewInterviewSessionRepository(db),
		signer:     NewSessionSigner("secret", time.Hour),
	}
	store := NewSessionStore(f.sessions, cache, time.Hour, nil)
	f.svc = NewInterviewService(oracle, store, f.candidates, f.signer, InterviewOptions{MaxQuestions: 5, ViolationLimit: 3}, nil)
	return f
}

func (f *interviewFixture) seedCandidate(t *testing.T, status models.CandidateStatus, resumeScore float64) *models.Candidate {
	t.Helper()
	candidate := &models.Candidate{
		Name:           "Jane Doe",
		ResumeText:     "Go developer with PostgreSQL experience",
		JobDescription: "Backend role",
		ResumeScore:    resumeScore,
		Status:         status,
	}
	require.NoError(t, f.candidates.Create(context.Background(), candidate))
	return candidate
}

func (f *interviewFixture) candidateStatus(t *testing.T, id uuid.UUID) models.CandidateStatus {
	t.Helper()
	candidate, err := f.candidates.FindByID(context.Background(), id)
	require.NoError(t, err)
	return candidate.Status
}

// startInterview creates and starts a session for the candidate.
func (f *interviewFixture) startInterview(t *testing.T, candidate *models.Candidate) *SessionView {
	t.Helper()
	ctx := context.Background()

	view, err := f.svc.Create(ctx, CreateSessionRequest{CandidateID: &candidate.ID})
	require.NoError(t, err)

	started, err := f.svc.Start(ctx, view.Session.ID)
	require.NoError(t, err)
	started.Credential = view.Credential
	return started
}

func (f *interviewFixture) answerAll(t *testing.T, sessionID uuid.UUID, n int) *TurnResult {
	t.Helper()
	var last *TurnResult
	for i := 0; i < n; i++ {
		turn, err := f.svc.Answer(context.Background(), sessionID, fmt.Sprintf("answer %d", i+1))
		require.NoError(t, err)
		last = turn
	}
	return last
}

func newStandaloneSession() *models.InterviewSession {
	return &models.InterviewSession{ID: uuid.New()}
}

func TestInterview_FullFlow(t *testing.T) {
	ctx := context.Background()
	f := newInterviewFixture(t)
	candidate := f.seedCandidate(t, models.CandidateWaitlist, 75)

	view, err := f.svc.Create(ctx, CreateSessionRequest{CandidateID: &candidate.ID})
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", view.Session.Role)
	assert.True(t, view.Session.IsActive)
	assert.NotEmpty(t, view.Credential)
	assert.Equal(t, models.CandidateInterviewing, f.candidateStatus(t, candidate.ID))

	started, err := f.svc.Start(ctx, view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Question 1?", started.Question)

	again, err := f.svc.Start(ctx, view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Question 1?", again.Question, "start is idempotent")

	turn := f.answerAll(t, view.Session.ID, 4)
	assert.False(t, turn.Finished)
	assert.Equal(t, "Question 5?", turn.Question)
	assert.InDelta(t, 8.0, turn.Graded.Score, 1e-9)
	assert.Equal(t, "Question 4?", turn.Graded.Question)

	last, err := f.svc.Answer(ctx, view.Session.ID, "final answer")
	require.NoError(t, err)
	assert.True(t, last.Finished)
	assert.Equal(t, completionMessage, last.Message)
	assert.Empty(t, last.Question)
	assert.Len(t, last.Session.Scores, 5)
	assert.Equal(t, models.CandidateCompleted, f.candidateStatus(t, candidate.ID))

	_, err = f.svc.Answer(ctx, view.Session.ID, "one more")
	assert.ErrorIs(t, err, ErrSessionInactive)

	result, err := f.svc.Finalize(ctx, view.Session.ID)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, result.AverageScore, 1e-9)
	assert.InDelta(t, 80.0, result.InterviewScore, 1e-9)
	assert.InDelta(t, 78.0, result.FinalScore, 1e-9)
	assert.Equal(t, string(models.CandidateInterviewed), result.Decision)
	assert.Len(t, result.Transcript, 5)

	stored, err := f.candidates.FindByID(ctx, candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateInterviewed, stored.Status)
	assert.InDelta(t, 78.0, stored.FinalScore, 1e-9)
	assert.InDelta(t, 80.0, stored.InterviewScore, 1e-9)
	assert.Len(t, stored.Transcript, 5)

	repeat, err := f.svc.Finalize(ctx, view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, result, repeat, "finalize is idempotent")

	messages, err := f.sessions.ListCandidateMessages(ctx, candidate.ID)
	require.NoError(t, err)
	// five questions, five answers, one closing message
	assert.Len(t, messages, 11)
	assert.Equal(t, models.MessageAssistant, messages[0].Role)
	assert.Equal(t, completionMessage, messages[10].Content)
}

func TestInterview_AnswerValidation(t *testing.T) {
	ctx := context.Background()
	f := newInterviewFixture(t)
	view := f.startInterview(t, f.seedCandidate(t, models.CandidateShortlisted, 80))

	_, err := f.svc.Answer(ctx, view.Session.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidAnswer)

	_, err = f.svc.Answer(ctx, uuid.New(), "answer")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.svc.Finalize(ctx, view.Session.ID)
	assert.ErrorIs(t, err, ErrSessionActive)
}

func TestInterview_AnswerBeforeStart(t *testing.T) {
	ctx := context.Background()
	f := newInterviewFixture(t)
	candidate := f.seedCandidate(t, models.CandidateWaitlist, 60)

	view, err := f.svc.Create(ctx, CreateSessionRequest{CandidateID: &candidate.ID})
	require.NoError(t, err)

	_, err = f.svc.Answer(ctx, view.Session.ID, "eager answer")
	assert.ErrorIs(t, err, ErrInvalidAnswer)
}

func TestInterview_OracleFallbacks(t *testing.T) {
	ctx := context.Background()
	f := newInterviewFixture(t)
	f.oracle.fail(taskRoleDeduction).fail(taskNextQuestion).fail(taskGrading)
	candidate := f.seedCandidate(t, models.CandidateWaitlist, 60)

	view, err := f.svc.Create(ctx, CreateSessionRequest{CandidateID: &candidate.ID})
	require.NoError(t, err)
	assert.Equal(t, defaultRole, view.Session.Role)

	started, err := f.svc.Start(ctx, view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, introQuestion, started.Question)

	turn, err := f.svc.Answer(ctx, view.Session.ID, "I build APIs")
	require.NoError(t, err)
	assert.Zero(t, turn.Graded.Score)
	assert.Equal(t, gradingUnavailable, turn.Graded.Feedback)
	assert.Contains(t, fallbackQuestions, turn.Question)
}

func TestInterview_UnparsableGrade(t *testing.T) {
	ctx := context.Background()
	f := newInterviewFixture(t)
	f.oracle.on(taskGrading, "Great answer, 9 out of 10!")
	view := f.startInterview(t, f.seedCandidate(t, models.CandidateWaitlist, 60))

	turn, err := f.svc.Answer(ctx, view.Session.ID, "answer")
	require.NoError(t, err)
	assert.Zero(t, turn.Graded.Score)
	assert.Equal(t, gradingUnparsable, turn.Graded.Feedback)
}

func TestInterview_SingleActiveSession(t *testing.T) {
	ctx := context.Background()
	f := newInterviewFixture(t)
	candidate := f.seedCandidate(t, models.CandidateWaitlist, 60)
	view := f.startInterview(t, candidate)

	_, err := f.svc.Create(ctx, CreateSessionRequest{CandidateID: &candidate.ID})
	assert.ErrorIs(t, err, ErrForbidden, "no credential")

	foreign, err := f.signer.Issue(newStandaloneSession())
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, CreateSessionRequest{CandidateID: &candidate.ID, Credential: foreign})
	assert.ErrorIs(t, err, ErrForbidden, "credential for another session")

	resumed, err := f.svc.Create(ctx, CreateSessionRequest{CandidateID: &candidate.ID, Credential: view.Credential})
	require.NoError(t, err)
	assert.True(t, resumed.Resumed)
	assert.Equal(t, view.Session.ID, resumed.Session.ID)
	assert.Equal(t, view.Question, resumed.Question)
}

func TestInterview_StatusMismatch(t *testing.T) {
	f := newInterviewFixture(t)
	candidate := f.seedCandidate(t, models.CandidateInterviewing, 60)

	_, err := f.svc.Create(context.Background(), CreateSessionRequest{CandidateID: &candidate.ID})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestInterview_TerminalStatusesAreForbidden(t *testing.T) {
	f := newInterviewFixture(t)

	for _, status := range []models.CandidateStatus{
		models.CandidateSelected,
		models.CandidateRejected,
		models.CandidateRejectedCheating,
		models.CandidateTerminated,
		models.CandidateCompleted,
		models.CandidateInterviewed,
	} {
		candidate := f.seedCandidate(t, status, 60)
		_, err := f.svc.Create(context.Background(), CreateSessionRequest{CandidateID: &candidate.ID})
		assert.ErrorIs(t, err, ErrForbidden, string(status))
	}
}

func TestInterview_UnknownCandidate(t *testing.T) {
	f := newInterviewFixture(t)
	id := uuid.New()

	_, err := f.svc.Create(context.Background(), CreateSessionRequest{CandidateID: &id})
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}

func TestInterview_CreateDeactivatesStaleSessions(t *testing.T) {
	ctx := context.Background()
	f := newInterviewFixture(t)
	candidate := f.seedCandidate(t, models.CandidateWaitlist, 60)

	stale := &models.InterviewSession{ID: uuid.New(), CandidateID: &candidate.ID, IsActive: true}
	require.NoError(t, f.sessions.Upsert(ctx, stale))

	view, err := f.svc.Create(ctx, CreateSessionRequest{CandidateID: &candidate.ID})
	require.NoError(t, err)

	active, err := f.sessions.FindActiveByCandidate(ctx, candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Session.ID, active.ID)

	old, err := f.sessions.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)
}

func TestInterview_ViolationsTerminate(t *testing.T) {
	ctx := context.Background()
	f := newInterviewFixture(t)
	candidate := f.seedCandidate(t, models.CandidateWaitlist, 75)
	view := f.startInterview(t, candidate)
	f.answerAll(t, view.Session.ID, 2)

	for i, violation := range []string{"tab switch", "copy paste"} {
		result, err := f.svc.ReportViolation(ctx, view.Session.ID, violation)
		require.NoError(t, err)
		assert.Equal(t, i+1, result.Count)
		assert.False(t, result.Terminated)
	}

	result, err := f.svc.ReportViolation(ctx, view.Session.ID, "second screen")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.True(t, result.Terminated)
	assert.Equal(t, models.CandidateTerminated, f.candidateStatus(t, candidate.ID))

	_, err = f.svc.Answer(ctx, view.Session.ID, "still here")
	assert.ErrorIs(t, err, ErrSessionInactive)

	final, err := f.svc.Finalize(ctx, view.Session.ID)
	require.NoError(t, err)
	assert.Zero(t, final.FinalScore)
	assert.Equal(t, string(models.CandidateRejectedCheating), final.Decision)
	assert.Equal(t, 3, final.FlagCount)
	assert.Equal(t, models.CandidateTerminated, f.candidateStatus(t, candidate.ID))
}

func TestInterview_SingleFlagPenalty(t *testing.T) {
	ctx := context.Background()
	f := newInterviewFixture(t)
	candidate := f.seedCandidate(t, models.CandidateWaitlist, 75)
	view := f.startInterview(t, candidate)

	_, err := f.svc.ReportViolation(ctx, view.Session.ID, "tab switch")
	require.NoError(t, err)
	f.answerAll(t, view.Session.ID, 5)

	result, err := f.svc.Finalize(ctx, view.Session.ID)
	require.NoError(t, err)
	assert.InDelta(t, 78.0*0.8, result.FinalScore, 1e-9)
	assert.Equal(t, 1, result.FlagCount)
	assert.Equal(t, string(models.CandidateInterviewed), result.Decision)
}

func TestInterview_Terminate(t *testing.T) {
	ctx := context.Background()
	f := newInterviewFixture(t)
	candidate := f.seedCandidate(t, models.CandidateWaitlist, 75)
	view := f.startInterview(t, candidate)

	require.NoError(t, f.svc.Terminate(ctx, view.Session.ID, "left the room"))

	stored, err := f.candidates.FindByID(ctx, candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateTerminated, stored.Status)
	require.Len(t, stored.Flags, 1)
	assert.Equal(t, "TERMINATED: left the room", stored.Flags[0].Violation)

	_, err = f.sessions.FindActiveByCandidate(ctx, candidate.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestInterview_TerminationDuringTurnSticks(t *testing.T) {
	tests := []struct {
		name     string
		answered int
	}{
		{"mid interview", 0},
		{"final answer", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newInterviewFixture(t)
			candidate := f.seedCandidate(t, models.CandidateWaitlist, 75)
			view := f.startInterview(t, candidate)
			if tt.answered > 0 {
				f.answerAll(t, view.Session.ID, tt.answered)
			}

			grading := make(chan struct{})
			release := make(chan struct{})
			f.oracle.replies[taskGrading] = func(string) (string, error) {
				close(grading)
				<-release
				return `{"score": 8, "feedback": "Clear answer.", "strength": "structure", "gap": "metrics", "improvement": "quantify"}`, nil
			}

			answered := make(chan error, 1)
			go func() {
				_, err := f.svc.Answer(ctx, view.Session.ID, "answer given while being terminated")
				answered <- err
			}()

			<-grading
			require.NoError(t, f.svc.Terminate(ctx, view.Session.ID, "second person in view"))
			close(release)

			assert.ErrorIs(t, <-answered, ErrSessionInactive)
			assert.Equal(t, models.CandidateTerminated, f.candidateStatus(t, candidate.ID))

			stored, err := f.sessions.FindByID(ctx, view.Session.ID)
			require.NoError(t, err)
			assert.False(t, stored.IsActive)
			assert.Len(t, stored.Scores, tt.answered, "the interrupted turn is not recorded")

			_, err = f.svc.Answer(ctx, view.Session.ID, "one more")
			assert.ErrorIs(t, err, ErrSessionInactive)
		})
	}
}

func TestInterview_StandaloneSession(t *testing.T) {
	ctx := context.Background()
	f := newInterviewFixture(t)

	view, err := f.svc.Create(ctx, CreateSessionRequest{ResumeText: "Go developer", MatchScore: 50})
	require.NoError(t, err)
	assert.Nil(t, view.Session.CandidateID)

	_, err = f.svc.Start(ctx, view.Session.ID)
	require.NoError(t, err)

	_, err = f.svc.ReportViolation(ctx, view.Session.ID, "tab switch")
	assert.ErrorIs(t, err, ErrCandidateNotFound)

	f.answerAll(t, view.Session.ID, 5)

	result, err := f.svc.Finalize(ctx, view.Session.ID)
	require.NoError(t, err)
	assert.Empty(t, result.CandidateID)
	assert.InDelta(t, 50*0.4+80*0.6, result.FinalScore, 1e-9)
}

func TestInterview_ConcurrentAnswersAreSerialized(t *testing.T) {
	f := newInterviewFixture(t)
	view := f.startInterview(t, f.seedCandidate(t, models.CandidateWaitlist, 60))

	var (
		wg       sync.WaitGroup
		finished atomic.Int32
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			turn, err := f.svc.Answer(context.Background(), view.Session.ID, "concurrent answer")
			if assert.NoError(t, err) && turn.Finished {
				finished.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), finished.Load())
	session, err := f.sessions.FindByID(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Len(t, session.Scores, 5)
	assert.False(t, session.IsActive)
}

func TestInterview_ExpireIdle(t *testing.T) {
	ctx := context.Background()
	f := newInterviewFixture(t)
	candidate := f.seedCandidate(t, models.CandidateInterviewing, 60)

	idle := &models.InterviewSession{
		ID:          uuid.New(),
		CandidateID: &candidate.ID,
		IsActive:    true,
		CreatedAt:   time.Now().Add(-72 * time.Hour),
		UpdatedAt:   time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, f.sessions.Upsert(ctx, idle))

	fresh := f.startInterview(t, f.seedCandidate(t, models.CandidateWaitlist, 60))

	closed, err := f.svc.ExpireIdle(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	expired, err := f.sessions.FindByID(ctx, idle.ID)
	require.NoError(t, err)
	assert.False(t, expired.IsActive)
	assert.Equal(t, models.CandidateCompleted, f.candidateStatus(t, candidate.ID))

	stillActive, err := f.sessions.FindByID(ctx, fresh.Session.ID)
	require.NoError(t, err)
	assert.True(t, stillActive.IsActive)
}
