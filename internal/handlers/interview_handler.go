package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/candidate-screener/internal/models"
	"alfredoptarigan/candidate-screener/internal/services"
)

// CredentialCookie carries the signed interview credential so a returning
// browser can resume its own session.
const CredentialCookie = "interview_session"

type InterviewHandler struct {
	interviews    services.InterviewService
	maxQuestions  int
	credentialTTL time.Duration
	secureCookie  bool
}

func NewInterviewHandler(interviews services.InterviewService, maxQuestions int, credentialTTL time.Duration, secureCookie bool) *InterviewHandler {
	return &InterviewHandler{
		interviews:    interviews,
		maxQuestions:  maxQuestions,
		credentialTTL: credentialTTL,
		secureCookie:  secureCookie,
	}
}

// HandleStart handles POST /interview/start
func (h *InterviewHandler) HandleStart(c *fiber.Ctx) error {
	var req models.StartInterviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	create := services.CreateSessionRequest{
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
		MatchScore:     req.MatchScore,
		Credential:     c.Cookies(CredentialCookie),
	}
	if req.CandidateID != "" {
		candidateID, err := parseUUID(req.CandidateID, "candidate_id")
		if err != nil {
			return err
		}
		create.CandidateID = &candidateID
	}

	view, err := h.interviews.Create(c.UserContext(), create)
	if err != nil {
		return err
	}

	started, err := h.interviews.Start(c.UserContext(), view.Session.ID)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     CredentialCookie,
		Value:    view.Credential,
		Path:     "/",
		Expires:  time.Now().Add(h.credentialTTL),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	answered := len(started.Session.Scores)
	return c.JSON(models.InterviewTurnResponse{
		SessionID: started.Session.ID.String(),
		Role:      started.Session.Role,
		Question:  started.Question,
		Resumed:   view.Resumed,
		Answered:  answered,
		Remaining: h.remaining(answered),
	})
}

// HandleAnswer handles POST /interview/answer
func (h *InterviewHandler) HandleAnswer(c *fiber.Ctx) error {
	var req models.AnswerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	sessionID := uuid.MustParse(req.SessionID)

	turn, err := h.interviews.Answer(c.UserContext(), sessionID, req.Answer)
	if err != nil {
		return err
	}

	score := turn.Graded.Score
	answered := len(turn.Session.Scores)
	return c.JSON(models.InterviewTurnResponse{
		SessionID: sessionID.String(),
		Role:      turn.Session.Role,
		Question:  turn.Question,
		Message:   turn.Message,
		Finished:  turn.Finished,
		Score:     &score,
		Feedback:  turn.Graded.Feedback,
		Answered:  answered,
		Remaining: h.remaining(answered),
	})
}

// HandleResult handles POST /interview/result
func (h *InterviewHandler) HandleResult(c *fiber.Ctx) error {
	var req models.SessionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.interviews.Finalize(c.UserContext(), uuid.MustParse(req.SessionID))
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// HandleFlag handles POST /interview/flag
func (h *InterviewHandler) HandleFlag(c *fiber.Ctx) error {
	var req models.FlagRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.interviews.ReportViolation(c.UserContext(), uuid.MustParse(req.SessionID), req.Violation)
	if err != nil {
		return err
	}

	return c.JSON(models.FlagResponse{
		Count:      result.Count,
		Terminated: result.Terminated,
	})
}

// HandleTerminate handles POST /interview/terminate
func (h *InterviewHandler) HandleTerminate(c *fiber.Ctx) error {
	var req models.TerminateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.interviews.Terminate(c.UserContext(), uuid.MustParse(req.SessionID), req.Reason); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"session_id": req.SessionID,
		"status":     models.CandidateTerminated,
	})
}

func (h *InterviewHandler) remaining(answered int) int {
	return max(h.maxQuestions-answered, 0)
}
