package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/candidate-screener/internal/models"
	"alfredoptarigan/candidate-screener/internal/repositories"
	"alfredoptarigan/candidate-screener/internal/services"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 500
)

// ResultHandler serves screening outcomes: job progress, the leaderboard and
// individual candidates.
type ResultHandler struct {
	jobRepo       repositories.UploadJobRepository
	candidateRepo repositories.CandidateRepository
	sessionRepo   repositories.InterviewSessionRepository
}

func NewResultHandler(
	jobRepo repositories.UploadJobRepository,
	candidateRepo repositories.CandidateRepository,
	sessionRepo repositories.InterviewSessionRepository,
) *ResultHandler {
	return &ResultHandler{
		jobRepo:       jobRepo,
		candidateRepo: candidateRepo,
		sessionRepo:   sessionRepo,
	}
}

// HandleGetJob handles GET /jobs/:id
func (h *ResultHandler) HandleGetJob(c *fiber.Ctx) error {
	jobID, err := parseUUID(c.Params("id"), "job ID")
	if err != nil {
		return err
	}

	job, err := h.jobRepo.FindByID(c.UserContext(), jobID)
	if err != nil {
		return err
	}
	// other recruiters' jobs are reported as missing
	if job.RecruiterUsername != recruiterFrom(c) {
		return services.ErrJobNotFound
	}

	response := models.JobStatusResponse{
		ID:             job.ID.String(),
		Status:         string(job.Status),
		DetectedRole:   job.DetectedRole,
		TotalFiles:     job.TotalFiles,
		ProcessedCount: job.ProcessedCount,
	}

	if job.Status == models.StatusCompleted {
		response.Results = job.Results
	}

	if job.Status == models.StatusFailed {
		response.ErrorMessage = job.ErrorMessage
	}

	return c.JSON(response)
}

// HandleLeaderboard handles GET /leaderboard?limit=N
func (h *ResultHandler) HandleLeaderboard(c *fiber.Ctx) error {
	limit := defaultLeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxLeaderboardLimit)
	}

	candidates, err := h.candidateRepo.Leaderboard(c.UserContext(), recruiterFrom(c), limit)
	if err != nil {
		return err
	}

	entries := make([]models.LeaderboardEntry, 0, len(candidates))
	for _, candidate := range candidates {
		entries = append(entries, models.LeaderboardEntry{
			ID:             candidate.ID.String(),
			Name:           candidate.Name,
			JobRole:        candidate.JobRole,
			Status:         candidate.Status,
			ResumeScore:    candidate.ResumeScore,
			InterviewScore: candidate.InterviewScore,
			FinalScore:     candidate.FinalScore,
			MatchedSkills:  nonNil(candidate.MatchedSkills),
			MissingSkills:  nonNil(candidate.MissingSkills),
			FlagCount:      len(candidate.Flags),
		})
	}

	return c.JSON(fiber.Map{
		"candidates": entries,
		"count":      len(entries),
	})
}

// HandleGetCandidate handles GET /candidates/:id
func (h *ResultHandler) HandleGetCandidate(c *fiber.Ctx) error {
	candidate, err := h.findCandidate(c)
	if err != nil {
		return err
	}
	if candidate.RecruiterUsername != recruiterFrom(c) {
		return services.ErrCandidateNotFound
	}

	messages, err := h.sessionRepo.ListCandidateMessages(c.UserContext(), candidate.ID)
	if err != nil {
		return err
	}
	if messages == nil {
		messages = []models.InterviewMessage{}
	}

	return c.JSON(models.CandidateDetailResponse{
		Candidate: *candidate,
		Messages:  messages,
	})
}

// HandleCandidateStatus handles GET /candidates/:id/status for the candidate
// portal. It exposes no scores.
func (h *ResultHandler) HandleCandidateStatus(c *fiber.Ctx) error {
	candidate, err := h.findCandidate(c)
	if err != nil {
		return err
	}

	return c.JSON(models.CandidateStatusResponse{
		ID:      candidate.ID.String(),
		Name:    candidate.Name,
		JobRole: candidate.JobRole,
		Status:  candidate.Status,
	})
}

// HandleReset handles DELETE /candidates. Only the calling recruiter's
// candidates are removed.
func (h *ResultHandler) HandleReset(c *fiber.Ctx) error {
	deleted, err := h.candidateRepo.DeleteByRecruiter(c.UserContext(), recruiterFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Candidates and interview sessions deleted",
		"deleted": deleted,
	})
}

func (h *ResultHandler) findCandidate(c *fiber.Ctx) (*models.Candidate, error) {
	candidateID, err := parseUUID(c.Params("id"), "candidate ID")
	if err != nil {
		return nil, err
	}

	candidate, err := h.candidateRepo.FindByID(c.UserContext(), candidateID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrCandidateNotFound
		}
		return nil, err
	}
	return candidate, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
