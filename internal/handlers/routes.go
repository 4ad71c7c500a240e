package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/candidate-screener/internal/services"
)

type Handlers struct {
	Auth      *AuthHandler
	Upload    *UploadHandler
	Result    *ResultHandler
	Interview *InterviewHandler
}

// RegisterRoutes mounts the API under /api/v1. Recruiter endpoints sit
// behind a bearer token; the candidate portal endpoints are public.
func RegisterRoutes(app *fiber.App, h Handlers, auth services.AuthService) {
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/auth/register", h.Auth.HandleRegister)
	api.Post("/auth/login", h.Auth.HandleLogin)

	api.Get("/candidates/:id/status", h.Result.HandleCandidateStatus)

	interview := api.Group("/interview")
	interview.Post("/start", h.Interview.HandleStart)
	interview.Post("/answer", h.Interview.HandleAnswer)
	interview.Post("/result", h.Interview.HandleResult)
	interview.Post("/flag", h.Interview.HandleFlag)
	interview.Post("/terminate", h.Interview.HandleTerminate)

	requireRecruiter := RequireRecruiter(auth)
	api.Post("/upload", requireRecruiter, h.Upload.HandleUpload)
	api.Get("/jobs/:id", requireRecruiter, h.Result.HandleGetJob)
	api.Get("/leaderboard", requireRecruiter, h.Result.HandleLeaderboard)
	api.Get("/candidates/:id", requireRecruiter, h.Result.HandleGetCandidate)
	api.Delete("/candidates", requireRecruiter, h.Result.HandleReset)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Candidate Screener API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/auth/register",
				"POST /api/v1/auth/login",
				"POST /api/v1/upload",
				"GET /api/v1/jobs/:id",
				"GET /api/v1/leaderboard",
				"GET /api/v1/candidates/:id",
				"GET /api/v1/candidates/:id/status",
				"DELETE /api/v1/candidates",
				"POST /api/v1/interview/start",
				"POST /api/v1/interview/answer",
				"POST /api/v1/interview/result",
				"POST /api/v1/interview/flag",
				"POST /api/v1/interview/terminate",
			},
		})
	})
}
