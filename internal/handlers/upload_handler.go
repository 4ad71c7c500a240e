package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"alfredoptarigan/candidate-screener/internal/models"
	"alfredoptarigan/candidate-screener/internal/repositories"
	"alfredoptarigan/candidate-screener/internal/services"
)

// JobQueue accepts upload jobs for background screening.
type JobQueue interface {
	EnqueueJob(jobID uuid.UUID)
}

type UploadHandler struct {
	jobRepo        repositories.UploadJobRepository
	storageService services.StorageService
	parser         services.ResumeParser
	queue          JobQueue
	maxFileSize    int64
}

func NewUploadHandler(
	jobRepo repositories.UploadJobRepository,
	storageService services.StorageService,
	parser services.ResumeParser,
	queue JobQueue,
	maxFileSize int64,
) *UploadHandler {
	return &UploadHandler{
		jobRepo:        jobRepo,
		storageService: storageService,
		parser:         parser,
		queue:          queue,
		maxFileSize:    maxFileSize,
	}
}

// HandleUpload handles POST /upload. Resumes arrive as "resumes" parts; the
// job description as the "job_description" field or a "jd_file" part.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	resumes := form.File["resumes"]
	if len(resumes) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No resumes uploaded. Send one or more files in the 'resumes' field.",
		})
	}

	jobDescription, err := h.jobDescription(form)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	templateMode := strings.ToLower(strings.TrimSpace(formValue(form, "template_mode")))
	if templateMode == "" {
		templateMode = services.TemplateModeAuto
	}
	if templateMode != services.TemplateModeAuto && !services.IsTemplateKey(templateMode) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "template_mode must be one of auto, intern, junior, senior",
		})
	}

	interviewEnabled := true
	if raw := formValue(form, "enable_interview"); raw != "" {
		interviewEnabled, err = strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "enable_interview must be a boolean",
			})
		}
	}

	var selectionThreshold *float64
	if raw := formValue(form, "selection_threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "selection_threshold must be a number between 0 and 100",
			})
		}
		selectionThreshold = &threshold
	}

	for _, file := range resumes {
		if file.Size > h.maxFileSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("%s is too large. Max size: %d bytes", file.Filename, h.maxFileSize),
			})
		}
	}

	saved := make([]models.UploadedFile, 0, len(resumes))
	for _, file := range resumes {
		stored, err := h.storageService.SaveFile(file, "resume")
		if err != nil {
			h.discard(saved)
			return fmt.Errorf("failed to save %s: %w", file.Filename, err)
		}
		saved = append(saved, stored)
	}

	job := &models.UploadJob{
		RecruiterUsername:  recruiterFrom(c),
		JobDescription:     jobDescription,
		TemplateMode:       templateMode,
		InterviewEnabled:   interviewEnabled,
		SelectionThreshold: selectionThreshold,
		TotalFiles:         len(saved),
		Files:              datatypes.NewJSONSlice(saved),
	}
	if err := h.jobRepo.Create(c.UserContext(), job); err != nil {
		h.discard(saved)
		return err
	}

	h.queue.EnqueueJob(job.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.UploadJobResponse{
		ID:         job.ID.String(),
		Status:     string(job.Status),
		TotalFiles: job.TotalFiles,
	})
}

func (h *UploadHandler) jobDescription(form *multipart.Form) (string, error) {
	if text := strings.TrimSpace(formValue(form, "job_description")); text != "" {
		return text, nil
	}

	files := form.File["jd_file"]
	if len(files) == 0 {
		return "", fmt.Errorf("job_description or jd_file is required")
	}

	data, err := readPart(files[0], h.maxFileSize)
	if err != nil {
		return "", err
	}

	text, err := h.parser.Parse(data, files[0].Filename)
	if err != nil {
		return "", fmt.Errorf("failed to read jd_file: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("jd_file contains no readable text")
	}
	return text, nil
}

func (h *UploadHandler) discard(files []models.UploadedFile) {
	for _, file := range files {
		_ = h.storageService.DeleteFile(file.StoredName)
	}
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func readPart(file *multipart.FileHeader, limit int64) ([]byte, error) {
	if file.Size > limit {
		return nil, fmt.Errorf("%s is too large. Max size: %d bytes", file.Filename, limit)
	}
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s", file.Filename)
	}
	defer src.Close()

	return io.ReadAll(src)
}
