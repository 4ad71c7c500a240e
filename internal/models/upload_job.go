package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// UploadedFile points at a resume saved by the storage service.
type UploadedFile struct {
	StoredName   string `json:"stored_name"`
	OriginalName string `json:"original_name"`
}

type FileOutcome string

const (
	OutcomeSuccess FileOutcome = "success"
	OutcomeError   FileOutcome = "error"
)

type FileResult struct {
	Filename    string      `json:"filename"`
	Status      FileOutcome `json:"status"`
	CandidateID string      `json:"candidate_id,omitempty"`
	ResumeScore float64     `json:"resume_score,omitempty"`
	Decision    Decision    `json:"decision,omitempty"`
	Error       string      `json:"error,omitempty"`
}

type UploadJob struct {
	ID                 uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	RecruiterUsername  string                            `gorm:"type:text;index" json:"recruiter_username"`
	JobDescription     string                            `gorm:"type:text" json:"job_description"`
	TemplateMode       string                            `gorm:"type:text" json:"template_mode"`
	DetectedRole       string                            `gorm:"type:text" json:"detected_role"`
	InterviewEnabled   bool                              `json:"interview_enabled"`
	SelectionThreshold *float64                          `json:"selection_threshold,omitempty"`
	TotalFiles         int                               `json:"total_files"`
	ProcessedCount     int                               `json:"processed_count"`
	Status             JobStatus                         `gorm:"not null;default:'queued';index" json:"status"`
	Files              datatypes.JSONSlice[UploadedFile] `json:"-"`
	Results            datatypes.JSONSlice[FileResult]   `json:"results"`
	ErrorMessage       *string                           `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt          time.Time                         `json:"created_at"`
	UpdatedAt          time.Time                         `json:"updated_at"`
}

func (UploadJob) TableName() string {
	return "upload_jobs"
}
