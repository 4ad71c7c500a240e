package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CandidateStatus string

const (
	CandidateShortlisted      CandidateStatus = "Shortlisted"
	CandidateWaitlist         CandidateStatus = "Waitlist"
	CandidateRejected         CandidateStatus = "Rejected"
	CandidateSelected         CandidateStatus = "Selected"
	CandidateInterviewing     CandidateStatus = "Interviewing"
	CandidateCompleted        CandidateStatus = "Completed"
	CandidateInterviewed      CandidateStatus = "Interviewed"
	CandidateTerminated       CandidateStatus = "Terminated"
	CandidateRejectedCheating CandidateStatus = "Rejected (Cheating)"
)

var terminalStatuses = []CandidateStatus{
	CandidateSelected,
	CandidateRejected,
	CandidateTerminated,
	CandidateCompleted,
	CandidateInterviewed,
}

// IsTerminal reports whether the status permanently blocks a new interview.
// Variants such as "Rejected (Cheating)" count as their base status.
func (s CandidateStatus) IsTerminal() bool {
	current := strings.ToLower(string(s))
	for _, terminal := range terminalStatuses {
		if strings.Contains(current, strings.ToLower(string(terminal))) {
			return true
		}
	}
	return false
}

type Flag struct {
	Violation string    `json:"violation"`
	Timestamp time.Time `json:"timestamp"`
}

type Candidate struct {
	ID                uuid.UUID                            `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string                               `gorm:"type:text" json:"name"`
	ResumeText        string                               `gorm:"type:text" json:"resume_text"`
	JobDescription    string                               `gorm:"type:text" json:"job_description"`
	JobRole           string                               `gorm:"type:text" json:"job_role"`
	ResumeScore       float64                              `json:"resume_score"`
	InterviewScore    float64                              `json:"interview_score"`
	FinalScore        float64                              `json:"final_score"`
	Status            CandidateStatus                      `gorm:"type:text;index" json:"status"`
	Decision          string                               `gorm:"type:text" json:"decision,omitempty"`
	InterviewEnabled  bool                                 `json:"interview_enabled"`
	MatchedSkills     datatypes.JSONSlice[string]          `json:"matched_skills"`
	MissingSkills     datatypes.JSONSlice[string]          `json:"missing_skills"`
	Evaluation        datatypes.JSONType[ResumeEvaluation] `json:"evaluation"`
	Transcript        datatypes.JSONSlice[QuestionScore]   `json:"transcript"`
	Flags             datatypes.JSONSlice[Flag]            `json:"flags"`
	RecruiterUsername string                               `gorm:"type:text;index" json:"recruiter_username"`
	UploadJobID       *uuid.UUID                           `gorm:"type:uuid;index" json:"upload_job_id,omitempty"`
	CreatedAt         time.Time                            `json:"created_at"`
	UpdatedAt         time.Time                            `json:"updated_at"`
}

func (Candidate) TableName() string {
	return "candidates"
}
