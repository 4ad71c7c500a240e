package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QuestionScore is one graded interview turn.
type QuestionScore struct {
	Question    string  `json:"question"`
	Answer      string  `json:"answer"`
	Score       float64 `json:"score"`
	Feedback    string  `json:"feedback"`
	Strength    string  `json:"strength,omitempty"`
	Gap         string  `json:"gap,omitempty"`
	Improvement string  `json:"improvement,omitempty"`
}

type InterviewSession struct {
	ID              uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	CandidateID     *uuid.UUID                         `gorm:"type:uuid;index" json:"candidate_id,omitempty"`
	Role            string                             `gorm:"type:text" json:"role"`
	ResumeText      string                             `gorm:"type:text" json:"resume_text"`
	JobDescription  string                             `gorm:"type:text" json:"job_description"`
	MatchScore      float64                            `json:"match_score"`
	CurrentQuestion string                             `gorm:"type:text" json:"current_question"`
	Scores          datatypes.JSONSlice[QuestionScore] `json:"scores"`
	IsActive        bool                               `gorm:"index" json:"is_active"`
	CreatedAt       time.Time                          `json:"created_at"`
	UpdatedAt       time.Time                          `json:"updated_at"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}

type MessageRole string

const (
	MessageAssistant MessageRole = "assistant"
	MessageUser      MessageRole = "user"
)

type InterviewMessage struct {
	ID        uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID uuid.UUID   `gorm:"type:uuid;index;not null" json:"session_id"`
	Role      MessageRole `gorm:"type:text" json:"role"`
	Content   string      `gorm:"type:text" json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

func (InterviewMessage) TableName() string {
	return "interview_messages"
}
