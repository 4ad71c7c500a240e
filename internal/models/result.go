package models

type UploadJobResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	TotalFiles int    `json:"total_files"`
}

type JobStatusResponse struct {
	ID             string       `json:"id"`
	Status         string       `json:"status"`
	DetectedRole   string       `json:"detected_role,omitempty"`
	TotalFiles     int          `json:"total_files"`
	ProcessedCount int          `json:"processed_count"`
	Results        []FileResult `json:"results,omitempty"`
	ErrorMessage   *string      `json:"error_message,omitempty"`
}

type CredentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresIn int64  `json:"expires_in"`
}

type StartInterviewRequest struct {
	CandidateID    string  `json:"candidate_id" validate:"omitempty,uuid"`
	ResumeText     string  `json:"resume_text" validate:"required_without=CandidateID"`
	JobDescription string  `json:"job_description"`
	MatchScore     float64 `json:"match_score" validate:"gte=0,lte=100"`
}

type AnswerRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
	Answer    string `json:"answer"`
}

type SessionRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

type FlagRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
	Violation string `json:"violation" validate:"required,max=500"`
}

type TerminateRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
	Reason    string `json:"reason" validate:"max=500"`
}

type InterviewTurnResponse struct {
	SessionID string   `json:"session_id"`
	Role      string   `json:"role,omitempty"`
	Question  string   `json:"question,omitempty"`
	Message   string   `json:"message,omitempty"`
	Finished  bool     `json:"finished"`
	Resumed   bool     `json:"resumed,omitempty"`
	Score     *float64 `json:"score,omitempty"`
	Feedback  string   `json:"feedback,omitempty"`
	Answered  int      `json:"answered"`
	Remaining int      `json:"remaining"`
}

type FlagResponse struct {
	Count      int  `json:"count"`
	Terminated bool `json:"terminated"`
}

type InterviewResultResponse struct {
	SessionID      string          `json:"session_id"`
	CandidateID    string          `json:"candidate_id,omitempty"`
	ResumeScore    float64         `json:"resume_score"`
	AverageScore   float64         `json:"average_score"`
	InterviewScore float64         `json:"interview_score"`
	FinalScore     float64         `json:"final_score"`
	Decision       string          `json:"decision"`
	FlagCount      int             `json:"flag_count"`
	Transcript     []QuestionScore `json:"transcript"`
}

type LeaderboardEntry struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	JobRole        string          `json:"job_role"`
	Status         CandidateStatus `json:"status"`
	ResumeScore    float64         `json:"resume_score"`
	InterviewScore float64         `json:"interview_score"`
	FinalScore     float64         `json:"final_score"`
	MatchedSkills  []string        `json:"matched_skills"`
	MissingSkills  []string        `json:"missing_skills"`
	FlagCount      int             `json:"flag_count"`
}

type CandidateStatusResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	JobRole string          `json:"job_role"`
	Status  CandidateStatus `json:"status"`
}

// CandidateDetailResponse is the recruiter's view of one candidate, including
// the raw interview conversation.
type CandidateDetailResponse struct {
	Candidate
	Messages []InterviewMessage `json:"messages"`
}
