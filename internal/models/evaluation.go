package models

// Parameter is one of the five fixed resume rubric parameters.
type Parameter string

const (
	ParamEducation      Parameter = "education"
	ParamExperience     Parameter = "experience"
	ParamSkills         Parameter = "skills"
	ParamProjects       Parameter = "projects"
	ParamCertifications Parameter = "certifications"
)

// Parameters lists the rubric parameters in their canonical order.
var Parameters = []Parameter{
	ParamEducation,
	ParamExperience,
	ParamSkills,
	ParamProjects,
	ParamCertifications,
}

type Decision string

const (
	DecisionStrong     Decision = "Strong – Direct Shortlist"
	DecisionBorderline Decision = "Borderline – Interview Required"
	DecisionWeak       Decision = "Weak – Reject"
)

type Thresholds struct {
	Shortlist float64 `json:"shortlist"`
	Interview float64 `json:"interview"`
}

type ParameterScore struct {
	Evidence     string  `json:"evidence"`
	Likert       int     `json:"likert"`
	Normalized   float64 `json:"normalized"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// ResumeEvaluation is the auditable payload stored with every candidate.
// WeightedScore and Decision are always computed locally; the oracle's own
// proposals are kept only for comparison.
type ResumeEvaluation struct {
	Template          string                       `json:"template"`
	JobRole           string                       `json:"job_role"`
	Parameters        map[Parameter]ParameterScore `json:"parameters"`
	Thresholds        Thresholds                   `json:"thresholds"`
	WeightedScore     float64                      `json:"weighted_score"`
	Decision          Decision                     `json:"decision"`
	InterviewRequired bool                         `json:"interview_required"`
	Summary           string                       `json:"summary,omitempty"`
	ExtractedSkills   []string                     `json:"extracted_skills,omitempty"`

	OracleProposedScore    *float64 `json:"oracle_proposed_score,omitempty"`
	OracleProposedDecision string   `json:"oracle_proposed_decision,omitempty"`

	DuplicateOf         string  `json:"duplicate_of,omitempty"`
	DuplicateSimilarity float32 `json:"duplicate_similarity,omitempty"`
}
