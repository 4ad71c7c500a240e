package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"alfredoptarigan/candidate-screener/internal/models"
)

var validate = validator.New()

// LikertEvidence is the oracle's rating of one rubric parameter.
type LikertEvidence struct {
	Evidence string `json:"evidence"`
	Score    int    `json:"score" validate:"min=1,max=5"`
}

// ResumeAssessment is the validated reply to a resume assessment prompt.
type ResumeAssessment struct {
	Education       LikertEvidence `json:"education"`
	Experience      LikertEvidence `json:"experience"`
	Skills          LikertEvidence `json:"skills"`
	Projects        LikertEvidence `json:"projects"`
	Certifications  LikertEvidence `json:"certifications"`
	ExtractedSkills []string       `json:"extracted_skills"`
	Summary         string         `json:"summary"`

	ProposedScore    *float64 `json:"weighted_resume_score,omitempty"`
	ProposedDecision string   `json:"decision,omitempty"`
}

func (a *ResumeAssessment) byParameter() map[models.Parameter]LikertEvidence {
	return map[models.Parameter]LikertEvidence{
		models.ParamEducation:      a.Education,
		models.ParamExperience:     a.Experience,
		models.ParamSkills:         a.Skills,
		models.ParamProjects:       a.Projects,
		models.ParamCertifications: a.Certifications,
	}
}

// AnswerGrade is the validated reply to a grading prompt.
type AnswerGrade struct {
	Score       float64 `json:"score" validate:"gte=0,lte=10"`
	Feedback    string  `json:"feedback"`
	Strength    string  `json:"strength"`
	Gap         string  `json:"gap"`
	Improvement string  `json:"improvement"`
}

func parseResumeAssessment(response string) (*ResumeAssessment, error) {
	var assessment ResumeAssessment
	if err := parseJSONResponse(response, &assessment); err != nil {
		return nil, err
	}
	if err := validate.Struct(&assessment); err != nil {
		return nil, fmt.Errorf("invalid resume assessment: %w", err)
	}
	return &assessment, nil
}

func parseAnswerGrade(response string) (*AnswerGrade, error) {
	var grade AnswerGrade
	if err := parseJSONResponse(response, &grade); err != nil {
		return nil, err
	}
	if err := validate.Struct(&grade); err != nil {
		return nil, fmt.Errorf("invalid answer grade: %w", err)
	}
	return &grade, nil
}

// parseSkillList accepts either a bare JSON array or an object carrying the
// list under "skills" or "required_skills".
func parseSkillList(response string) ([]string, error) {
	raw := extractJSON(response)

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		var wrapped struct {
			Skills         []string `json:"skills"`
			RequiredSkills []string `json:"required_skills"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			return nil, fmt.Errorf("failed to unmarshal skill list: %w", err)
		}
		list = append(wrapped.Skills, wrapped.RequiredSkills...)
	}

	return dedupeSkills(list), nil
}

// parseRoleLabel reduces a free-text oracle reply to a short role title.
// An empty result means the reply carried no usable label.
func parseRoleLabel(response string) string {
	line := strings.TrimSpace(response)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}

	line = strings.Trim(line, " \t\"'`*.")
	for _, prefix := range []string{"role:", "job role:", "job title:", "title:"} {
		if strings.HasPrefix(strings.ToLower(line), prefix) {
			line = strings.TrimSpace(line[len(prefix):])
		}
	}
	line = strings.Trim(line, " \t\"'`*.")

	if len(line) > 80 || line == "" {
		return ""
	}
	return line
}

func parseJSONResponse(response string, target interface{}) error {
	jsonStr := extractJSON(response)

	if err := json.Unmarshal([]byte(jsonStr), target); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return nil
}

// extractJSON strips markdown fences and slices out the outermost JSON
// object or array.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	// an array that opens before any object wins, so ["a", {"b":1}] stays whole
	if startArr != -1 && endArr > startArr && (startObj == -1 || startArr < startObj) {
		return text[startArr : endArr+1]
	}
	if startObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	}

	return strings.TrimSpace(text)
}

func dedupeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}
