package services

import (
	"strings"

	"alfredoptarigan/candidate-screener/internal/models"
)

type Weights struct {
	Education      float64 `json:"education"`
	Experience     float64 `json:"experience"`
	Skills         float64 `json:"skills"`
	Projects       float64 `json:"projects"`
	Certifications float64 `json:"certifications"`
}

func (w Weights) Of(p models.Parameter) float64 {
	switch p {
	case models.ParamEducation:
		return w.Education
	case models.ParamExperience:
		return w.Experience
	case models.ParamSkills:
		return w.Skills
	case models.ParamProjects:
		return w.Projects
	case models.ParamCertifications:
		return w.Certifications
	}
	return 0
}

func (w Weights) Sum() float64 {
	return w.Education + w.Experience + w.Skills + w.Projects + w.Certifications
}

// RoleTemplate is a value type; callers get their own copy.
type RoleTemplate struct {
	Name       string
	Weights    Weights
	Thresholds models.Thresholds
}

const (
	TemplateIntern = "intern"
	TemplateJunior = "junior"
	TemplateSenior = "senior"
)

var roleTemplates = map[string]RoleTemplate{
	TemplateIntern: {
		Name:       TemplateIntern,
		Weights:    Weights{Education: 0.25, Experience: 0.10, Skills: 0.30, Projects: 0.25, Certifications: 0.10},
		Thresholds: models.Thresholds{Shortlist: 70, Interview: 45},
	},
	TemplateJunior: {
		Name:       TemplateJunior,
		Weights:    Weights{Education: 0.20, Experience: 0.25, Skills: 0.30, Projects: 0.15, Certifications: 0.10},
		Thresholds: models.Thresholds{Shortlist: 70, Interview: 50},
	},
	TemplateSenior: {
		Name:       TemplateSenior,
		Weights:    Weights{Education: 0.05, Experience: 0.40, Skills: 0.35, Projects: 0.15, Certifications: 0.05},
		Thresholds: models.Thresholds{Shortlist: 80, Interview: 60},
	},
}

var (
	internKeywords = []string{"intern", "trainee", "fresher"}
	seniorKeywords = []string{"senior", "lead", "manager", "principal"}
)

// ResolveRoleTemplate maps a role label to a template. It never fails:
// unknown labels get the junior template.
func ResolveRoleTemplate(label string) RoleTemplate {
	key := strings.ToLower(strings.TrimSpace(label))

	if template, ok := roleTemplates[key]; ok {
		return template
	}

	if containsAny(key, internKeywords) {
		return roleTemplates[TemplateIntern]
	}
	if containsAny(key, seniorKeywords) {
		return roleTemplates[TemplateSenior]
	}

	return roleTemplates[TemplateJunior]
}

// IsTemplateKey reports whether mode names a template directly.
func IsTemplateKey(mode string) bool {
	_, ok := roleTemplates[strings.ToLower(strings.TrimSpace(mode))]
	return ok
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
