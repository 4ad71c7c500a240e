package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"alfredoptarigan/candidate-screener/internal/models"
)

func likert(edu, exp, skills, projects, certs int) map[models.Parameter]int {
	return map[models.Parameter]int{
		models.ParamEducation:      edu,
		models.ParamExperience:     exp,
		models.ParamSkills:         skills,
		models.ParamProjects:       projects,
		models.ParamCertifications: certs,
	}
}

func TestWeightedResumeScore_JuniorExample(t *testing.T) {
	junior := ResolveRoleTemplate(TemplateJunior)

	score := WeightedResumeScore(likert(3, 4, 5, 3, 2), junior.Weights)
	assert.InDelta(t, 75.0, score, 1e-9)

	decision, interview := Decide(score, junior.Thresholds)
	assert.Equal(t, models.DecisionStrong, decision)
	assert.False(t, interview)
}

func TestWeightedResumeScore_Bounds(t *testing.T) {
	for _, name := range []string{TemplateIntern, TemplateJunior, TemplateSenior} {
		template := ResolveRoleTemplate(name)
		assert.InDelta(t, 100.0, WeightedResumeScore(likert(5, 5, 5, 5, 5), template.Weights), 1e-9, name)
		assert.InDelta(t, 20.0, WeightedResumeScore(likert(1, 1, 1, 1, 1), template.Weights), 1e-9, name)
	}
}

func TestWeightedResumeScore_Monotonic(t *testing.T) {
	senior := ResolveRoleTemplate(TemplateSenior)
	base := likert(3, 3, 3, 3, 3)
	baseScore := WeightedResumeScore(base, senior.Weights)

	for _, p := range models.Parameters {
		raised := likert(3, 3, 3, 3, 3)
		raised[p] = 4
		assert.GreaterOrEqual(t, WeightedResumeScore(raised, senior.Weights), baseScore, string(p))
	}
}

func TestDecide_ExactlyOneOutcome(t *testing.T) {
	thresholds := models.Thresholds{Shortlist: 70, Interview: 50}

	tests := []struct {
		score     float64
		decision  models.Decision
		interview bool
	}{
		{100, models.DecisionStrong, false},
		{70, models.DecisionStrong, false},
		{69.99, models.DecisionBorderline, true},
		{50, models.DecisionBorderline, true},
		{49.99, models.DecisionWeak, false},
		{0, models.DecisionWeak, false},
	}

	for _, tt := range tests {
		decision, interview := Decide(tt.score, thresholds)
		assert.Equal(t, tt.decision, decision, "score %.2f", tt.score)
		assert.Equal(t, tt.interview, interview, "score %.2f", tt.score)
	}
}

func TestStatusForDecision(t *testing.T) {
	assert.Equal(t, models.CandidateShortlisted, StatusForDecision(models.DecisionStrong, 80, true, 70))
	assert.Equal(t, models.CandidateWaitlist, StatusForDecision(models.DecisionBorderline, 60, true, 70))
	assert.Equal(t, models.CandidateRejected, StatusForDecision(models.DecisionWeak, 30, true, 70))

	assert.Equal(t, models.CandidateSelected, StatusForDecision(models.DecisionBorderline, 65, false, 60))
	assert.Equal(t, models.CandidateRejected, StatusForDecision(models.DecisionStrong, 75, false, 80))
}

func TestComputeFinalScore(t *testing.T) {
	scores := []models.QuestionScore{{Score: 8}, {Score: 6}, {Score: 7}}

	clean := ComputeFinalScore(75, scores, 0)
	assert.InDelta(t, 7.0, clean.AverageInterview, 1e-9)
	assert.InDelta(t, 70.0, clean.InterviewScore, 1e-9)
	assert.InDelta(t, 72.0, clean.Final, 1e-9)
	assert.False(t, clean.Cheating)

	flagged := ComputeFinalScore(75, scores, 1)
	assert.InDelta(t, 57.6, flagged.Final, 1e-9)
	assert.False(t, flagged.Cheating)

	cheating := ComputeFinalScore(75, scores, 2)
	assert.Zero(t, cheating.Final)
	assert.True(t, cheating.Cheating)
}

func TestComputeFinalScore_NoAnswers(t *testing.T) {
	result := ComputeFinalScore(80, nil, 0)

	assert.Zero(t, result.AverageInterview)
	assert.InDelta(t, 32.0, result.Final, 1e-9)
}
