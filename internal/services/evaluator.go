package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"alfredoptarigan/candidate-screener/internal/logger"
	"alfredoptarigan/candidate-screener/internal/models"
)

type EvaluationInput struct {
	ResumeText     string
	JobRole        string
	RequiredSkills []string
	Template       RoleTemplate
}

type EvaluatorService interface {
	Evaluate(ctx context.Context, in EvaluationInput) (*models.ResumeEvaluation, error)
}

type evaluatorService struct {
	oracle        Oracle
	promptBuilder *PromptBuilder
	log           *zap.Logger
}

func NewEvaluatorService(oracle Oracle, log *zap.Logger) EvaluatorService {
	return &evaluatorService{
		oracle:        oracle,
		promptBuilder: NewPromptBuilder(),
		log:           logger.OrNop(log),
	}
}

// Evaluate asks the oracle for evidence and Likert ratings once, then computes
// the score and decision locally. There is no fallback score: any oracle or
// parse failure fails this resume.
func (e *evaluatorService) Evaluate(ctx context.Context, in EvaluationInput) (*models.ResumeEvaluation, error) {
	prompt := e.promptBuilder.BuildResumeAssessmentPrompt(in.ResumeText, in.JobRole, in.RequiredSkills)

	response, err := e.oracle.GenerateText(ctx, prompt, 0.2)
	if err != nil {
		return nil, fmt.Errorf("failed to assess resume: %w", err)
	}

	assessment, err := parseResumeAssessment(response)
	if err != nil {
		e.log.Warn("unusable resume assessment",
			zap.Error(err),
			zap.String("response", logger.TruncateForLog(response, 300)),
		)
		return nil, fmt.Errorf("failed to parse resume assessment: %w", err)
	}

	return buildEvaluation(assessment, in), nil
}

func buildEvaluation(assessment *ResumeAssessment, in EvaluationInput) *models.ResumeEvaluation {
	likert := make(map[models.Parameter]int, len(models.Parameters))
	params := make(map[models.Parameter]models.ParameterScore, len(models.Parameters))

	for p, rated := range assessment.byParameter() {
		weight := in.Template.Weights.Of(p)
		normalized := float64(rated.Score) / 5
		likert[p] = rated.Score
		params[p] = models.ParameterScore{
			Evidence:     rated.Evidence,
			Likert:       rated.Score,
			Normalized:   normalized,
			Weight:       weight,
			Contribution: round2(normalized * weight * 100),
		}
	}

	score := WeightedResumeScore(likert, in.Template.Weights)
	decision, interviewRequired := Decide(score, in.Template.Thresholds)

	return &models.ResumeEvaluation{
		Template:               in.Template.Name,
		JobRole:                in.JobRole,
		Parameters:             params,
		Thresholds:             in.Template.Thresholds,
		WeightedScore:          score,
		Decision:               decision,
		InterviewRequired:      interviewRequired,
		Summary:                assessment.Summary,
		ExtractedSkills:        dedupeSkills(assessment.ExtractedSkills),
		OracleProposedScore:    assessment.ProposedScore,
		OracleProposedDecision: assessment.ProposedDecision,
	}
}
