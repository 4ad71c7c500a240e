package services

import (
	"math"

	"alfredoptarigan/candidate-screener/internal/models"
)

const (
	resumeWeight    = 0.4
	interviewWeight = 0.6
	singleFlagRatio = 0.8
)

// WeightedResumeScore computes round(sum(likert/5 * weight) * 100, 2).
func WeightedResumeScore(likert map[models.Parameter]int, weights Weights) float64 {
	var total float64
	for _, p := range models.Parameters {
		total += float64(likert[p]) / 5 * weights.Of(p)
	}
	return round2(total * 100)
}

// Decide gates a score against the thresholds. Exactly one decision holds
// for any score; the bool reports whether an interview is required.
func Decide(score float64, t models.Thresholds) (models.Decision, bool) {
	switch {
	case score >= t.Shortlist:
		return models.DecisionStrong, false
	case score >= t.Interview:
		return models.DecisionBorderline, true
	default:
		return models.DecisionWeak, false
	}
}

// StatusForDecision maps an evaluation to the candidate's initial status.
// With interviews disabled the resume score alone is compared to selectionThreshold.
func StatusForDecision(decision models.Decision, score float64, interviewEnabled bool, selectionThreshold float64) models.CandidateStatus {
	if !interviewEnabled {
		if score >= selectionThreshold {
			return models.CandidateSelected
		}
		return models.CandidateRejected
	}

	switch decision {
	case models.DecisionStrong:
		return models.CandidateShortlisted
	case models.DecisionBorderline:
		return models.CandidateWaitlist
	default:
		return models.CandidateRejected
	}
}

type FinalScore struct {
	AverageInterview float64
	InterviewScore   float64
	Final            float64
	Cheating         bool
}

// ComputeFinalScore blends the resume score with the interview average and
// applies the anti-cheating penalty for the given flag count.
func ComputeFinalScore(resumeScore float64, scores []models.QuestionScore, flagCount int) FinalScore {
	var avg float64
	if len(scores) > 0 {
		var sum float64
		for _, s := range scores {
			sum += s.Score
		}
		avg = sum / float64(len(scores))
	}

	final := resumeScore*resumeWeight + avg*10*interviewWeight
	result := FinalScore{
		AverageInterview: round2(avg),
		InterviewScore:   round2(avg * 10),
	}

	switch {
	case flagCount >= 2:
		final = 0
		result.Cheating = true
	case flagCount == 1:
		final *= singleFlagRatio
	}

	result.Final = round2(clamp(final, 0, 100))
	return result
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
