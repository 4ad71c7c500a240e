package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/candidate-screener/internal/models"
)

// Task headers open every prompt so replies can be traced back to the call.
const (
	taskResumeAssessment = "TASK: RESUME ASSESSMENT"
	taskRequiredSkills   = "TASK: REQUIRED SKILLS"
	taskJobRole          = "TASK: JOB ROLE DETECTION"
	taskRoleDeduction    = "TASK: INTERVIEW ROLE DEDUCTION"
	taskNextQuestion     = "TASK: INTERVIEW QUESTION"
	taskGrading          = "TASK: ANSWER GRADING"
)

// resumeContextLimit bounds how much resume text goes into interview prompts.
const resumeContextLimit = 3000

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildResumeAssessmentPrompt asks for evidence and a 1-5 rating per rubric parameter.
func (pb *PromptBuilder) BuildResumeAssessmentPrompt(resumeText, jobRole string, requiredSkills []string) string {
	return fmt.Sprintf(`%s
You are a strict technical recruiter screening a resume for a %s position.

REQUIRED SKILLS:
%s

CANDIDATE RESUME:
%s

For each parameter below, quote the factual evidence found in the resume and rate it on a 1-5 scale.
Rubric:
1 = no evidence, 2 = weak or unrelated evidence, 3 = adequate, 4 = strong, 5 = exceptional.
Missing or ambiguous evidence must get a lower score. Never assume facts that are not written.

Parameters: education, experience, skills, projects, certifications.

Also list every hard skill (technologies, languages, tools) explicitly written in the resume.
Do NOT match partial words: "Java" is not "JavaScript".

Return ONLY JSON in this format:
{
  "education": {"evidence": "<text>", "score": <1-5>},
  "experience": {"evidence": "<text>", "score": <1-5>},
  "skills": {"evidence": "<text>", "score": <1-5>},
  "projects": {"evidence": "<text>", "score": <1-5>},
  "certifications": {"evidence": "<text>", "score": <1-5>},
  "extracted_skills": ["<skill>", "..."],
  "summary": "<two sentences>"
}`, taskResumeAssessment, jobRole, formatList(requiredSkills), resumeText)
}

// BuildRequiredSkillsPrompt asks for the hard skills a job description demands.
func (pb *PromptBuilder) BuildRequiredSkillsPrompt(jobDescription string) string {
	return fmt.Sprintf(`%s
Extract the hard skills (technologies, programming languages, frameworks, tools, certifications)
that this job description requires. Ignore soft skills.

JOB DESCRIPTION:
%s

Return ONLY a JSON array of strings, for example ["Go", "PostgreSQL", "Docker"].`, taskRequiredSkills, jobDescription)
}

// BuildJobRolePrompt asks for the job title a description is hiring for.
func (pb *PromptBuilder) BuildJobRolePrompt(jobDescription string) string {
	return fmt.Sprintf(`%s
Read the job description and answer with the job title only, including the seniority if stated
(for example "Senior Backend Engineer" or "Data Science Intern"). No explanation.

JOB DESCRIPTION:
%s`, taskJobRole, jobDescription)
}

// BuildRoleDeductionPrompt asks which role an interview should target.
func (pb *PromptBuilder) BuildRoleDeductionPrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(`%s
Based on the resume and the job description, state the single job role this interview should
assess. Answer with the role title only. If it is unclear, answer "Candidate".

JOB DESCRIPTION:
%s

RESUME:
%s`, taskRoleDeduction, orNone(jobDescription), truncateText(resumeText, resumeContextLimit))
}

// BuildQuestionPrompt asks for the next interview question given the turns so far.
func (pb *PromptBuilder) BuildQuestionPrompt(session *models.InterviewSession) string {
	var history strings.Builder
	if len(session.Scores) == 0 {
		history.WriteString("(no questions asked yet)")
	}
	for i, turn := range session.Scores {
		fmt.Fprintf(&history, "Q%d: %s\nA%d: %s\n", i+1, turn.Question, i+1, turn.Answer)
	}

	return fmt.Sprintf(`%s
You are Alex, a friendly senior engineer interviewing a candidate for a %s role.
Ask exactly ONE question. Keep it under two sentences. Do not repeat earlier questions.
Build on the candidate's previous answers and the resume; mix technical depth with practical experience.

JOB DESCRIPTION:
%s

RESUME (match score %.1f/100):
%s

CONVERSATION SO FAR:
%s

Reply with the question text only.`,
		taskNextQuestion,
		session.Role,
		orNone(session.JobDescription),
		session.MatchScore,
		truncateText(session.ResumeText, resumeContextLimit),
		history.String(),
	)
}

// BuildGradingPrompt asks for a 0-10 grade of one answer.
func (pb *PromptBuilder) BuildGradingPrompt(role, question, answer string) string {
	return fmt.Sprintf(`%s
You are grading an interview answer for a %s role.

QUESTION:
%s

ANSWER:
%s

Grading rubric:
0-2: irrelevant or wrong
3-5: shallow or partially correct
6-8: correct and clearly explained
9-10: exceptional depth and insight

Return ONLY JSON in this format:
{
  "score": <0-10>,
  "feedback": "<one or two sentences>",
  "strength": "<what was good>",
  "gap": "<what was missing>",
  "improvement": "<how to improve>"
}`, taskGrading, role, question, answer)
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "(none specified)"
	}
	return "- " + strings.Join(items, "\n- ")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(not provided)"
	}
	return s
}

func truncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
