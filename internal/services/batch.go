package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"alfredoptarigan/candidate-screener/internal/logger"
	"alfredoptarigan/candidate-screener/internal/models"
	"alfredoptarigan/candidate-screener/internal/repositories"
)

const (
	TemplateModeAuto = "auto"
	defaultJobRole   = "Software Engineer"
	defaultBatchSize = 10
)

// BatchCoordinator screens every resume of one upload job.
type BatchCoordinator interface {
	Process(ctx context.Context, jobID uuid.UUID) error
}

type BatchOptions struct {
	BatchSize int
}

type batchCoordinator struct {
	jobs          repositories.UploadJobRepository
	candidates    repositories.CandidateRepository
	storage       StorageService
	parser        ResumeParser
	evaluator     EvaluatorService
	oracle        Oracle
	duplicates    DuplicateDetector
	promptBuilder *PromptBuilder
	batchSize     int
	log           *zap.Logger
}

// parsedResume is a file that yielded text and is waiting for evaluation.
type parsedResume struct {
	index int
	file  models.UploadedFile
	text  string
}

// NewBatchCoordinator wires the coordinator. oracle should be the same
// concurrency-limited Oracle the evaluator uses. duplicates may be nil.
func NewBatchCoordinator(
	jobs repositories.UploadJobRepository,
	candidates repositories.CandidateRepository,
	storage StorageService,
	parser ResumeParser,
	evaluator EvaluatorService,
	oracle Oracle,
	duplicates DuplicateDetector,
	opts BatchOptions,
	log *zap.Logger,
) BatchCoordinator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &batchCoordinator{
		jobs:          jobs,
		candidates:    candidates,
		storage:       storage,
		parser:        parser,
		evaluator:     evaluator,
		oracle:        oracle,
		duplicates:    duplicates,
		promptBuilder: NewPromptBuilder(),
		batchSize:     opts.BatchSize,
		log:           logger.OrNop(log),
	}
}

func (b *batchCoordinator) Process(ctx context.Context, jobID uuid.UUID) (err error) {
	claimed, err := b.jobs.Claim(ctx, jobID)
	if err != nil {
		return err
	}
	if !claimed {
		b.log.Debug("upload job already claimed", zap.String("job_id", jobID.String()))
		return nil
	}

	log := logger.WithFields(b.log, zap.String("job_id", jobID.String()))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing upload job: %v", r)
		}
		if err != nil && ctx.Err() != nil {
			// left in processing so the next start requeues it
			log.Warn("upload job interrupted, left for requeue", zap.Error(err))
			return
		}
		if err != nil {
			log.Error("upload job failed", zap.Error(err))
			if updateErr := b.jobs.UpdateError(context.WithoutCancel(ctx), jobID, err.Error()); updateErr != nil {
				log.Error("failed to record job failure", zap.Error(updateErr))
			}
		}
	}()

	job, err := b.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrJobNotFound
		}
		return err
	}

	jobRole, template := b.resolveRole(ctx, job)
	if err := b.jobs.SetDetectedRole(ctx, jobID, jobRole); err != nil {
		return err
	}

	requiredSkills := b.requiredSkills(ctx, job.JobDescription)

	log.Info("processing upload job",
		zap.Int("files", len(job.Files)),
		zap.String("role", jobRole),
		zap.String("template", template.Name),
		zap.Int("required_skills", len(requiredSkills)),
	)

	results := make([]models.FileResult, len(job.Files))
	parsed, failed := b.parseFiles(job.Files, results)
	if failed > 0 {
		if err := b.jobs.IncrementProcessed(ctx, jobID, failed); err != nil {
			return err
		}
	}

	selection := template.Thresholds.Shortlist
	if job.SelectionThreshold != nil {
		selection = *job.SelectionThreshold
	}

	for start := 0; start < len(parsed); start += b.batchSize {
		end := min(start+b.batchSize, len(parsed))
		chunk := parsed[start:end]

		g, gctx := errgroup.WithContext(ctx)
		for _, resume := range chunk {
			g.Go(func() error {
				results[resume.index] = b.screen(gctx, job, resume, jobRole, template, requiredSkills, selection)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := b.jobs.IncrementProcessed(ctx, jobID, len(chunk)); err != nil {
			return err
		}
		log.Debug("batch screened", zap.Int("from", start), zap.Int("to", end))
	}

	if err := b.jobs.Complete(ctx, jobID, results); err != nil {
		return err
	}

	b.cleanup(job.Files)

	log.Info("upload job completed",
		zap.Int("screened", len(parsed)),
		zap.Int("unreadable", failed),
	)
	return nil
}

// resolveRole picks the job role label and its rubric. An explicit template
// mode wins; otherwise the role is detected from the job description.
func (b *batchCoordinator) resolveRole(ctx context.Context, job *models.UploadJob) (string, RoleTemplate) {
	mode := strings.ToLower(strings.TrimSpace(job.TemplateMode))
	if mode != "" && mode != TemplateModeAuto && IsTemplateKey(mode) {
		return mode, ResolveRoleTemplate(mode)
	}

	role := defaultJobRole
	response, err := b.oracle.GenerateText(ctx, b.promptBuilder.BuildJobRolePrompt(job.JobDescription), 0.1)
	if err != nil {
		b.log.Warn("job role detection failed, using default", zap.Error(err))
	} else if label := parseRoleLabel(response); label != "" {
		role = label
	}

	return role, ResolveRoleTemplate(role)
}

func (b *batchCoordinator) requiredSkills(ctx context.Context, jobDescription string) []string {
	response, err := b.oracle.GenerateText(ctx, b.promptBuilder.BuildRequiredSkillsPrompt(jobDescription), 0.1)
	if err != nil {
		b.log.Warn("required skill extraction failed", zap.Error(err))
		return []string{}
	}

	skills, err := parseSkillList(response)
	if err != nil {
		b.log.Warn("unusable required skills response",
			zap.Error(err),
			zap.String("response", logger.TruncateForLog(response, 200)),
		)
		return []string{}
	}
	return skills
}

// parseFiles extracts text from every file. Unreadable files get their error
// entry written into results directly.
func (b *batchCoordinator) parseFiles(files []models.UploadedFile, results []models.FileResult) ([]parsedResume, int) {
	parsed := make([]parsedResume, 0, len(files))
	failed := 0

	for i, file := range files {
		text, err := b.extract(file)
		if err != nil {
			b.log.Warn("skipping unreadable resume",
				zap.String("file", file.OriginalName),
				zap.Error(err),
			)
			results[i] = models.FileResult{
				Filename: file.OriginalName,
				Status:   models.OutcomeError,
				Error:    err.Error(),
			}
			failed++
			continue
		}
		parsed = append(parsed, parsedResume{index: i, file: file, text: text})
	}

	return parsed, failed
}

func (b *batchCoordinator) extract(file models.UploadedFile) (string, error) {
	data, err := b.storage.ReadFile(file.StoredName)
	if err != nil {
		return "", err
	}

	text, err := b.parser.Parse(data, file.OriginalName)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no text could be extracted from file")
	}
	return text, nil
}

func (b *batchCoordinator) screen(
	ctx context.Context,
	job *models.UploadJob,
	resume parsedResume,
	jobRole string,
	template RoleTemplate,
	requiredSkills []string,
	selection float64,
) models.FileResult {
	result := models.FileResult{Filename: resume.file.OriginalName}

	evaluation, err := b.evaluator.Evaluate(ctx, EvaluationInput{
		ResumeText:     resume.text,
		JobRole:        jobRole,
		RequiredSkills: requiredSkills,
		Template:       template,
	})
	if err != nil {
		b.log.Warn("resume evaluation failed", zap.String("file", resume.file.OriginalName), zap.Error(err))
		result.Status = models.OutcomeError
		result.Error = err.Error()
		return result
	}

	matched, missing := MatchSkills(requiredSkills, resume.text, evaluation.ExtractedSkills)
	status := StatusForDecision(evaluation.Decision, evaluation.WeightedScore, job.InterviewEnabled, selection)

	candidate := &models.Candidate{
		ID:                uuid.New(),
		Name:              strings.TrimSuffix(resume.file.OriginalName, filepath.Ext(resume.file.OriginalName)),
		ResumeText:        resume.text,
		JobDescription:    job.JobDescription,
		JobRole:           jobRole,
		ResumeScore:       evaluation.WeightedScore,
		Status:            status,
		Decision:          string(evaluation.Decision),
		InterviewEnabled:  job.InterviewEnabled,
		MatchedSkills:     datatypes.NewJSONSlice(matched),
		MissingSkills:     datatypes.NewJSONSlice(missing),
		RecruiterUsername: job.RecruiterUsername,
		UploadJobID:       &job.ID,
	}

	b.checkDuplicate(ctx, candidate, evaluation)
	candidate.Evaluation = datatypes.NewJSONType(*evaluation)

	if err := b.candidates.Create(ctx, candidate); err != nil {
		b.log.Error("failed to save candidate", zap.String("file", resume.file.OriginalName), zap.Error(err))
		result.Status = models.OutcomeError
		result.Error = err.Error()
		return result
	}

	result.Status = models.OutcomeSuccess
	result.CandidateID = candidate.ID.String()
	result.ResumeScore = evaluation.WeightedScore
	result.Decision = evaluation.Decision
	return result
}

// checkDuplicate never blocks screening: lookup failures are only logged.
func (b *batchCoordinator) checkDuplicate(ctx context.Context, candidate *models.Candidate, evaluation *models.ResumeEvaluation) {
	if b.duplicates == nil {
		return
	}

	match, err := b.duplicates.Inspect(ctx, candidate.ID, candidate.RecruiterUsername, candidate.ResumeText)
	if err != nil {
		b.log.Warn("duplicate check failed", zap.String("candidate_id", candidate.ID.String()), zap.Error(err))
	}
	if match != nil {
		evaluation.DuplicateOf = match.CandidateID
		evaluation.DuplicateSimilarity = match.Similarity
		b.log.Info("possible duplicate resume",
			zap.String("candidate_id", candidate.ID.String()),
			zap.String("duplicate_of", match.CandidateID),
			zap.Float32("similarity", match.Similarity),
		)
	}
}

func (b *batchCoordinator) cleanup(files []models.UploadedFile) {
	for _, file := range files {
		if err := b.storage.DeleteFile(file.StoredName); err != nil {
			b.log.Warn("failed to delete uploaded file", zap.String("file", file.StoredName), zap.Error(err))
		}
	}
}
