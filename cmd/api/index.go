package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/candidate-screener/internal/repositories"
	"alfredoptarigan/candidate-screener/internal/services"
)

const indexPageSize = 100

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Backfill the duplicate-detection index from stored candidates",
	Long: `Embeds every stored resume and upserts it into the Qdrant collection used for
duplicate detection. Run it once after enabling DUPLICATE_CHECK_ENABLED on a
database that already holds candidates.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, log, db, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if !cfg.Qdrant.DuplicateCheck {
		return errors.New("duplicate detection is disabled; set DUPLICATE_CHECK_ENABLED=true")
	}

	gemini, err := services.NewGeminiService(services.GeminiOptions{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		EmbedModel: cfg.Gemini.EmbedModel,
		MaxRetries: cfg.Worker.RetryMaxAttempts,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize gemini: %w", err)
	}

	ctx := cmd.Context()
	detector, err := buildDuplicateDetector(ctx, cfg, gemini, log)
	if err != nil {
		return err
	}

	candidates := repositories.NewCandidateRepository(db)
	indexed, skipped, failed := 0, 0, 0
	for offset := 0; ; offset += indexPageSize {
		page, err := candidates.List(ctx, indexPageSize, offset)
		if err != nil {
			return err
		}

		for _, candidate := range page {
			if strings.TrimSpace(candidate.ResumeText) == "" {
				skipped++
				continue
			}
			if err := detector.Index(ctx, candidate.ID, candidate.RecruiterUsername, candidate.ResumeText); err != nil {
				log.Warn("failed to index resume", zap.String("candidate_id", candidate.ID.String()), zap.Error(err))
				failed++
				continue
			}
			indexed++
		}

		if len(page) < indexPageSize {
			break
		}
	}

	log.Info("resume index backfill finished",
		zap.Int("indexed", indexed),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d resumes (%d skipped, %d failed)\n", indexed, skipped, failed)
	return nil
}
