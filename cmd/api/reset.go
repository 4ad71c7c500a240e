package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/candidate-screener/internal/repositories"
)

var resetConfirmed bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every candidate and interview session",
	Long: `Removes all candidates together with their interview sessions and transcripts.
Recruiter accounts and upload jobs are kept. Cached sessions in redis expire
on their own.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "Confirm the deletion")
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetConfirmed {
		return errors.New("refusing to delete candidates without --yes")
	}

	_, log, db, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	deleted, err := repositories.NewCandidateRepository(db).DeleteAll(cmd.Context())
	if err != nil {
		return err
	}

	log.Info("candidates deleted", zap.Int64("count", deleted))
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d candidates\n", deleted)
	return nil
}
