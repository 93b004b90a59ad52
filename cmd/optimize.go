package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spigell/jobtrail/internal/ai"
	"github.com/spigell/jobtrail/internal/ats"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Rewrite a CV for a job posting with the language model",
	Run: func(cmd *cobra.Command, _ []string) {
		optimize(cmd)
	},
}

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().String("cv", "", "plain text CV file")
	addPostingFlags(optimizeCmd)
	optimizeCmd.Flags().String("out", "", "write the optimized CV to this file instead of stdout")
}

func optimize(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	cvPath, _ := cmd.Flags().GetString("cv")
	cv, err := readText(cvPath, "cv")
	if err != nil {
		logger.Fatal("reading cv", zap.Error(err))
	}

	posting, err := loadPosting(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("loading job posting", zap.Error(err))
	}
	if posting.Description == "" {
		logger.Fatal("job description is required", zap.String("hint", "pass --job or --job-url"))
	}

	writer, err := newWriter(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building ai writer", zap.Error(err))
	}
	if writer == nil {
		logger.Fatal("ai is disabled", zap.String("hint", "set ai.enabled in the configuration file"))
	}

	scorer := ats.NewScorer(logger)
	before, err := scorer.Score(ctx, inputFor(cv, posting))
	if err != nil {
		logger.Fatal("scoring cv", zap.Error(err))
	}

	optimized, err := writer.OptimizeCV(ctx, ai.OptimizeRequest{
		CV:              cv,
		JobDescription:  posting.Description,
		Recommendations: before.Recommendations,
	})
	if err != nil {
		logger.Fatal("optimizing cv", zap.Error(err))
	}

	after, err := scorer.Score(ctx, inputFor(optimized, posting))
	if err != nil {
		logger.Fatal("scoring optimized cv", zap.Error(err))
	}

	logger.Info("cv optimized",
		zap.Int("score_before", before.OverallScore),
		zap.Int("score_after", after.OverallScore),
	)

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		fmt.Println(optimized)
		return
	}

	if err := os.WriteFile(out, []byte(optimized+"\n"), 0o644); err != nil {
		logger.Fatal("writing optimized cv", zap.Error(err))
	}
	logger.Info("optimized cv saved", zap.String("filename", out))
}
