package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spigell/jobtrail/internal/ats"
	"github.com/spigell/jobtrail/internal/jobs"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	outputText = "text"
	outputJSON = "json"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a CV against a job posting",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("cv", "", "plain text CV file")
	addPostingFlags(scoreCmd)
	scoreCmd.Flags().StringP("output", "o", outputText, "output format: text or json")
	scoreCmd.Flags().String("report", "", "also write the text report to this file")
}

func score(cmd *cobra.Command) {
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

	result, err := ats.NewScorer(logger).Score(ctx, inputFor(cv, posting))
	if err != nil {
		logger.Fatal("scoring cv", zap.Error(err))
	}

	report := ats.RenderReportWithOptions(result, ats.ReportOptions{
		Company:     posting.Company,
		JobTitle:    posting.Title,
		GeneratedAt: time.Now(),
	})

	output, _ := cmd.Flags().GetString("output")
	if err := printResult(os.Stdout, output, result, report); err != nil {
		logger.Fatal("printing result", zap.Error(err))
	}

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
			logger.Fatal("writing report", zap.Error(err))
		}
		logger.Info("report saved", zap.String("filename", path))
	}
}

func inputFor(cv string, posting jobs.Posting) ats.Input {
	return ats.NewInput(cv, posting.Description, posting.Title, posting.Company)
}

func printResult(w io.Writer, format string, result ats.Result, report string) error {
	switch format {
	case outputJSON:
		pretty, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(pretty))
		return err
	case outputText, "":
		_, err := fmt.Fprintf(w, "%s\n\n%s", scoreLine(result.OverallScore), report)
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func scoreLine(score int) string {
	c := color.New(color.FgRed, color.Bold)
	switch {
	case score >= 80:
		c = color.New(color.FgGreen, color.Bold)
	case score >= 60:
		c = color.New(color.FgYellow, color.Bold)
	}
	return c.Sprintf("ATS score: %d/100", score)
}
