package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spigell/jobtrail/internal/history"
	"github.com/spigell/jobtrail/internal/notion"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const listDateLayout = "2006-01-02"

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and update the application history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		withHistory(func(_ *zap.Logger, _ *Config, tracker *history.Tracker) error {
			f := history.Filter{}
			f.Company, _ = cmd.Flags().GetString("company")
			f.Limit, _ = cmd.Flags().GetInt("limit")
			if s, _ := cmd.Flags().GetString("status"); s != "" {
				status, err := history.ParseStatus(s)
				if err != nil {
					return err
				}
				f.Status = status
			}
			return printApplications(os.Stdout, tracker.List(f))
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one application",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withHistory(func(_ *zap.Logger, _ *Config, tracker *history.Tracker) error {
			app, err := tracker.Get(args[0])
			if err != nil {
				return err
			}
			pretty, err := json.MarshalIndent(app, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(pretty))
			return nil
		})
	},
}

var historyStatusCmd = &cobra.Command{
	Use:   "status ID [STATUS]",
	Short: "Change the status of an application",
	Long:  "Change the status of an application. Without STATUS a menu with the known statuses is shown.",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		withHistory(func(logger *zap.Logger, config *Config, tracker *history.Tracker) error {
			var raw string
			if len(args) == 2 {
				raw = args[1]
			} else {
				selected, err := selectStatus()
				if err != nil {
					return err
				}
				raw = selected
			}

			status, err := history.ParseStatus(raw)
			if err != nil {
				return err
			}
			notes, _ := cmd.Flags().GetString("notes")

			if err := tracker.UpdateStatus(args[0], status, notes); err != nil {
				return err
			}
			logger.Info("status updated", zap.String("id", args[0]), zap.String("status", string(status)))

			return syncNotion(cmd, config, tracker, args[0], logger, func(ctx context.Context, client *notion.Client, pageID string) error {
				return client.UpdateStatus(ctx, pageID, string(status), notes)
			})
		})
	},
}

var historyInterviewCmd = &cobra.Command{
	Use:   "interview ID",
	Short: "Schedule an interview",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withHistory(func(logger *zap.Logger, config *Config, tracker *history.Tracker) error {
			date, err := dateFlag(cmd)
			if err != nil {
				return err
			}
			iv := history.Interview{Date: date}
			iv.Type, _ = cmd.Flags().GetString("type")
			iv.Interviewer, _ = cmd.Flags().GetString("interviewer")
			iv.Notes, _ = cmd.Flags().GetString("notes")

			if err := tracker.AddInterview(args[0], iv); err != nil {
				return err
			}
			logger.Info("interview scheduled", zap.String("id", args[0]), zap.Time("date", date))

			return syncNotion(cmd, config, tracker, args[0], logger, func(ctx context.Context, client *notion.Client, pageID string) error {
				return client.ScheduleInterview(ctx, pageID, iv.Date, iv.Type, iv.Interviewer, iv.Notes)
			})
		})
	},
}

var historyFollowUpCmd = &cobra.Command{
	Use:   "follow-up ID",
	Short: "Add a follow-up reminder",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withHistory(func(logger *zap.Logger, config *Config, tracker *history.Tracker) error {
			date, err := dateFlag(cmd)
			if err != nil {
				return err
			}
			fu := history.FollowUp{Date: date}
			fu.Type, _ = cmd.Flags().GetString("type")
			fu.Notes, _ = cmd.Flags().GetString("notes")

			if err := tracker.AddFollowUp(args[0], fu); err != nil {
				return err
			}
			logger.Info("follow-up added", zap.String("id", args[0]), zap.Time("date", date))

			return syncNotion(cmd, config, tracker, args[0], logger, func(ctx context.Context, client *notion.Client, pageID string) error {
				return client.AddFollowUp(ctx, pageID, fu.Date, fu.Type, fu.Notes)
			})
		})
	},
}

var historyCompleteCmd = &cobra.Command{
	Use:   "complete ID",
	Short: "Mark a follow-up as done",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withHistory(func(logger *zap.Logger, _ *Config, tracker *history.Tracker) error {
			date, err := dateFlag(cmd)
			if err != nil {
				return err
			}
			if err := tracker.CompleteFollowUp(args[0], date); err != nil {
				return err
			}
			logger.Info("follow-up completed", zap.String("id", args[0]), zap.Time("date", date))
			return nil
		})
	},
}

var historyAnnotateCmd = &cobra.Command{
	Use:   "annotate ID",
	Short: "Replace the notes of an application and add tags",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withHistory(func(logger *zap.Logger, _ *Config, tracker *history.Tracker) error {
			notes, _ := cmd.Flags().GetString("notes")
			tags, _ := cmd.Flags().GetStringSlice("tag")
			if err := tracker.Annotate(args[0], notes, tags...); err != nil {
				return err
			}
			logger.Info("application annotated", zap.String("id", args[0]), zap.Strings("tags", tags))
			return nil
		})
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search company, title, notes and description",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withHistory(func(_ *zap.Logger, _ *Config, tracker *history.Tracker) error {
			return printApplications(os.Stdout, tracker.Search(strings.Join(args, " ")))
		})
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show application statistics",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		withHistory(func(_ *zap.Logger, config *Config, tracker *history.Tracker) error {
			now := time.Now()
			output, _ := cmd.Flags().GetString("output")

			if fromNotion, _ := cmd.Flags().GetBool("notion"); fromNotion {
				ctx := context.Background()
				analytics, err := newNotion(config.Notion, zap.NewNop()).Analytics(ctx)
				if err != nil {
					return fmt.Errorf("notion analytics: %w", err)
				}
				return printJSON(os.Stdout, analytics)
			}

			if output == outputJSON {
				return printJSON(os.Stdout, tracker.Statistics(now))
			}
			fmt.Print(tracker.Summary(now))
			return nil
		})
	},
}

var historyFollowUpsCmd = &cobra.Command{
	Use:   "follow-ups",
	Short: "List follow-ups due within a week",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		withHistory(func(_ *zap.Logger, config *Config, tracker *history.Tracker) error {
			now := time.Now()

			if fromNotion, _ := cmd.Flags().GetBool("notion"); fromNotion {
				items, err := newNotion(config.Notion, zap.NewNop()).UpcomingFollowUps(context.Background(), now)
				if err != nil {
					return fmt.Errorf("notion follow-ups: %w", err)
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tCOMPANY\tPOSITION\tTYPE\tPAGE")
				for _, fu := range items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", fu.Date.Format(listDateLayout), fu.Company, fu.Position, fu.Type, fu.PageID)
				}
				return w.Flush()
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tCOMPANY\tPOSITION\tTYPE\tAPPLICATION\t")
			for _, item := range tracker.UpcomingFollowUps(now) {
				overdue := ""
				if item.FollowUp.Date.Before(now) {
					overdue = "overdue"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					item.FollowUp.Date.Format(listDateLayout), item.Company, item.Position,
					item.FollowUp.Type, item.ApplicationID, overdue)
			}
			return w.Flush()
		})
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the history to json, yaml or xlsx",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		withHistory(func(logger *zap.Logger, _ *Config, tracker *history.Tracker) error {
			format, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")

			path, err := tracker.Export(out, format)
			if err != nil {
				return err
			}
			logger.Info("history exported", zap.String("filename", path), zap.String("format", format))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(
		historyListCmd,
		historyShowCmd,
		historyStatusCmd,
		historyInterviewCmd,
		historyFollowUpCmd,
		historyCompleteCmd,
		historyAnnotateCmd,
		historySearchCmd,
		historyStatsCmd,
		historyFollowUpsCmd,
		historyExportCmd,
	)

	historyListCmd.Flags().String("status", "", "only applications with this status")
	historyListCmd.Flags().String("company", "", "only companies containing this text")
	historyListCmd.Flags().Int("limit", 0, "maximum number of applications")

	historyStatusCmd.Flags().String("notes", "", "notes for the status change")

	historyInterviewCmd.Flags().String("date", "", "interview date (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	historyInterviewCmd.Flags().String("type", "Video", "interview type")
	historyInterviewCmd.Flags().String("interviewer", "", "interviewer name")
	historyInterviewCmd.Flags().String("notes", "", "interview notes")

	historyFollowUpCmd.Flags().String("date", "", "follow-up date (YYYY-MM-DD)")
	historyFollowUpCmd.Flags().String("type", "Email", "follow-up type")
	historyFollowUpCmd.Flags().String("notes", "", "follow-up notes")

	historyCompleteCmd.Flags().String("date", "", "date of the follow-up to complete (YYYY-MM-DD)")

	historyAnnotateCmd.Flags().String("notes", "", "new notes")
	historyAnnotateCmd.Flags().StringSlice("tag", nil, "tags to add")

	historyStatsCmd.Flags().StringP("output", "o", outputText, "output format: text or json")
	historyStatsCmd.Flags().Bool("notion", false, "compute analytics from the notion database")

	historyFollowUpsCmd.Flags().Bool("notion", false, "read follow-ups from the notion database")

	historyExportCmd.Flags().String("format", history.FormatJSON, "export format: json, yaml or xlsx")
	historyExportCmd.Flags().String("out", "", "export file (default is a timestamped file in current directory)")

	for _, c := range []*cobra.Command{historyStatusCmd, historyInterviewCmd, historyFollowUpCmd} {
		c.Flags().Bool("no-notion", false, "do not mirror the change to notion")
	}
	for _, c := range []*cobra.Command{historyInterviewCmd, historyFollowUpCmd, historyCompleteCmd} {
		c.MarkFlagRequired("date")
	}
}

func withHistory(fn func(logger *zap.Logger, config *Config, tracker *history.Tracker) error) {
	logger, config := setup()

	tracker, err := openHistory(config, logger)
	if err != nil {
		logger.Fatal("opening history", zap.Error(err))
	}

	if err := fn(logger, config, tracker); err != nil {
		if errors.Is(err, errExit) {
			return
		}
		logger.Fatal("history command failed", zap.Error(err), zap.String("history_file", tracker.Path()))
	}
}

// syncNotion mirrors a change to the notion page of the application. Failures
// are logged since the local history is already updated.
func syncNotion(cmd *cobra.Command, config *Config, tracker *history.Tracker, id string, logger *zap.Logger,
	fn func(ctx context.Context, client *notion.Client, pageID string) error,
) error {
	if skip, _ := cmd.Flags().GetBool("no-notion"); skip {
		return nil
	}

	app, err := tracker.Get(id)
	if err != nil {
		return err
	}
	if app.NotionPageID == "" {
		return nil
	}

	client := newNotion(config.Notion, logger)
	if !client.Configured() {
		return nil
	}

	if err := fn(context.Background(), client, app.NotionPageID); err != nil {
		logger.Warn("notion sync failed", zap.Error(err), zap.String("page_id", app.NotionPageID))
	}
	return nil
}

func dateFlag(cmd *cobra.Command) (time.Time, error) {
	raw, _ := cmd.Flags().GetString("date")
	return history.ParseDate(raw)
}

func selectStatus() (string, error) {
	items := make([]string, 0, len(history.Statuses)+1)
	for _, status := range history.Statuses {
		items = append(items, string(status))
	}

	statusPrompt := promptui.Select{
		Label: "Choose a status and press ENTER",
		Items: append(items, PromptBack),
	}

	_, selected, err := statusPrompt.Run()
	if err != nil {
		return "", err
	}
	if selected == PromptBack {
		return "", errExit
	}
	return selected, nil
}

func printApplications(w io.Writer, apps []*history.Application) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAPPLIED\tCOMPANY\tPOSITION\tSTATUS\tATS")
	for _, app := range apps {
		score := "-"
		if app.ATS != nil {
			score = fmt.Sprintf("%d", app.ATS.OverallScore)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			app.ID, app.AppliedAt.Format(listDateLayout), app.Company(), app.Position(), app.Status, score)
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
