package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spigell/jobtrail/internal/notify"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Work with notification channels",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test message through every configured channel",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		logger, config := setup()

		notifier := newNotifier(config.Notify, logger)
		logger.Info("sending test notification", zap.Int("notifiers", notifier.Len()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		msg := notify.Message{
			Subject: fmt.Sprintf("%s test notification", app),
			Body:    fmt.Sprintf("This is a test message from %s %s sent at %s.", app, version, time.Now().Format(time.RFC1123)),
		}
		if err := notifier.Notify(ctx, msg); err != nil {
			logger.Fatal("sending test notification", zap.Error(err))
		}
		logger.Info("test notification sent")
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}
