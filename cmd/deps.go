package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spigell/jobtrail/internal/ai"
	"github.com/spigell/jobtrail/internal/ai/gemini"
	"github.com/spigell/jobtrail/internal/history"
	"github.com/spigell/jobtrail/internal/jobs"
	"github.com/spigell/jobtrail/internal/logger"
	"github.com/spigell/jobtrail/internal/notify"
	"github.com/spigell/jobtrail/internal/notion"
	"github.com/spigell/jobtrail/internal/secrets"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const fetchTimeout = 30 * time.Second

// setup builds the logger and the config shared by every command.
func setup() (*zap.Logger, *Config) {
	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}

	opts := logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug")}
	if config.Log != nil {
		opts.Level = config.Log.Level
		opts.File = config.Log.File
	}

	l, err := logger.New(opts)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	l.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return l, config
}

func readText(path, what string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%s file is required", what)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", what, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%s file %q is empty", what, path)
	}
	return text, nil
}

// loadPosting reads the posting from --job or downloads it from --job-url and
// applies the --title and --company overrides. It returns an empty posting
// when none of them is given.
func loadPosting(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (jobs.Posting, error) {
	var posting jobs.Posting

	jobFile, _ := cmd.Flags().GetString("job")
	jobURL, _ := cmd.Flags().GetString("job-url")

	switch {
	case jobFile != "" && jobURL != "":
		return posting, errors.New("--job and --job-url are mutually exclusive")
	case jobFile != "":
		p, err := jobs.LoadFile(jobFile)
		if err != nil {
			return posting, err
		}
		posting = *p
	case jobURL != "":
		fetcher := jobs.NewFetcher(&http.Client{Timeout: fetchTimeout}, config.UserAgent, logger)
		p, err := fetcher.Fetch(ctx, jobURL)
		if err != nil {
			return posting, err
		}
		posting = *p
	}

	if title, _ := cmd.Flags().GetString("title"); title != "" {
		posting.Title = title
	}
	if company, _ := cmd.Flags().GetString("company"); company != "" {
		posting.Company = company
	}

	return posting, nil
}

func addPostingFlags(cmd *cobra.Command) {
	cmd.Flags().String("job", "", "job posting file (yaml, json or plain text description)")
	cmd.Flags().String("job-url", "", "job posting page to download")
	cmd.Flags().String("title", "", "job title, overrides the posting")
	cmd.Flags().String("company", "", "company name, overrides the posting")
}

// newWriter returns nil without an error when ai is disabled.
func newWriter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Writer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	gc := cfg.Gemini
	if gc == nil {
		gc = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: gc.APIKey,
		File:  gc.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:     apiKey,
		Model:      gc.Model,
		MaxRetries: gc.MaxRetries,
	}, logger)
	if err != nil {
		return nil, err
	}

	return gemini.NewWriter(generator, logger.With(zap.String("provider", "gemini")), gc.MaxLogLength), nil
}

// newNotion always returns a client. Without credentials it answers every
// call with notion.ErrNotConfigured.
func newNotion(cfg *NotionConfig, logger *zap.Logger) *notion.Client {
	if cfg == nil {
		cfg = &NotionConfig{}
	}

	token, err := secrets.Load(secrets.Source{
		Name:  "notion token",
		Value: cfg.Token,
		File:  cfg.TokenFile,
		Env:   "NOTION_TOKEN",
	})
	if err != nil {
		logger.Debug("notion is disabled", zap.Error(err))
		token = ""
	}

	client := notion.New(logger, token, cfg.DatabaseID)
	client.SetRateLimit(cfg.RateLimit)
	return client
}

// newNotifier always includes the log notifier and adds Slack and e-mail when configured.
func newNotifier(cfg *NotifyConfig, logger *zap.Logger) *notify.Multi {
	notifiers := []notify.Notifier{notify.NewLogNotifier(logger)}
	if cfg == nil {
		return notify.NewMulti(logger, notifiers...)
	}

	if cfg.Slack != nil {
		webhook, err := secrets.Load(secrets.Source{
			Name:  "slack webhook",
			Value: cfg.Slack.WebhookURL,
			File:  cfg.Slack.WebhookFile,
			Env:   "SLACK_WEBHOOK_URL",
		})
		if err != nil {
			logger.Warn("skipping slack notifier", zap.Error(err))
		} else {
			notifiers = append(notifiers, notify.NewSlackNotifier(webhook, nil, logger))
		}
	}

	if e := cfg.Email; e != nil && e.Host != "" {
		password, err := secrets.Load(secrets.Source{
			Name:  "email password",
			Value: e.Password,
			File:  e.PasswordFile,
			Env:   "EMAIL_PASSWORD",
		})
		if err != nil {
			logger.Debug("sending email without authentication", zap.Error(err))
			password = ""
		}

		emailNotifier, err := notify.NewEmailNotifier(notify.EmailConfig{
			Host:     e.Host,
			Port:     e.Port,
			From:     e.From,
			Password: password,
			To:       e.To,
		}, logger)
		if err != nil {
			logger.Warn("skipping email notifier", zap.Error(err))
		} else {
			notifiers = append(notifiers, emailNotifier)
		}
	}

	return notify.NewMulti(logger, notifiers...)
}

func openHistory(config *Config, logger *zap.Logger) (*history.Tracker, error) {
	path := strings.TrimSpace(config.HistoryFile)
	if path == "" {
		path = defaultHistoryFile
	}
	return history.Open(path, logger)
}
