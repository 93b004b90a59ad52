package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobtrail"

	defaultEnvFile     = "config.env"
	defaultHistoryFile = "job_application_history.json"
)

type Config struct {
	MinScore    int           `mapstructure:"min-score" json:"min-score" validate:"gte=0,lte=100"`
	Tone        string        `mapstructure:"tone" json:"tone"`
	OutputDir   string        `mapstructure:"output-dir" json:"output-dir"`
	HistoryFile string        `mapstructure:"history-file" json:"history-file" validate:"required"`
	UserAgent   string        `mapstructure:"user-agent" json:"user-agent"`
	Log         *LogConfig    `mapstructure:"log" json:"log"`
	AI          *AIConfig     `mapstructure:"ai" json:"ai"`
	Notion      *NotionConfig `mapstructure:"notion" json:"notion"`
	Notify      *NotifyConfig `mapstructure:"notify" json:"notify"`
}

type LogConfig struct {
	Level string `mapstructure:"level" json:"level" validate:"omitempty,oneof=debug info warn error"`
	File  string `mapstructure:"file" json:"file"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled" json:"enabled"`
	Provider string        `mapstructure:"provider" json:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini" json:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key" json:"-"`
	APIKeyFile   string `mapstructure:"api-key-file" json:"api-key-file"`
	Model        string `mapstructure:"model" json:"model"`
	MaxRetries   int    `mapstructure:"max-retries" json:"max-retries" validate:"gte=0"`
	MaxLogLength int    `mapstructure:"max-log-length" json:"max-log-length" validate:"gte=0"`
}

type NotionConfig struct {
	Token      string  `mapstructure:"token" json:"-"`
	TokenFile  string  `mapstructure:"token-file" json:"token-file"`
	DatabaseID string  `mapstructure:"database-id" json:"database-id"`
	RateLimit  float64 `mapstructure:"rate-limit" json:"rate-limit" validate:"gte=0"`
}

type NotifyConfig struct {
	Slack *SlackConfig `mapstructure:"slack" json:"slack"`
	Email *EmailConfig `mapstructure:"email" json:"email"`
}

type SlackConfig struct {
	WebhookURL  string `mapstructure:"webhook-url" json:"-"`
	WebhookFile string `mapstructure:"webhook-file" json:"webhook-file"`
}

type EmailConfig struct {
	Host         string   `mapstructure:"host" json:"host"`
	Port         string   `mapstructure:"port" json:"port" validate:"omitempty,numeric"`
	From         string   `mapstructure:"from" json:"from" validate:"omitempty,email"`
	Password     string   `mapstructure:"password" json:"-"`
	PasswordFile string   `mapstructure:"password-file" json:"password-file"`
	To           []string `mapstructure:"to" json:"to" validate:"omitempty,dive,email"`
}

var (
	// Used for flags.
	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobtrail scores CVs against job postings, tailors them and tracks the applications",
	}

	validate = validator.New()
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"ai.gemini.api-key":        "GEMINI_API_KEY",
		"notion.token":             "NOTION_TOKEN",
		"notion.database-id":       "NOTION_DATABASE_ID",
		"notify.email.password":    "EMAIL_PASSWORD",
		"notify.slack.webhook-url": "SLACK_WEBHOOK_URL",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("min-score", 70)
	viper.SetDefault("tone", "Professional")
	viper.SetDefault("output-dir", "applications")
	viper.SetDefault("history-file", defaultHistoryFile)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("notion.rate-limit", 3)
	viper.SetDefault("notify.email.port", "587")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobtrail.yaml in current directory)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "a dotenv file with secrets (default is config.env in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("history-file", "", "application history file")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("history-file", rootCmd.PersistentFlags().Lookup("history-file"))
}

func initConfig() {
	if err := loadEnvFile(envFile); err != nil {
		log.Fatal(err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every setting has a default, so only an explicitly requested or broken config is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

// loadEnvFile exports variables from a dotenv file. A missing default file is not an error.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading env file: %w", err)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %q: %w", path, err)
	}
	return nil
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	if err := validate.Struct(config); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}
