package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobtrail/internal/utils"
)

var _ Notifier = (*SlackNotifier)(nil)

// Slack limits a section text block to 3000 characters.
const slackTextLimit = 3000

// SlackNotifier posts messages to a channel via an Incoming Webhook.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
	wait       func(ctx context.Context, d time.Duration) error
}

func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *zap.Logger) *SlackNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		wait:       utils.WaitFor,
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

// Notify posts msg once and retries a single time when Slack rate limits the
// webhook.
func (s *SlackNotifier) Notify(ctx context.Context, msg Message) error {
	if s.webhookURL == "" {
		return errors.New("slack webhook url is not configured")
	}

	body, err := json.Marshal(buildPayload(msg))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}

	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", zap.Int("retry_after_secs", retryAfter))
		if err := s.wait(ctx, time.Duration(retryAfter)*time.Second); err != nil {
			return err
		}

		status, _, err = s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack message sent", zap.String("subject", msg.Subject), zap.Bool("retried", true))
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack message sent", zap.String("subject", msg.Subject))
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, body []byte) (int, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, secs, nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style,omitempty"`
}

func buildPayload(msg Message) slackPayload {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: utils.TruncateForLog(msg.Subject, 150)},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "```" + utils.TruncateForLog(msg.Body, slackTextLimit-6) + "```"},
		},
	}

	if msg.URL != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{{
				Type:  "button",
				Text:  slackText{Type: "plain_text", Text: "Open Posting"},
				URL:   msg.URL,
				Style: "primary",
			}},
		})
	}

	blocks = append(blocks, slackBlock{Type: "divider"})
	return slackPayload{Text: msg.Subject, Blocks: blocks}
}
