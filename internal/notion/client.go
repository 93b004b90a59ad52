package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiURL        = "https://api.notion.com"
	notionVersion = "2022-06-28"
	contentType   = "application/json"
	userAgent     = "spigell/jobtrail"

	// Notion allows about three requests per second per integration.
	defaultRequestsPerSecond = 3
)

var ErrNotConfigured = errors.New("notion is not configured (set notion.token and notion.database-id)")

// APIError is the error object returned by the Notion API.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

type Client struct {
	token      string
	databaseID string
	logger     *zap.Logger
	limiter    *rate.Limiter
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(logger *zap.Logger, token, databaseID string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:      strings.TrimSpace(token),
		databaseID: strings.TrimSpace(databaseID),
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), 1),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		UserAgent: userAgent,
		APIURL:    apiURL,
	}
}

// Configured reports whether both the token and the database id are set.
func (c *Client) Configured() bool {
	return c != nil && c.token != "" && c.databaseID != ""
}

// SetRateLimit replaces the request limiter. A non-positive value disables limiting.
func (c *Client) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
}

func (c *Client) do(ctx context.Context, method, path string, payload, target any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal notion request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.APIURL, "/")+path, body)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	c.logger.Debug("make request", zap.String("method", method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		if apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode notion response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("User-Agent", c.UserAgent)
}
