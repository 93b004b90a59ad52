package jobs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const maxPageBytes = 5 << 20

var noiseSelectors = "nav, footer, header, script, style, noscript, form, .cookie-banner, .sidebar, .ads, .advertisement"

var contentSelectors = []string{
	".job-description",
	"#job-description",
	".description",
	"[data-testid=jobDescriptionText]",
	"main",
	"article",
}

// Fetcher downloads job posting pages.
type Fetcher struct {
	client    *http.Client
	logger    *zap.Logger
	userAgent string
}

// NewFetcher returns a fetcher. A nil client falls back to http.DefaultClient.
func NewFetcher(client *http.Client, userAgent string, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, logger: logger, userAgent: userAgent}
}

// Fetch downloads url and turns the page into a Posting.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Posting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	f.logger.Debug("fetching job posting", zap.String("url", url))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch job posting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch job posting: bad status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read job posting: %w", err)
	}

	posting, err := ParseHTML(string(body))
	if err != nil {
		return nil, err
	}
	posting.URL = url

	f.logger.Info("job posting fetched",
		zap.String("url", url),
		zap.String("title", posting.Title),
		zap.Int("description_length", len(posting.Description)),
	)

	return posting, posting.Validate()
}

// ParseHTML extracts the title and main description text from a job page.
func ParseHTML(html string) (*Posting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	posting := &Posting{
		Title:   cleanText(doc.Find("h1").First().Text()),
		Company: metaContent(doc, "og:site_name"),
	}
	if posting.Title == "" {
		posting.Title = cleanText(doc.Find("title").First().Text())
	}

	doc.Find(noiseSelectors).Remove()

	var content *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	posting.Description = blockText(content)
	return posting, nil
}

func metaContent(doc *goquery.Document, property string) string {
	value, _ := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).Attr("content")
	return strings.TrimSpace(value)
}

// blockText keeps paragraph boundaries so the readability rules still see them.
func blockText(sel *goquery.Selection) string {
	var blocks []string
	sel.Find("p, li, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		return cleanText(sel.Text())
	}
	return strings.Join(blocks, "\n")
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
