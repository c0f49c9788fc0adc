package ats

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"

	"log/slog"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/garnizeh/curator/internal/config"
)

const ProviderGreenhouse = "greenhouse"

const maxBoardBody = 2 * 1024 * 1024

// Posting is one job pulled from a provider board, already normalized to
// markdown body text.
type Posting struct {
	ExternalID string
	Title      string
	URL        string
	Body       string
}

// Provider fetches the current postings for a board credential.
type Provider interface {
	Name() string
	FetchPostings(ctx context.Context, boardToken string) ([]Posting, error)
}

// greenhouseJob mirrors the Greenhouse public boards API response. Content
// arrives HTML-entity escaped.
type greenhouseJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	Content     string `json:"content,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseClient talks to the Greenhouse public boards API. The board
// token stored on the ATS connection selects the board.
type GreenhouseClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewGreenhouseClient(cfg config.ATSConfig, logger *slog.Logger) *GreenhouseClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &GreenhouseClient{
		baseURL: cfg.GreenhouseBaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

func (c *GreenhouseClient) Name() string { return ProviderGreenhouse }

// FetchPostings pulls every posting on the board, with full content.
func (c *GreenhouseClient) FetchPostings(ctx context.Context, boardToken string) ([]Posting, error) {
	apiURL := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", c.baseURL, boardToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "curator-ats/1.0")
	req.SetBasicAuth(boardToken, "")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenhouse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("greenhouse board %q not found", boardToken)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("greenhouse API status %d for board %q", resp.StatusCode, boardToken)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBoardBody))
	if err != nil {
		return nil, err
	}

	var gr greenhouseResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, fmt.Errorf("greenhouse parse: %w", err)
	}

	out := make([]Posting, 0, len(gr.Jobs))
	for _, j := range gr.Jobs {
		out = append(out, Posting{
			ExternalID: strconv.FormatInt(j.ID, 10),
			Title:      j.Title,
			URL:        j.AbsoluteURL,
			Body:       contentToMarkdown(j.Content),
		})
	}

	c.logger.Debug("greenhouse board fetched", "board", boardToken, "postings", len(out))
	return out, nil
}

// contentToMarkdown unescapes the board API's entity-encoded HTML and
// converts it to markdown. Conversion failures fall back to the unescaped
// text rather than losing the posting.
func contentToMarkdown(content string) string {
	raw := html.UnescapeString(content)
	md, err := htmltomarkdown.ConvertString(raw)
	if err != nil {
		return raw
	}
	return md
}
