package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"log/slog"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/garnizeh/curator/internal/config"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

const userAgent = "curator-crawler/1.0"

// Fetcher retrieves pages for the ingestion pipeline and the job-description
// extractor. Every fetch goes through one shared rate limiter and a body cap.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	maxBody int64
	logger  *slog.Logger
}

func NewFetcher(cfg config.CrawlConfig, client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.FetchTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 2
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	return &Fetcher{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		maxBody: maxBody,
		logger:  logger,
	}
}

// FetchText GETs a URL and returns its page title plus the body converted to
// markdown text. Non-2xx statuses are errors.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (title, text string, err error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return "", "", fmt.Errorf("read body: %w", err)
	}

	title = PageTitle(string(body))

	md, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		// html-to-markdown chokes on some pages; fall back to raw text nodes
		md = textContent(string(body))
	}
	return title, strings.TrimSpace(md), nil
}

// PageTitle pulls the <title> element out of an HTML document.
func PageTitle(doc string) string {
	node, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return title
}

// textContent walks the parsed HTML and concatenates visible text nodes.
func textContent(doc string) string {
	node, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "svg":
				return
			}
		}
		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				sb.WriteString(t)
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return strings.TrimSpace(sb.String())
}
