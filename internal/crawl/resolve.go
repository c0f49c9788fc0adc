package crawl

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"log/slog"
)

// Candidate top-level domains in preference order.
var candidateTLDs = []string{".com", ".io", ".co", ".dev", ".ai", ".org"}

var linkedinSlugRe = regexp.MustCompile(`linkedin\.com/company/([^/?#]+)`)

// Resolver guesses a company's website from its LinkedIn slug by probing
// candidate domains with lightweight existence checks.
type Resolver struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger

	// baseURL overrides the probe target for tests; "" probes real domains.
	baseURL func(domain string) string
}

func NewResolver(probeTimeout time.Duration, client *http.Client, logger *slog.Logger) *Resolver {
	if probeTimeout <= 0 {
		probeTimeout = 3 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		client:  client,
		timeout: probeTimeout,
		logger:  logger,
		baseURL: func(domain string) string { return "https://" + domain },
	}
}

// SlugFromLinkedInURL extracts the company slug from a LinkedIn company page URL.
func SlugFromLinkedInURL(rawURL string) (string, error) {
	m := linkedinSlugRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", fmt.Errorf("not a linkedin company url: %s", rawURL)
	}
	return strings.ToLower(m[1]), nil
}

// ResolveDomain probes slug+tld for each candidate TLD in order and returns
// the URL of the first domain that answers 2xx or 3xx. A HEAD request with a
// short timeout keeps probing cheap.
func (r *Resolver) ResolveDomain(ctx context.Context, slug string) (string, error) {
	slug = strings.TrimSpace(strings.ToLower(slug))
	if slug == "" {
		return "", fmt.Errorf("empty slug")
	}

	for _, tld := range candidateTLDs {
		u := r.baseURL(slug + tld)
		ok, err := r.probe(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.logger.Debug("domain probe failed", "url", u, "err", err)
			continue
		}
		if ok {
			return u, nil
		}
	}

	return "", fmt.Errorf("no live domain found for slug %q", slug)
}

func (r *Resolver) probe(ctx context.Context, u string) (bool, error) {
	ctxReq, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctxReq, http.MethodHead, u, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", userAgent)

	// do not follow redirects; a 3xx answer already proves the domain lives
	client := *r.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400, nil
}
