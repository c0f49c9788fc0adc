package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/garnizeh/curator/internal/crawl"
)

// ErrBadSource marks extraction failures the caller can correct (unreachable
// or malformed URL, empty text). Handlers map it to a 4xx, never a 5xx.
var ErrBadSource = errors.New("job description source unusable")

// Section is one heading-delimited block of a posting.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// JobPosting is the normalized output of extraction, before beautification.
type JobPosting struct {
	Title          string    `json:"title"`
	Sections       []Section `json:"sections"`
	RawText        string    `json:"raw_text"`
	SourcePlatform Platform  `json:"source_platform"`
}

// Extractor pulls a posting from a URL or raw text into the JobPosting shape.
type Extractor struct {
	fetcher *crawl.Fetcher
	logger  *slog.Logger
}

func NewExtractor(fetcher *crawl.Fetcher, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{fetcher: fetcher, logger: logger}
}

// FromURL fetches and extracts a posting. The platform picks the title
// cleanup strategy; body extraction is markdown conversion plus heading split
// for every platform.
func (e *Extractor) FromURL(ctx context.Context, rawURL string) (*JobPosting, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("%w: empty url", ErrBadSource)
	}

	platform := DetectPlatform(rawURL)

	title, text, err := e.fetcher.FetchText(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSource, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: page has no text content", ErrBadSource)
	}

	posting := &JobPosting{
		Title:          cleanTitle(title, platform),
		Sections:       splitSections(text),
		RawText:        text,
		SourcePlatform: platform,
	}
	return posting, nil
}

// FromText extracts a posting from raw pasted text.
func (e *Extractor) FromText(raw string) (*JobPosting, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty text", ErrBadSource)
	}

	sections := splitSections(raw)
	title := ""
	if len(sections) > 0 && sections[0].Heading != "" {
		title = sections[0].Heading
	}

	return &JobPosting{
		Title:          title,
		Sections:       sections,
		RawText:        raw,
		SourcePlatform: PlatformGeneric,
	}, nil
}

// cleanTitle strips the board-name suffixes ATS vendors append to <title>.
func cleanTitle(title string, platform Platform) string {
	title = strings.TrimSpace(title)
	switch platform {
	case PlatformGreenhouse, PlatformLever, PlatformAshby, PlatformWorkable, PlatformSmartRecruiters:
		for _, sep := range []string{" - ", " | ", " at ", " @ "} {
			if i := strings.Index(title, sep); i > 0 {
				title = strings.TrimSpace(title[:i])
				break
			}
		}
	}
	return title
}

// splitSections breaks markdown text into heading-delimited sections. Text
// before the first heading becomes a section with an empty heading.
func splitSections(text string) []Section {
	var out []Section
	var current Section

	flush := func() {
		current.Body = strings.TrimSpace(current.Body)
		if current.Heading != "" || current.Body != "" {
			out = append(out, current)
		}
		current = Section{}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			flush()
			current.Heading = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			continue
		}
		current.Body += line + "\n"
	}
	flush()

	return out
}
