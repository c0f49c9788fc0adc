package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"log/slog"

	"github.com/garnizeh/curator/internal/ai"
	"github.com/garnizeh/curator/pkg/repository"
)

// Extractor is the slice of the AI engine the pipeline needs. Tests inject a
// deterministic fake.
type Extractor interface {
	ExtractCompanyDNA(ctx context.Context, sources map[string]string) (*ai.CompanyDNA, *ai.TechnicalEnvironment, error)
	ExtractEngineerDNA(ctx context.Context, sources map[string]string) (*ai.EngineerDNA, error)
}

// CompanySeeds are the signals a company crawl starts from. At least one must
// be set.
type CompanySeeds struct {
	WebsiteURL  string `json:"website_url,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

func (s CompanySeeds) Empty() bool {
	return s.WebsiteURL == "" && s.LinkedInURL == ""
}

// EngineerSeeds are the signals an engineer crawl starts from.
type EngineerSeeds struct {
	GitHubURL    string `json:"github_url,omitempty"`
	PortfolioURL string `json:"portfolio_url,omitempty"`
}

func (s EngineerSeeds) Empty() bool {
	return s.GitHubURL == "" && s.PortfolioURL == ""
}

// Pipeline runs the ingestion crawl for company and engineer profiles. Each
// source is independently failable; a run only fails outright when no source
// yields anything.
type Pipeline struct {
	companies repository.CompanyProfileRepo
	engineers repository.EngineerProfileRepo
	fetcher   *Fetcher
	resolver  *Resolver
	extractor Extractor
	logger    *slog.Logger
}

func NewPipeline(
	companies repository.CompanyProfileRepo,
	engineers repository.EngineerProfileRepo,
	fetcher *Fetcher,
	resolver *Resolver,
	extractor Extractor,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		companies: companies,
		engineers: engineers,
		fetcher:   fetcher,
		resolver:  resolver,
		extractor: extractor,
		logger:    logger,
	}
}

// RunCompany executes one company ingestion run. The profile is expected to
// be in `crawling` already (the trigger did the compare-and-swap); this owns
// the outcome: DNA + questionnaire on success, crawl_error on failure.
func (p *Pipeline) RunCompany(ctx context.Context, companyID int64, seeds CompanySeeds) error {
	sources := map[string]string{}
	var failures []string

	websiteURL := seeds.WebsiteURL
	if websiteURL == "" && seeds.LinkedInURL != "" {
		slug, err := SlugFromLinkedInURL(seeds.LinkedInURL)
		if err != nil {
			failures = append(failures, err.Error())
		} else if resolved, err := p.resolver.ResolveDomain(ctx, slug); err != nil {
			failures = append(failures, fmt.Sprintf("resolve %s: %v", slug, err))
		} else {
			websiteURL = resolved
		}
	}

	if websiteURL != "" {
		if _, text, err := p.fetcher.FetchText(ctx, websiteURL); err != nil {
			p.logger.Warn("company source fetch failed", "company_id", companyID, "url", websiteURL, "err", err)
			failures = append(failures, fmt.Sprintf("website: %v", err))
		} else if text != "" {
			sources["website"] = text
		}
	}

	if seeds.LinkedInURL != "" {
		if _, text, err := p.fetcher.FetchText(ctx, seeds.LinkedInURL); err != nil {
			p.logger.Warn("company source fetch failed", "company_id", companyID, "url", seeds.LinkedInURL, "err", err)
			failures = append(failures, fmt.Sprintf("linkedin: %v", err))
		} else if text != "" {
			sources["linkedin"] = text
		}
	}

	if len(sources) == 0 {
		msg := "no source could be ingested"
		if len(failures) > 0 {
			msg = msg + ": " + strings.Join(failures, "; ")
		}
		if err := p.companies.SetCompanyCrawlError(ctx, companyID, msg); err != nil {
			return fmt.Errorf("record crawl error: %w", err)
		}
		// outcome is persisted on the profile; retrying the job won't help
		return nil
	}

	dna, techEnv, err := p.extractor.ExtractCompanyDNA(ctx, sources)
	if err != nil {
		if perr := p.companies.SetCompanyCrawlError(ctx, companyID, fmt.Sprintf("extraction: %v", err)); perr != nil {
			p.logger.Error("record crawl error", "company_id", companyID, "err", perr)
		}
		return fmt.Errorf("extract company dna: %w", err)
	}

	dnaJSON, err := json.Marshal(dna)
	if err != nil {
		return fmt.Errorf("marshal dna: %w", err)
	}
	techJSON, err := json.Marshal(techEnv)
	if err != nil {
		return fmt.Errorf("marshal technical environment: %w", err)
	}

	ok, err := p.companies.SetCompanyDNA(ctx, companyID, string(dnaJSON), string(techJSON))
	if err != nil {
		return fmt.Errorf("persist dna: %w", err)
	}
	if !ok {
		p.logger.Warn("company left crawling state mid-run; dna not applied", "company_id", companyID)
	}

	return nil
}

// RunEngineer executes one engineer ingestion run.
func (p *Pipeline) RunEngineer(ctx context.Context, engineerID int64, seeds EngineerSeeds) error {
	sources := map[string]string{}
	var failures []string

	fetch := func(name, u string) {
		if u == "" {
			return
		}
		if _, text, err := p.fetcher.FetchText(ctx, u); err != nil {
			p.logger.Warn("engineer source fetch failed", "engineer_id", engineerID, "url", u, "err", err)
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
		} else if text != "" {
			sources[name] = text
		}
	}

	fetch("github", seeds.GitHubURL)
	fetch("portfolio", seeds.PortfolioURL)

	if len(sources) == 0 {
		msg := "no source could be ingested"
		if len(failures) > 0 {
			msg = msg + ": " + strings.Join(failures, "; ")
		}
		if err := p.engineers.SetEngineerCrawlError(ctx, engineerID, msg); err != nil {
			return fmt.Errorf("record crawl error: %w", err)
		}
		return nil
	}

	dna, err := p.extractor.ExtractEngineerDNA(ctx, sources)
	if err != nil {
		if perr := p.engineers.SetEngineerCrawlError(ctx, engineerID, fmt.Sprintf("extraction: %v", err)); perr != nil {
			p.logger.Error("record crawl error", "engineer_id", engineerID, "err", perr)
		}
		return fmt.Errorf("extract engineer dna: %w", err)
	}

	crawlData, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshal crawl data: %w", err)
	}
	dnaJSON, err := json.Marshal(dna)
	if err != nil {
		return fmt.Errorf("marshal dna: %w", err)
	}

	ok, err := p.engineers.SetEngineerDNA(ctx, engineerID, string(crawlData), string(dnaJSON))
	if err != nil {
		return fmt.Errorf("persist dna: %w", err)
	}
	if !ok {
		p.logger.Warn("engineer left crawling state mid-run; dna not applied", "engineer_id", engineerID)
	}

	return nil
}
