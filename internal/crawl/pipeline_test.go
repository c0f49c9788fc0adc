package crawl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/garnizeh/curator/internal/ai"
	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	companySources  map[string]string
	engineerSources map[string]string
	err             error
}

func (f *fakeExtractor) ExtractCompanyDNA(ctx context.Context, sources map[string]string) (*ai.CompanyDNA, *ai.TechnicalEnvironment, error) {
	f.companySources = sources
	if f.err != nil {
		return nil, nil, f.err
	}
	return &ai.CompanyDNA{Mission: "build widgets", Culture: "remote first"},
		&ai.TechnicalEnvironment{Languages: []string{"Go"}}, nil
}

func (f *fakeExtractor) ExtractEngineerDNA(ctx context.Context, sources map[string]string) (*ai.EngineerDNA, error) {
	f.engineerSources = sources
	if f.err != nil {
		return nil, f.err
	}
	return &ai.EngineerDNA{Summary: "backend generalist", Languages: []string{"Go"}}, nil
}

func pipelineFixture(t *testing.T, extractor Extractor) (*Pipeline, *mock.Mocks, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "dead") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`<html><head><title>Acme</title></head><body><p>We build widgets.</p></body></html>`))
	}))
	t.Cleanup(srv.Close)

	m := mock.NewMocks()
	p := NewPipeline(m.Companies, m.Engineers, testFetcher(), nil, extractor, nil)
	return p, m, srv
}

func TestRunCompanySuccess(t *testing.T) {
	fx := &fakeExtractor{}
	p, m, srv := pipelineFixture(t, fx)
	m.Companies.Put(&models.CompanyProfile{CompanyID: 1, Status: models.ProfileCrawling})

	err := p.RunCompany(context.Background(), 1, CompanySeeds{WebsiteURL: srv.URL + "/about"})
	require.NoError(t, err)

	assert.Contains(t, fx.companySources["website"], "We build widgets.")

	profile := m.Companies.Profiles[1]
	assert.Equal(t, models.ProfileQuestionnaire, profile.Status)
	require.NotNil(t, profile.CompanyDNA)
	assert.Contains(t, *profile.CompanyDNA, "build widgets")
	require.NotNil(t, profile.TechnicalEnvironment)
	assert.Contains(t, *profile.TechnicalEnvironment, "Go")
	assert.Empty(t, m.Companies.CrawlErrors)
}

func TestRunCompanyAllSourcesDead(t *testing.T) {
	p, m, srv := pipelineFixture(t, &fakeExtractor{})
	m.Companies.Put(&models.CompanyProfile{CompanyID: 1, Status: models.ProfileCrawling})

	// no website seed and a dead linkedin page; the run records the error
	// instead of failing the job
	err := p.RunCompany(context.Background(), 1, CompanySeeds{LinkedInURL: srv.URL + "/dead"})
	require.NoError(t, err)

	require.Len(t, m.Companies.CrawlErrors, 1)
	assert.Contains(t, m.Companies.CrawlErrors[0], "no source could be ingested")
	// profile keeps the crawling status with the error attached
	assert.Equal(t, models.ProfileCrawling, m.Companies.Profiles[1].Status)
	require.NotNil(t, m.Companies.Profiles[1].CrawlError)
}

func TestRunCompanyPartialSourceFailure(t *testing.T) {
	fx := &fakeExtractor{}
	p, m, srv := pipelineFixture(t, fx)
	m.Companies.Put(&models.CompanyProfile{CompanyID: 1, Status: models.ProfileCrawling})

	err := p.RunCompany(context.Background(), 1, CompanySeeds{
		WebsiteURL:  srv.URL + "/about",
		LinkedInURL: srv.URL + "/dead",
	})
	require.NoError(t, err)

	// the live source carried the run
	assert.Contains(t, fx.companySources, "website")
	assert.NotContains(t, fx.companySources, "linkedin")
	assert.Equal(t, models.ProfileQuestionnaire, m.Companies.Profiles[1].Status)
}

func TestRunCompanyExtractionFailure(t *testing.T) {
	fx := &fakeExtractor{err: errors.New("model offline")}
	p, m, srv := pipelineFixture(t, fx)
	m.Companies.Put(&models.CompanyProfile{CompanyID: 1, Status: models.ProfileCrawling})

	err := p.RunCompany(context.Background(), 1, CompanySeeds{WebsiteURL: srv.URL})
	require.Error(t, err)

	require.Len(t, m.Companies.CrawlErrors, 1)
	assert.Contains(t, m.Companies.CrawlErrors[0], "extraction")
}

func TestRunEngineerSuccess(t *testing.T) {
	fx := &fakeExtractor{}
	p, m, srv := pipelineFixture(t, fx)
	m.Engineers.Put(&models.EngineerProfile{EngineerID: 7, Status: models.ProfileCrawling})

	err := p.RunEngineer(context.Background(), 7, EngineerSeeds{
		GitHubURL:    srv.URL + "/gh",
		PortfolioURL: srv.URL + "/site",
	})
	require.NoError(t, err)

	assert.Contains(t, fx.engineerSources, "github")
	assert.Contains(t, fx.engineerSources, "portfolio")

	profile := m.Engineers.Profiles[7]
	assert.Equal(t, models.ProfileQuestionnaire, profile.Status)
	require.NotNil(t, profile.EngineerDNA)
	assert.Contains(t, *profile.EngineerDNA, "backend generalist")
	require.NotNil(t, profile.CrawlData)
}

func TestRunEngineerAllSourcesDead(t *testing.T) {
	p, m, srv := pipelineFixture(t, &fakeExtractor{})
	m.Engineers.Put(&models.EngineerProfile{EngineerID: 7, Status: models.ProfileCrawling})

	err := p.RunEngineer(context.Background(), 7, EngineerSeeds{GitHubURL: srv.URL + "/dead"})
	require.NoError(t, err)

	require.Len(t, m.Engineers.CrawlErrors, 1)
	assert.Contains(t, m.Engineers.CrawlErrors[0], "no source could be ingested")
}
