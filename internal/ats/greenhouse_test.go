package ats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/curator/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boardFixture = `{
	"jobs": [
		{
			"id": 4044444004,
			"title": "Staff Software Engineer",
			"absolute_url": "https://boards.greenhouse.io/acme/jobs/4044444004",
			"content": "&lt;h1&gt;About the role&lt;/h1&gt;&lt;p&gt;Build the matching pipeline.&lt;/p&gt;",
			"updated_at": "2026-08-01T10:00:00-04:00"
		},
		{
			"id": 4044444005,
			"title": "Engineering Manager",
			"absolute_url": "https://boards.greenhouse.io/acme/jobs/4044444005",
			"content": "&lt;p&gt;Lead a team of eight.&lt;/p&gt;",
			"updated_at": "2026-08-02T10:00:00-04:00"
		}
	]
}`

func newBoardServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var got http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = *r
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func testClient(baseURL string) *GreenhouseClient {
	return NewGreenhouseClient(config.ATSConfig{GreenhouseBaseURL: baseURL, Timeout: 5 * time.Second}, nil)
}

func TestFetchPostings(t *testing.T) {
	srv, got := newBoardServer(t, http.StatusOK, boardFixture)
	c := testClient(srv.URL)

	postings, err := c.FetchPostings(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, postings, 2)

	assert.Equal(t, "/v1/boards/acme/jobs", got.URL.Path)
	assert.Equal(t, "true", got.URL.Query().Get("content"))
	user, _, ok := got.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "acme", user)

	p := postings[0]
	assert.Equal(t, "4044444004", p.ExternalID)
	assert.Equal(t, "Staff Software Engineer", p.Title)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/4044444004", p.URL)
	// escaped HTML comes back as markdown
	assert.Contains(t, p.Body, "# About the role")
	assert.Contains(t, p.Body, "Build the matching pipeline.")
	assert.NotContains(t, p.Body, "&lt;")
	assert.NotContains(t, p.Body, "<h1>")
}

func TestFetchPostingsBoardNotFound(t *testing.T) {
	srv, _ := newBoardServer(t, http.StatusNotFound, `{"error":"not found"}`)
	c := testClient(srv.URL)

	_, err := c.FetchPostings(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFetchPostingsServerError(t *testing.T) {
	srv, _ := newBoardServer(t, http.StatusInternalServerError, "")
	c := testClient(srv.URL)

	_, err := c.FetchPostings(context.Background(), "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestFetchPostingsBadJSON(t *testing.T) {
	srv, _ := newBoardServer(t, http.StatusOK, "not json")
	c := testClient(srv.URL)

	_, err := c.FetchPostings(context.Background(), "acme")
	require.Error(t, err)
}

func TestContentToMarkdownFallback(t *testing.T) {
	// plain text survives conversion untouched
	out := contentToMarkdown("plain text posting")
	assert.Equal(t, "plain text posting", strings.TrimSpace(out))
}
