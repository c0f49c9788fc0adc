package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://boards.greenhouse.io/acme/jobs/123", PlatformGreenhouse},
		{"https://job-boards.greenhouse.io/acme/jobs/123", PlatformGreenhouse},
		{"https://jobs.lever.co/acme/abc-def", PlatformLever},
		{"https://jobs.ashbyhq.com/acme/abc", PlatformAshby},
		{"https://apply.workable.com/acme/j/ABC123/", PlatformWorkable},
		{"https://jobs.smartrecruiters.com/Acme/743999", PlatformSmartRecruiters},
		{"HTTPS://BOARDS.GREENHOUSE.IO/ACME/JOBS/1", PlatformGreenhouse},
		{"https://acme.com/careers/backend-engineer", PlatformGeneric},
		{"", PlatformGeneric},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DetectPlatform(tc.url), "url %q", tc.url)
	}
}

func TestFromTextSplitsSections(t *testing.T) {
	e := NewExtractor(nil, nil)

	raw := `# Backend Engineer

Join our platform team.

## Requirements

- Go
- SQL

## Benefits

Remote first.`

	p, err := e.FromText(raw)
	require.NoError(t, err)

	assert.Equal(t, "Backend Engineer", p.Title)
	assert.Equal(t, PlatformGeneric, p.SourcePlatform)
	assert.Equal(t, raw, p.RawText)

	require.Len(t, p.Sections, 3)
	assert.Equal(t, "Backend Engineer", p.Sections[0].Heading)
	assert.Equal(t, "Join our platform team.", p.Sections[0].Body)
	assert.Equal(t, "Requirements", p.Sections[1].Heading)
	assert.Contains(t, p.Sections[1].Body, "- Go")
	assert.Equal(t, "Benefits", p.Sections[2].Heading)
}

func TestFromTextWithoutHeadings(t *testing.T) {
	e := NewExtractor(nil, nil)

	p, err := e.FromText("We are hiring a backend engineer.\nApply today.")
	require.NoError(t, err)

	assert.Empty(t, p.Title)
	require.Len(t, p.Sections, 1)
	assert.Empty(t, p.Sections[0].Heading)
	assert.Contains(t, p.Sections[0].Body, "We are hiring")
}

func TestFromTextEmpty(t *testing.T) {
	e := NewExtractor(nil, nil)

	_, err := e.FromText("   \n  ")
	assert.ErrorIs(t, err, ErrBadSource)
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		title    string
		platform Platform
		want     string
	}{
		{"Backend Engineer - Acme Inc", PlatformGreenhouse, "Backend Engineer"},
		{"Backend Engineer | Acme", PlatformLever, "Backend Engineer"},
		{"Backend Engineer at Acme", PlatformAshby, "Backend Engineer"},
		{"Backend Engineer @ Acme", PlatformWorkable, "Backend Engineer"},
		{"  Backend Engineer  ", PlatformGreenhouse, "Backend Engineer"},
		// generic pages keep the full title, suffix and all
		{"Backend Engineer - Acme Inc", PlatformGeneric, "Backend Engineer - Acme Inc"},
		{"", PlatformGreenhouse, ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, cleanTitle(tc.title, tc.platform), "title %q on %s", tc.title, tc.platform)
	}
}

func TestSplitSectionsBodyBeforeFirstHeading(t *testing.T) {
	sections := splitSections("intro text\n\n# First\nbody")
	require.Len(t, sections, 2)
	assert.Empty(t, sections[0].Heading)
	assert.Equal(t, "intro text", sections[0].Body)
	assert.Equal(t, "First", sections[1].Heading)
}
