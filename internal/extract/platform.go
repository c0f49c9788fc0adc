package extract

import "strings"

// Platform identifies the posting platform so extraction can pick a strategy.
type Platform string

const (
	PlatformGreenhouse      Platform = "greenhouse"
	PlatformLever           Platform = "lever"
	PlatformAshby           Platform = "ashby"
	PlatformWorkable        Platform = "workable"
	PlatformSmartRecruiters Platform = "smartrecruiters"
	PlatformGeneric         Platform = "generic"
)

// host fragments per platform, checked in order
var platformPatterns = []struct {
	platform Platform
	patterns []string
}{
	{PlatformGreenhouse, []string{"boards.greenhouse.io", "greenhouse.io", "job-boards.greenhouse.io"}},
	{PlatformLever, []string{"jobs.lever.co", "lever.co"}},
	{PlatformAshby, []string{"jobs.ashbyhq.com", "ashbyhq.com"}},
	{PlatformWorkable, []string{"apply.workable.com", "workable.com"}},
	{PlatformSmartRecruiters, []string{"jobs.smartrecruiters.com", "smartrecruiters.com"}},
}

// DetectPlatform classifies a posting URL by host pattern matching. Unknown
// hosts fall back to generic HTML extraction.
func DetectPlatform(rawURL string) Platform {
	u := strings.ToLower(rawURL)
	for _, entry := range platformPatterns {
		for _, p := range entry.patterns {
			if strings.Contains(u, p) {
				return entry.platform
			}
		}
	}
	return PlatformGeneric
}
