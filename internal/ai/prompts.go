package ai

// Prompt templates rendered via ollama.RenderTemplate. Every prompt demands a
// single JSON object so the response can be extracted and schema-validated.

const companyDNAPrompt = `You are analyzing a company to build a structured hiring profile.

Source material, one block per source:
{{range $name, $text := .Sources}}
### {{$name}}
{{$text}}
{{end}}

Respond with a single JSON object and nothing else:
{
  "dna": {
    "mission": "what the company exists to do",
    "product": "what it builds and for whom",
    "culture": "how the team appears to work",
    "highlights": ["notable facts"]
  },
  "technical_environment": {
    "languages": ["programming languages in use"],
    "stack": ["frameworks, infrastructure, tooling"],
    "practices": ["engineering practices observed"]
  }
}`

const engineerDNAPrompt = `You are analyzing an engineer's public footprint to build a structured profile.

Source material, one block per source:
{{range $name, $text := .Sources}}
### {{$name}}
{{$text}}
{{end}}

Respond with a single JSON object and nothing else:
{
  "summary": "two or three sentences on who this engineer is",
  "languages": ["programming languages"],
  "domains": ["problem domains worked in"],
  "open_source": "open source involvement, if any",
  "highlights": ["notable projects or contributions"]
}`

const companySummaryPrompt = `Write a concise narrative hiring summary for this company, blending the
extracted profile with the questionnaire answers. Plain prose, no JSON,
at most three paragraphs.

Company DNA:
{{.DNA}}

Technical environment:
{{.TechnicalEnvironment}}

Culture answers:
{{.Culture}}

Mission answers:
{{.Mission}}

Team dynamics answers:
{{.TeamDynamics}}`

const engineerSummaryPrompt = `Write a concise narrative summary of this engineer for hiring managers,
blending the extracted profile with the questionnaire answers. Plain prose,
no JSON, at most three paragraphs.

Engineer DNA:
{{.DNA}}

Work preferences:
{{.WorkPreferences}}

Career growth:
{{.CareerGrowth}}

Strengths:
{{.Strengths}}

Growth areas:
{{.GrowthAreas}}

Deal breakers:
{{.DealBreakers}}`

const beautifyJDPrompt = `Normalize this job posting into a structured shape. Split requirements into
essential versus nice_to_have; add a short caveat where a requirement is
softer than stated.

Title hint: {{.Title}}

Posting text:
{{.RawText}}

Respond with a single JSON object and nothing else:
{
  "title": "the role title",
  "requirements": [
    {"text": "...", "category": "essential"},
    {"text": "...", "category": "nice_to_have", "caveat": "optional nuance"}
  ],
  "team_context": "what the team does",
  "working_vibe": "how the team works day to day",
  "culture_check": "what kind of person thrives here"
}`

const dimensionScorePrompt = `Score how well this engineer fits this role on ONE dimension only:
{{.Dimension}} — {{.DimensionHint}}.

Engineer profile:
{{.Engineer}}

Role and company profile:
{{.Target}}

Respond with a single JSON object and nothing else:
{"score": <integer 0-100>, "reasoning": "one sentence"}`

const gradeChallengePrompt = `Grade this take-home submission against the role requirements on a 0-100
scale. Judge correctness, clarity, and fit to the stated requirements.

Role requirements:
{{.Target}}

Submission:
{{.Artifact}}

Respond with a single JSON object and nothing else:
{"score": <integer 0-100>, "reasoning": "one sentence"}`
