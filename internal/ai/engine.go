package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/garnizeh/curator/internal/config"
	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/ollama"
)

// Generator abstracts the text-generation collaborator. The Ollama client
// satisfies it; tests inject a deterministic fake because model output is
// never byte-identical between calls.
type Generator interface {
	Generate(ctx context.Context, model string, prompt string) (ollama.GenerateResult, error)
}

// Engine turns raw signals into structured profile data and scores
// engineer↔role pairs, one LLM call per operation.
type Engine struct {
	gen    Generator
	cfg    config.EngineConfig
	loader *Loader
	logger *slog.Logger
}

func NewEngine(gen Generator, cfg config.EngineConfig, logger *slog.Logger) (*Engine, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	loader, err := NewLoader()
	if err != nil {
		return nil, fmt.Errorf("create loader: %w", err)
	}

	return &Engine{gen: gen, cfg: cfg, loader: loader, logger: logger}, nil
}

// CompanyDNA is the structured extraction output for a company.
type CompanyDNA struct {
	Mission    string   `json:"mission"`
	Product    string   `json:"product"`
	Culture    string   `json:"culture"`
	Highlights []string `json:"highlights,omitempty"`
}

type TechnicalEnvironment struct {
	Languages []string `json:"languages,omitempty"`
	Stack     []string `json:"stack,omitempty"`
	Practices []string `json:"practices,omitempty"`
}

type companyExtraction struct {
	DNA                  CompanyDNA           `json:"dna"`
	TechnicalEnvironment TechnicalEnvironment `json:"technical_environment"`
}

// EngineerDNA is the structured extraction output for an engineer.
type EngineerDNA struct {
	Summary    string   `json:"summary"`
	Languages  []string `json:"languages,omitempty"`
	Domains    []string `json:"domains,omitempty"`
	OpenSource string   `json:"open_source,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
}

// ExtractCompanyDNA summarizes the fetched source material into company DNA
// and technical environment.
func (e *Engine) ExtractCompanyDNA(ctx context.Context, sources map[string]string) (*CompanyDNA, *TechnicalEnvironment, error) {
	if len(sources) == 0 {
		return nil, nil, errors.New("no sources to extract from")
	}

	out, err := e.generateValidated(ctx, companyDNAPrompt, map[string]any{"Sources": sources}, "company_dna")
	if err != nil {
		return nil, nil, err
	}

	var ex companyExtraction
	if err := json.Unmarshal([]byte(out), &ex); err != nil {
		return nil, nil, fmt.Errorf("decode company extraction: %w", err)
	}
	return &ex.DNA, &ex.TechnicalEnvironment, nil
}

// ExtractEngineerDNA summarizes the fetched source material into engineer DNA.
func (e *Engine) ExtractEngineerDNA(ctx context.Context, sources map[string]string) (*EngineerDNA, error) {
	if len(sources) == 0 {
		return nil, errors.New("no sources to extract from")
	}

	out, err := e.generateValidated(ctx, engineerDNAPrompt, map[string]any{"Sources": sources}, "engineer_dna")
	if err != nil {
		return nil, err
	}

	var dna EngineerDNA
	if err := json.Unmarshal([]byte(out), &dna); err != nil {
		return nil, fmt.Errorf("decode engineer extraction: %w", err)
	}
	return &dna, nil
}

// SummarizeCompany produces the narrative profile_summary. All three
// questionnaire sections must be present before this is called.
func (e *Engine) SummarizeCompany(ctx context.Context, p *models.CompanyProfile) (string, error) {
	if !p.QuestionnaireDone() {
		return "", errors.New("questionnaire incomplete")
	}

	data := map[string]any{
		"DNA":                  deref(p.CompanyDNA),
		"TechnicalEnvironment": deref(p.TechnicalEnvironment),
		"Culture":              deref(p.CultureAnswers),
		"Mission":              deref(p.MissionAnswers),
		"TeamDynamics":         deref(p.TeamDynamicsAnswers),
	}
	return e.generateText(ctx, companySummaryPrompt, data)
}

// SummarizeEngineer produces the narrative profile_summary for an engineer.
func (e *Engine) SummarizeEngineer(ctx context.Context, p *models.EngineerProfile) (string, error) {
	data := map[string]any{
		"DNA":             deref(p.EngineerDNA),
		"WorkPreferences": deref(p.WorkPreferences),
		"CareerGrowth":    deref(p.CareerGrowth),
		"Strengths":       deref(p.Strengths),
		"GrowthAreas":     deref(p.GrowthAreas),
		"DealBreakers":    deref(p.DealBreakers),
	}
	return e.generateText(ctx, engineerSummaryPrompt, data)
}

// BeautifyJD turns an extracted posting into the structured beautified_jd
// shape, splitting requirements into essential vs nice_to_have.
func (e *Engine) BeautifyJD(ctx context.Context, title, rawText string) (*models.BeautifiedJD, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, errors.New("empty posting text")
	}

	out, err := e.generateValidated(ctx, beautifyJDPrompt, map[string]any{"Title": title, "RawText": rawText}, "beautified_jd")
	if err != nil {
		return nil, err
	}

	var jd models.BeautifiedJD
	if err := json.Unmarshal([]byte(out), &jd); err != nil {
		return nil, fmt.Errorf("decode beautified jd: %w", err)
	}
	if jd.Title == "" {
		jd.Title = title
	}
	return &jd, nil
}

type scoreResponse struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// ScoreDimension scores one fit dimension for one engineer↔target pair.
func (e *Engine) ScoreDimension(ctx context.Context, dimension, hint, engineerDoc, targetDoc string) (int, error) {
	data := map[string]any{
		"Dimension":     dimension,
		"DimensionHint": hint,
		"Engineer":      engineerDoc,
		"Target":        targetDoc,
	}

	out, err := e.generateValidated(ctx, dimensionScorePrompt, data, "dimension_score")
	if err != nil {
		return 0, err
	}

	return decodeScore(out)
}

// GradeChallenge auto-grades a take-home submission against the target JD.
func (e *Engine) GradeChallenge(ctx context.Context, targetDoc, artifact string) (int, error) {
	data := map[string]any{"Target": targetDoc, "Artifact": artifact}
	out, err := e.generateValidated(ctx, gradeChallengePrompt, data, "dimension_score")
	if err != nil {
		return 0, err
	}

	return decodeScore(out)
}

func decodeScore(out string) (int, error) {
	var resp scoreResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		return 0, fmt.Errorf("decode score: %w", err)
	}
	if resp.Score < 0 || resp.Score > 100 {
		return 0, fmt.Errorf("score %d out of range", resp.Score)
	}
	return resp.Score, nil
}

// generateValidated renders the prompt, calls the model, extracts the JSON
// object from the output, and validates it against the named schema.
func (e *Engine) generateValidated(ctx context.Context, tmpl string, data any, schemaName string) (string, error) {
	prompt, err := ollama.RenderTemplate(tmpl, data)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}

	ctxReq, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	res, err := e.gen.Generate(ctxReq, e.cfg.Model, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	j := ExtractJSON(res.Text)
	if j == "" {
		return "", fmt.Errorf("no JSON object found in response")
	}

	schema, ok := e.loader.GetSchema(schemaName)
	if !ok {
		return "", fmt.Errorf("no schema named %s", schemaName)
	}

	verrs, err := schema.ValidateBytes(ctxReq, []byte(j))
	if err != nil {
		return "", fmt.Errorf("schema validate error: %w", err)
	}
	if len(verrs) > 0 {
		var sb strings.Builder
		for _, v := range verrs {
			sb.WriteString(v.Message)
			sb.WriteString("; ")
		}
		e.logger.Warn("model output failed schema", "schema", schemaName, "errors", sb.String())
		return "", fmt.Errorf("response does not match schema %s: %s", schemaName, sb.String())
	}

	return j, nil
}

func (e *Engine) generateText(ctx context.Context, tmpl string, data any) (string, error) {
	prompt, err := ollama.RenderTemplate(tmpl, data)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}

	ctxReq, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	res, err := e.gen.Generate(ctxReq, e.cfg.Model, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}

// ExtractJSON returns the substring from the first '{' to the last '}' in the
// input. Pragmatic handling for model output that wraps JSON in text or
// markdown fences.
func ExtractJSON(s string) string {
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first == -1 || last == -1 || last < first {
		return ""
	}
	return s[first : last+1]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
