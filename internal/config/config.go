package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	Workers       int           `yaml:"workers"`
	Ollama        OllamaConfig  `yaml:"ollama"`
	Engine        EngineConfig  `yaml:"engine"`
	Crawl         CrawlConfig   `yaml:"crawl"`
	Match         MatchConfig   `yaml:"match"`
	ATS           ATSConfig     `yaml:"ats"`
}

type EngineConfig struct {
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type OllamaConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	Timeout                 time.Duration `yaml:"timeout"`
	Retries                 int           `yaml:"retries"`
	Backoff                 time.Duration `yaml:"backoff"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitReset            time.Duration `yaml:"circuit_reset"`
}

type CrawlConfig struct {
	// ProbeTimeout bounds each domain-existence HEAD request.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	// FetchTimeout bounds each content GET.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	// RatePerSecond throttles all outbound fetches.
	RatePerSecond float64 `yaml:"rate_per_second"`
	// MaxBodyBytes caps the amount of HTML read per page.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

type MatchConfig struct {
	// TopN bounds how many ranked matches are persisted per computation.
	TopN int `yaml:"top_n"`
	// Deadline bounds one whole computation run.
	Deadline time.Duration `yaml:"deadline"`
}

type ATSConfig struct {
	// GreenhouseBaseURL is overridable for tests.
	GreenhouseBaseURL string        `yaml:"greenhouse_base_url"`
	Timeout           time.Duration `yaml:"timeout"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("CURATOR_ADDR", ":8080"),
		JWTSecret:     getEnv("CURATOR_JWT_SECRET", "supersecretkey"),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("CURATOR_DATABASE_PATH", "curator.db"),
		TokenDuration: 1 * time.Hour,
		Workers:       4,
		Ollama: OllamaConfig{
			BaseURL:                 getEnv("CURATOR_OLLAMA_URL", "http://localhost:11434"),
			Timeout:                 30 * time.Second,
			Retries:                 3,
			Backoff:                 500 * time.Millisecond,
			CircuitFailureThreshold: 5,
			CircuitReset:            30 * time.Second,
		},
		Engine: EngineConfig{
			Model:   getEnv("CURATOR_MODEL", "llama3"),
			Timeout: 60 * time.Second,
		},
		Crawl: CrawlConfig{
			ProbeTimeout:  3 * time.Second,
			FetchTimeout:  20 * time.Second,
			RatePerSecond: 2,
			MaxBodyBytes:  1 << 20,
		},
		Match: MatchConfig{
			TopN:     10,
			Deadline: 5 * time.Minute,
		},
		ATS: ATSConfig{
			GreenhouseBaseURL: "https://boards-api.greenhouse.io",
			Timeout:           30 * time.Second,
		},
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
