package ai

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Loader holds compiled JSON schemas for validating model output. Schemas
// ship embedded with the binary; the name is the filename without extension.
type Loader struct {
	mu      sync.RWMutex
	schemas map[string]*jsonschema.Schema
}

func NewLoader() (*Loader, error) {
	l := &Loader{schemas: map[string]*jsonschema.Schema{}}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loader) load() error {
	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return fmt.Errorf("read schemas dir: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := fs.ReadFile(schemaFS, path.Join("schemas", e.Name()))
		if err != nil {
			return fmt.Errorf("read schema %s: %w", e.Name(), err)
		}

		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			return fmt.Errorf("compile schema %s: %w", e.Name(), err)
		}

		name := strings.TrimSuffix(e.Name(), ".json")
		l.schemas[name] = rs
	}

	return nil
}

// GetSchema returns the compiled schema for a name, if present.
func (l *Loader) GetSchema(name string) (*jsonschema.Schema, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.schemas[name]
	return s, ok
}
