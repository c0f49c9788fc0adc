package ai

import "testing"

func TestLoaderEmbeddedSchemas(t *testing.T) {
	l, err := NewLoader()
	if err != nil {
		t.Fatalf("NewLoader returned error: %v", err)
	}

	for _, name := range []string{"company_dna", "engineer_dna", "beautified_jd", "dimension_score"} {
		if _, ok := l.GetSchema(name); !ok {
			t.Fatalf("expected embedded schema %q to load", name)
		}
	}

	if _, ok := l.GetSchema("nope"); ok {
		t.Fatalf("unexpected schema for unknown name")
	}
}
