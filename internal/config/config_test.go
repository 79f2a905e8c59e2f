package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{
			APIKey: "test-key",
			Model:  "text-embedding-3-small",
		},
		Ingest: IngestConfig{ChunkSize: 1000, ChunkOverlap: intPtr(200)},
	}
}

func intPtr(v int) *int { return &v }

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding api key")
	}
}

func TestValidate_MissingModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

func TestValidate_OverlapNotBelowChunkSize(t *testing.T) {
	cfg := validConfig()
	cfg.Ingest.ChunkSize = 100
	cfg.Ingest.ChunkOverlap = intPtr(100)
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap >= chunk size")
	}
}

func TestValidate_NegativeOverlap(t *testing.T) {
	cfg := validConfig()
	cfg.Ingest.ChunkOverlap = intPtr(-1)
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative overlap")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Ingest.ChunkSize != 1000 {
		t.Errorf("expected default chunk size 1000, got %d", cfg.Ingest.ChunkSize)
	}
	if cfg.Ingest.ChunkOverlap == nil || *cfg.Ingest.ChunkOverlap != 200 {
		t.Errorf("expected default chunk overlap 200, got %v", cfg.Ingest.ChunkOverlap)
	}
	if cfg.Ingest.BatchSize != 20 {
		t.Errorf("expected default batch size 20, got %d", cfg.Ingest.BatchSize)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("expected default top_k 5, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Storage.KeyPrefix != "docqa:" {
		t.Errorf("expected default key prefix docqa:, got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected default dimensions 1536, got %d", cfg.Embedding.Dimensions)
	}
}

func TestApplyDefaults_ExplicitZeroOverlapKept(t *testing.T) {
	cfg := validConfig()
	cfg.Ingest.ChunkOverlap = intPtr(0)
	cfg.ApplyDefaults()

	if cfg.Ingest.ChunkOverlap == nil || *cfg.Ingest.ChunkOverlap != 0 {
		t.Errorf("explicit zero overlap must survive defaults, got %v", cfg.Ingest.ChunkOverlap)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero overlap must validate: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("DOCQA_TEST_KEY", "secret")
	defer os.Unsetenv("DOCQA_TEST_KEY")

	tests := []struct {
		in   string
		want string
	}{
		{"api_key: ${DOCQA_TEST_KEY}", "api_key: secret"},
		{"port: ${DOCQA_TEST_UNSET:-8080}", "port: 8080"},
		{"plain: value", "plain: value"},
	}
	for _, tc := range tests {
		if got := string(expandEnvVars([]byte(tc.in))); got != tc.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
