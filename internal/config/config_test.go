package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ServerAddr:  ":8080",
		DatabaseURL: "postgres://localhost/askdocs",
		DBMaxConns:  25,
		DBMinConns:  5,
		PoolCfg: PoolConfig{
			Concurrency:   10,
			RatePerMinute: 2950,
		},
		IngestCfg: IngestConfig{
			ChunkMaxTokens: 800,
			ChunkOverlap:   400,
		},
		RetrievalCfg: RetrievalConfig{
			ContextTokenBudget: 3000,
			MaxDistance:        0.8,
			MaxCandidates:      5,
			QuestionMaxTokens:  150,
		},
		LogLevel:    "info",
		EnableMocks: true,
	}
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	require.NoError(t, validateConfig(validConfig()))
}

// Moderately similar sections score well below the distance ceiling, so
// the default only filters out strongly dissimilar material.
func TestDefaultMaxDistanceAdmitsModerateSimilarity(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, validateConfig(cfg))

	// A section at cosine similarity 0.3 has negative inner product
	// -0.3 for normalized embeddings.
	distance := -0.3
	assert.Less(t, distance, cfg.RetrievalCfg.MaxDistance)

	// Even an unrelated section near similarity zero still passes; the
	// candidate LIMIT does the actual selection.
	assert.Less(t, 0.05, cfg.RetrievalCfg.MaxDistance)
}

func TestValidateConfigMaxDistanceRange(t *testing.T) {
	cases := []struct {
		name     string
		distance float64
		wantErr  bool
	}{
		{"default cap", 0.8, false},
		{"tight negative ceiling", -0.5, false},
		{"upper bound", 1, false},
		{"above operator range", 1.5, true},
		{"excludes everything", -1, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.RetrievalCfg.MaxDistance = tc.distance

			err := validateConfig(cfg)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateConfigRejectsOverlapAtChunkSize(t *testing.T) {
	cfg := validConfig()
	cfg.IngestCfg.ChunkOverlap = cfg.IngestCfg.ChunkMaxTokens

	assert.Error(t, validateConfig(cfg))
}

func TestValidateConfigRequiresAPIKeyWithoutMocks(t *testing.T) {
	cfg := validConfig()
	cfg.EnableMocks = false
	cfg.OpenAICfg.APIKey = ""

	assert.Error(t, validateConfig(cfg))
}
