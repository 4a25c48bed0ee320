package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampMaxIssues(t *testing.T) {
	assert.Equal(t, MinMaxIssues, ClampMaxIssues(-4))
	assert.Equal(t, MinMaxIssues, ClampMaxIssues(3))
	assert.Equal(t, 42, ClampMaxIssues(42))
	assert.Equal(t, MaxMaxIssues, ClampMaxIssues(100000))
}

func TestEnvMaxIssues(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"", 0, false},
		{"abc", 0, false},
		{"3", 10, true},
		{" 75 ", 75, true},
		{"9999", 500, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv(EnvMaxIssuesVar, tt.raw)
			got, ok := EnvMaxIssues()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvPrewarm(t *testing.T) {
	t.Setenv(EnvPrewarmVar, "")
	assert.False(t, EnvPrewarm())
	t.Setenv(EnvPrewarmVar, "1")
	assert.True(t, EnvPrewarm())
}

func TestApplyEnv(t *testing.T) {
	t.Run("unset leaves config alone", func(t *testing.T) {
		t.Setenv(EnvPrewarmVar, "")
		t.Setenv(EnvMaxIssuesVar, "")
		cfg := Default("/repo")
		ApplyEnv(cfg)
		assert.False(t, cfg.Analysis.Prewarm)
		assert.Equal(t, 0, cfg.Analysis.MaxIssues)
		assert.Equal(t, DefaultHookMaxIssues, cfg.Hook.MaxIssues)
	})

	t.Run("overrides both caps", func(t *testing.T) {
		t.Setenv(EnvPrewarmVar, "yes")
		t.Setenv(EnvMaxIssuesVar, "20")
		cfg := Default("/repo")
		ApplyEnv(cfg)
		assert.True(t, cfg.Analysis.Prewarm)
		assert.Equal(t, 20, cfg.Analysis.MaxIssues)
		assert.Equal(t, 20, cfg.Hook.MaxIssues)
	})
}
