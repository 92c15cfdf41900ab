package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("ENV", "")

	cfg := Load()
	assert.Equal(t, "3000", cfg.Port)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.False(t, cfg.Production)
}

func TestLoadParsesAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	cfg := Load()
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadRecognizesProductionEnv(t *testing.T) {
	t.Setenv("ENV", "Production")
	cfg := Load()
	assert.True(t, cfg.Production)
}

func TestAllowOriginWithNoConfiguredOriginsAllowsAny(t *testing.T) {
	cfg := Config{}
	assert.True(t, cfg.AllowOrigin("https://anything.example"))
}

func TestAllowOriginMatchesConfiguredList(t *testing.T) {
	cfg := Config{AllowedOrigins: []string{"https://a.example"}}
	assert.True(t, cfg.AllowOrigin("https://a.example"))
	assert.False(t, cfg.AllowOrigin("https://evil.example"))
}

func TestAllowOriginWildcard(t *testing.T) {
	cfg := Config{AllowedOrigins: []string{"*"}}
	assert.True(t, cfg.AllowOrigin("https://anything.example"))
}
