package config

import (
	"strings"
	"testing"
	"time"

	"github.com/susu3304/globeguess/internal/geoscore"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WebBind != "0.0.0.0:3000" || cfg.RoundTTL != 2*time.Hour || cfg.RoundsPerGame != 5 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Scorer() != geoscore.DefaultScorer() {
		t.Errorf("unexpected scorer %+v", cfg.Scorer())
	}
	if cfg.Engine().Fallback != geoscore.FallbackHaversine {
		t.Errorf("expected the haversine fallback by default, got %q", cfg.Engine().Fallback)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("WEB_BIND", "127.0.0.1:8080")
	t.Setenv("ROUND_TTL", "15m")
	t.Setenv("SCORING_DECAY_RATE", "4.5")
	t.Setenv("SCORING_MAX_POINTS", "5000")
	t.Setenv("SCORING_FALLBACK", "none")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WebBind != "127.0.0.1:8080" || cfg.RoundTTL != 15*time.Minute || cfg.Log.Format != "text" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Scoring.DecayRate != 4.5 || cfg.Scoring.MaxPoints != 5000 {
		t.Errorf("scoring env not applied: %+v", cfg.Scoring)
	}
	if cfg.Engine().Fallback != geoscore.FallbackNone {
		t.Errorf("fallback = %q", cfg.Engine().Fallback)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			WebBind:       ":3000",
			RoundSecret:   "s",
			RoundTTL:      time.Hour,
			RoundsPerGame: 5,
			Log:           LogConfig{Level: "info", Format: "json"},
			Scoring: ScoringConfig{
				MaxDistanceKm: 5000, DecayRate: 3, ToleranceKm: 20, MaxPoints: 1000, Fallback: "none",
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"discord without database", func(c *Config) { c.DiscordToken = "x" }, "database_url is required"},
		{"discord with database", func(c *Config) { c.DiscordToken = "x"; c.DatabaseURL = "postgres://" }, ""},
		{"zero ttl", func(c *Config) { c.RoundTTL = 0 }, "round_ttl"},
		{"no rounds", func(c *Config) { c.RoundsPerGame = 0 }, "rounds_per_game"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad decay", func(c *Config) { c.Scoring.DecayRate = 0 }, "decay rate"},
		{"bad fallback", func(c *Config) { c.Scoring.Fallback = "euclid" }, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	err := (&Config{}).Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"web_bind", "round_secret", "round_ttl", "rounds_per_game", "log.format", "scoring"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}
