package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/susu3304/globeguess/internal/geoscore"
)

// DevRoundSecret is the fallback signing secret. Never use it in production.
const DevRoundSecret = "dev-only-change-me"

type Config struct {
	// Web Server
	WebBind        string   `mapstructure:"web_bind"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// Round tokens
	RoundSecret   string        `mapstructure:"round_secret"`
	RoundTTL      time.Duration `mapstructure:"round_ttl"`
	RoundsPerGame int           `mapstructure:"rounds_per_game"`

	// Location catalogue (.json or .xlsx); empty means the embedded one
	LocationsFile string `mapstructure:"locations_file"`
	// Prefix for relative image paths in chat messages
	ImageBaseURL  string `mapstructure:"image_base_url"`

	// Optional backends
	ValkeyAddr   string `mapstructure:"valkey_addr"`
	NATSURL      string `mapstructure:"nats_url"`
	DatabaseURL  string `mapstructure:"database_url"`
	DiscordToken string `mapstructure:"discord_token"`

	// Discord rounds left open longer than this are closed
	GuessMaxAge time.Duration `mapstructure:"guess_max_age"`

	Log     LogConfig     `mapstructure:"log"`
	Scoring ScoringConfig `mapstructure:"scoring"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ScoringConfig struct {
	MaxDistanceKm float64 `mapstructure:"max_distance_km"`
	DecayRate     float64 `mapstructure:"decay_rate"`
	ToleranceKm   float64 `mapstructure:"tolerance_km"`
	MaxPoints     int     `mapstructure:"max_points"`
	Fallback      string  `mapstructure:"fallback"`
}

// Load reads .env, an optional config.yaml and the environment, in that
// order of increasing precedence. SCORING_DECAY_RATE sets scoring.decay_rate.
func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("web_bind", "0.0.0.0:3000")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("round_secret", DevRoundSecret)
	v.SetDefault("round_ttl", 2*time.Hour)
	v.SetDefault("rounds_per_game", 5)
	v.SetDefault("locations_file", "")
	v.SetDefault("image_base_url", "")
	v.SetDefault("valkey_addr", "")
	v.SetDefault("nats_url", "")
	v.SetDefault("database_url", "")
	v.SetDefault("discord_token", "")
	v.SetDefault("guess_max_age", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("scoring.max_distance_km", geoscore.DefaultMaxDistanceKm)
	v.SetDefault("scoring.decay_rate", geoscore.DefaultDecayRate)
	v.SetDefault("scoring.tolerance_km", geoscore.DefaultToleranceKm)
	v.SetDefault("scoring.max_points", geoscore.DefaultMaxPoints)
	v.SetDefault("scoring.fallback", string(geoscore.FallbackHaversine))
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.WebBind == "" {
		errs = append(errs, "web_bind is required")
	}
	if c.RoundSecret == "" {
		errs = append(errs, "round_secret is required")
	}
	if c.RoundTTL <= 0 {
		errs = append(errs, fmt.Sprintf("round_ttl must be positive, got %s", c.RoundTTL))
	}
	if c.RoundsPerGame <= 0 {
		errs = append(errs, fmt.Sprintf("rounds_per_game must be positive, got %d", c.RoundsPerGame))
	}
	if c.GuessMaxAge < 0 {
		errs = append(errs, fmt.Sprintf("guess_max_age must not be negative, got %s", c.GuessMaxAge))
	}
	if c.DiscordToken != "" && c.DatabaseURL == "" {
		errs = append(errs, "database_url is required when discord_token is set")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}
	if err := c.Scorer().Validate(); err != nil {
		errs = append(errs, "scoring: "+err.Error())
	}
	if _, err := geoscore.ParseFallback(c.Scoring.Fallback); err != nil {
		errs = append(errs, "scoring: "+err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *Config) Scorer() geoscore.Scorer {
	return geoscore.Scorer{
		MaxDistanceKm: c.Scoring.MaxDistanceKm,
		DecayRate:     c.Scoring.DecayRate,
		ToleranceKm:   c.Scoring.ToleranceKm,
		MaxPoints:     c.Scoring.MaxPoints,
	}
}

// Engine builds the scoring engine. Call it on a validated config.
func (c *Config) Engine() geoscore.Engine {
	fallback, _ := geoscore.ParseFallback(c.Scoring.Fallback)
	return geoscore.NewEngine(c.Scorer(), fallback)
}
