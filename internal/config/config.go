// Package config holds all wolfMIND tunables. Everything heuristic in the
// engine - the likelihood table driving Bayesian updates, trust weighting,
// the model-fallback blacklist policy - lives here as named, calibratable
// parameters rather than hard-coded literals.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all wolfMIND configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Trust      TrustConfig      `yaml:"trust"`
	Bayes      BayesConfig      `yaml:"bayes"`
	Deception  DeceptionConfig  `yaml:"deception"`
	Validator  ValidatorConfig  `yaml:"validator"`
	Fallback   FallbackConfig   `yaml:"fallback"`
	Store      StoreConfig      `yaml:"store"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// TrustConfig tunes the trust scorer.
type TrustConfig struct {
	// Default is the initial overallTrust for every profile.
	Default float64 `yaml:"default"`
	// SmoothingAlpha is the EMA factor applied per evidence item.
	SmoothingAlpha float64 `yaml:"smoothing_alpha"`
	// MaxStep bounds how far a single evidence item can move the score,
	// so one observation can never pin trust to exactly 0 or 1.
	MaxStep float64 `yaml:"max_step"`
	// MeaningfulDeviation is the minimum distance from Default before a
	// profile is worth mentioning in generated context.
	MeaningfulDeviation float64 `yaml:"meaningful_deviation"`
	// TopN is how many most/least trusted players context text names.
	TopN int `yaml:"top_n"`
}

// BayesConfig tunes identity inference.
type BayesConfig struct {
	// FloorEpsilon keeps every posterior entry away from exact zero so a
	// single noisy signal cannot collapse a role irrecoverably.
	FloorEpsilon float64 `yaml:"floor_epsilon"`
	// Likelihoods is the P(Action|Role) table: action type -> role name ->
	// likelihood. Shipped defaults are starting points for calibration.
	Likelihoods map[string]map[string]float64 `yaml:"likelihoods"`
}

// DeceptionConfig tunes the deception detector.
type DeceptionConfig struct {
	// ContradictionWeight is added per detected self-contradiction.
	ContradictionWeight float64 `yaml:"contradiction_weight"`
	// VoteMismatchWeight is added when a vote diverges from stated intention.
	VoteMismatchWeight float64 `yaml:"vote_mismatch_weight"`
	// VerbosityAnomalyWeight is added for anomalous verbosity/hedging.
	VerbosityAnomalyWeight float64 `yaml:"verbosity_anomaly_weight"`
	// VerbosityRatio is how far speech length must deviate from the
	// player's own baseline before it counts as anomalous.
	VerbosityRatio float64 `yaml:"verbosity_ratio"`
	// TopN is how many suspects context text names.
	TopN int `yaml:"top_n"`
}

// ValidatorConfig tunes the decision validator.
type ValidatorConfig struct {
	// MaxCorrectionRetries bounds the correction-regeneration loop.
	MaxCorrectionRetries int `yaml:"max_correction_retries"`
}

// FallbackConfig tunes the model-fallback policy.
type FallbackConfig struct {
	// Models is the ordered list of candidate model names.
	Models []string `yaml:"models"`
	// BlacklistRestoreFraction is the fraction of the temporary blacklist
	// restored after a full clear, so persistently failing models are not
	// retried immediately.
	BlacklistRestoreFraction float64 `yaml:"blacklist_restore_fraction"`
}

// StoreConfig configures the decision audit store.
type StoreConfig struct {
	// Path is the sqlite file; ":memory:" keeps the audit trail ephemeral.
	Path string `yaml:"path"`
}

// LoggingConfig configures categorized file logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// Default returns production defaults. The likelihood numbers are heuristic
// starting points; treat them as a calibration artifact.
func Default() *Config {
	return &Config{
		Name:    "wolfmind",
		Version: "0.1.0",
		Trust: TrustConfig{
			Default:             0.5,
			SmoothingAlpha:      0.30,
			MaxStep:             0.25,
			MeaningfulDeviation: 0.08,
			TopN:                2,
		},
		Bayes: BayesConfig{
			FloorEpsilon: 0.01,
			Likelihoods:  DefaultLikelihoods(),
		},
		Deception: DeceptionConfig{
			ContradictionWeight:    18,
			VoteMismatchWeight:     15,
			VerbosityAnomalyWeight: 6,
			VerbosityRatio:         2.5,
			TopN:                   2,
		},
		Validator: ValidatorConfig{
			MaxCorrectionRetries: 2,
		},
		Fallback: FallbackConfig{
			Models:                   []string{"primary", "secondary"},
			BlacklistRestoreFraction: 0.5,
		},
		Store: StoreConfig{
			Path: ":memory:",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// DefaultLikelihoods returns the shipped P(Action|Role) table, keyed by
// action type then role name. Roles absent from an action row fall back to
// a neutral 1.0 multiplier.
func DefaultLikelihoods() map[string]map[string]float64 {
	return map[string]map[string]float64{
		// Claiming seer is common for the real seer and for wolves
		// stealing the claim; villagers rarely counterfeit it.
		"claimed_seer": {
			"预言家": 6.0,
			"狼人":  2.5,
			"女巫":  0.3,
			"守卫":  0.3,
			"猎人":  0.3,
			"村民":  0.4,
		},
		// A kill-confirmation (查杀) announced against the player.
		"checked_as_wolf": {
			"狼人":  8.0,
			"预言家": 0.2,
			"女巫":  0.4,
			"守卫":  0.4,
			"猎人":  0.4,
			"村民":  0.5,
		},
		// A gold-water (查验为好人) announced for the player.
		"checked_as_good": {
			"狼人":  0.2,
			"预言家": 0.6,
			"女巫":  1.4,
			"守卫":  1.4,
			"猎人":  1.4,
			"村民":  1.6,
		},
		// Voting against a confirmed-good (gold water) player.
		"voted_against_gold_water": {
			"狼人": 3.0,
			"村民": 0.7,
		},
		// Vote contradicting the voter's stated intention.
		"vote_against_stated_intent": {
			"狼人": 2.0,
			"村民": 0.8,
		},
		// Self-contradiction inside the player's own speeches.
		"self_contradiction": {
			"狼人": 2.2,
			"村民": 0.8,
		},
		// Dying on the first night is weak evidence of a god/villager:
		// wolves rarely kill their own.
		"died_night_1": {
			"狼人":  0.1,
			"预言家": 2.0,
			"女巫":  1.3,
			"守卫":  1.3,
			"猎人":  1.3,
			"村民":  1.2,
		},
	}
}

// Load reads a yaml config file, applies env overrides, and validates.
// A missing file yields defaults (env overrides still apply).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as silent
// misbehavior deep in the analyzers.
func (c *Config) Validate() error {
	if c.Trust.Default < 0 || c.Trust.Default > 1 {
		return fmt.Errorf("trust.default must be in [0,1], got %v", c.Trust.Default)
	}
	if c.Trust.MaxStep <= 0 || c.Trust.MaxStep >= 1 {
		return fmt.Errorf("trust.max_step must be in (0,1), got %v", c.Trust.MaxStep)
	}
	if c.Bayes.FloorEpsilon <= 0 || c.Bayes.FloorEpsilon >= 0.5 {
		return fmt.Errorf("bayes.floor_epsilon must be in (0,0.5), got %v", c.Bayes.FloorEpsilon)
	}
	if c.Validator.MaxCorrectionRetries < 0 {
		return fmt.Errorf("validator.max_correction_retries must be >= 0")
	}
	if f := c.Fallback.BlacklistRestoreFraction; f < 0 || f > 1 {
		return fmt.Errorf("fallback.blacklist_restore_fraction must be in [0,1], got %v", f)
	}
	return nil
}

// applyEnvOverrides lets deployments tweak hot parameters without editing
// the yaml file. Only scalar tunables are overridable.
func applyEnvOverrides(cfg *Config) {
	if v, ok := envFloat("WOLFMIND_TRUST_SMOOTHING_ALPHA"); ok {
		cfg.Trust.SmoothingAlpha = v
	}
	if v, ok := envFloat("WOLFMIND_TRUST_MAX_STEP"); ok {
		cfg.Trust.MaxStep = v
	}
	if v, ok := envFloat("WOLFMIND_BAYES_FLOOR_EPSILON"); ok {
		cfg.Bayes.FloorEpsilon = v
	}
	if v, ok := envInt("WOLFMIND_VALIDATOR_MAX_RETRIES"); ok {
		cfg.Validator.MaxCorrectionRetries = v
	}
	if v, ok := envFloat("WOLFMIND_FALLBACK_RESTORE_FRACTION"); ok {
		cfg.Fallback.BlacklistRestoreFraction = v
	}
	if v := os.Getenv("WOLFMIND_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("WOLFMIND_DEBUG"); v != "" {
		cfg.Logging.DebugMode = v == "1" || strings.EqualFold(v, "true")
	}
}

func envFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
