package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_PassesValidation(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.5, cfg.Trust.Default)
	assert.Equal(t, 2, cfg.Validator.MaxCorrectionRetries)
	assert.Equal(t, 0.5, cfg.Fallback.BlacklistRestoreFraction)
}

func TestDefaultLikelihoods_CoversCoreActions(t *testing.T) {
	table := DefaultLikelihoods()

	for _, action := range []string{
		"claimed_seer", "checked_as_wolf", "checked_as_good",
		"voted_against_gold_water", "died_night_1",
	} {
		assert.Contains(t, table, action)
	}

	// 查杀 must point strongly at the wolf role.
	assert.Greater(t, table["checked_as_wolf"]["狼人"], table["checked_as_wolf"]["村民"])
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Trust, cfg.Trust)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wolfmind.yaml")
	body := []byte("trust:\n  default: 0.5\n  smoothing_alpha: 0.9\n  max_step: 0.1\n  meaningful_deviation: 0.05\n  top_n: 3\nvalidator:\n  max_correction_retries: 5\n")
	require.NoError(t, os.WriteFile(path, body, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Trust.SmoothingAlpha)
	assert.Equal(t, 5, cfg.Validator.MaxCorrectionRetries)
	// Untouched sections keep defaults.
	assert.Equal(t, Default().Fallback, cfg.Fallback)
}

func TestLoad_EnvOverrideWins(t *testing.T) {
	t.Setenv("WOLFMIND_VALIDATOR_MAX_RETRIES", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Validator.MaxCorrectionRetries)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trust:\n  default: 1.5\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wolfmind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: wolfmind\n"), 0644))

	changed := make(chan *Config, 1)
	stop, err := Watch(path, func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	}, nil)
	require.NoError(t, err)
	defer stop()

	body := []byte("validator:\n  max_correction_retries: 4\n")
	require.NoError(t, os.WriteFile(path, body, 0644))

	select {
	case cfg := <-changed:
		assert.Equal(t, 4, cfg.Validator.MaxCorrectionRetries)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not deliver reload")
	}
}
