package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"BROKER", "PORTFOLIO_FILE", "CORPORATE_ACTIONS", "LOG_LEVEL",
		"MATCH_ORDER", "MERGE_SAME_INSTANT", "PARALLELISM",
	} {
		t.Setenv(envPrefix+key, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	require.Equal(t, defaults(), cfg)
}

func TestEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("CGTLOTS_BROKER", "commsec")
	t.Setenv("CGTLOTS_MATCH_ORDER", "fifo")
	t.Setenv("CGTLOTS_LOG_LEVEL", "debug")
	t.Setenv("CGTLOTS_MERGE_SAME_INSTANT", "true")
	t.Setenv("CGTLOTS_PARALLELISM", "4")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	require.Equal(t, "commsec", cfg.Broker)
	require.Equal(t, "fifo", cfg.MatchOrder)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "portfolio.json", cfg.PortfolioFile)
	require.True(t, cfg.MergeSameInstant)
	require.Equal(t, 4, cfg.Parallelism)
}

func TestEnvFile(t *testing.T) {
	clearEnv(t)
	// The file only fills variables that are unset. clearEnv restores them.
	os.Unsetenv("CGTLOTS_BROKER")
	os.Unsetenv("CGTLOTS_CORPORATE_ACTIONS")
	t.Setenv("CGTLOTS_PORTFOLIO_FILE", "mine.json")

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "CGTLOTS_BROKER=fpmarkets\n" +
		"CGTLOTS_PORTFOLIO_FILE=theirs.json\n" +
		"CGTLOTS_CORPORATE_ACTIONS=actions.yaml\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := LoadFrom(envFile)
	require.NoError(t, err)
	require.Equal(t, "fpmarkets", cfg.Broker)
	require.Equal(t, "actions.yaml", cfg.CorporateActions)
	require.Equal(t, "mine.json", cfg.PortfolioFile)
}

func TestInvalidValues(t *testing.T) {
	for _, tc := range []struct {
		key   string
		value string
	}{
		{"CGTLOTS_MERGE_SAME_INSTANT", "sometimes"},
		{"CGTLOTS_PARALLELISM", "many"},
		{"CGTLOTS_PARALLELISM", "-2"},
	} {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			_, err := LoadFrom(filepath.Join(t.TempDir(), ".env"))
			var invalid *InvalidValueError
			require.ErrorAs(t, err, &invalid)
			require.Equal(t, tc.key, invalid.Key)
			require.ErrorContains(t, err, strconv.Quote(tc.value))
		})
	}
}
