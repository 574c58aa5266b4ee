// Package config reads defaults for the command line from the environment
// and an optional .env file.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const envPrefix = "CGTLOTS_"

type Config struct {
	// Broker names the export format. Empty means detect it per file.
	Broker           string
	PortfolioFile    string
	CorporateActions string
	LogLevel         string
	MatchOrder       string
	MergeSameInstant bool
	// Parallelism bounds the securities processed at once. Zero means no
	// limit.
	Parallelism int
}

func defaults() *Config {
	return &Config{
		PortfolioFile: "portfolio.json",
		LogLevel:      "warn",
		MatchOrder:    "lifo",
	}
}

// Load reads the .env file of the working directory, if there is one, then
// the CGTLOTS_* environment variables. Variables already set in the
// environment take precedence over the file.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

func LoadFrom(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	} else {
		slog.Debug("loaded environment file", "file", envFile)
	}

	cfg := defaults()
	cfg.Broker = getEnv("BROKER", cfg.Broker)
	cfg.PortfolioFile = getEnv("PORTFOLIO_FILE", cfg.PortfolioFile)
	cfg.CorporateActions = getEnv("CORPORATE_ACTIONS", cfg.CorporateActions)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.MatchOrder = getEnv("MATCH_ORDER", cfg.MatchOrder)

	var err error
	if cfg.MergeSameInstant, err = getBool("MERGE_SAME_INSTANT", cfg.MergeSameInstant); err != nil {
		return nil, err
	}
	if cfg.Parallelism, err = getInt("PARALLELISM", cfg.Parallelism); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(envPrefix + key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, &InvalidValueError{Key: envPrefix + key, Value: value, Err: err}
	}
	return b, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil || i < 0 {
		if err == nil {
			err = errors.New("must not be negative")
		}
		return 0, &InvalidValueError{Key: envPrefix + key, Value: value, Err: err}
	}
	return i, nil
}

type InvalidValueError struct {
	Key   string
	Value string
	Err   error
}

func (e *InvalidValueError) Error() string {
	return "invalid value " + strconv.Quote(e.Value) + " for " + e.Key + ": " + e.Err.Error()
}

func (e *InvalidValueError) Unwrap() error { return e.Err }
