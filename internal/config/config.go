package config

import (
	"os"
	"strconv"
	"strings"
)

// Default per-entity-type minimum scores. Hand-tuned; kept overridable so a
// calibration pass can retune them without code changes.
const (
	defaultMinScorePerson   = 0.50
	defaultMinScoreDateTime = 0.60
	defaultMinScoreLocation = 0.70
	defaultMinScoreMRN      = 0.50
	defaultMinScoreFallback = 0.50
)

// defaultRelativePhrases are vague relative-time phrases that are never PHI.
var defaultRelativePhrases = []string{
	"about a week",
	"in a week",
	"next week",
	"today",
	"tomorrow",
	"yesterday",
	"same day",
}

// Config holds application configuration
type Config struct {
	Env                 string
	LogLevel            string
	AWSRegion           string
	AWSEndpointOverride string

	// De-identification pipeline settings.
	BundleWorkers                 int
	EnableDriverLicenseRecognizer bool
	RelativeDatetimePhrases       []string
	MinScorePerson                float64
	MinScoreDateTime              float64
	MinScoreLocation              float64
	MinScoreMRN                   float64
	MinScoreFallback              float64
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		AWSRegion:           getEnv("AWS_REGION", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		BundleWorkers:                 getEnvAsInt("DEID_BUNDLE_WORKERS", 4),
		EnableDriverLicenseRecognizer: getEnvAsBool("DEID_ENABLE_DL_RECOGNIZER", false),
		RelativeDatetimePhrases:       getEnvAsList("DEID_RELATIVE_PHRASES", defaultRelativePhrases),
		MinScorePerson:                getEnvAsFloat("DEID_MIN_SCORE_PERSON", defaultMinScorePerson),
		MinScoreDateTime:              getEnvAsFloat("DEID_MIN_SCORE_DATE_TIME", defaultMinScoreDateTime),
		MinScoreLocation:              getEnvAsFloat("DEID_MIN_SCORE_LOCATION", defaultMinScoreLocation),
		MinScoreMRN:                   getEnvAsFloat("DEID_MIN_SCORE_MRN", defaultMinScoreMRN),
		MinScoreFallback:              getEnvAsFloat("DEID_MIN_SCORE_DEFAULT", defaultMinScoreFallback),
	}
}

// ScoreThresholds returns the per-entity-type minimum scores keyed by the
// pipeline entity type names. The fallback threshold is stored under "".
func (c *Config) ScoreThresholds() map[string]float64 {
	return map[string]float64{
		"PERSON":    c.MinScorePerson,
		"DATE_TIME": c.MinScoreDateTime,
		"LOCATION":  c.MinScoreLocation,
		"MRN":       c.MinScoreMRN,
		"":          c.MinScoreFallback,
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable, trimming
// whitespace and dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
