package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/klu-lostfound/internal/logging"
	"github.com/klu-lostfound/internal/match"
)

var validate = validator.New()

// Matching is the environment-driven configuration of the matcher
type Matching struct {
	Threshold            float64 `validate:"gte=0,lte=100"`
	ExploratoryThreshold float64 `validate:"gte=0,lte=100"`
	MaxComparisons       int     `validate:"gte=0"`
	Workers              int     `validate:"gte=0"`
	Tiers                match.Tiers
	UploadDir            string `validate:"required"`
	Debug                bool
}

// LoadMatching reads MATCH_* and UPLOAD_DIR settings from the environment
func LoadMatching() (Matching, error) {
	m := Matching{
		Threshold:            GetEnvFloat("MATCH_THRESHOLD", 30),
		ExploratoryThreshold: GetEnvFloat("MATCH_EXPLORATORY_THRESHOLD", 10),
		MaxComparisons:       GetEnvInt("MATCH_MAX_COMPARISONS", match.DefaultMaxComparisons),
		Workers:              GetEnvInt("MATCH_WORKERS", 0),
		UploadDir:            GetEnv("UPLOAD_DIR", "static/uploads"),
		Debug:                GetEnvBool("MATCH_DEBUG", false),
	}

	tiers, err := ParseTiers(GetEnv("MATCH_TIERS", "80:High,60:Medium,0:Low"))
	if err != nil {
		return Matching{}, err
	}
	m.Tiers = tiers

	if err := validate.Struct(m); err != nil {
		return Matching{}, fmt.Errorf("invalid matching configuration: %w", err)
	}
	if err := m.Tiers.Validate(); err != nil {
		return Matching{}, fmt.Errorf("invalid MATCH_TIERS: %w", err)
	}
	return m, nil
}

// Options returns the general matcher options
func (m Matching) Options() match.Options {
	return match.Options{
		InclusionThreshold: m.Threshold,
		MaxComparisons:     m.MaxComparisons,
		Tiers:              append(match.Tiers(nil), m.Tiers...),
		Workers:            m.Workers,
		Debug:              m.Debug,
	}
}

// ExploratoryOptions returns the looser options used for exploratory matching
func (m Matching) ExploratoryOptions() match.Options {
	opts := m.Options()
	opts.InclusionThreshold = m.ExploratoryThreshold
	return opts
}

// ParseTiers parses "80:High,60:Medium,0:Low" into tiers ordered by
// decreasing minimum
func ParseTiers(list string) (match.Tiers, error) {
	var tiers match.Tiers
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		minStr, label, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("tier %q: expected min:label", part)
		}
		minVal, err := strconv.ParseFloat(strings.TrimSpace(minStr), 64)
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", part, err)
		}
		tiers = append(tiers, match.Tier{Min: minVal, Label: strings.TrimSpace(label)})
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("no tiers in %q", list)
	}
	return tiers, nil
}

// LoadLogging reads LOG_* settings from the environment
func LoadLogging() logging.Settings {
	return logging.Settings{
		Level:      GetEnv("LOG_LEVEL", "info"),
		File:       GetEnv("LOG_FILE", ""),
		MaxSizeMB:  GetEnvInt("LOG_MAX_SIZE_MB", 10),
		MaxBackups: GetEnvInt("LOG_MAX_BACKUPS", 3),
		JSON:       GetEnvBool("LOG_JSON", false),
	}
}
