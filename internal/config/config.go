// Package config loads the YAML configuration file and applies
// environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"baitline/internal/detect"
	"baitline/internal/policy"
	"baitline/internal/session"
)

// #region duration

// Duration wraps time.Duration so YAML values can be written as "30s"
// or "2h".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// #endregion duration

// #region config

// Config is the full application configuration.
type Config struct {
	DBPath     string       `yaml:"db_path"`
	ListenAddr string       `yaml:"listen_addr"`
	ReportURL  string       `yaml:"report_url"`
	Collab     Collaborator `yaml:"collaborator"`
	Detection  Detection    `yaml:"detection"`
	Policy     Policy       `yaml:"policy"`
}

// Collaborator configures the external classification and engagement
// services.
type Collaborator struct {
	APIKey          string   `yaml:"api_key"`
	BaseURL         string   `yaml:"base_url"`
	ClassifyModel   string   `yaml:"classify_model"`
	EngageModel     string   `yaml:"engage_model"`
	ClassifyTimeout Duration `yaml:"classify_timeout"`
	EngageTimeout   Duration `yaml:"engage_timeout"`
	ReportTimeout   Duration `yaml:"report_timeout"`
}

// Detection configures the confidence combiner.
type Detection struct {
	FloorConfidence float64 `yaml:"floor_confidence"`
}

// Policy configures the engagement policy.
type Policy struct {
	CautiousThreshold   float64    `yaml:"cautious_threshold"`
	AggressiveThreshold float64    `yaml:"aggressive_threshold"`
	HonorExitConditions bool       `yaml:"honor_exit_conditions"`
	MaxTurnsNone        int        `yaml:"max_turns_none"`
	MaxTurnsCautious    int        `yaml:"max_turns_cautious"`
	MaxTurnsAggressive  int        `yaml:"max_turns_aggressive"`
	MaxSessionDuration  Duration   `yaml:"max_session_duration"`
	StaleTurnLimit      int        `yaml:"stale_turn_limit"`
	Completeness        [][]string `yaml:"completeness"`
}

// #endregion config

// #region defaults

// Default returns the standard configuration.
func Default() Config {
	pd := policy.DefaultConfig()
	completeness := make([][]string, len(pd.Completeness))
	for i, group := range pd.Completeness {
		for _, cat := range group {
			completeness[i] = append(completeness[i], string(cat))
		}
	}
	return Config{
		DBPath:     "baitline.db",
		ListenAddr: ":8080",
		Collab: Collaborator{
			ClassifyModel:   "gpt-4o-mini",
			EngageModel:     "gpt-4o-mini",
			ClassifyTimeout: Duration(5 * time.Second),
			EngageTimeout:   Duration(10 * time.Second),
			ReportTimeout:   Duration(5 * time.Second),
		},
		Detection: Detection{FloorConfidence: 0.4},
		Policy: Policy{
			CautiousThreshold:   pd.CautiousThreshold,
			AggressiveThreshold: pd.AggressiveThreshold,
			HonorExitConditions: pd.HonorExitConditions,
			MaxTurnsNone:        pd.MaxTurnsNone,
			MaxTurnsCautious:    pd.MaxTurnsCautious,
			MaxTurnsAggressive:  pd.MaxTurnsAggressive,
			MaxSessionDuration:  Duration(pd.MaxSessionDuration),
			StaleTurnLimit:      pd.StaleTurnLimit,
			Completeness:        completeness,
		},
	}
}

// #endregion defaults

// #region load

// Load reads the config file at path (optional: "" keeps defaults) and
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		// Unmarshal over the defaults so absent keys keep them.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.DBPath = getEnv("BAITLINE_DB", cfg.DBPath)
	cfg.ListenAddr = getEnv("BAITLINE_ADDR", cfg.ListenAddr)
	cfg.ReportURL = getEnv("BAITLINE_REPORT_URL", cfg.ReportURL)
	cfg.Collab.APIKey = getEnv("OPENAI_API_KEY", cfg.Collab.APIKey)
	cfg.Collab.BaseURL = getEnv("OPENAI_BASE_URL", cfg.Collab.BaseURL)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks threshold sanity.
func (c Config) Validate() error {
	if c.Detection.FloorConfidence < 0 || c.Detection.FloorConfidence > 1 {
		return fmt.Errorf("floor_confidence %f out of [0,1]", c.Detection.FloorConfidence)
	}
	if c.Policy.CautiousThreshold < 0 || c.Policy.CautiousThreshold > 1 {
		return fmt.Errorf("cautious_threshold %f out of [0,1]", c.Policy.CautiousThreshold)
	}
	if c.Policy.AggressiveThreshold < c.Policy.CautiousThreshold {
		return fmt.Errorf("aggressive_threshold %f below cautious_threshold %f",
			c.Policy.AggressiveThreshold, c.Policy.CautiousThreshold)
	}
	if c.Policy.AggressiveThreshold > 1 {
		return fmt.Errorf("aggressive_threshold %f out of [0,1]", c.Policy.AggressiveThreshold)
	}
	return nil
}

// CombinerConfig converts the detection section to the runtime type.
func (c Config) CombinerConfig() detect.CombinerConfig {
	return detect.CombinerConfig{FloorConfidence: c.Detection.FloorConfidence}
}

// PolicyConfig converts the YAML policy section to the runtime type.
func (c Config) PolicyConfig() policy.Config {
	completeness := make([][]session.Category, 0, len(c.Policy.Completeness))
	for _, group := range c.Policy.Completeness {
		cats := make([]session.Category, 0, len(group))
		for _, name := range group {
			cats = append(cats, session.Category(name))
		}
		completeness = append(completeness, cats)
	}
	return policy.Config{
		CautiousThreshold:   c.Policy.CautiousThreshold,
		AggressiveThreshold: c.Policy.AggressiveThreshold,
		HonorExitConditions: c.Policy.HonorExitConditions,
		MaxTurnsNone:        c.Policy.MaxTurnsNone,
		MaxTurnsCautious:    c.Policy.MaxTurnsCautious,
		MaxTurnsAggressive:  c.Policy.MaxTurnsAggressive,
		MaxSessionDuration:  c.Policy.MaxSessionDuration.Std(),
		StaleTurnLimit:      c.Policy.StaleTurnLimit,
		Completeness:        completeness,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion load
