package waterfall

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config holds the email waterfall thresholds and naming patterns.
type Config struct {
	Thresholds      Thresholds        `yaml:"thresholds"`
	DefaultPattern  string            `yaml:"default_pattern"`
	Patterns        map[string]string `yaml:"patterns"`
	PersonalDomains []string          `yaml:"personal_domains"`

	personal map[string]bool
}

// Thresholds are minimum verification scores (0–100) per tier.
type Thresholds struct {
	DomainMatch int `yaml:"domain_match"` // T1
	Pattern     int `yaml:"pattern"`      // T2
	Personal    int `yaml:"personal"`     // T3
}

// Default threshold values.
const (
	DefaultDomainMatchThreshold = 80
	DefaultPatternThreshold     = 70
	DefaultPersonalThreshold    = 85
	DefaultPatternTemplate      = "{first}.{last}"
)

var defaultPersonalDomains = []string{
	"gmail.com", "googlemail.com", "yahoo.com", "ymail.com", "hotmail.com", "outlook.com",
	"live.com", "msn.com", "aol.com", "icloud.com", "me.com", "mac.com", "proton.me",
	"protonmail.com", "gmx.com", "mail.com", "zoho.com", "yandex.com", "fastmail.com",
	"comcast.net", "verizon.net", "att.net", "sbcglobal.net",
}

// DefaultThresholds returns the built-in tier thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DomainMatch: DefaultDomainMatchThreshold,
		Pattern:     DefaultPatternThreshold,
		Personal:    DefaultPersonalThreshold,
	}
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	cfg := &Config{Thresholds: DefaultThresholds()}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads waterfall config from a YAML file with a top-level
// "email_waterfall" key. Missing values fall back to defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "waterfall: read config %s", path)
	}
	return ParseConfig(data)
}

// LoadConfigOrDefault is LoadConfig, except a missing file yields the
// default configuration.
func LoadConfigOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil && errors.Is(eris.Cause(err), fs.ErrNotExist) {
		zap.L().Debug("waterfall: config file not found, using defaults", zap.String("path", path))
		return DefaultConfig(), nil
	}
	return cfg, err
}

// ParseConfig decodes YAML config bytes. Thresholds absent from the file
// keep their defaults; an explicit 0 is honored.
func ParseConfig(data []byte) (*Config, error) {
	var wrapper struct {
		Waterfall Config `yaml:"email_waterfall"`
	}
	// yaml.v3 leaves struct fields it does not see untouched.
	wrapper.Waterfall.Thresholds = DefaultThresholds()
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "waterfall: parse config")
	}

	cfg := &wrapper.Waterfall
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DefaultPattern == "" {
		c.DefaultPattern = DefaultPatternTemplate
	}
	if len(c.PersonalDomains) == 0 {
		c.PersonalDomains = defaultPersonalDomains
	}

	patterns := make(map[string]string, len(c.Patterns))
	for d, p := range c.Patterns {
		patterns[strings.ToLower(strings.TrimSpace(d))] = p
	}
	c.Patterns = patterns

	c.personal = make(map[string]bool, len(c.PersonalDomains))
	for _, d := range c.PersonalDomains {
		c.personal[strings.ToLower(strings.TrimSpace(d))] = true
	}
}

func (c *Config) validate() error {
	for name, v := range map[string]int{
		"domain_match": c.Thresholds.DomainMatch,
		"pattern":      c.Thresholds.Pattern,
		"personal":     c.Thresholds.Personal,
	} {
		if v < 0 || v > 100 {
			return eris.Errorf("waterfall: threshold %s=%d out of range 0-100", name, v)
		}
	}
	if err := checkTemplate(c.DefaultPattern); err != nil {
		return eris.Wrap(err, "waterfall: default_pattern")
	}
	for d, p := range c.Patterns {
		if err := checkTemplate(p); err != nil {
			return eris.Wrapf(err, "waterfall: pattern for %s", d)
		}
	}
	return nil
}

// IsPersonal reports whether domain is a consumer mailbox provider.
func (c *Config) IsPersonal(domain string) bool {
	return c.personal[strings.ToLower(domain)]
}

// PatternFor returns the configured template for domain, or "".
func (c *Config) PatternFor(domain string) string {
	return c.Patterns[strings.ToLower(domain)]
}
