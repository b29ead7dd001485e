package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"course-cert/internal/domain"
	"course-cert/internal/series"
)

// EnvPrefix prefixes every environment variable, e.g. CERTSYNC_PASS_THRESHOLD.
const EnvPrefix = "CERTSYNC"

type Config struct {
	PassThreshold   float64  `split_words:"true" default:"70" validate:"gte=0,lte=100"`
	DateSince       string   `split_words:"true" validate:"omitempty,datetime=2006-01-02"`
	PrefixLength    int      `split_words:"true" default:"4" validate:"gte=1"`
	SeriesSeparator string   `split_words:"true" default:"_"`
	Workers         int      `split_words:"true" default:"4" validate:"gte=1,lte=64"`
	ExcludedDomains []string `split_words:"true"`
	ExcludedEmails  []string `split_words:"true"`
	PolicyFile      string   `split_words:"true"`

	Store        string `split_words:"true" default:"file" validate:"oneof=file sqlite"`
	SnapshotPath string `split_words:"true" default:"data/snapshot.json.br"`
	DBPath       string `split_words:"true" default:"data/certsync.db"`

	LogLevel  string `split_words:"true" default:"info"`
	LogFormat string `split_words:"true" default:"auto" validate:"oneof=auto json console"`

	SFTP SFTPConfig `split_words:"true"`

	// ExcludedNames only comes from the policy file.
	ExcludedNames []domain.NamePair `ignored:"true"`
}

type SFTPConfig struct {
	Host                  string `split_words:"true"`
	Port                  int    `split_words:"true" default:"22" validate:"gte=1,lte=65535"`
	User                  string `split_words:"true"`
	Pass                  string `split_words:"true"`
	Dir                   string `split_words:"true" default:"/inbound"`
	InsecureIgnoreHostKey bool   `split_words:"true" default:"true"`
	KnownHosts            string `split_words:"true"`
}

// policyFile is the YAML document named by CERTSYNC_POLICY_FILE.
type policyFile struct {
	Deny   domain.DenyList `yaml:"deny"`
	Series series.Policy   `yaml:"series"`
}

// Load reads the environment, merges the optional policy file and validates
// the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}

	if cfg.PolicyFile != "" {
		pf, err := loadPolicyFile(cfg.PolicyFile)
		if err != nil {
			return nil, err
		}
		cfg.merge(pf)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}
	return &cfg, nil
}

func loadPolicyFile(path string) (*policyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: policy file: %w", err)
	}
	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("config: policy file %s: %w", path, err)
	}
	return &pf, nil
}

// merge adds the policy file's lists to the environment's. Series settings
// from the file apply unless the matching variable is set.
func (c *Config) merge(pf *policyFile) {
	c.ExcludedDomains = append(c.ExcludedDomains, pf.Deny.Domains...)
	c.ExcludedEmails = append(c.ExcludedEmails, pf.Deny.Emails...)
	c.ExcludedNames = append(c.ExcludedNames, pf.Deny.Names...)

	if _, set := os.LookupEnv(EnvPrefix + "_PREFIX_LENGTH"); !set && pf.Series.PrefixLength > 0 {
		c.PrefixLength = pf.Series.PrefixLength
	}
	if _, set := os.LookupEnv(EnvPrefix + "_SERIES_SEPARATOR"); !set && pf.Series.Separator != "" {
		c.SeriesSeparator = pf.Series.Separator
	}
}

// Settings is the eligibility policy for this run.
func (c *Config) Settings() (domain.Settings, error) {
	s := domain.Settings{PassThreshold: c.PassThreshold}
	if v := strings.TrimSpace(c.DateSince); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return s, fmt.Errorf("config: date since: %w", err)
		}
		s.DateSince = &t
	}
	return s, nil
}

func (c *Config) Policy() series.Policy {
	return series.Policy{PrefixLength: c.PrefixLength, Separator: c.SeriesSeparator}
}

func (c *Config) DenyList() domain.DenyList {
	return domain.DenyList{
		Domains: c.ExcludedDomains,
		Emails:  c.ExcludedEmails,
		Names:   c.ExcludedNames,
	}
}
