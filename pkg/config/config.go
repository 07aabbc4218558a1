// Package config loads a Goblin model description from YAML.
//
// A config file names the id namespace, logging and metrics settings, and the
// seed content of each hierarchy: its concepts, constraint types and
// constraints. Apply builds the seed on a Model and clears the edit history so
// the seed becomes the baseline the user cannot undo past.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dd0wney/goblin/pkg/logging"
	"github.com/dd0wney/goblin/pkg/validation"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvLogLevel    = logging.EnvLevel
	EnvNamespace   = "GOBLIN_NAMESPACE"
	EnvMetricsAddr = "GOBLIN_METRICS_ADDR"
	EnvAuditFile   = "GOBLIN_AUDIT_FILE"
)

// Default configuration values
const (
	DefaultNamespace = "urn:goblin"
	DefaultLogLevel  = "info"

	// DefaultAuditBuffer is how many edit history entries are kept in memory
	DefaultAuditBuffer = 1000
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Config is the top-level configuration file.
type Config struct {
	// Namespace scopes every allocated concept id
	Namespace string `yaml:"namespace"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// VerifyIntegrity runs the integrity checker after every edit
	VerifyIntegrity bool `yaml:"verify_integrity"`

	// MetricsAddr serves /metrics when set (e.g. ":9090")
	MetricsAddr string `yaml:"metrics_addr"`

	// AuditFile appends a hash-chained journal of every edit when set
	AuditFile string `yaml:"audit_file"`

	// AuditBuffer bounds the in-memory edit journal
	AuditBuffer int `yaml:"audit_buffer"`

	Hierarchies []Hierarchy `yaml:"hierarchies"`
}

// Hierarchy seeds one concept hierarchy. Concepts must be listed after their
// parents.
type Hierarchy struct {
	Root            string                             `yaml:"root"`
	Label           string                             `yaml:"label"`
	Concepts        []validation.ConceptRequest        `yaml:"concepts"`
	ConstraintTypes []validation.ConstraintTypeRequest `yaml:"constraint_types"`
	Constraints     []validation.ConstraintRequest     `yaml:"constraints"`
}

// Default returns an empty configuration with defaults applied.
func Default() *Config {
	return &Config{
		Namespace:   DefaultNamespace,
		LogLevel:    DefaultLogLevel,
		AuditBuffer: DefaultAuditBuffer,
	}
}

// Load reads, parses and validates a config file. Environment overrides are
// applied before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, applies defaults and environment overrides, and
// validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Namespace = validation.DefaultOr(cfg.Namespace, DefaultNamespace)
	cfg.LogLevel = validation.DefaultOr(cfg.LogLevel, DefaultLogLevel)
	cfg.ApplyEnv()

	if err := validation.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvNamespace); v != "" {
		c.Namespace = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv(EnvAuditFile); v != "" {
		c.AuditFile = v
	}
}

// Level returns the configured log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

// Validate checks the settings and the structure of every seed hierarchy.
// References are checked by name; whether the seed edits are accepted by the
// model is only known when the config is applied.
func (c *Config) Validate() error {
	cv := validation.NewConfigValidator("config").
		Required("namespace", c.Namespace).
		OneOf("log_level", c.LogLevel, logLevels).
		MinInt("audit_buffer", c.AuditBuffer, 1)

	// name -> index of the hierarchy declaring it
	declared := make(map[string]int)
	for i, h := range c.Hierarchies {
		field := fmt.Sprintf("hierarchies[%d]", i)
		cv.Name(field+".root", h.Root)
		if _, dup := declared[h.Root]; dup {
			cv.Custom(field+".root", func() error { return fmt.Errorf("concept %q declared twice", h.Root) })
		}
		declared[h.Root] = i

		for j := range h.Concepts {
			req := &h.Concepts[j]
			f := fmt.Sprintf("%s.concepts[%d]", field, j)
			if err := validation.ValidateConceptRequest(req); err != nil {
				cv.Custom(f, func() error { return err })
				continue
			}
			if _, dup := declared[req.Name]; dup {
				cv.Custom(f, func() error { return fmt.Errorf("concept %q declared twice", req.Name) })
			}
			if owner, ok := declared[req.Parent]; !ok || owner != i {
				cv.Custom(f, func() error {
					return fmt.Errorf("parent %q must be declared earlier in the same hierarchy", req.Parent)
				})
			}
			declared[req.Name] = i
		}
	}

	for i, h := range c.Hierarchies {
		field := fmt.Sprintf("hierarchies[%d]", i)
		inHierarchy := func(name string) bool {
			owner, ok := declared[name]
			return ok && owner == i
		}
		known := func(name string) bool {
			_, ok := declared[name]
			return ok
		}

		types := make(map[string]bool)
		for j := range h.ConstraintTypes {
			req := &h.ConstraintTypes[j]
			f := fmt.Sprintf("%s.constraint_types[%d]", field, j)
			if err := validation.ValidateConstraintTypeRequest(req); err != nil {
				cv.Custom(f, func() error { return err })
				continue
			}
			cv.When(types[req.Name], func(v *validation.ConfigValidator) {
				v.Custom(f, func() error { return fmt.Errorf("constraint type %q declared twice", req.Name) })
			}).When(!inHierarchy(req.RootSource), func(v *validation.ConfigValidator) {
				v.Custom(f+".root_source", func() error {
					return fmt.Errorf("%q is not a concept of hierarchy %q", req.RootSource, h.Root)
				})
			}).When(!known(req.RootTarget), func(v *validation.ConfigValidator) {
				v.Custom(f+".root_target", func() error { return fmt.Errorf("unknown concept %q", req.RootTarget) })
			})
			types[req.Name] = true
		}

		for j := range h.Constraints {
			req := &h.Constraints[j]
			f := fmt.Sprintf("%s.constraints[%d]", field, j)
			if err := validation.ValidateConstraintRequest(req); err != nil {
				cv.Custom(f, func() error { return err })
				continue
			}
			cv.When(!types[req.Type], func(v *validation.ConfigValidator) {
				v.Custom(f+".type", func() error { return fmt.Errorf("unknown constraint type %q", req.Type) })
			}).When(!inHierarchy(req.Source), func(v *validation.ConfigValidator) {
				v.Custom(f+".source", func() error {
					return fmt.Errorf("%q is not a concept of hierarchy %q", req.Source, h.Root)
				})
			})
			for _, target := range req.Targets() {
				if !known(target) {
					cv.Custom(f, func() error { return fmt.Errorf("unknown target %q", target) })
				}
			}
		}
	}

	return cv.Validate()
}
