package inpdeck

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/golangfem/inpdeck/internal/lexer"
	"github.com/golangfem/inpdeck/model"
)

// Config is the on-disk form of load settings, usually inpdeck.yaml.
//
//	mode: lenient
//	dialect: inp
//	markers: {keyword: "*", comment: "**"}
//	workers: 4
//	diagnostics:
//	  fail_at: error
//	  ignore: ["unknown-*"]
//	  overrides: {user-material-count: error}
type Config struct {
	Mode        string             `yaml:"mode,omitempty"`
	Dialect     string             `yaml:"dialect,omitempty"`
	Markers     *MarkersConfig     `yaml:"markers,omitempty"`
	Workers     int                `yaml:"workers,omitempty"`
	Diagnostics *DiagnosticsConfig `yaml:"diagnostics,omitempty"`
}

// MarkersConfig spells out keyword and comment markers.
type MarkersConfig struct {
	Keyword string `yaml:"keyword"`
	Comment string `yaml:"comment"`
}

// DiagnosticsConfig mirrors model.DiagnosticConfig with severity names.
type DiagnosticsConfig struct {
	FailAt    string            `yaml:"fail_at,omitempty"`
	Ignore    []string          `yaml:"ignore,omitempty"`
	Overrides map[string]string `yaml:"overrides,omitempty"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes and validates YAML config text. Unknown fields are
// rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values without applying them.
func (c *Config) Validate() error {
	_, err := c.Options()
	return err
}

// Options converts the config into load options.
func (c *Config) Options() ([]LoadOption, error) {
	if c == nil {
		return nil, nil
	}
	var opts []LoadOption
	var errs []error

	if c.Mode != "" {
		mode, err := model.ParseMode(c.Mode)
		if err != nil {
			errs = append(errs, fmt.Errorf("mode: %w", err))
		} else if mode == model.ModeStrict {
			opts = append(opts, WithStrict())
		} else {
			opts = append(opts, WithLenient())
		}
	}
	if c.Dialect != "" {
		if _, ok := lexer.DialectByName(c.Dialect); !ok {
			errs = append(errs, fmt.Errorf("dialect: unknown dialect %q", c.Dialect))
		} else {
			opts = append(opts, WithDialect(c.Dialect))
		}
	}
	if c.Markers != nil {
		if c.Markers.Keyword == "" || c.Markers.Comment == "" {
			errs = append(errs, errors.New("markers: keyword and comment are both required"))
		} else {
			opts = append(opts, WithMarkers(c.Markers.Keyword, c.Markers.Comment))
		}
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers: %d is negative", c.Workers))
	} else if c.Workers > 0 {
		opts = append(opts, WithWorkers(c.Workers))
	}
	if c.Diagnostics != nil {
		dc, err := c.Diagnostics.toModel()
		if err != nil {
			errs = append(errs, err)
		} else {
			opts = append(opts, WithDiagnosticConfig(dc))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return opts, nil
}

func (d *DiagnosticsConfig) toModel() (model.DiagnosticConfig, error) {
	dc := model.DefaultDiagnosticConfig()
	var errs []error
	if d.FailAt != "" {
		sev, err := model.ParseSeverity(d.FailAt)
		if err != nil {
			errs = append(errs, fmt.Errorf("diagnostics.fail_at: %w", err))
		}
		dc.FailAt = sev
	}
	dc.Ignore = append(dc.Ignore, d.Ignore...)
	if len(d.Overrides) > 0 {
		dc.Overrides = make(map[string]model.Severity, len(d.Overrides))
		for code, name := range d.Overrides {
			sev, err := model.ParseSeverity(name)
			if err != nil {
				errs = append(errs, fmt.Errorf("diagnostics.overrides[%s]: %w", code, err))
				continue
			}
			dc.Overrides[code] = sev
		}
	}
	return dc, errors.Join(errs...)
}
