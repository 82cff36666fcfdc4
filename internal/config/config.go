// Package config holds the settings of a flowtagger run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"flowtagger/internal/analysis"
	"flowtagger/internal/logger"
	"flowtagger/internal/reporting"

	"github.com/BurntSushi/toml"
	yaml "gopkg.in/yaml.v3"
)

// Config is passed to pipeline.Run and to the CLI front end.
type Config struct {
	Paths  Paths
	Report Report
	UI     UI
	Log    Log
}

// Paths locates the inputs and the output directory. An empty Protocols path
// selects the built-in protocol registry.
type Paths struct {
	Protocols string
	Lookup    string
	FlowLog   string
	OutputDir string
}

// Report controls the report files.
type Report struct {
	TagFile          string
	PortProtocolFile string
	Order            analysis.Order
	IncludeZeroTags  bool
}

// UI controls the end-of-run screen.
type UI struct {
	Wait bool // wait for a keypress before exiting
}

// Log controls logging.
type Log struct {
	Level   string
	NoColor bool
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Paths: Paths{
			Protocols: filepath.Join("data", "protocol-numbers.csv"),
			Lookup:    filepath.Join("data", "lookup_table.csv"),
			FlowLog:   filepath.Join("data", "flow_log.txt"),
			OutputDir: "output",
		},
		Report: Report{
			TagFile:          reporting.DefaultTagFile,
			PortProtocolFile: reporting.DefaultPortProtocolFile,
			Order:            analysis.OrderFirstSeen,
		},
		UI: UI{Wait: true},
	}
}

// fileConfig mirrors the on-disk layout; pointer fields tell unset from zero.
type fileConfig struct {
	Paths struct {
		Protocols *string `toml:"protocols" yaml:"protocols"`
		Lookup    *string `toml:"lookup" yaml:"lookup"`
		FlowLog   *string `toml:"flow_log" yaml:"flow_log"`
		OutputDir *string `toml:"output_dir" yaml:"output_dir"`
	} `toml:"paths" yaml:"paths"`
	Report struct {
		TagFile          *string `toml:"tag_file" yaml:"tag_file"`
		PortProtocolFile *string `toml:"port_protocol_file" yaml:"port_protocol_file"`
		Order            *string `toml:"order" yaml:"order"`
		IncludeZeroTags  *bool   `toml:"include_zero_tags" yaml:"include_zero_tags"`
	} `toml:"report" yaml:"report"`
	UI struct {
		Wait *bool `toml:"wait" yaml:"wait"`
	} `toml:"ui" yaml:"ui"`
	Log struct {
		Level   *string `toml:"level" yaml:"level"`
		NoColor *bool   `toml:"no_color" yaml:"no_color"`
	} `toml:"log" yaml:"log"`
}

// Load reads a TOML or YAML file (chosen by extension) over the defaults and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return Config{}, fmt.Errorf("load config (%s): %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("load config (%s): unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config (%s): %w", path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config (%s): %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("load config (%s): unsupported extension %q", path, ext)
	}

	if err := raw.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("config (%s): %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config (%s): %w", path, err)
	}
	return cfg, nil
}

func (raw fileConfig) apply(cfg *Config) error {
	setString(&cfg.Paths.Protocols, raw.Paths.Protocols)
	setString(&cfg.Paths.Lookup, raw.Paths.Lookup)
	setString(&cfg.Paths.FlowLog, raw.Paths.FlowLog)
	setString(&cfg.Paths.OutputDir, raw.Paths.OutputDir)
	setString(&cfg.Report.TagFile, raw.Report.TagFile)
	setString(&cfg.Report.PortProtocolFile, raw.Report.PortProtocolFile)
	setString(&cfg.Log.Level, raw.Log.Level)

	if raw.Report.Order != nil {
		order, err := analysis.ParseOrder(*raw.Report.Order)
		if err != nil {
			return err
		}
		cfg.Report.Order = order
	}
	if raw.Report.IncludeZeroTags != nil {
		cfg.Report.IncludeZeroTags = *raw.Report.IncludeZeroTags
	}
	if raw.UI.Wait != nil {
		cfg.UI.Wait = *raw.UI.Wait
	}
	if raw.Log.NoColor != nil {
		cfg.Log.NoColor = *raw.Log.NoColor
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// Validate checks that a configuration can drive a run.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Paths.Lookup) == "" {
		return errors.New("lookup table path is required")
	}
	if strings.TrimSpace(c.Paths.FlowLog) == "" {
		return errors.New("flow log path is required")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("output directory is required")
	}
	for _, name := range []string{c.Report.TagFile, c.Report.PortProtocolFile} {
		if err := validateFileName(name); err != nil {
			return err
		}
	}
	if c.Report.TagFile == c.Report.PortProtocolFile {
		return fmt.Errorf("report file names must differ, both are %q", c.Report.TagFile)
	}
	if _, err := analysis.ParseOrder(string(c.Report.Order)); err != nil {
		return err
	}
	if strings.TrimSpace(c.Log.Level) != "" {
		if _, ok := logger.ParseLevel(c.Log.Level); !ok {
			return fmt.Errorf("unknown log level %q", c.Log.Level)
		}
	}
	return nil
}

func validateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("report file name is required")
	}
	if filepath.Base(name) != name || name == "." || name == ".." {
		return fmt.Errorf("report file name %q must not contain a directory", name)
	}
	return nil
}

// ReportFiles returns the report names in the form the writer expects.
func (c Config) ReportFiles() reporting.Files {
	return reporting.Files{Tag: c.Report.TagFile, PortProtocol: c.Report.PortProtocolFile}
}
