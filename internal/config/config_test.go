package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowtagger/internal/analysis"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if !cfg.UI.Wait {
		t.Error("expected the default to wait for a keypress")
	}
	if cfg.Report.Order != analysis.OrderFirstSeen {
		t.Errorf("default order = %q", cfg.Report.Order)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "flowtagger.toml", `
[paths]
lookup = "in/lookup.csv"
flow_log = "in/flows.log"
protocols = ""

[report]
order = "count"
include_zero_tags = true

[ui]
wait = false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Paths.Lookup != "in/lookup.csv" || cfg.Paths.FlowLog != "in/flows.log" {
		t.Errorf("unexpected paths: %+v", cfg.Paths)
	}
	if cfg.Paths.Protocols != "" {
		t.Errorf("expected the built-in registry to be selected, got %q", cfg.Paths.Protocols)
	}
	if cfg.Paths.OutputDir != Default().Paths.OutputDir {
		t.Errorf("expected default output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Report.Order != analysis.OrderCount || !cfg.Report.IncludeZeroTags {
		t.Errorf("unexpected report config: %+v", cfg.Report)
	}
	if cfg.UI.Wait {
		t.Error("expected wait to be disabled")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "flowtagger.yaml", `
paths:
  output_dir: reports
report:
  tag_file: tags.csv
log:
  level: debug
  no_color: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Paths.OutputDir != "reports" || cfg.Report.TagFile != "tags.csv" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.NoColor {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.Paths.Lookup != Default().Paths.Lookup {
		t.Errorf("expected default lookup path, got %q", cfg.Paths.Lookup)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]struct {
		name, content, want string
	}{
		"bad order":      {"c.toml", "[report]\norder = \"random\"\n", "unknown report order"},
		"unknown key":    {"c.toml", "[paths]\nflowlog = \"x\"\n", "unknown key"},
		"empty flow log": {"c.yml", "paths:\n  flow_log: \"\"\n", "flow log path is required"},
		"nested file":    {"c.toml", "[report]\ntag_file = \"a/b.csv\"\n", "must not contain a directory"},
		"same files":     {"c.toml", "[report]\ntag_file = \"x.csv\"\nport_protocol_file = \"x.csv\"\n", "must differ"},
		"bad log level":  {"c.toml", "[log]\nlevel = \"verbose\"\n", "unknown log level"},
		"extension":      {"c.json", "{}", "unsupported extension"},
		"toml syntax":    {"c.toml", "[paths\n", "load config"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.name, tc.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
