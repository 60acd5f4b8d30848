package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"icssc/common"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "icssc.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_Defaults(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Composition.Strictness != common.StrictnessWarn {
		t.Errorf("Strictness = %v, want warn", cfg.Composition.Strictness)
	}
	if got := strings.Join(cfg.Composition.Properties, ","); got != "composes,compose-with" {
		t.Errorf("Properties = %q", got)
	}
	if cfg.Scope.Enable || cfg.Scope.Mode != common.ScopeModeLocal {
		t.Errorf("Scope = %+v", cfg.Scope)
	}
	// name pattern is a template for classes and must survive configuration expansion
	if !strings.Contains(cfg.Scope.NamePattern, "{{ .Name }}") {
		t.Errorf("NamePattern was expanded: %q", cfg.Scope.NamePattern)
	}
	if len(cfg.Processing.Extensions) != 1 || cfg.Processing.Extensions[0] != ".css" {
		t.Errorf("Extensions = %v", cfg.Processing.Extensions)
	}
	if cfg.Processing.RecordsSuffix != ".composes.yaml" {
		t.Errorf("RecordsSuffix = %q", cfg.Processing.RecordsSuffix)
	}
	if cfg.Logging.FileLogger.Level != "none" || cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if filepath.Base(cfg.Reporting.Destination) != "icssc-report.zip" {
		t.Errorf("Reporting.Destination = %q", cfg.Reporting.Destination)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `version: 1
composition:
  strictness: error
  properties: ["composes"]
scope:
  enable: true
  mode: global
  name_pattern: "x_{{ .Name }}"
processing:
  workers: 2
  extensions: [".css", ".pcss"]
  records: true
  records_suffix: ".rec.yaml"
logging:
  console:
    level: debug
  file:
    level: debug
    destination: `+filepath.Join(dir, "logs", "test.log")+`
    mode: append
reporting:
  destination: `+filepath.Join(dir, "report.zip")+`
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if !cfg.Composition.Strictness.Strict() {
		t.Error("expected error strictness")
	}
	if len(cfg.Composition.Properties) != 1 {
		t.Errorf("Properties = %v", cfg.Composition.Properties)
	}
	if !cfg.Scope.Enable || cfg.Scope.Mode != common.ScopeModeGlobal || cfg.Scope.NamePattern != "x_{{ .Name }}" {
		t.Errorf("Scope = %+v", cfg.Scope)
	}
	if cfg.Processing.Workers != 2 || len(cfg.Processing.Extensions) != 2 || !cfg.Processing.Records {
		t.Errorf("Processing = %+v", cfg.Processing)
	}
	// sanitizer creates directory for log file
	if info, err := os.Stat(filepath.Join(dir, "logs")); err != nil || !info.IsDir() {
		t.Errorf("log directory was not created: %v", err)
	}
}

func TestLoadConfiguration_MergeWithDefaults(t *testing.T) {
	cfg, err := LoadConfiguration(writeConfig(t, "version: 1\nscope:\n  enable: true\n"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if !cfg.Scope.Enable {
		t.Error("Expected scope to be enabled from config file")
	}
	if len(cfg.Scope.NamePattern) == 0 || len(cfg.Composition.Properties) != 2 {
		t.Errorf("defaults were lost: %+v", cfg)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\ncomposition:\n  strictness: warn\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"bad version", "version: 2\n"},
		{"bad strictness", "version: 1\ncomposition:\n  strictness: fatal\n"},
		{"bad mode", "version: 1\nscope:\n  mode: pure\n"},
		{"no properties", "version: 1\ncomposition:\n  properties: []\n"},
		{"bad extension", "version: 1\nprocessing:\n  extensions: [css]\n"},
		{"bad log level", "version: 1\nlogging:\n  console:\n    level: verbose\n"},
		{"missing records suffix", "version: 1\nprocessing:\n  records: true\n  records_suffix: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/icssc.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Composition.Strictness = common.StrictnessError
	cfg.Scope.Mode = common.ScopeModeGlobal

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(data), "strictness: error") || !strings.Contains(string(data), "mode: global") {
		t.Errorf("enums are not dumped by name:\n%s", data)
	}

	back, err := unmarshalConfig(data, &Config{}, true)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if back.Composition.Strictness != common.StrictnessError || back.Scope.NamePattern != cfg.Scope.NamePattern {
		t.Errorf("dump/load mismatch: %+v", back)
	}
}

func TestUnmarshalConfig_WrapsValidationError(t *testing.T) {
	_, err := unmarshalConfig([]byte("version: 99\n"), &Config{}, true)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "validate") {
		t.Errorf("expected error to mention validation, got: %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("expected wrapped error, got: %v", err)
	}
}
