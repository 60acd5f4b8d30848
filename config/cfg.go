package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"icssc/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	CompositionConfig struct {
		Strictness common.Strictness `yaml:"strictness" validate:"gte=0"`
		Properties []string          `yaml:"properties" validate:"min=1,dive,required,lowercase"`
	}

	ScopeConfig struct {
		Enable      bool             `yaml:"enable"`
		Mode        common.ScopeMode `yaml:"mode" validate:"gte=0"`
		NamePattern string           `yaml:"name_pattern" validate:"required_if=Enable true"`
	}

	ProcessingConfig struct {
		Workers       int      `yaml:"workers" validate:"min=0,max=256"`
		Extensions    []string `yaml:"extensions" validate:"min=1,dive,startswith=."`
		Records       bool     `yaml:"records"`
		RecordsSuffix string   `yaml:"records_suffix" validate:"required_if=Records true"`
		Overwrite     bool     `yaml:"overwrite"`
	}

	Config struct {
		Version     int               `yaml:"version" validate:"eq=1"`
		Composition CompositionConfig `yaml:"composition"`
		Scope       ScopeConfig       `yaml:"scope"`
		Processing  ProcessingConfig  `yaml:"processing"`
		Logging     LoggingConfig     `yaml:"logging"`
		Reporting   ReporterConfig    `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, scope name pattern is expanded
	// per class at run time, not when configuration is loaded
	NamePatternFieldName TemplateFieldName = "name_pattern"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(NamePatternFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if !process {
		return cfg, nil
	}
	if err := gencfg.Sanitize(cfg); err != nil {
		return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
	}
	if err := gencfg.Validate(cfg); err != nil {
		return nil, fmt.Errorf("failed to validate configuration: %w", err)
	}
	return cfg, nil
}

// LoadConfiguration expands the embedded template to get defaults and, when
// path is not empty, overlays values from the file at path. The result is
// sanitized and validated.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, true)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
