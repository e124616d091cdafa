package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromFile loads pipeline overrides from a file, auto-detecting the format
// by extension (.yaml, .yml, .json). The result is a loose Config; use
// EncoderFromConfig and CodecFromConfig, or the typed loaders below, to
// overlay it on the defaults.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
}

// FromYAML parses yaml overrides into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse config yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses json overrides into a Config.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse config json: %w", err)
	}
	return New(m), nil
}

// EncoderFromFile loads a file of overrides and overlays it on the default
// encoder options.
func EncoderFromFile(path string) (Encoder, error) {
	c, err := FromFile(path)
	if err != nil {
		return Encoder{}, err
	}
	return EncoderFromConfig(c), nil
}

// CodecFromFile loads a file of overrides and overlays it on the default
// codec options.
func CodecFromFile(path string) (Codec, error) {
	c, err := FromFile(path)
	if err != nil {
		return Codec{}, err
	}
	return CodecFromConfig(c), nil
}

// RulesFromFile loads a grouping rule set from a yaml file. The file holds
// a top-level `rules` list:
//
//	rules:
//	  - name: exploratory-read
//	    unit: working_set
//	    priority: 50
//	    confidence: 0.7
//	    conditions:
//	      - kind: temporal
//	        weight: 0.5
//	        max_gap: 10m
//	      - kind: semantic
//	        weight: 0.5
//	        tag: feature
func RulesFromFile(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	return RulesFromYAML(data)
}

// RulesFromYAML parses a rule set from yaml data. The set is validated
// before it is returned; an invalid rule fails the whole load.
func RulesFromYAML(data []byte) (RuleSet, error) {
	var doc struct {
		Rules RuleSet `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	if err := doc.Rules.Validate(); err != nil {
		return nil, err
	}
	return doc.Rules, nil
}
