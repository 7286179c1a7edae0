// Package config loads tool configuration from YAML files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/phx-tp/phx-basics/internal/textio"
)

// Config collects the settings of the model and dictionary tools.
type Config struct {
	Verbose bool        `yaml:"verbose"`
	Check   CheckConfig `yaml:"check"`
	Edit    EditConfig  `yaml:"edit"`
	Dict    DictConfig  `yaml:"dict"`
}

// CheckConfig controls model vocabulary checks.
type CheckConfig struct {
	// AllowOptionalTags also accepts the optional non-speech tags as
	// vocabulary.
	AllowOptionalTags bool `yaml:"allow_optional_tags"`
}

// EditConfig controls model editing.
type EditConfig struct {
	// RecountBackOffs recomputes invalidated back-off weights after
	// editing. Without it an edited model cannot be written.
	RecountBackOffs bool `yaml:"recount_back_offs"`
	// CheckBackOffs compares recounted back-offs against the stored
	// ones and logs deviations.
	CheckBackOffs bool `yaml:"check_back_offs"`
}

// DictConfig controls dictionary checking and output.
type DictConfig struct {
	GraphemePermissive bool `yaml:"grapheme_permissive"`
	PhonemePermissive  bool `yaml:"phoneme_permissive"`
	// WriteTags adds the annotation tag entries when writing a
	// dictionary.
	WriteTags bool `yaml:"write_tags"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Edit: EditConfig{RecountBackOffs: true},
		Dict: DictConfig{WriteTags: true},
	}
}

// Load reads a YAML configuration file on top of the defaults. Unknown
// keys are rejected; a typo must not silently fall back to a default.
func Load(path string) (Config, error) {
	if err := textio.CheckFile(path); err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
