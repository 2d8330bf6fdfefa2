package params

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements Provider for YAML parameter files.
type YAMLProvider struct {
	filename  string
	catchment *Catchment
}

// NewYAMLProvider creates a new YAML parameter provider.
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{filename: filename}
}

// Load reads and caches the full catchment hierarchy from the YAML file.
func (y *YAMLProvider) Load() (*Catchment, error) {
	if y.catchment != nil {
		return y.catchment, nil
	}

	raw, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", y.filename, err)
	}

	var c Catchment
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", y.filename, err)
	}

	y.catchment = &c
	return y.catchment, nil
}

// IsReadOnly returns true: YAML parameter files are never written by the core.
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for file-based providers.
func (y *YAMLProvider) Close() error {
	return nil
}
