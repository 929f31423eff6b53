package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cmalloy/options-desk/src/models"
)

// LoadAppConfig reads and validates the YAML application config holding the
// assumed risk free rate and the postgres connection settings.
func LoadAppConfig(path string) (*models.AppConfigYAML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadAppConfig: failed to read %s: %w", path, err)
	}

	var config models.AppConfigYAML
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("LoadAppConfig: failed to parse %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("LoadAppConfig: %w", err)
	}

	return &config, nil
}
