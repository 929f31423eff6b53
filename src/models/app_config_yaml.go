package models

import "fmt"

type DatabaseConfigYAML struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type AppConfigYAML struct {
	// RiskFreeRate is the assumed annual risk free rate used when deriving
	// Greeks from raw chain quotes. It is a configuration constant, not
	// fetched live.
	RiskFreeRate float64            `yaml:"risk_free_rate"`
	Database     DatabaseConfigYAML `yaml:"database"`
}

func (c *AppConfigYAML) Validate() error {
	if c.RiskFreeRate < 0 {
		return fmt.Errorf("AppConfigYAML: Validate: risk_free_rate must not be negative")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("AppConfigYAML: Validate: database host is required")
	}

	return nil
}
