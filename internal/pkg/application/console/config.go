package console

import (
	"fmt"
	"io"

	yaml "gopkg.in/yaml.v2"
)

type EntityConfig struct {
	Name  string `yaml:"name"`
	AppID string `yaml:"appId"`
}

type RecordStoreConfig struct {
	Endpoint         string `yaml:"endpoint"`
	ReferenceBaseURL string `yaml:"referenceBaseUrl"`
}

type Config struct {
	RecordStore RecordStoreConfig `yaml:"recordStore"`
	Entities    []EntityConfig    `yaml:"entities"`
}

func (cfg *Config) AppID(entity string) (string, bool) {
	for _, e := range cfg.Entities {
		if e.Name == entity {
			return e.AppID, e.AppID != ""
		}
	}
	return "", false
}

func LoadConfiguration(data io.Reader) (*Config, error) {

	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse console configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig maps every entity type to an app id equal to its name, which
// is all the in-memory store needs
func DefaultConfig() *Config {
	cfg := &Config{}
	for _, name := range EntityNames {
		cfg.Entities = append(cfg.Entities, EntityConfig{Name: name, AppID: name})
	}
	return cfg
}
