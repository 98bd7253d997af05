package webhook

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type endpointsFile struct {
	Endpoints []Endpoint `yaml:"endpoints"`
}

// LoadEndpoints reads webhook endpoints from a YAML file.
func LoadEndpoints(path string) ([]Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read webhook config: %w", err)
	}
	var cfg endpointsFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal webhook config: %w", err)
	}
	for i, ep := range cfg.Endpoints {
		if ep.URL == "" {
			return nil, fmt.Errorf("webhook endpoint %d has no url", i)
		}
	}
	return cfg.Endpoints, nil
}
