// Package config loads the governance policy file: autonomy levels,
// aggregation weights, and lifecycle table overrides.
package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"gopkg.in/yaml.v3"

	"github.com/harborview/governor/pkg/domain"
)

// PolicyFile is the default policy configuration filename.
const PolicyFile = "policy.yaml"

var readRetry = retry.Config{
	MaxAttempts:   3,
	InitialDelay:  10 * time.Millisecond,
	BackoffPolicy: retry.BackoffExponential,
}

// LoadPolicyConfig reads and validates a policy file. A missing file yields
// the default configuration rather than an error, so a fresh deployment works
// before anyone has written policy. Reads retry briefly to ride out editors
// that truncate-then-write.
func LoadPolicyConfig(path string) (*domain.PolicyConfig, error) {
	retryer := retry.New[*domain.PolicyConfig](readRetry)

	return retryer.Do(context.Background(), func(ctx context.Context) (*domain.PolicyConfig, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return domain.DefaultPolicyConfig(), nil
			}
			return nil, fmt.Errorf("read policy file: %w", err)
		}

		cfg := domain.DefaultPolicyConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal policy file: %w", err)
		}
		if err := validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	})
}

// SavePolicyConfig writes a policy file.
func SavePolicyConfig(path string, cfg *domain.PolicyConfig) error {
	if cfg == nil {
		return fmt.Errorf("policy config is nil")
	}
	if err := validate(cfg); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal policy config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func validate(cfg *domain.PolicyConfig) error {
	if !cfg.PlatformCeiling.IsValid() {
		return fmt.Errorf("invalid platform_ceiling: %s", cfg.PlatformCeiling)
	}
	if !cfg.OrgLevel.IsValid() {
		return fmt.Errorf("invalid org_level: %s", cfg.OrgLevel)
	}
	for projectID, level := range cfg.ProjectOverrides {
		if !level.IsValid() {
			return fmt.Errorf("invalid override for project %s: %s", projectID, level)
		}
	}
	if _, err := cfg.StatusMachine(); err != nil {
		return fmt.Errorf("invalid transition overrides: %w", err)
	}
	return nil
}
