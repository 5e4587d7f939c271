// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package suppressions downgrades detector matches whose evidence is a
// known public value. Government datasets are full of institutional
// phones, service emails and published registry numbers that every
// detector rightly matches but no reviewer wants flagged; the allowlist
// keeps them out of the verdict while still recording that they were
// seen.
package suppressions

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"crivo/internal/normalize"
	"crivo/internal/paths"

	"gopkg.in/yaml.v3"
)

// SuppressionRule represents a single allowlist entry. Value matches
// evidence literally after normalization; Pattern is a regular
// expression tried against the normalized evidence. Exactly one of the
// two should be set. An empty Detectors list applies to all detectors.
type SuppressionRule struct {
	ID        string     `yaml:"id"`
	Value     string     `yaml:"value,omitempty"`
	Pattern   string     `yaml:"pattern,omitempty"`
	Detectors []string   `yaml:"detectors,omitempty"`
	Reason    string     `yaml:"reason"`
	Enabled   bool       `yaml:"enabled"`
	CreatedAt time.Time  `yaml:"created_at,omitempty"`
	ExpiresAt *time.Time `yaml:"expires_at,omitempty"`
}

// SuppressionConfig represents the suppression configuration file
type SuppressionConfig struct {
	Version string            `yaml:"version"`
	Rules   []SuppressionRule `yaml:"rules"`
}

// SuppressionManager handles matching findings against the allowlist
type SuppressionManager struct {
	configPath string
	config     *SuppressionConfig
	patterns   map[string]*regexp.Regexp
	enabled    bool
}

// NewSuppressionManager creates a new suppression manager. An empty
// configPath falls back to the default suppressions file; a missing or
// unreadable file yields an empty allowlist.
func NewSuppressionManager(configPath string) *SuppressionManager {
	if configPath == "" {
		configPath = paths.GetSuppressionsFile()
	}

	manager := &SuppressionManager{
		configPath: configPath,
		patterns:   make(map[string]*regexp.Regexp),
		enabled:    true,
	}

	manager.loadConfig()
	return manager
}

// loadConfig loads the suppression configuration
func (sm *SuppressionManager) loadConfig() {
	sm.config = &SuppressionConfig{Version: "1.0", Rules: []SuppressionRule{}}
	if sm.configPath == "" {
		return
	}

	cleanPath := filepath.Clean(sm.configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return
	}

	var config SuppressionConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return
	}
	sm.config = &config

	for _, rule := range sm.config.Rules {
		if rule.Pattern == "" {
			continue
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			// An uncompilable pattern never matches anything.
			continue
		}
		sm.patterns[rule.ID] = re
	}
}

// IsSuppressed checks whether a finding's evidence hits an active rule.
// Evidence is compared in normalized form, so rules may be written with
// accents and any casing.
func (sm *SuppressionManager) IsSuppressed(detectorID, evidence string) (bool, *SuppressionRule) {
	if !sm.enabled || sm.config == nil || evidence == "" {
		return false, nil
	}

	folded := normalize.Fold(evidence)
	now := time.Now()

	for i := range sm.config.Rules {
		rule := &sm.config.Rules[i]
		if !rule.Enabled {
			continue
		}
		if rule.ExpiresAt != nil && now.After(*rule.ExpiresAt) {
			continue
		}
		if !rule.appliesTo(detectorID) {
			continue
		}
		if rule.Value != "" && normalize.Fold(rule.Value) == folded {
			return true, rule
		}
		if rule.Pattern != "" {
			if re, ok := sm.patterns[rule.ID]; ok && re.MatchString(folded) {
				return true, rule
			}
		}
	}

	return false, nil
}

func (r *SuppressionRule) appliesTo(detectorID string) bool {
	if len(r.Detectors) == 0 {
		return true
	}
	for _, d := range r.Detectors {
		if d == detectorID {
			return true
		}
	}
	return false
}

// ListSuppressions returns all suppression rules
func (sm *SuppressionManager) ListSuppressions() []SuppressionRule {
	if sm.config == nil {
		return []SuppressionRule{}
	}
	return sm.config.Rules
}

// ActiveCount returns the number of rules that can currently match.
func (sm *SuppressionManager) ActiveCount() int {
	if sm.config == nil {
		return 0
	}
	now := time.Now()
	count := 0
	for _, rule := range sm.config.Rules {
		if !rule.Enabled {
			continue
		}
		if rule.ExpiresAt != nil && now.After(*rule.ExpiresAt) {
			continue
		}
		count++
	}
	return count
}

// SetEnabled enables or disables the suppression manager
func (sm *SuppressionManager) SetEnabled(enabled bool) {
	sm.enabled = enabled
}

// IsEnabled returns whether the suppression manager is enabled
func (sm *SuppressionManager) IsEnabled() bool {
	return sm.enabled
}

// GetConfigPath returns the path to the suppression config file
func (sm *SuppressionManager) GetConfigPath() string {
	return sm.configPath
}
