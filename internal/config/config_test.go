// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"crivo/internal/fragment"
)

func TestLoadConfigOrDefault_NoFile(t *testing.T) {
	// With no config file, should return defaults without error
	cfg := LoadConfigOrDefault("")
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.Defaults.Format == "" {
		t.Error("expected default format to be set")
	}
}

func TestLoadConfigOrDefault_NonexistentFile(t *testing.T) {
	// A path that doesn't exist should fall back to defaults
	cfg := LoadConfigOrDefault("/nonexistent/path/config.yaml")
	if cfg == nil {
		t.Fatal("expected non-nil config (fallback to defaults)")
	}
}

func TestLoadConfigOrDefault_ValidFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
defaults:
  format: json
  workers: 4
oracle:
  enabled: true
  model: gpt-4o-mini
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := LoadConfigOrDefault(configPath)
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.Defaults.Format != "json" {
		t.Errorf("expected format=json, got %q", cfg.Defaults.Format)
	}
	if cfg.Defaults.Workers != 4 {
		t.Errorf("expected workers=4, got %d", cfg.Defaults.Workers)
	}
	if !cfg.Oracle.Enabled {
		t.Error("expected oracle to be enabled")
	}
}

func TestLoadConfigOrDefault_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "bad.yaml")

	if err := os.WriteFile(configPath, []byte(":::invalid yaml:::"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Should fall back to defaults, not panic
	cfg := LoadConfigOrDefault(configPath)
	if cfg == nil {
		t.Fatal("expected non-nil config (fallback to defaults on parse error)")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Defaults.Format != "text" {
		t.Errorf("expected default format=text, got %q", cfg.Defaults.Format)
	}
	if cfg.Screening.WindowSize != fragment.DefaultWindow {
		t.Errorf("expected default window=%d, got %d", fragment.DefaultWindow, cfg.Screening.WindowSize)
	}
	if cfg.Screening.WindowOverlap != fragment.DefaultOverlap {
		t.Errorf("expected default overlap=%d, got %d", fragment.DefaultOverlap, cfg.Screening.WindowOverlap)
	}
	if !cfg.Screening.SuppressionsEnabled {
		t.Error("expected suppressions_enabled=true by default")
	}
	if cfg.Oracle.Enabled {
		t.Error("expected oracle disabled by default")
	}
	if cfg.Paths.Cache == "" {
		t.Error("expected a default cache path")
	}
}

func TestLoadConfig_SuppressionsDefaultSurvivesPartialFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	// A file that sets other screening keys but not suppressions_enabled
	// must not flip suppressions off.
	content := `
screening:
  window_size: 35
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Screening.SuppressionsEnabled {
		t.Error("expected suppressions_enabled to stay true")
	}
}

func TestLoadConfig_ProfilesInitialized(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Profiles == nil {
		t.Error("expected profiles map to be initialized")
	}
	// Default local-only profile should exist
	if _, ok := cfg.Profiles["local"]; !ok {
		t.Error("expected 'local' profile to exist in defaults")
	}
}

func TestLoadConfig_RejectsBadWindow(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
screening:
  window_size: 5
  window_overlap: 12
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Fatal("expected an error for a window size outside the allowed range")
	}
}

func TestValidateCredentials(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Oracle disabled: no credentials required.
	if err := ValidateCredentials(cfg, Credentials{}); err != nil {
		t.Errorf("unexpected error with oracle disabled: %v", err)
	}

	// Oracle enabled without a key must fail at startup.
	cfg.Oracle.Enabled = true
	if err := ValidateCredentials(cfg, Credentials{}); err == nil {
		t.Error("expected an error when the oracle key is missing")
	}

	// Name token lookup without its key must fail too.
	cfg.Oracle.Enabled = false
	cfg.Oracle.NameTokenLookup = true
	if err := ValidateCredentials(cfg, Credentials{}); err == nil {
		t.Error("expected an error when the lookup key is missing")
	}
}

func TestLoadCredentials_PrefersCrivoKey(t *testing.T) {
	t.Setenv(EnvOpenAIKey, "crivo-key")
	t.Setenv(EnvOpenAIKeyGeneric, "generic-key")

	creds := LoadCredentials()
	if creds.OpenAIKey == nil {
		t.Fatal("expected the key to load")
	}
	if got := creds.OpenAIKey.String(); got != "crivo-key" {
		t.Errorf("key = %q, want the crivo-specific variable to win", got)
	}
	creds.Clear()
}

func TestLoadCredentials_FallsBackToGeneric(t *testing.T) {
	t.Setenv(EnvOpenAIKey, "")
	t.Setenv(EnvOpenAIKeyGeneric, "generic-key")

	creds := LoadCredentials()
	if creds.OpenAIKey == nil {
		t.Fatal("expected the generic key to load")
	}
	if got := creds.OpenAIKey.String(); got != "generic-key" {
		t.Errorf("key = %q, want the generic variable", got)
	}
	creds.Clear()
}
