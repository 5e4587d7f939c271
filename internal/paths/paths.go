// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"os"
	"path/filepath"

	"crivo/internal/platform"
)

// GetConfigDir returns the crivo configuration directory
// Uses platform-specific logic for Windows APPDATA directories and Unix home directories
func GetConfigDir() string {
	// Check for explicit override first (works on all platforms)
	if dir := os.Getenv("CRIVO_CONFIG_DIR"); dir != "" {
		return dir
	}

	// Use platform-specific configuration directory logic
	p := platform.GetPlatform()
	return p.GetConfigDir()
}

// GetConfigFile returns the path to the main config file
func GetConfigFile() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// GetSuppressionsFile returns the path to the suppressions file
func GetSuppressionsFile() string {
	return filepath.Join(GetConfigDir(), "suppressions.yaml")
}

// GetCacheFile returns the path to the oracle cache database
func GetCacheFile() string {
	return filepath.Join(GetConfigDir(), "cache.db")
}

// GetTempDir returns the platform-appropriate temporary directory
func GetTempDir() string {
	p := platform.GetPlatform()
	return p.GetTempDir()
}

// NormalizePath normalizes a file path for the current platform
func NormalizePath(path string) string {
	p := platform.GetPlatform()
	return p.NormalizePath(path)
}

// IsAbsolutePath checks if a path is absolute on the current platform
func IsAbsolutePath(path string) bool {
	p := platform.GetPlatform()
	return p.IsAbsolutePath(path)
}
