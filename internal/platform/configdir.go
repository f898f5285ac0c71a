package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigDir returns the per-application configuration directory, falling
// back to the OS convention under the home directory when the user config
// dir cannot be resolved.
func ConfigDir(appName string) (string, error) {
	base, err := os.UserConfigDir()
	if err == nil && base != "" {
		return filepath.Join(base, appName), nil
	}

	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", fmt.Errorf("get config dir: %w", err)
		}
		return "", fmt.Errorf("get config dir: %w", homeErr)
	}

	return filepath.Join(fallbackConfigDir(homeDir), appName), nil
}
