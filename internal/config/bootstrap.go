package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// EnsureProfile makes sure a usable profile exists at userPath and returns
// that path. A missing profile is seeded from the template at templatePath
// when that file parses and validates, and from DefaultProfile otherwise.
// An existing profile is left alone, even if it is invalid; the scorer
// reports that when it loads.
func EnsureProfile(userPath, templatePath string) (string, error) {
	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(userPath), 0o755); err != nil {
		return "", err
	}

	seed := DefaultProfile()
	if templatePath != "" {
		tpl, err := LoadProfile(templatePath)
		switch {
		case err == nil:
			if _, _, verr := ValidateProfile(tpl); verr != nil {
				return "", fmt.Errorf("profile template %s: %w", templatePath, verr)
			}
			seed = tpl
		case !errors.Is(err, os.ErrNotExist):
			return "", err
		}
	}

	if err := SaveProfileAtomic(userPath, seed); err != nil {
		return "", err
	}
	return userPath, nil
}
