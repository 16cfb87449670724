// Package secrets keeps API tokens in the OS keychain, with environment
// variables as a fallback for headless hosts.
package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the app's secrets in the OS keychain.
	KeyringService = "jobsearcher"

	envPrefix = "JOBSEARCHER_"
)

var ErrNotFound = errors.New("secret not found (set it in keychain or via env)")

// EnvVar is the fallback variable for account, e.g. "jobtech" ->
// JOBSEARCHER_JOBTECH_API_KEY.
func EnvVar(account string) string {
	a := strings.ToUpper(strings.TrimSpace(account))
	a = strings.NewReplacer("-", "_", ".", "_", ":", "_").Replace(a)
	return envPrefix + a + "_API_KEY"
}

// Get looks the account up in the keyring first, then in the environment.
func Get(account string) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", errors.New("keyring account name is empty")
	}

	if v, err := keyring.Get(KeyringService, account); err == nil && strings.TrimSpace(v) != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv(EnvVar(account))); v != "" {
		return v, nil
	}
	return "", ErrNotFound
}

// Lookup is Get for optional secrets: a missing one yields "".
func Lookup(account string) string {
	if strings.TrimSpace(account) == "" {
		return ""
	}
	v, _ := Get(account)
	return v
}

func Set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}
