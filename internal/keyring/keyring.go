package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/callcoach/internal/constants"
)

var (
	// ErrNotFound is returned when no secret is stored under the requested account
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Accounts under the callcoach keyring service.
const (
	AccountAPIToken = constants.DefaultKeyringUser
	AccountDatabase = "database-url"
)

func get(account string) (string, error) {
	secret, err := keyring.Get(constants.AppName, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

func set(account, secret, what string) error {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if err := keyring.Set(constants.AppName, account, secret); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", what, err)
	}
	return nil
}

func del(account, what string) error {
	if err := keyring.Delete(constants.AppName, account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", what, err)
	}
	return nil
}

// GetAPIToken returns the bearer token used for backend requests.
func GetAPIToken() (string, error) { return get(AccountAPIToken) }

func SetAPIToken(token string) error { return set(AccountAPIToken, token, "API token") }

func DeleteAPIToken() error { return del(AccountAPIToken, "API token") }

// GetConnectionString returns the PostgreSQL connection string used for the
// shared draft store.
func GetConnectionString() (string, error) { return get(AccountDatabase) }

func SetConnectionString(connStr string) error {
	return set(AccountDatabase, connStr, "connection string")
}

func DeleteConnectionString() error { return del(AccountDatabase, "connection string") }

// IsAvailable is a best-effort check of the OS keyring.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "availability-check")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
