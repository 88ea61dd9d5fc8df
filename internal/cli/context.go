package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/callcoach/internal/api"
	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/editlock"
	"github.com/julianstephens/callcoach/internal/keyring"
	"github.com/julianstephens/callcoach/internal/logger"
	"github.com/julianstephens/callcoach/internal/migration"
	"github.com/julianstephens/callcoach/internal/models"
	"github.com/julianstephens/callcoach/internal/scoring"
	"github.com/julianstephens/callcoach/internal/storage"
	"github.com/julianstephens/callcoach/internal/storage/postgres"
	"github.com/julianstephens/callcoach/internal/storage/sqlite"
)

// KeyringConfig is the --config value that reads the PostgreSQL connection
// string from the OS keyring.
const KeyringConfig = "keyring"

// Context is passed to every command's Run method.
type Context struct {
	Store     storage.Provider
	ConfigDir string
	// APIURL and Token override the stored API URL and the keyring token.
	APIURL     string
	Token      string
	HTTPClient *http.Client
	// Ctx is cancelled on interrupt. Nil means context.Background.
	Ctx context.Context

	client *api.Client
}

// Context returns the context backend calls should run under.
func (c *Context) Context() context.Context {
	if c.Ctx != nil {
		return c.Ctx
	}
	return context.Background()
}

// Migrator is implemented by stores backed by versioned SQL migrations.
type Migrator interface {
	Migrations() (*migration.Runner, error)
}

// OpenStore picks the storage backend for a --config value: a PostgreSQL URL,
// the literal "keyring", or a SQLite file path.
func OpenStore(config string) (storage.Provider, error) {
	switch {
	case config == KeyringConfig:
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, fmt.Errorf("no connection string in keyring, store one with '%s auth set-db'", constants.AppName)
			}
			return nil, err
		}
		return postgres.New(connStr), nil
	case storage.IsPostgresConnString(config):
		if _, err := postgres.ValidateConnString(config); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w; store the full connection string with '%s auth set-db' and pass --config=%s, or use PGPASSWORD or .pgpass",
					err, constants.AppName, KeyringConfig)
			}
			return nil, err
		}
		return postgres.New(config), nil
	default:
		path, err := ExpandPath(config)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(path), nil
	}
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// ConfigDirFor returns the directory for logs and locks that belongs to a
// --config value.
func ConfigDirFor(config string) (string, error) {
	if config == KeyringConfig || storage.IsPostgresConnString(config) {
		return ExpandPath(filepath.Dir(constants.DefaultConfigPath))
	}
	path, err := ExpandPath(config)
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

func (c *Context) Settings() (models.Settings, error) {
	settings, err := c.Store.GetSettings()
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	if c.APIURL != "" {
		settings.APIURL = c.APIURL
	}
	return settings, nil
}

// API returns the backend client, building it on first use.
func (c *Context) API() (*api.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	settings, err := c.Settings()
	if err != nil {
		return nil, err
	}
	if settings.APIURL == "" {
		return nil, fmt.Errorf("no API URL configured, run '%s settings --api-url <url>'", constants.AppName)
	}

	token := c.Token
	if token == "" {
		token, err = keyring.GetAPIToken()
		switch {
		case errors.Is(err, keyring.ErrNotFound):
			logger.Debug("no API token in keyring")
		case err != nil:
			logger.Warn("keyring unavailable, continuing without a token", "error", err)
		}
	}

	var opts []api.Option
	if c.HTTPClient != nil {
		opts = append(opts, api.WithHTTPClient(c.HTTPClient))
	}
	c.client = api.New(settings.APIURL, token, opts...)
	return c.client, nil
}

// Viewer identifies the local user for scoring permission checks.
func (c *Context) Viewer() (scoring.Viewer, error) {
	settings, err := c.Settings()
	if err != nil {
		return scoring.Viewer{}, err
	}
	return scoring.Viewer{UserID: settings.UserID, IsAdmin: settings.IsAdmin}, nil
}

// LockDir is where edit locks live.
func (c *Context) LockDir() string {
	dir := c.ConfigDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, constants.LockDirName)
}

// LockTemplate takes the edit lock for a template id or draft id.
func (c *Context) LockTemplate(key string) (*editlock.Lock, error) {
	return editlock.Acquire(c.LockDir(), key)
}
