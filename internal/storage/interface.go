package storage

import (
	"errors"
	"strings"

	"github.com/julianstephens/callcoach/internal/models"
)

// ErrNotFound is returned when a draft or setting does not exist.
var ErrNotFound = errors.New("not found")

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Drafts
	SaveDraft(models.DraftRecord) error
	GetDraft(id string) (models.DraftRecord, error)
	// GetDraftForTemplate returns the stashed draft editing the given server
	// template, or ErrNotFound.
	GetDraftForTemplate(templateID string) (models.DraftRecord, error)
	GetAllDrafts() ([]models.DraftRecord, error)
	DeleteDraft(id string) error

	// Utils
	GetConfigPath() string
}

// IsPostgresConnString reports whether config names a PostgreSQL database
// rather than a SQLite file path.
func IsPostgresConnString(config string) bool {
	return strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://")
}
