package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/callcoach/internal/models"
	"github.com/julianstephens/callcoach/internal/storage"
)

const draftColumns = "id, template_id, name, payload, updated_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(row scanner) (models.DraftRecord, error) {
	var d models.DraftRecord
	var templateID sql.NullString
	if err := row.Scan(&d.ID, &templateID, &d.Name, &d.Payload, &d.UpdatedAt); err != nil {
		return models.DraftRecord{}, err
	}
	d.TemplateID = templateID.String
	return d, nil
}

// SaveDraft inserts or replaces a stashed draft.
func (s *Store) SaveDraft(d models.DraftRecord) error {
	if d.ID == "" {
		return fmt.Errorf("draft id is required")
	}
	var templateID any
	if d.TemplateID != "" {
		templateID = d.TemplateID
	}
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO drafts ("+draftColumns+") VALUES (?, ?, ?, ?, ?)",
		d.ID, templateID, d.Name, d.Payload, d.UpdatedAt,
	)
	return err
}

func (s *Store) GetDraft(id string) (models.DraftRecord, error) {
	row := s.db.QueryRow("SELECT "+draftColumns+" FROM drafts WHERE id = ?", id)
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DraftRecord{}, fmt.Errorf("draft %s: %w", id, storage.ErrNotFound)
	}
	return d, err
}

func (s *Store) GetDraftForTemplate(templateID string) (models.DraftRecord, error) {
	row := s.db.QueryRow(
		"SELECT "+draftColumns+" FROM drafts WHERE template_id = ? ORDER BY updated_at DESC LIMIT 1",
		templateID,
	)
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DraftRecord{}, fmt.Errorf("draft for template %s: %w", templateID, storage.ErrNotFound)
	}
	return d, err
}

// GetAllDrafts returns every stashed draft, most recently updated first.
func (s *Store) GetAllDrafts() ([]models.DraftRecord, error) {
	rows, err := s.db.Query("SELECT " + draftColumns + " FROM drafts ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []models.DraftRecord
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

func (s *Store) DeleteDraft(id string) error {
	res, err := s.db.Exec("DELETE FROM drafts WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("draft %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
