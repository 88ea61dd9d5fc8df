package postgres

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

func (s *Store) SaveDraft(d models.DraftRecord) error {
	if d.ID == "" {
		return fmt.Errorf("draft id is required")
	}
	templateID := sql.NullString{String: d.TemplateID, Valid: d.TemplateID != ""}
	_, err := s.db.Exec(`INSERT INTO drafts (`+draftColumns+`) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			template_id = EXCLUDED.template_id,
			name = EXCLUDED.name,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`,
		d.ID, templateID, d.Name, d.Payload, d.UpdatedAt,
	)
	return err
}

func (s *Store) GetDraft(id string) (models.DraftRecord, error) {
	d, err := scanDraft(s.db.QueryRow("SELECT "+draftColumns+" FROM drafts WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.DraftRecord{}, fmt.Errorf("draft %s: %w", id, storage.ErrNotFound)
	}
	return d, err
}

func (s *Store) GetDraftForTemplate(templateID string) (models.DraftRecord, error) {
	d, err := scanDraft(s.db.QueryRow(
		"SELECT "+draftColumns+" FROM drafts WHERE template_id = $1 ORDER BY updated_at DESC LIMIT 1",
		templateID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.DraftRecord{}, fmt.Errorf("draft for template %s: %w", templateID, storage.ErrNotFound)
	}
	return d, err
}

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
	res, err := s.db.Exec("DELETE FROM drafts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("draft %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
