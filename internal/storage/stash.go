package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/models"
)

const untitledDraft = "Untitled template"

// StashDraft writes s to p under id, or under a new id when id is empty, and
// returns the stored record.
func StashDraft(p Provider, s *draft.Store, id string) (models.DraftRecord, error) {
	payload, err := s.Encode()
	if err != nil {
		return models.DraftRecord{}, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	t := s.Template()
	rec := models.DraftRecord{
		ID:        id,
		Name:      strings.TrimSpace(t.Name),
		Payload:   payload,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if rec.Name == "" {
		rec.Name = untitledDraft
	}
	if !s.IsNewTemplate() {
		rec.TemplateID = t.ID
	}
	if err := p.SaveDraft(rec); err != nil {
		return models.DraftRecord{}, fmt.Errorf("failed to stash draft: %w", err)
	}
	return rec, nil
}

// ResumeDraft loads a stashed draft back into an editable store.
func ResumeDraft(p Provider, id string) (*draft.Store, models.DraftRecord, error) {
	rec, err := p.GetDraft(id)
	if err != nil {
		return nil, models.DraftRecord{}, err
	}
	s, err := draft.Decode(rec.Payload)
	if err != nil {
		return nil, rec, fmt.Errorf("draft %s is unreadable: %w", id, err)
	}
	return s, rec, nil
}
