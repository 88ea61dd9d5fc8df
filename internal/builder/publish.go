package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/logger"
	"github.com/julianstephens/callcoach/internal/models"
)

// ErrNotDraft is returned when publishing a template that is not a draft.
var ErrNotDraft = errors.New("only draft templates can be published")

// Gate selects how strictly a draft is checked before publishing.
type Gate int

const (
	// GateStrict blocks on validation, an empty rubric and unbalanced
	// weights. The single-page builder uses it.
	GateStrict Gate = iota
	// GateAdvisory only requires a saved draft. The wizard surfaces the other
	// problems in its review checklist instead.
	GateAdvisory
)

// PublishBlockedError lists why a draft cannot be published yet.
type PublishBlockedError struct {
	Reasons []string
}

func (e *PublishBlockedError) Error() string {
	return "cannot publish: " + strings.Join(e.Reasons, "; ")
}

// CanPublish returns nil when the draft may be published under gate.
func CanPublish(store *draft.Store, gate Gate) error {
	t := store.Template()
	if t.Status != "" && t.Status != models.TemplateDraft {
		return ErrNotDraft
	}

	var reasons []string
	if t.IsNew || t.ID == "" {
		reasons = append(reasons, "save the template first")
	} else if store.IsDirty() {
		reasons = append(reasons, "save your changes first")
	}
	if gate == GateStrict {
		if store.CriteriaCount() == 0 {
			reasons = append(reasons, "add at least one criterion")
		}
		if msg := store.WeightError(); msg != "" {
			reasons = append(reasons, msg)
		}
		if !store.ValidateForPublish() {
			for _, e := range store.ValidationErrors() {
				if !strings.HasPrefix(e.Message, "At least one criterion") {
					reasons = append(reasons, e.Message)
				}
			}
		}
	}
	if len(reasons) > 0 {
		return &PublishBlockedError{Reasons: reasons}
	}
	return nil
}

// Publish publishes the draft's saved template and adopts the server's copy.
func (s *Saver) Publish(ctx context.Context, store *draft.Store, req models.PublishRequest, gate Gate) (models.Template, error) {
	if err := CanPublish(store, gate); err != nil {
		return models.Template{}, err
	}
	if strings.TrimSpace(req.ChangeSummary) == "" {
		req.ChangeSummary = constants.DefaultChangeSummary
	}

	id := store.Template().ID
	published, err := s.api.PublishTemplate(ctx, id, req)
	if err != nil {
		logger.Error("publish failed", "template", id, "error", err)
		return models.Template{}, fmt.Errorf("failed to publish template: %w", err)
	}
	store.AdoptTemplate(published)
	logger.Info("template published", "id", id, "default", published.IsDefault)
	return published, nil
}
