package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/julianstephens/callcoach/internal/api"
	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/models"
)

func savedDraft(t *testing.T, client *api.Client, weights ...float64) *draft.Store {
	t.Helper()
	s := draft.New()
	s.UpdateTemplate(func(t *models.Template) { t.Name = "Renewal" })
	for i, w := range weights {
		id, _ := s.AddCriterion(nil, models.CriteriaScale)
		named(s, id, fmt.Sprintf("Criterion %d", i+1), w)
	}
	if _, err := NewSaver(client).Save(context.Background(), s); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	return s
}

func TestCanPublish(t *testing.T) {
	_, client := newBackend(t)

	t.Run("unsaved draft", func(t *testing.T) {
		s := draft.New()
		s.UpdateTemplate(func(t *models.Template) { t.Name = "x" })
		var blocked *PublishBlockedError
		if err := CanPublish(s, GateAdvisory); !errors.As(err, &blocked) {
			t.Errorf("CanPublish() = %v, want *PublishBlockedError", err)
		}
	})

	t.Run("dirty draft", func(t *testing.T) {
		s := savedDraft(t, client, 100)
		s.UpdateTemplate(func(t *models.Template) { t.Description = "changed" })
		err := CanPublish(s, GateAdvisory)
		if err == nil || !strings.Contains(err.Error(), "save your changes") {
			t.Errorf("CanPublish() = %v", err)
		}
	})

	t.Run("strict blocks unbalanced weights", func(t *testing.T) {
		s := savedDraft(t, client, 30, 30, 30)
		err := CanPublish(s, GateStrict)
		if err == nil || !strings.Contains(err.Error(), "missing 10%") {
			t.Errorf("CanPublish(strict) = %v", err)
		}
		if err := CanPublish(s, GateAdvisory); err != nil {
			t.Errorf("CanPublish(advisory) = %v, want nil", err)
		}
	})

	t.Run("strict blocks empty rubric", func(t *testing.T) {
		s := savedDraft(t, client)
		err := CanPublish(s, GateStrict)
		if err == nil || !strings.Contains(err.Error(), "at least one criterion") {
			t.Errorf("CanPublish(strict) = %v", err)
		}
	})

	t.Run("balanced draft passes", func(t *testing.T) {
		if err := CanPublish(savedDraft(t, client, 50, 50), GateStrict); err != nil {
			t.Errorf("CanPublish(strict) = %v", err)
		}
	})
}

func TestPublish(t *testing.T) {
	backend, client := newBackend(t)
	saver := NewSaver(client)
	s := savedDraft(t, client, 60, 40)

	published, err := saver.Publish(context.Background(), s, models.PublishRequest{SetAsDefault: true}, GateStrict)
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if published.Status != models.TemplatePublished || !published.IsDefault {
		t.Errorf("published = %+v", published)
	}
	if s.Template().Status != models.TemplatePublished {
		t.Error("store should adopt the published template")
	}

	calls := backend.CallsTo("POST", "/api/templates/{id}/publish")
	if len(calls) != 1 || !strings.Contains(string(calls[0].Body), `"change_summary":"Initial version"`) {
		t.Errorf("publish calls = %+v", calls)
	}

	if _, err := saver.Publish(context.Background(), s, models.PublishRequest{}, GateAdvisory); !errors.Is(err, ErrNotDraft) {
		t.Errorf("second Publish() error = %v, want ErrNotDraft", err)
	}
}

func TestPublishServerFailure(t *testing.T) {
	backend, client := newBackend(t)
	s := savedDraft(t, client, 100)
	backend.Fail("POST", "/api/templates/{id}/publish", 422, "weights must total 100")

	_, err := NewSaver(client).Publish(context.Background(), s, models.PublishRequest{}, GateAdvisory)
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 422 {
		t.Errorf("Publish() error = %v", err)
	}
	if s.Template().Status != models.TemplateDraft {
		t.Error("failed publish must leave the draft status alone")
	}
}
