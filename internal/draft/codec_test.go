package draft

import (
	"reflect"
	"testing"

	"github.com/julianstephens/callcoach/internal/models"
)

func TestEncodeDecodeKeepsClientFlags(t *testing.T) {
	s := Load(models.TemplateDetail{
		Template: models.Template{ID: "t1", Name: "Renewal", ScoringMethod: models.ScoringWeighted, Status: models.TemplateDraft},
		Groups:   []models.Group{{ID: "g1", Name: "Discovery"}, {ID: "g2", Name: "Gone"}},
		Criteria: []models.Criterion{{ID: "c1", GroupID: ptr("g1"), Name: "Pain", CriteriaType: models.CriteriaScale}},
	})
	s.newID = seqIDs()
	s.DeleteGroup("g2", OrphanCriteria)
	id, _ := s.AddCriterion(ptr("g1"), models.CriteriaPassFail)
	s.UpdateCriterion(id, func(c *models.Criterion) { c.Name = "Next step booked"; c.Weight = 20 })
	s.ToggleGroupExpanded("g1")

	data, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	restored, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if !reflect.DeepEqual(restored.Snapshot(), s.Snapshot()) {
		t.Errorf("restored state = %+v\nwant %+v", restored.Snapshot(), s.Snapshot())
	}
	if restored.IsGroupExpanded("g1") {
		t.Error("collapsed group restored as expanded")
	}
	if !restored.IsDirty() || restored.CanUndo() {
		t.Error("restored draft should be dirty with a fresh history")
	}
	c, _ := restored.Criterion(id)
	if !c.IsNew {
		t.Error("IsNew lost in the stash")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("Decode() should fail on invalid JSON")
	}
	if _, err := Decode([]byte(`{"version": 99}`)); err == nil {
		t.Error("Decode() should fail on an unknown version")
	}
}
