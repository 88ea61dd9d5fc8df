package builder

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/julianstephens/callcoach/internal/api"
	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/models"
)

func TestWizardStepGating(t *testing.T) {
	w := NewWizard(draft.New())
	if w.Step() != StepBasics || w.AssignmentMode() != AssignEveryone {
		t.Fatalf("initial step = %v, mode = %v", w.Step(), w.AssignmentMode())
	}
	if w.Back() {
		t.Error("Back() on the first step should fail")
	}

	w.Store().UpdateTemplate(func(t *models.Template) { t.Name = "   " })
	if w.Next() {
		t.Fatal("a blank name must not pass the basics step")
	}
	w.Store().UpdateTemplate(func(t *models.Template) { t.Name = "Onboarding" })
	if !w.Next() || w.Step() != StepCriteria {
		t.Fatalf("step = %v, want Criteria", w.Step())
	}

	if w.CanAdvance() {
		t.Error("criteria step needs at least one criterion")
	}
	w.Store().AddCriterion(nil, "")
	if !w.Next() {
		t.Fatal("Next() from criteria failed")
	}

	w.SetAssignmentMode(AssignSpecific)
	if w.CanAdvance() || w.BlockReason() == "" {
		t.Error("specific mode needs a selected user")
	}
	w.ToggleUser("u-1")
	w.ToggleUser("u-2")
	w.ToggleUser("u-1")
	if got := w.SelectedUsers(); len(got) != 1 || got[0] != "u-2" {
		t.Errorf("selected = %v", got)
	}
	if !w.Next() || w.Step() != StepReview {
		t.Fatalf("step = %v, want Review", w.Step())
	}
	if w.Next() {
		t.Error("Next() past the review step should fail")
	}

	if !w.GoTo(StepBasics) || w.Step() != StepBasics {
		t.Error("GoTo() backwards should always work")
	}
	if !w.GoTo(StepReview) {
		t.Error("GoTo() forward through passing gates should work")
	}

	w.GoTo(StepBasics)
	w.Store().UpdateTemplate(func(t *models.Template) { t.Name = "" })
	if w.GoTo(StepReview) || w.Step() != StepBasics {
		t.Errorf("GoTo() through a failing gate moved to %v", w.Step())
	}
}

func TestWizardChecklistWarnsOnWeights(t *testing.T) {
	s := draft.New()
	s.UpdateTemplate(func(t *models.Template) { t.Name = "Weighted" })
	for _, w := range []float64{30, 30, 30} {
		id, _ := s.AddCriterion(nil, "")
		named(s, id, "c", w)
	}
	w := NewWizard(s)

	var weights *ChecklistItem
	for _, item := range w.Checklist() {
		if item.Label == "Weights total 100%" {
			weights = &item
		}
	}
	if weights == nil {
		t.Fatal("weighted template should have a weights checklist item")
	}
	if weights.Done || !weights.Warning || weights.Detail != "Weights total 90%, missing 10%" {
		t.Errorf("weights item = %+v", *weights)
	}
}

func TestWizardFinishEveryone(t *testing.T) {
	backend, client := newBackend(t)
	s := draft.New()
	s.UpdateTemplate(func(t *models.Template) { t.Name = "Default rubric" })
	id, _ := s.AddCriterion(nil, "")
	named(s, id, "Empathy", 50)
	w := NewWizard(s)

	res, err := w.Finish(context.Background(), NewSaver(client), true)
	if err != nil {
		t.Fatalf("Finish() error: %v", err)
	}
	if res.Published == nil || !res.Published.IsDefault || res.Published.Status != models.TemplatePublished {
		t.Errorf("published = %+v", res.Published)
	}
	if len(backend.Assignments()) != 0 {
		t.Error("everyone mode must not create assignment rows")
	}
	creates := backend.CallsTo(http.MethodPost, "/api/templates")
	if len(creates) != 1 {
		t.Fatalf("template creates = %d", len(creates))
	}
	saved, _ := backend.Template(res.TemplateID)
	if !saved.Template.IsDefault {
		t.Error("is_default should be sent with the template")
	}
}

type flakyAssignments struct {
	*api.Client
	failFor string
}

func (f *flakyAssignments) CreateAssignment(ctx context.Context, a models.Assignment) (models.Assignment, error) {
	if a.UserID == f.failFor {
		return models.Assignment{}, errors.New("user is deactivated")
	}
	return f.Client.CreateAssignment(ctx, a)
}

func TestWizardFinishSpecificIsBestEffort(t *testing.T) {
	backend, client := newBackend(t)
	saver := NewSaver(&flakyAssignments{Client: client, failFor: "u-2"})
	s := draft.New()
	s.UpdateTemplate(func(t *models.Template) {
		t.Name = "Team rubric"
		t.ScoringMethod = models.ScoringPoints
	})
	id, _ := s.AddCriterion(nil, models.CriteriaPassFail)
	named(s, id, "Used name", 0)

	w := NewWizard(s)
	w.SetAssignmentMode(AssignSpecific)
	for _, u := range []string{"u-1", "u-2", "u-3"} {
		w.ToggleUser(u)
	}

	res, err := w.Finish(context.Background(), saver, false)
	if err != nil {
		t.Fatalf("Finish() error: %v", err)
	}
	if res.Published != nil {
		t.Error("Finish without activate must not publish")
	}
	if len(res.Assignments.Created) != 2 || len(res.Assignments.Failed) != 1 || res.Assignments.Failed[0].UserID != "u-2" {
		t.Errorf("report = %+v", res.Assignments)
	}
	if res.Assignments.OK() {
		t.Error("report with a failure should not be OK")
	}
	if got := len(backend.Assignments()); got != 2 {
		t.Errorf("backend assignments = %d, want 2", got)
	}
	if s.Template().IsDefault {
		t.Error("specific mode must not mark the template as default")
	}
}

func TestWizardSwitchFromEveryoneToSpecific(t *testing.T) {
	backend, client := newBackend(t)
	saver := NewSaver(client)
	ctx := context.Background()
	s := draft.New()
	s.UpdateTemplate(func(t *models.Template) { t.Name = "Renewal call" })
	id, _ := s.AddCriterion(nil, "")
	named(s, id, "Objection handling", 100)

	first, err := NewWizard(s).Finish(ctx, saver, false)
	if err != nil {
		t.Fatalf("first Finish() error: %v", err)
	}
	if saved, _ := backend.Template(first.TemplateID); !saved.Template.IsDefault {
		t.Fatal("everyone should save the template as the default")
	}

	w := NewWizard(s)
	if w.AssignmentMode() != AssignEveryone {
		t.Fatalf("reopened default template mode = %v, want everyone", w.AssignmentMode())
	}
	w.SetAssignmentMode(AssignSpecific)
	w.ToggleUser("u-1")

	second, err := w.Finish(ctx, saver, false)
	if err != nil {
		t.Fatalf("second Finish() error: %v", err)
	}
	if second.TemplateID != first.TemplateID {
		t.Errorf("template id = %q, want %q", second.TemplateID, first.TemplateID)
	}
	saved, _ := backend.Template(second.TemplateID)
	if saved.Template.IsDefault {
		t.Error("switching to specific people must clear is_default on the server")
	}
	if s.Template().IsDefault {
		t.Error("draft still marked as default")
	}
	if got := backend.Assignments(); len(got) != 1 || got[0].UserID != "u-1" {
		t.Errorf("assignments = %+v", got)
	}
}

func TestCreateAssignmentsEveryoneIsNoop(t *testing.T) {
	backend, client := newBackend(t)
	report := NewSaver(client).CreateAssignments(context.Background(), "tpl-1", AssignEveryone, []string{"u-1"})
	if !report.OK() || len(report.Created) != 0 || len(backend.Calls()) != 0 {
		t.Errorf("report = %+v, calls = %d", report, len(backend.Calls()))
	}
}

func TestStepString(t *testing.T) {
	if StepAssignments.String() != "Assignments" || Step(9).String() != "Step(9)" {
		t.Errorf("String() = %q / %q", StepAssignments.String(), Step(9).String())
	}
}
