package tui

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/callcoach/internal/api"
	"github.com/julianstephens/callcoach/internal/apitest"
	"github.com/julianstephens/callcoach/internal/builder"
	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/models"
	"github.com/julianstephens/callcoach/internal/storage"
	"github.com/julianstephens/callcoach/internal/storage/sqlite"
)

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, cmd = update(t, m, msg)
	}
	return m, cmd
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return out, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func newStash(t *testing.T) storage.Provider {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newSaver(t *testing.T) (*apitest.Backend, *builder.Saver) {
	t.Helper()
	b := apitest.New(t)
	return b, builder.NewSaver(api.New(b.URL(), ""))
}

// namedDraft is a new template with one named criterion in one section.
func namedDraft() (*draft.Store, string, string) {
	s := draft.New()
	s.UpdateTemplate(func(t *models.Template) { t.Name = "Discovery call" })
	g := s.AddGroup()
	c, _ := s.AddCriterion(&g, models.CriteriaScale)
	s.UpdateCriterion(c, func(c *models.Criterion) {
		c.Name = "Rapport"
		c.Weight = 100
	})
	return s, g, c
}

func TestAddGroupAndCriterion(t *testing.T) {
	m := New(draft.New(), Options{})

	m, _ = press(t, m, "g")
	if m.state != StateForm || m.groupForm == nil {
		t.Fatalf("expected group form, state %v", m.state)
	}
	m, _ = press(t, m, "esc")
	if m.state != StateOutline {
		t.Fatalf("esc should close the form, state %v", m.state)
	}
	if len(m.store.Groups()) != 1 {
		t.Fatalf("expected 1 group, got %d", len(m.store.Groups()))
	}

	m, _ = press(t, m, "a")
	if m.state != StateForm || m.criterionForm == nil {
		t.Fatalf("expected criterion form, state %v", m.state)
	}
	m, _ = press(t, m, "esc")

	gid := m.store.Groups()[0].ID
	if got := len(m.store.GroupCriteria(gid)); got != 1 {
		t.Fatalf("criterion should land in the selected section, got %d there", got)
	}
	if m.cursor != 1 {
		t.Errorf("cursor should follow the new criterion, got %d", m.cursor)
	}
}

func TestUndoRedoKeys(t *testing.T) {
	m := New(draft.New(), Options{})
	m, _ = press(t, m, "a", "esc")
	if m.store.CriteriaCount() != 1 {
		t.Fatalf("expected 1 criterion, got %d", m.store.CriteriaCount())
	}

	m, _ = press(t, m, "u")
	if m.store.CriteriaCount() != 0 {
		t.Fatalf("undo should remove the criterion, got %d", m.store.CriteriaCount())
	}
	if m.cursor != 0 {
		t.Errorf("cursor should be clamped, got %d", m.cursor)
	}

	m, _ = press(t, m, "u")
	if m.status != "Nothing to undo" {
		t.Errorf("unexpected status %q", m.status)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.store.CriteriaCount() != 1 {
		t.Errorf("redo should restore the criterion, got %d", m.store.CriteriaCount())
	}
}

func TestDeleteGroupAsksWhenItHasCriteria(t *testing.T) {
	s, g, c := namedDraft()
	m := New(s, Options{})

	m, _ = press(t, m, "d")
	if m.state != StateConfirmDeleteGroup {
		t.Fatalf("expected confirmation, state %v", m.state)
	}
	m, _ = press(t, m, "n")
	if m.state != StateOutline || len(s.Groups()) != 1 {
		t.Fatalf("cancel should keep the section")
	}

	m, _ = press(t, m, "d", "o")
	if len(s.Groups()) != 0 {
		t.Fatalf("section should be deleted")
	}
	crit, ok := s.Criterion(c)
	if !ok || crit.GroupID != nil {
		t.Errorf("criterion should be kept as ungrouped, got %+v", crit)
	}
	if _, ok := s.Group(g); ok {
		t.Errorf("group %s still present", g)
	}
}

func TestDeleteGroupWithCriteria(t *testing.T) {
	s, _, _ := namedDraft()
	m := New(s, Options{})
	m, _ = press(t, m, "d", "x")
	if len(s.Groups()) != 0 || s.CriteriaCount() != 0 {
		t.Errorf("expected section and criteria gone, got %d groups and %d criteria", len(s.Groups()), s.CriteriaCount())
	}
	if m.state != StateOutline {
		t.Errorf("state %v", m.state)
	}
}

func TestDeleteEmptyGroupIsImmediate(t *testing.T) {
	s := draft.New()
	s.AddGroup()
	m := New(s, Options{})
	m, _ = press(t, m, "d")
	if m.state != StateOutline || len(s.Groups()) != 0 {
		t.Errorf("empty section should be deleted without asking")
	}
}

func TestReorderCriteria(t *testing.T) {
	s := draft.New()
	a, _ := s.AddCriterion(nil, models.CriteriaScale)
	b, _ := s.AddCriterion(nil, models.CriteriaScale)
	m := New(s, Options{})

	m, _ = press(t, m, "J")
	got := s.UngroupedCriteria()
	if got[0].ID != b || got[1].ID != a {
		t.Fatalf("expected %s before %s, got %s, %s", b, a, got[0].ID, got[1].ID)
	}
	if m.cursor != 1 {
		t.Errorf("cursor should follow the moved row, got %d", m.cursor)
	}

	m, _ = press(t, m, "K")
	if s.UngroupedCriteria()[0].ID != a {
		t.Errorf("moving back up should restore the order")
	}
}

func TestMoveCriterionCyclesSections(t *testing.T) {
	s := draft.New()
	g1 := s.AddGroup()
	g2 := s.AddGroup()
	c, _ := s.AddCriterion(&g1, models.CriteriaScale)
	m := New(s, Options{})
	m.cursor = 1

	m, _ = press(t, m, "m")
	crit, _ := s.Criterion(c)
	if crit.GroupID == nil || *crit.GroupID != g2 {
		t.Fatalf("criterion should move to the next section, got %v", crit.GroupID)
	}

	m, _ = press(t, m, "m")
	crit, _ = s.Criterion(c)
	if crit.GroupID != nil {
		t.Errorf("after the last section the criterion becomes ungrouped, got %v", *crit.GroupID)
	}
	if sel, ok := m.selected(); !ok || sel.id != c {
		t.Errorf("selection should stay on the moved criterion")
	}
}

func TestToggleCollapsesGroup(t *testing.T) {
	s, _, _ := namedDraft()
	m := New(s, Options{})
	if len(m.rows()) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(m.rows()))
	}
	m, _ = press(t, m, " ")
	if len(m.rows()) != 1 {
		t.Errorf("collapsed section should hide its criteria, got %d rows", len(m.rows()))
	}
}

func TestQuitCleanDraft(t *testing.T) {
	s, _, _ := namedDraft()
	s.MarkClean()
	m := New(s, Options{})
	m, cmd := press(t, m, "q")
	if !isQuit(cmd) || !m.quitting {
		t.Errorf("clean draft should quit immediately")
	}
}

func TestQuitDirtyDraftPrompts(t *testing.T) {
	s, _, _ := namedDraft()
	m := New(s, Options{})
	m, _ = press(t, m, "q")
	if m.quitting {
		t.Fatalf("dirty draft should not quit without asking")
	}
	if m.state != StateConfirmQuit || m.quitForm == nil {
		t.Fatalf("expected quit prompt, state %v", m.state)
	}

	m, _ = press(t, m, "esc")
	if m.state != StateOutline || m.quitting {
		t.Errorf("esc should cancel quitting")
	}
}

func TestResolveQuit(t *testing.T) {
	t.Run("stash", func(t *testing.T) {
		stash := newStash(t)
		s, _, _ := namedDraft()
		m := New(s, Options{Stash: stash})

		next, cmd := m.resolveQuit(quitStash)
		m = next.(Model)
		if !isQuit(cmd) {
			t.Fatalf("stash should quit")
		}
		id := m.Result().StashedID
		if id == "" {
			t.Fatalf("expected a stash id")
		}
		restored, rec, err := storage.ResumeDraft(stash, id)
		if err != nil {
			t.Fatalf("ResumeDraft failed: %v", err)
		}
		if rec.Name != "Discovery call" || restored.CriteriaCount() != 1 {
			t.Errorf("unexpected stashed draft %+v", rec)
		}
	})

	t.Run("stash reuses resumed id", func(t *testing.T) {
		stash := newStash(t)
		s, _, _ := namedDraft()
		rec, err := storage.StashDraft(stash, s, "")
		if err != nil {
			t.Fatalf("StashDraft failed: %v", err)
		}
		m := New(s, Options{Stash: stash, DraftID: rec.ID})
		next, _ := m.resolveQuit(quitStash)
		if got := next.(Model).Result().StashedID; got != rec.ID {
			t.Errorf("expected stash id %s, got %s", rec.ID, got)
		}
		all, _ := stash.GetAllDrafts()
		if len(all) != 1 {
			t.Errorf("expected one stashed draft, got %d", len(all))
		}
	})

	t.Run("discard", func(t *testing.T) {
		s, _, _ := namedDraft()
		next, cmd := New(s, Options{}).resolveQuit(quitDiscard)
		if !isQuit(cmd) || !next.(Model).Result().Discarded {
			t.Errorf("discard should quit and report it")
		}
	})

	t.Run("cancel", func(t *testing.T) {
		s, _, _ := namedDraft()
		next, cmd := New(s, Options{}).resolveQuit(quitCancel)
		if cmd != nil || next.(Model).quitting {
			t.Errorf("cancel should return to the outline")
		}
	})

	t.Run("stash without store", func(t *testing.T) {
		s, _, _ := namedDraft()
		next, cmd := New(s, Options{}).resolveQuit(quitStash)
		if cmd != nil || next.(Model).Result().StashedID != "" {
			t.Errorf("stashing without a store should not quit")
		}
	})
}

func TestSaveRemovesStash(t *testing.T) {
	backend, saver := newSaver(t)
	stash := newStash(t)
	s, _, _ := namedDraft()
	rec, err := storage.StashDraft(stash, s, "")
	if err != nil {
		t.Fatalf("StashDraft failed: %v", err)
	}

	m := New(s, Options{Saver: saver, Stash: stash, DraftID: rec.ID})
	m, cmd := press(t, m, "s")
	if !m.busy || cmd == nil {
		t.Fatalf("save should start a command")
	}

	m, _ = press(t, m, "a")
	if s.CriteriaCount() != 1 {
		t.Fatalf("edits should be ignored while saving")
	}

	m, _ = update(t, m, cmd())
	if m.busy || m.statusErr {
		t.Fatalf("save failed: %s", m.status)
	}
	res := m.Result()
	if !res.Saved || !strings.HasPrefix(res.TemplateID, "tpl-") {
		t.Errorf("unexpected result %+v", res)
	}
	if s.IsDirty() || s.IsNewTemplate() {
		t.Errorf("draft should be clean and persisted")
	}
	if _, err := stash.GetDraft(rec.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("stash should be removed after saving, got %v", err)
	}
	if m.opts.DraftID != "" {
		t.Errorf("draft id should be cleared")
	}
	if _, ok := backend.Template(res.TemplateID); !ok {
		t.Errorf("template %s not on the backend", res.TemplateID)
	}
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	backend, saver := newSaver(t)
	backend.Fail(http.MethodPost, "/api/templates", http.StatusInternalServerError, "database unavailable")
	s, _, _ := namedDraft()

	m := New(s, Options{Saver: saver})
	m, cmd := press(t, m, "s")
	m, _ = update(t, m, cmd())

	if !m.statusErr || !strings.Contains(m.status, "database unavailable") {
		t.Errorf("expected error status, got %q", m.status)
	}
	if m.Result().Saved || !s.IsDirty() {
		t.Errorf("failed save should leave the draft dirty")
	}
}

func TestSaveRejectsInvalidDraft(t *testing.T) {
	_, saver := newSaver(t)
	s := draft.New()
	m := New(s, Options{Saver: saver})
	m, cmd := press(t, m, "s")
	m, _ = update(t, m, cmd())
	if !m.statusErr || !strings.HasPrefix(m.status, "Fix before saving") {
		t.Errorf("expected validation status, got %q", m.status)
	}
}

func TestPublishKey(t *testing.T) {
	backend, saver := newSaver(t)
	s, _, _ := namedDraft()
	m := New(s, Options{Saver: saver})

	m, cmd := press(t, m, "p")
	if cmd != nil || !m.statusErr || !strings.Contains(m.status, "save the template first") {
		t.Fatalf("unsaved draft should not publish, status %q", m.status)
	}

	m, cmd = press(t, m, "s")
	m, _ = update(t, m, cmd())
	m, cmd = press(t, m, "p")
	if cmd == nil {
		t.Fatalf("saved draft should publish, status %q", m.status)
	}
	m, _ = update(t, m, cmd())
	if m.statusErr {
		t.Fatalf("publish failed: %s", m.status)
	}
	pub := m.Result().Published
	if pub == nil || pub.Status != models.TemplatePublished {
		t.Fatalf("expected published template, got %+v", pub)
	}
	if got, _ := backend.Template(pub.ID); got.Template.Status != models.TemplatePublished {
		t.Errorf("backend status %s", got.Template.Status)
	}
}

func TestPublishBlockedByWeights(t *testing.T) {
	_, saver := newSaver(t)
	s, _, c := namedDraft()
	s.UpdateCriterion(c, func(c *models.Criterion) { c.Weight = 40 })
	m := New(s, Options{Saver: saver})
	m, cmd := press(t, m, "s")
	m, _ = update(t, m, cmd())

	m, cmd = press(t, m, "p")
	if cmd != nil {
		t.Fatalf("unbalanced weights should block publishing")
	}
	if !strings.Contains(m.status, "missing 60%") {
		t.Errorf("expected weight message, got %q", m.status)
	}
}

func TestWizardSteps(t *testing.T) {
	s := draft.New()
	m := New(s, Options{Mode: ModeWizard})

	m, _ = press(t, m, "tab")
	if m.wizard.Step() != builder.StepBasics || m.status != "Give the template a name" {
		t.Fatalf("unnamed template should not advance, status %q", m.status)
	}

	m, _ = press(t, m, "e")
	if m.state != StateForm || m.basicsForm == nil {
		t.Fatalf("enter on basics should open the basics form")
	}
	m, _ = press(t, m, "esc")

	s.UpdateTemplate(func(t *models.Template) { t.Name = "Demo" })
	m, _ = press(t, m, "tab")
	if m.wizard.Step() != builder.StepCriteria {
		t.Fatalf("expected criteria step, got %v", m.wizard.Step())
	}

	m, _ = press(t, m, "tab")
	if m.wizard.Step() != builder.StepCriteria {
		t.Fatalf("empty template should not leave the criteria step")
	}
	m, _ = press(t, m, "a", "esc", "tab")
	if m.wizard.Step() != builder.StepAssignments {
		t.Fatalf("expected assignments step, got %v", m.wizard.Step())
	}

	m, _ = press(t, m, "shift+tab")
	if m.wizard.Step() != builder.StepCriteria {
		t.Errorf("shift+tab should go back")
	}
}

func TestWizardAssignments(t *testing.T) {
	s, _, _ := namedDraft()
	m := New(s, Options{Mode: ModeWizard})
	m, _ = press(t, m, "tab", "tab")
	if m.wizard.Step() != builder.StepAssignments {
		t.Fatalf("expected assignments step, got %v", m.wizard.Step())
	}

	m, _ = update(t, m, teamMsg{members: []models.TeamMember{
		{ID: "u-1", FullName: "Ada"},
		{ID: "u-2", FullName: "Grace"},
	}})
	if m.wizard.AssignmentMode() != builder.AssignEveryone {
		t.Fatalf("new templates default to everyone")
	}

	m, _ = press(t, m, "E")
	if m.wizard.AssignmentMode() != builder.AssignSpecific {
		t.Fatalf("E should switch to specific people")
	}
	m, _ = press(t, m, "tab")
	if m.wizard.Step() != builder.StepAssignments {
		t.Fatalf("no selection should block the step")
	}

	m, _ = press(t, m, "j", " ")
	if got := m.wizard.SelectedUsers(); len(got) != 1 || got[0] != "u-2" {
		t.Fatalf("expected u-2 selected, got %v", got)
	}
	m, _ = press(t, m, "tab")
	if m.wizard.Step() != builder.StepReview {
		t.Errorf("expected review step, got %v", m.wizard.Step())
	}
}

func TestWizardTeamError(t *testing.T) {
	m := New(draft.New(), Options{Mode: ModeWizard})
	m, _ = update(t, m, teamMsg{err: errors.New("forbidden")})
	if !strings.Contains(m.teamErr, "forbidden") {
		t.Errorf("unexpected team error %q", m.teamErr)
	}
}

func TestWizardFinish(t *testing.T) {
	backend, saver := newSaver(t)
	backend.AddMember(models.TeamMember{ID: "u-1", FullName: "Ada", IsActive: true})
	s, _, _ := namedDraft()
	m := New(s, Options{Mode: ModeWizard, Saver: saver, Team: api.New(backend.URL(), "")})

	m, _ = update(t, m, m.Init()())
	if len(m.members) != 1 {
		t.Fatalf("expected the team to load, got %d members (%s)", len(m.members), m.teamErr)
	}

	m, cmd := press(t, m, "tab", "tab", "E", " ", "tab", "p")
	if !m.busy || cmd == nil {
		t.Fatalf("finish should be running, status %q", m.status)
	}

	m, cmd = update(t, m, cmd())
	if !isQuit(cmd) {
		t.Fatalf("successful finish should quit, status %q", m.status)
	}
	res := m.Result()
	if !res.Saved || res.Published == nil || res.Assignments == nil || !res.Assignments.OK() {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := backend.Assignments(); len(got) != 1 || got[0].UserID != "u-1" {
		t.Errorf("expected one assignment for u-1, got %+v", got)
	}
}

func TestWizardFinishAssignmentFailureStays(t *testing.T) {
	backend, saver := newSaver(t)
	backend.Fail(http.MethodPost, "/api/template-assignments", http.StatusForbidden, "not allowed")
	s, _, _ := namedDraft()
	m := New(s, Options{Mode: ModeWizard, Saver: saver})
	m, _ = update(t, m, teamMsg{members: []models.TeamMember{{ID: "u-1"}}})
	m, cmd := press(t, m, "tab", "tab", "E", " ", "tab", "f")
	m, cmd = update(t, m, cmd())
	if isQuit(cmd) {
		t.Fatalf("failed assignments should keep the editor open")
	}
	if !strings.HasPrefix(m.status, "⚠") {
		t.Errorf("expected warning status, got %q", m.status)
	}
	if !m.Result().Saved {
		t.Errorf("the template itself was saved")
	}
}

func TestApplyCriterionForm(t *testing.T) {
	s := draft.New()
	id, _ := s.AddCriterion(nil, models.CriteriaScale)
	c, _ := s.Criterion(id)

	fm := newCriterionFormModel(c)
	fm.Name = "  Next steps "
	fm.Type = models.CriteriaDropdown
	fm.Weight = "25%"
	fm.Options = "Booked\nTentative, None"
	fm.Keywords = "calendar, follow up"
	applyCriterionForm(s, id, fm)

	got, _ := s.Criterion(id)
	if got.Name != "Next steps" || got.CriteriaType != models.CriteriaDropdown || got.Weight != 25 {
		t.Errorf("unexpected criterion %+v", got)
	}
	if len(got.Config.Options) != 3 {
		t.Errorf("expected 3 options, got %v", got.Config.Options)
	}
	if len(got.Keywords) != 2 {
		t.Errorf("expected 2 keywords, got %v", got.Keywords)
	}
	if got.MaxScore != 1 {
		t.Errorf("dropdown max score should be 1, got %v", got.MaxScore)
	}

	fm = newCriterionFormModel(got)
	fm.Type = models.CriteriaScale
	fm.Range = "0-10"
	applyCriterionForm(s, id, fm)
	got, _ = s.Criterion(id)
	if got.Config.Min == nil || *got.Config.Max != 10 || got.MaxScore != 10 {
		t.Errorf("unexpected scale config %+v (max score %v)", got.Config, got.MaxScore)
	}
}

func TestApplyBasicsForm(t *testing.T) {
	s := draft.New()
	fm := newBasicsFormModel(s.Template())
	fm.Name = "Demo"
	fm.Method = models.ScoringPoints
	fm.PassThreshold = "80"
	fm.RequireComments = true
	applyBasicsForm(s, fm)

	tpl := s.Template()
	if tpl.Name != "Demo" || tpl.ScoringMethod != models.ScoringPoints || tpl.PassThreshold != 80 {
		t.Errorf("unexpected template %+v", tpl)
	}
	if !tpl.Settings.RequireComments {
		t.Errorf("settings not applied")
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		lo, hi  float64
		wantErr bool
	}{
		{in: "1-5", lo: 1, hi: 5},
		{in: " 0 - 100 ", lo: 0, hi: 100},
		{in: "-5-5", lo: -5, hi: 5},
		{in: "5-1", wantErr: true},
		{in: "5", wantErr: true},
		{in: "", wantErr: true},
		{in: "a-b", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lo, hi, err := parseRange(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRange(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && (lo != tt.lo || hi != tt.hi) {
				t.Errorf("parseRange(%q) = %v, %v", tt.in, lo, hi)
			}
		})
	}
}
