package builder

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/models"
)

type Step int

const (
	StepBasics Step = iota
	StepCriteria
	StepAssignments
	StepReview
)

var stepNames = []string{"Basics", "Criteria", "Assignments", "Review"}

func (s Step) String() string {
	if s < StepBasics || s > StepReview {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// Steps lists the wizard steps in order.
func Steps() []Step {
	return []Step{StepBasics, StepCriteria, StepAssignments, StepReview}
}

// Wizard walks a draft through basics, criteria, assignments and review.
type Wizard struct {
	store    *draft.Store
	step     Step
	mode     AssignmentMode
	selected []string
}

// NewWizard starts a wizard on the basics step. New templates apply to
// everyone until the user picks specific people.
func NewWizard(store *draft.Store) *Wizard {
	mode := AssignEveryone
	if !store.IsNewTemplate() && !store.Template().IsDefault {
		mode = AssignSpecific
	}
	return &Wizard{store: store, mode: mode}
}

func (w *Wizard) Store() *draft.Store { return w.store }
func (w *Wizard) Step() Step          { return w.step }

// BlockReason explains why the current step cannot be left forward, or ""
// when it can.
func (w *Wizard) BlockReason() string {
	switch w.step {
	case StepBasics:
		if strings.TrimSpace(w.store.Template().Name) == "" {
			return "Give the template a name"
		}
	case StepCriteria:
		if w.store.CriteriaCount() == 0 {
			return "Add at least one criterion"
		}
	case StepAssignments:
		if w.mode != AssignEveryone && len(w.selected) == 0 {
			return "Choose everyone or select at least one person"
		}
	case StepReview:
		return "This is the last step"
	}
	return ""
}

func (w *Wizard) CanAdvance() bool {
	return w.BlockReason() == ""
}

// Next moves forward one step when the current step allows it.
func (w *Wizard) Next() bool {
	if !w.CanAdvance() {
		return false
	}
	w.step++
	return true
}

func (w *Wizard) Back() bool {
	if w.step == StepBasics {
		return false
	}
	w.step--
	return true
}

// GoTo jumps to any earlier step, or forward through steps whose gates pass.
func (w *Wizard) GoTo(target Step) bool {
	if target < StepBasics || target > StepReview {
		return false
	}
	if target <= w.step {
		w.step = target
		return true
	}
	start := w.step
	for w.step < target {
		if !w.Next() {
			w.step = start
			return false
		}
	}
	return true
}

func (w *Wizard) AssignmentMode() AssignmentMode { return w.mode }

func (w *Wizard) SetAssignmentMode(m AssignmentMode) {
	if m.Valid() {
		w.mode = m
	}
}

// ToggleUser adds or removes a user from the specific-assignment selection.
func (w *Wizard) ToggleUser(id string) {
	if i := slices.Index(w.selected, id); i >= 0 {
		w.selected = slices.Delete(w.selected, i, i+1)
		return
	}
	w.selected = append(w.selected, id)
}

func (w *Wizard) IsSelected(id string) bool {
	return slices.Contains(w.selected, id)
}

// SelectedUsers returns the selection in the order users were picked.
func (w *Wizard) SelectedUsers() []string {
	return slices.Clone(w.selected)
}

// ChecklistItem is one line of the review step.
type ChecklistItem struct {
	Label string
	Done  bool
	// Warning marks items that do not block activation.
	Warning bool
	Detail  string
}

// Checklist summarizes the draft for the review step. Unbalanced weights are
// reported as a warning and do not block finishing.
func (w *Wizard) Checklist() []ChecklistItem {
	t := w.store.Template()
	items := []ChecklistItem{
		{Label: "Template named", Done: strings.TrimSpace(t.Name) != "", Detail: t.Name},
		{
			Label:  "Criteria added",
			Done:   w.store.CriteriaCount() > 0,
			Detail: fmt.Sprintf("%d criteria in %d sections", w.store.CriteriaCount(), len(w.store.Groups())),
		},
	}

	if t.ScoringMethod == models.ScoringWeighted {
		wb := w.store.WeightBalance()
		item := ChecklistItem{Label: "Weights total 100%", Done: wb.Balanced, Warning: !wb.Balanced}
		if !wb.Balanced {
			item.Detail = wb.Message
		}
		items = append(items, item)
	}

	assign := ChecklistItem{Label: "Assignments chosen", Done: true, Detail: "Everyone"}
	if w.mode == AssignSpecific {
		assign.Done = len(w.selected) > 0
		assign.Detail = fmt.Sprintf("%d selected", len(w.selected))
	}
	items = append(items, assign)

	valid := w.store.ValidateForPublish()
	check := ChecklistItem{Label: "No validation errors", Done: valid}
	if !valid {
		check.Detail = fmt.Sprintf("%d problem(s)", len(w.store.ValidationErrors()))
	}
	return append(items, check)
}

// FinishResult is what Finish accomplished.
type FinishResult struct {
	TemplateID  string
	Assignments AssignmentReport
	Published   *models.Template
}

// Finish saves the draft, creates assignments and, when activate is set,
// publishes the template. Assigning to everyone marks the template as the
// default before it is saved; assigning to specific people clears the flag. Assignment failures are reported in the result
// and do not stop publishing.
func (w *Wizard) Finish(ctx context.Context, saver *Saver, activate bool) (FinishResult, error) {
	if everyone := w.mode == AssignEveryone; w.store.Template().IsDefault != everyone {
		w.store.UpdateTemplate(func(t *models.Template) { t.IsDefault = everyone })
	}

	id, err := saver.Save(ctx, w.store)
	if err != nil {
		return FinishResult{}, err
	}
	res := FinishResult{TemplateID: id}
	res.Assignments = saver.CreateAssignments(ctx, id, w.mode, w.selected)

	if activate && w.store.Template().Status == models.TemplateDraft {
		published, err := saver.Publish(ctx, w.store, models.PublishRequest{
			SetAsDefault: w.mode == AssignEveryone,
		}, GateAdvisory)
		if err != nil {
			return res, err
		}
		res.Published = &published
	}
	return res, nil
}
