package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/callcoach/internal/builder"
	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/logger"
	"github.com/julianstephens/callcoach/internal/models"
	"github.com/julianstephens/callcoach/internal/storage"
)

type savedMsg struct {
	id  string
	err error
}

type publishedMsg struct {
	template models.Template
	err      error
}

type finishedMsg struct {
	result  builder.FinishResult
	publish bool
	err     error
}

type teamMsg struct {
	members []models.TeamMember
	err     error
}

type formKind int

const (
	formBasics formKind = iota
	formCriterion
	formGroup
	formQuit
)

func (m Model) saveCmd() tea.Cmd {
	saver, store, ctx := m.opts.Saver, m.store, m.opts.context()
	return func() tea.Msg {
		id, err := saver.Save(ctx, store)
		return savedMsg{id: id, err: err}
	}
}

func (m Model) publishCmd() tea.Cmd {
	saver, store, ctx := m.opts.Saver, m.store, m.opts.context()
	return func() tea.Msg {
		t, err := saver.Publish(ctx, store, models.PublishRequest{}, builder.GateStrict)
		return publishedMsg{template: t, err: err}
	}
}

func (m Model) finishCmd(publish bool) tea.Cmd {
	w, saver, ctx := m.wizard, m.opts.Saver, m.opts.context()
	return func() tea.Msg {
		res, err := w.Finish(ctx, saver, publish)
		return finishedMsg{result: res, publish: publish, err: err}
	}
}

func (m Model) fetchTeamCmd() tea.Cmd {
	team, ctx := m.opts.Team, m.opts.context()
	return func() tea.Msg {
		active := true
		members, err := team.ListTeam(ctx, models.TeamFilter{IsActive: &active, PageSize: constants.TeamPageSize})
		return teamMsg{members: members, err: err}
	}
}

func (m *Model) setStatus(msg string) {
	m.status, m.statusErr = msg, false
}

func (m *Model) setError(err error) {
	m.status, m.statusErr = describe(err), true
}

// describe renders an error for the status line.
func describe(err error) string {
	var vf *draft.ValidationFailure
	if errors.As(err, &vf) {
		msgs := make([]string, len(vf.Errors))
		for i, e := range vf.Errors {
			msgs[i] = e.Message
		}
		return "Fix before saving: " + strings.Join(msgs, "; ")
	}
	var blocked *builder.PublishBlockedError
	if errors.As(err, &blocked) {
		return "Cannot publish: " + strings.Join(blocked.Reasons, "; ")
	}
	return err.Error()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.vp.Width = msg.Width - 4
		m.vp.Height = max(msg.Height-8, 3)
		return m, nil
	case savedMsg:
		return m.handleSaved(msg)
	case publishedMsg:
		return m.handlePublished(msg)
	case finishedMsg:
		return m.handleFinished(msg)
	case teamMsg:
		if msg.err != nil {
			m.teamErr = fmt.Sprintf("Could not load the team: %v", msg.err)
		} else {
			m.members = msg.members
			m.teamErr = ""
		}
		return m, nil
	}

	switch m.state {
	case StateForm, StateConfirmQuit:
		return m.updateForm(msg)
	case StateConfirmDeleteGroup:
		return m.updateConfirmDeleteGroup(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		return m.requestQuit()
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if m.busy {
		m.setStatus("Working, please wait...")
		return m, nil
	}

	if m.wizard != nil {
		switch {
		case key.Matches(keyMsg, m.keys.Next):
			if !m.wizard.Next() {
				m.setStatus(m.wizard.BlockReason())
			} else {
				m.setStatus("")
			}
			return m, nil
		case key.Matches(keyMsg, m.keys.Back):
			m.wizard.Back()
			m.setStatus("")
			return m, nil
		}
		switch m.wizard.Step() {
		case builder.StepBasics:
			if key.Matches(keyMsg, m.keys.Edit) || key.Matches(keyMsg, m.keys.Basics) {
				return m.openForm(formBasics, "")
			}
			return m.updateHistoryKeys(keyMsg)
		case builder.StepAssignments:
			return m.updateAssignments(keyMsg)
		case builder.StepReview:
			return m.updateReview(keyMsg)
		}
	}
	return m.updateOutline(keyMsg)
}

func (m Model) updateHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Undo):
		if !m.store.Undo() {
			m.setStatus("Nothing to undo")
		}
		m.clampCursor()
	case key.Matches(msg, m.keys.Redo):
		if !m.store.Redo() {
			m.setStatus("Nothing to redo")
		}
		m.clampCursor()
	case key.Matches(msg, m.keys.Save):
		return m.startSave()
	}
	return m, nil
}

func (m Model) startSave() (tea.Model, tea.Cmd) {
	if m.opts.Saver == nil {
		m.setStatus("Saving is not available")
		return m, nil
	}
	m.busy = true
	m.setStatus("Saving...")
	return m, m.saveCmd()
}

func (m Model) updateOutline(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.rows()
	sel, hasSel := m.selected()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Basics):
		return m.openForm(formBasics, "")
	case key.Matches(msg, m.keys.Edit):
		if !hasSel {
			return m, nil
		}
		if sel.kind == rowGroup {
			return m.openForm(formGroup, sel.id)
		}
		return m.openForm(formCriterion, sel.id)
	case key.Matches(msg, m.keys.AddCriterion):
		var target *string
		if hasSel {
			if sel.kind == rowGroup {
				target = &sel.id
			} else {
				target = sel.groupID
			}
		}
		if target != nil && !m.store.IsGroupExpanded(*target) {
			m.store.ToggleGroupExpanded(*target)
		}
		id, ok := m.store.AddCriterion(target, "")
		if !ok {
			return m, nil
		}
		m.selectID(id)
		return m.openForm(formCriterion, id)
	case key.Matches(msg, m.keys.AddGroup):
		id := m.store.AddGroup()
		m.selectID(id)
		return m.openForm(formGroup, id)
	case key.Matches(msg, m.keys.Delete):
		if !hasSel {
			return m, nil
		}
		if sel.kind == rowGroup {
			if len(m.store.GroupCriteria(sel.id)) == 0 {
				m.store.DeleteGroup(sel.id, draft.OrphanCriteria)
				m.clampCursor()
				return m, nil
			}
			m.editingID = sel.id
			m.state = StateConfirmDeleteGroup
			return m, nil
		}
		m.store.DeleteCriterion(sel.id)
		m.clampCursor()
	case key.Matches(msg, m.keys.Duplicate):
		if hasSel && sel.kind == rowCriterion {
			if id, ok := m.store.DuplicateCriterion(sel.id); ok {
				m.selectID(id)
			}
		}
	case key.Matches(msg, m.keys.MoveUp), key.Matches(msg, m.keys.MoveDown):
		if !hasSel {
			return m, nil
		}
		delta := 1
		if key.Matches(msg, m.keys.MoveUp) {
			delta = -1
		}
		m.reorder(sel, delta)
	case key.Matches(msg, m.keys.MoveGroup):
		if hasSel && sel.kind == rowCriterion {
			target := m.nextBucket(sel.groupID)
			if target != nil && !m.store.IsGroupExpanded(*target) {
				m.store.ToggleGroupExpanded(*target)
			}
			if m.store.MoveCriterion(sel.id, target) {
				m.selectID(sel.id)
			}
		}
	case key.Matches(msg, m.keys.Toggle):
		if hasSel && sel.kind == rowGroup {
			m.store.ToggleGroupExpanded(sel.id)
			m.clampCursor()
		}
	case key.Matches(msg, m.keys.Publish):
		if m.wizard != nil {
			return m, nil
		}
		return m.startPublish()
	default:
		return m.updateHistoryKeys(msg)
	}
	return m, nil
}

// reorder moves the selected row one place within its bucket.
func (m *Model) reorder(sel row, delta int) {
	if sel.kind == rowGroup {
		groups := m.store.Groups()
		for i, g := range groups {
			if g.ID == sel.id {
				m.store.ReorderGroups(i, i+delta)
				break
			}
		}
	} else {
		var bucket []models.Criterion
		if sel.groupID != nil {
			bucket = m.store.GroupCriteria(*sel.groupID)
		} else {
			bucket = m.store.UngroupedCriteria()
		}
		for i, c := range bucket {
			if c.ID == sel.id {
				m.store.ReorderCriteria(sel.groupID, i, i+delta)
				break
			}
		}
	}
	m.selectID(sel.id)
}

// nextBucket cycles through the groups in order and then the ungrouped
// bucket, starting after current.
func (m Model) nextBucket(current *string) *string {
	groups := m.store.Groups()
	if len(groups) == 0 {
		return nil
	}
	if current == nil {
		id := groups[0].ID
		return &id
	}
	for i, g := range groups {
		if g.ID == *current {
			if i+1 < len(groups) {
				id := groups[i+1].ID
				return &id
			}
			return nil
		}
	}
	return nil
}

func (m Model) startPublish() (tea.Model, tea.Cmd) {
	if m.opts.Saver == nil {
		m.setStatus("Publishing is not available")
		return m, nil
	}
	if err := builder.CanPublish(m.store, builder.GateStrict); err != nil {
		m.setError(err)
		return m, nil
	}
	m.busy = true
	m.setStatus("Publishing...")
	return m, m.publishCmd()
}

func (m Model) updateAssignments(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Everyone):
		if m.wizard.AssignmentMode() == builder.AssignEveryone {
			m.wizard.SetAssignmentMode(builder.AssignSpecific)
		} else {
			m.wizard.SetAssignmentMode(builder.AssignEveryone)
		}
	case key.Matches(msg, m.keys.Up):
		if m.memberCursor > 0 {
			m.memberCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.memberCursor < len(m.members)-1 {
			m.memberCursor++
		}
	case key.Matches(msg, m.keys.Toggle), key.Matches(msg, m.keys.Edit):
		if m.memberCursor < len(m.members) {
			if m.wizard.AssignmentMode() != builder.AssignSpecific {
				m.wizard.SetAssignmentMode(builder.AssignSpecific)
			}
			m.wizard.ToggleUser(m.members[m.memberCursor].ID)
		}
	default:
		return m.updateHistoryKeys(msg)
	}
	return m, nil
}

func (m Model) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Finish), key.Matches(msg, m.keys.Publish):
		if m.opts.Saver == nil {
			m.setStatus("Saving is not available")
			return m, nil
		}
		publish := key.Matches(msg, m.keys.Publish)
		m.busy = true
		if publish {
			m.setStatus("Saving and publishing...")
		} else {
			m.setStatus("Saving...")
		}
		return m, m.finishCmd(publish)
	}
	return m.updateHistoryKeys(msg)
}

func (m Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		logger.Warn("save from editor failed", "error", msg.err)
		m.setError(msg.err)
		return m, nil
	}
	m.result.TemplateID = msg.id
	m.result.Saved = true
	m.dropStash()
	m.setStatus("✓ Saved")
	m.clampCursor()
	return m, nil
}

func (m Model) handlePublished(msg publishedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.setError(msg.err)
		return m, nil
	}
	t := msg.template
	m.result.Published = &t
	m.setStatus(fmt.Sprintf("✓ Published version %d", t.Version))
	return m, nil
}

func (m Model) handleFinished(msg finishedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.result.TemplateID != "" {
		m.result.TemplateID = msg.result.TemplateID
		m.result.Saved = true
		report := msg.result.Assignments
		m.result.Assignments = &report
		m.dropStash()
	}
	m.result.Published = msg.result.Published
	if msg.err != nil {
		m.setError(msg.err)
		return m, nil
	}
	if !msg.result.Assignments.OK() {
		m.setStatus("⚠ " + msg.result.Assignments.String())
		return m, nil
	}
	m.quitting = true
	return m, tea.Quit
}

// dropStash removes the stash entry the draft was resumed from once its
// content has reached the backend.
func (m *Model) dropStash() {
	if m.opts.DraftID == "" || m.opts.Stash == nil {
		return
	}
	if err := m.opts.Stash.DeleteDraft(m.opts.DraftID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Warn("failed to remove stashed draft", "id", m.opts.DraftID, "error", err)
		return
	}
	m.opts.DraftID = ""
}

func (m Model) requestQuit() (tea.Model, tea.Cmd) {
	if m.busy {
		m.setStatus("Wait for the save to finish before quitting")
		return m, nil
	}
	if !m.store.IsDirty() {
		m.quitting = true
		return m, tea.Quit
	}
	m.quitForm = &QuitFormModel{Choice: quitStash}
	m.form = NewQuitForm(m.quitForm)
	m.state = StateConfirmQuit
	return m, m.form.Init()
}

// resolveQuit acts on the answer to the unsaved-changes prompt.
func (m Model) resolveQuit(choice string) (tea.Model, tea.Cmd) {
	m.form, m.quitForm = nil, nil
	m.state = StateOutline
	switch choice {
	case quitStash:
		if m.opts.Stash == nil {
			m.setStatus("No local store to stash into")
			return m, nil
		}
		rec, err := storage.StashDraft(m.opts.Stash, m.store, m.opts.DraftID)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.result.StashedID = rec.ID
	case quitDiscard:
		m.result.Discarded = true
	default:
		return m, nil
	}
	m.quitting = true
	return m, tea.Quit
}

func (m Model) openForm(kind formKind, id string) (tea.Model, tea.Cmd) {
	m.editingID = id
	switch kind {
	case formBasics:
		m.basicsForm = newBasicsFormModel(m.store.Template())
		m.form = NewBasicsForm(m.basicsForm)
	case formGroup:
		g, ok := m.store.Group(id)
		if !ok {
			return m, nil
		}
		m.groupForm = newGroupFormModel(g)
		m.form = NewGroupForm(m.groupForm)
	case formCriterion:
		c, ok := m.store.Criterion(id)
		if !ok {
			return m, nil
		}
		m.criterionForm = newCriterionFormModel(c)
		m.form = NewCriterionForm(m.criterionForm)
	default:
		return m, nil
	}
	m.state = StateForm
	return m, m.form.Init()
}

func (m *Model) closeForm() {
	m.form = nil
	m.basicsForm, m.groupForm, m.criterionForm = nil, nil, nil
	m.editingID = ""
	m.state = StateOutline
}

// applyForm writes the completed form back into the draft.
func (m *Model) applyForm() {
	switch {
	case m.basicsForm != nil:
		applyBasicsForm(m.store, m.basicsForm)
	case m.groupForm != nil:
		applyGroupForm(m.store, m.editingID, m.groupForm)
	case m.criterionForm != nil:
		applyCriterionForm(m.store, m.editingID, m.criterionForm)
		m.selectID(m.editingID)
	}
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		if m.state == StateConfirmQuit {
			return m.resolveQuit(quitCancel)
		}
		m.closeForm()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if m.state == StateConfirmQuit {
			return m.resolveQuit(m.quitForm.Choice)
		}
		m.applyForm()
		m.closeForm()
		return m, nil
	case huh.StateAborted:
		if m.state == StateConfirmQuit {
			return m.resolveQuit(quitCancel)
		}
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirmDeleteGroup(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "o", "O":
		m.store.DeleteGroup(m.editingID, draft.OrphanCriteria)
	case "x", "X":
		m.store.DeleteGroup(m.editingID, draft.DeleteCriteria)
	case "n", "N", "esc":
	default:
		return m, nil
	}
	m.editingID = ""
	m.state = StateOutline
	m.clampCursor()
	return m, nil
}
