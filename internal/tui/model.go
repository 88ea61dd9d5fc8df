package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/callcoach/internal/builder"
	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/models"
	"github.com/julianstephens/callcoach/internal/storage"
)

type Mode int

const (
	// ModeBuilder edits a whole template on one outline page.
	ModeBuilder Mode = iota
	// ModeWizard walks a template through the four wizard steps.
	ModeWizard
)

type SessionState int

const (
	StateOutline SessionState = iota
	StateForm
	StateConfirmDeleteGroup
	StateConfirmQuit
)

// TeamLister fetches the people a template can be assigned to.
type TeamLister interface {
	ListTeam(ctx context.Context, filter models.TeamFilter) ([]models.TeamMember, error)
}

// Options wires the editor to its collaborators.
type Options struct {
	Mode Mode
	// DraftID is the stash entry the draft was resumed from, if any. It is
	// reused when stashing again and removed after a successful save.
	DraftID string
	Saver   *builder.Saver
	Team    TeamLister
	Stash   storage.Provider
	Ctx     context.Context
}

func (o Options) context() context.Context {
	if o.Ctx != nil {
		return o.Ctx
	}
	return context.Background()
}

// Result is what the editing session accomplished, reported after exit.
type Result struct {
	TemplateID  string
	Saved       bool
	Published   *models.Template
	StashedID   string
	Discarded   bool
	Assignments *builder.AssignmentReport
}

type rowKind int

const (
	rowGroup rowKind = iota
	rowCriterion
)

// row is one selectable line of the outline.
type row struct {
	kind    rowKind
	id      string
	groupID *string
}

type Model struct {
	store  *draft.Store
	wizard *builder.Wizard
	opts   Options
	keys   KeyMap
	help   help.Model
	vp     viewport.Model

	state  SessionState
	cursor int

	form          *huh.Form
	basicsForm    *BasicsFormModel
	criterionForm *CriterionFormModel
	groupForm     *GroupFormModel
	quitForm      *QuitFormModel
	editingID     string

	members      []models.TeamMember
	memberCursor int
	teamErr      string

	busy      bool
	status    string
	statusErr bool
	result    Result
	quitting  bool
	width     int
	height    int
}

// New builds the editor for store.
func New(store *draft.Store, opts Options) Model {
	m := Model{
		store: store,
		opts:  opts,
		keys:  DefaultKeyMap(),
		help:  help.New(),
		vp:    viewport.New(0, 0),
	}
	if opts.Mode == ModeWizard {
		m.wizard = builder.NewWizard(store)
	}
	if !store.IsNewTemplate() {
		m.result.TemplateID = store.Template().ID
	}
	return m
}

// Result reports what happened once the program has exited.
func (m Model) Result() Result { return m.result }

func (m Model) Init() tea.Cmd {
	if m.wizard != nil && m.opts.Team != nil {
		return m.fetchTeamCmd()
	}
	return nil
}

// rows flattens the outline: each group followed by its criteria when it is
// expanded, then the ungrouped criteria.
func (m Model) rows() []row {
	var rows []row
	for _, g := range m.store.Groups() {
		rows = append(rows, row{kind: rowGroup, id: g.ID})
		if !m.store.IsGroupExpanded(g.ID) {
			continue
		}
		gid := g.ID
		for _, c := range m.store.GroupCriteria(g.ID) {
			rows = append(rows, row{kind: rowCriterion, id: c.ID, groupID: &gid})
		}
	}
	for _, c := range m.store.UngroupedCriteria() {
		rows = append(rows, row{kind: rowCriterion, id: c.ID})
	}
	return rows
}

func (m Model) selected() (row, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return row{}, false
	}
	return rows[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selectID(id string) {
	for i, r := range m.rows() {
		if r.id == id {
			m.cursor = i
			return
		}
	}
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Quit, m.keys.Help}
	if m.wizard != nil {
		keys = append(keys, m.keys.Next, m.keys.Back)
		switch m.wizard.Step() {
		case builder.StepBasics:
			return append(keys, m.keys.Edit)
		case builder.StepAssignments:
			return append(keys, m.keys.Everyone, m.keys.Toggle)
		case builder.StepReview:
			return append(keys, m.keys.Finish, m.keys.Publish)
		}
	}
	keys = append(keys, m.keys.AddCriterion, m.keys.AddGroup, m.keys.Edit, m.keys.Delete, m.keys.Undo, m.keys.Save)
	if m.wizard == nil {
		keys = append(keys, m.keys.Publish)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Quit, m.keys.Help, m.keys.Undo, m.keys.Redo, m.keys.Save}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.MoveUp, m.keys.MoveDown, m.keys.Toggle}
	actions := []key.Binding{m.keys.AddCriterion, m.keys.AddGroup, m.keys.Edit, m.keys.Basics,
		m.keys.Delete, m.keys.Duplicate, m.keys.MoveGroup}
	if m.wizard != nil {
		return [][]key.Binding{global, navigation, actions,
			{m.keys.Next, m.keys.Back, m.keys.Everyone, m.keys.Finish, m.keys.Publish}}
	}
	return [][]key.Binding{global, navigation, append(actions, m.keys.Publish)}
}
