package draft

import (
	"slices"

	"github.com/google/uuid"

	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/models"
)

const (
	defaultGroupName = "New Section"
)

// GroupDeleteMode selects what happens to a group's criteria when the group
// is deleted.
type GroupDeleteMode int

const (
	// OrphanCriteria moves the group's criteria to the end of the ungrouped bucket.
	OrphanCriteria GroupDeleteMode = iota
	// DeleteCriteria removes the group's criteria together with the group.
	DeleteCriteria
)

// State is the persisted part of a draft: everything undo/redo restores.
type State struct {
	Template        models.Template
	Groups          []models.Group
	Criteria        []models.Criterion
	DeletedGroups   []string // server ids of persisted groups removed since the last save
	DeletedCriteria []string // server ids of persisted criteria removed since the last save
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{
		Template:        s.Template,
		Groups:          slices.Clone(s.Groups),
		DeletedGroups:   slices.Clone(s.DeletedGroups),
		DeletedCriteria: slices.Clone(s.DeletedCriteria),
	}
	if s.Template.MaxTotalScore != nil {
		v := *s.Template.MaxTotalScore
		out.Template.MaxTotalScore = &v
	}
	if s.Criteria != nil {
		out.Criteria = make([]models.Criterion, len(s.Criteria))
		for i, c := range s.Criteria {
			out.Criteria[i] = c.Clone()
		}
	}
	return out
}

// Store is the editable model of one template draft. It is owned by a single
// editor and is not safe for concurrent use.
type Store struct {
	state    State
	history  history
	expanded map[string]bool
	dirty    bool
	errors   []ValidationError
	newID    func() string
}

func tempID() string {
	return constants.TempIDPrefix + uuid.NewString()
}

// New creates an empty draft for a template that does not exist yet.
func New() *Store {
	s := &Store{newID: tempID, expanded: make(map[string]bool)}
	s.state = State{
		Template: models.Template{
			ID:            s.newID(),
			ScoringMethod: models.ScoringWeighted,
			PassThreshold: constants.DefaultPassThreshold,
			Status:        models.TemplateDraft,
			Settings:      models.TemplateSettings{AllowNA: true},
			IsNew:         true,
		},
	}
	s.history.reset(s.state)
	return s
}

// Load creates a draft hydrated from a persisted template.
func Load(detail models.TemplateDetail) *Store {
	s := &Store{newID: tempID, expanded: make(map[string]bool)}
	st := State{
		Template: detail.Template,
		Groups:   slices.Clone(detail.Groups),
	}
	st.Template.IsNew = false
	for i := range st.Groups {
		st.Groups[i].IsNew = false
		if !st.Groups[i].IsCollapsedByDefault {
			s.expanded[st.Groups[i].ID] = true
		}
	}
	for _, c := range detail.Criteria {
		c = c.Clone()
		c.IsNew = false
		st.Criteria = append(st.Criteria, c)
	}
	resequenceGroups(st.Groups)
	resequenceCriteria(st.Criteria)
	s.state = st.Clone()
	s.history.reset(s.state)
	return s
}

// NewFrom creates an unsaved draft holding a copy of detail. Every entity
// gets a fresh temporary id, so saving it creates a new template. Used for
// imports and duplicates.
func NewFrom(detail models.TemplateDetail) *Store {
	return newFrom(detail, tempID)
}

func newFrom(detail models.TemplateDetail, newID func() string) *Store {
	s := &Store{newID: newID, expanded: make(map[string]bool)}
	t := detail.Template
	t.ID = s.newID()
	t.IsNew = true
	t.Status = models.TemplateDraft
	t.IsDefault = false
	t.Version = 0
	t.CreatedAt, t.UpdatedAt = nil, nil
	if !t.ScoringMethod.Valid() {
		t.ScoringMethod = models.ScoringWeighted
	}
	st := State{Template: t}

	groupIDs := make(map[string]string, len(detail.Groups))
	for _, g := range detail.Groups {
		id := s.newID()
		if g.ID != "" {
			groupIDs[g.ID] = id
		}
		g.ID, g.TemplateID, g.IsNew = id, "", true
		if !g.IsCollapsedByDefault {
			s.expanded[id] = true
		}
		st.Groups = append(st.Groups, g)
	}
	for _, c := range detail.Criteria {
		c = c.Clone()
		c.ID, c.TemplateID, c.IsNew = s.newID(), "", true
		if c.GroupID != nil {
			gid, ok := groupIDs[*c.GroupID]
			if !ok {
				c.GroupID = nil
			} else {
				c.GroupID = &gid
			}
		}
		if !c.CriteriaType.Valid() {
			c.CriteriaType = models.DefaultCriteriaType
		}
		st.Criteria = append(st.Criteria, c)
	}
	resequenceGroups(st.Groups)
	resequenceCriteria(st.Criteria)
	s.state = st
	s.history.reset(s.state)
	s.dirty = true
	return s
}

// commit records the current state as a new history entry.
func (s *Store) commit() {
	resequenceGroups(s.state.Groups)
	resequenceCriteria(s.state.Criteria)
	s.history.push(s.state)
	s.dirty = true
}

func (s *Store) groupIndex(id string) int {
	return slices.IndexFunc(s.state.Groups, func(g models.Group) bool { return g.ID == id })
}

func (s *Store) criterionIndex(id string) int {
	return slices.IndexFunc(s.state.Criteria, func(c models.Criterion) bool { return c.ID == id })
}

func (s *Store) nextCriterionOrder(groupID *string) int {
	next := 0
	for _, c := range s.state.Criteria {
		if c.InGroup(groupID) && c.SortOrder >= next {
			next = c.SortOrder + 1
		}
	}
	return next
}

// Template returns a copy of the draft template.
func (s *Store) Template() models.Template {
	return s.state.Clone().Template
}

// IsNewTemplate reports whether the template has never been saved.
func (s *Store) IsNewTemplate() bool {
	return s.state.Template.IsNew
}

// Snapshot returns a deep copy of the draft state.
func (s *Store) Snapshot() State {
	return s.state.Clone()
}

// Groups returns the groups ordered by sort order.
func (s *Store) Groups() []models.Group {
	return sortedGroups(s.state.Groups)
}

// Group looks up a group by id.
func (s *Store) Group(id string) (models.Group, bool) {
	i := s.groupIndex(id)
	if i < 0 {
		return models.Group{}, false
	}
	return s.state.Groups[i], true
}

// Criterion looks up a criterion by id.
func (s *Store) Criterion(id string) (models.Criterion, bool) {
	i := s.criterionIndex(id)
	if i < 0 {
		return models.Criterion{}, false
	}
	return s.state.Criteria[i].Clone(), true
}

// Criteria returns every criterion: grouped ones first in group order, then
// ungrouped ones, then any referencing a group unknown to the draft.
func (s *Store) Criteria() []models.Criterion {
	var out []models.Criterion
	known := make(map[string]bool)
	for _, g := range s.Groups() {
		known[g.ID] = true
		out = append(out, s.GroupCriteria(g.ID)...)
	}
	out = append(out, s.UngroupedCriteria()...)
	var rest []models.Criterion
	for _, c := range s.state.Criteria {
		if c.GroupID != nil && !known[*c.GroupID] {
			rest = append(rest, c.Clone())
		}
	}
	slices.SortStableFunc(rest, func(a, b models.Criterion) int {
		if *a.GroupID != *b.GroupID {
			if *a.GroupID < *b.GroupID {
				return -1
			}
			return 1
		}
		return a.SortOrder - b.SortOrder
	})
	return append(out, rest...)
}

// CriteriaCount returns the number of criteria in the draft.
func (s *Store) CriteriaCount() int {
	return len(s.state.Criteria)
}

// GroupCriteria returns the criteria of a group ordered by sort order.
func (s *Store) GroupCriteria(groupID string) []models.Criterion {
	return scopeCriteria(s.state.Criteria, &groupID)
}

// UngroupedCriteria returns the criteria without a group ordered by sort order.
func (s *Store) UngroupedCriteria() []models.Criterion {
	return scopeCriteria(s.state.Criteria, nil)
}

// PendingDeletes returns the server ids of groups and criteria removed since
// the last save.
func (s *Store) PendingDeletes() (groups, criteria []string) {
	return slices.Clone(s.state.DeletedGroups), slices.Clone(s.state.DeletedCriteria)
}

// UpdateTemplate applies fn to the template. The id and IsNew flag are kept.
func (s *Store) UpdateTemplate(fn func(*models.Template)) {
	t := s.state.Clone().Template
	fn(&t)
	t.ID = s.state.Template.ID
	t.IsNew = s.state.Template.IsNew
	s.state.Template = t
	s.commit()
}

// UpdateSettings applies fn to the template settings.
func (s *Store) UpdateSettings(fn func(*models.TemplateSettings)) {
	fn(&s.state.Template.Settings)
	s.commit()
}

// AddGroup appends a new group and returns its temporary id.
func (s *Store) AddGroup() string {
	order := 0
	for _, g := range s.state.Groups {
		if g.SortOrder >= order {
			order = g.SortOrder + 1
		}
	}
	g := models.Group{
		ID:         s.newID(),
		TemplateID: s.state.Template.ID,
		Name:       defaultGroupName,
		SortOrder:  order,
		IsNew:      true,
	}
	s.state.Groups = append(s.state.Groups, g)
	s.expanded[g.ID] = true
	s.commit()
	return g.ID
}

// AddCriterion appends a criterion of type t to a group, or to the ungrouped
// bucket when groupID is nil. An empty type falls back to the default type.
func (s *Store) AddCriterion(groupID *string, t models.CriteriaType) (string, bool) {
	if groupID != nil && s.groupIndex(*groupID) < 0 {
		return "", false
	}
	if t == "" || !t.Valid() {
		t = models.DefaultCriteriaType
	}
	cfg := models.DefaultConfig(t)
	c := models.Criterion{
		ID:           s.newID(),
		TemplateID:   s.state.Template.ID,
		CriteriaType: t,
		Config:       cfg,
		MaxScore:     models.DefaultMaxScore(t, cfg),
		SortOrder:    s.nextCriterionOrder(groupID),
		Keywords:     []string{},
		IsNew:        true,
		Expanded:     true,
	}
	if groupID != nil {
		id := *groupID
		c.GroupID = &id
	}
	s.state.Criteria = append(s.state.Criteria, c)
	s.commit()
	return c.ID, true
}

// UpdateGroup applies fn to a group. Id, placement and IsNew are kept; use
// ReorderGroups to move a group.
func (s *Store) UpdateGroup(id string, fn func(*models.Group)) bool {
	i := s.groupIndex(id)
	if i < 0 {
		return false
	}
	g := s.state.Groups[i]
	fn(&g)
	g.ID, g.SortOrder, g.IsNew = id, s.state.Groups[i].SortOrder, s.state.Groups[i].IsNew
	s.state.Groups[i] = g
	s.commit()
	return true
}

// UpdateCriterion applies fn to a criterion. Id, group, placement and IsNew
// are kept; use MoveCriterion and ReorderCriteria to relocate it.
func (s *Store) UpdateCriterion(id string, fn func(*models.Criterion)) bool {
	i := s.criterionIndex(id)
	if i < 0 {
		return false
	}
	orig := s.state.Criteria[i]
	c := orig.Clone()
	fn(&c)
	c.ID, c.GroupID, c.SortOrder, c.IsNew = orig.ID, orig.GroupID, orig.SortOrder, orig.IsNew
	s.state.Criteria[i] = c
	s.commit()
	return true
}

// ChangeCriterionType switches a criterion to type t and resets its config
// and max score to the defaults of that type.
func (s *Store) ChangeCriterionType(id string, t models.CriteriaType) bool {
	if !t.Valid() {
		return false
	}
	i := s.criterionIndex(id)
	if i < 0 || s.state.Criteria[i].CriteriaType == t {
		return false
	}
	cfg := models.DefaultConfig(t)
	s.state.Criteria[i].CriteriaType = t
	s.state.Criteria[i].Config = cfg
	s.state.Criteria[i].MaxScore = models.DefaultMaxScore(t, cfg)
	s.commit()
	return true
}

// DeleteGroup removes a group. Its criteria are orphaned or deleted according
// to mode; they are never dropped implicitly.
func (s *Store) DeleteGroup(id string, mode GroupDeleteMode) bool {
	i := s.groupIndex(id)
	if i < 0 {
		return false
	}
	g := s.state.Groups[i]
	s.state.Groups = slices.Delete(s.state.Groups, i, i+1)
	if !g.IsNew {
		s.state.DeletedGroups = append(s.state.DeletedGroups, g.ID)
	}
	delete(s.expanded, id)

	members := scopeCriteria(s.state.Criteria, &id)
	switch mode {
	case DeleteCriteria:
		for _, c := range members {
			s.removeCriterion(c.ID)
		}
	default:
		base := s.nextCriterionOrder(nil)
		for n, c := range members {
			j := s.criterionIndex(c.ID)
			s.state.Criteria[j].GroupID = nil
			s.state.Criteria[j].SortOrder = base + n
		}
	}
	s.commit()
	return true
}

func (s *Store) removeCriterion(id string) bool {
	i := s.criterionIndex(id)
	if i < 0 {
		return false
	}
	c := s.state.Criteria[i]
	s.state.Criteria = slices.Delete(s.state.Criteria, i, i+1)
	if !c.IsNew {
		s.state.DeletedCriteria = append(s.state.DeletedCriteria, c.ID)
	}
	return true
}

// DeleteCriterion removes a criterion.
func (s *Store) DeleteCriterion(id string) bool {
	if !s.removeCriterion(id) {
		return false
	}
	s.commit()
	return true
}

// DuplicateCriterion clones a criterion into the same bucket, appended at the
// end, and returns the clone's temporary id.
func (s *Store) DuplicateCriterion(id string) (string, bool) {
	i := s.criterionIndex(id)
	if i < 0 {
		return "", false
	}
	c := s.state.Criteria[i].Clone()
	c.ID = s.newID()
	c.IsNew = true
	c.Name += constants.CopyNameSuffix
	c.SortOrder = s.nextCriterionOrder(c.GroupID)
	s.state.Criteria = append(s.state.Criteria, c)
	s.commit()
	return c.ID, true
}

// ReorderGroups moves the group at position from to position to.
func (s *Store) ReorderGroups(from, to int) bool {
	ordered := s.Groups()
	if from < 0 || from >= len(ordered) || to < 0 || to >= len(ordered) || from == to {
		return false
	}
	for order, g := range Reorder(ordered, from, to) {
		s.state.Groups[s.groupIndex(g.ID)].SortOrder = order
	}
	s.commit()
	return true
}

// ReorderCriteria moves a criterion within one bucket (a group, or the
// ungrouped list when groupID is nil) from position from to position to.
func (s *Store) ReorderCriteria(groupID *string, from, to int) bool {
	ordered := scopeCriteria(s.state.Criteria, groupID)
	if from < 0 || from >= len(ordered) || to < 0 || to >= len(ordered) || from == to {
		return false
	}
	for order, c := range Reorder(ordered, from, to) {
		s.state.Criteria[s.criterionIndex(c.ID)].SortOrder = order
	}
	s.commit()
	return true
}

// MoveCriterion moves a criterion to the end of another group, or to the
// ungrouped bucket when target is nil.
func (s *Store) MoveCriterion(id string, target *string) bool {
	i := s.criterionIndex(id)
	if i < 0 || s.state.Criteria[i].InGroup(target) {
		return false
	}
	if target != nil && s.groupIndex(*target) < 0 {
		return false
	}
	order := s.nextCriterionOrder(target)
	if target == nil {
		s.state.Criteria[i].GroupID = nil
	} else {
		gid := *target
		s.state.Criteria[i].GroupID = &gid
	}
	s.state.Criteria[i].SortOrder = order
	s.commit()
	return true
}

// ToggleGroupExpanded flips a group's expanded state. This is view state and
// is not recorded in history.
func (s *Store) ToggleGroupExpanded(id string) {
	if s.expanded[id] {
		delete(s.expanded, id)
		return
	}
	s.expanded[id] = true
}

func (s *Store) IsGroupExpanded(id string) bool {
	return s.expanded[id]
}

func (s *Store) CanUndo() bool { return s.history.canUndo() }
func (s *Store) CanRedo() bool { return s.history.canRedo() }

// Undo restores the previous snapshot. It is a no-op at the start of history.
func (s *Store) Undo() bool {
	st, ok := s.history.undo()
	if !ok {
		return false
	}
	s.state = st
	s.dirty = true
	return true
}

// Redo restores the next snapshot. It is a no-op at the end of history.
func (s *Store) Redo() bool {
	st, ok := s.history.redo()
	if !ok {
		return false
	}
	s.state = st
	s.dirty = true
	return true
}

// IsDirty reports whether anything changed since the last MarkClean.
func (s *Store) IsDirty() bool {
	return s.dirty
}

func (s *Store) MarkClean() {
	s.dirty = false
}

// SaveResult maps the draft's ids to the ids the server assigned.
type SaveResult struct {
	Template    models.Template
	GroupIDs    map[string]string // draft id -> server id
	CriteriaIDs map[string]string // draft id -> server id
	// Deleted pending deletes that the server acknowledged.
	DeletedGroups   []string
	DeletedCriteria []string
}

// CommitSave adopts the server ids after a successful save: temporary ids are
// rewritten, every entity is marked persisted, pending deletes are cleared and
// history restarts from the saved state.
func (s *Store) CommitSave(res SaveResult) {
	s.applySave(res, true)
	s.MarkClean()
}

// ApplyPartialSave records what an aborted save managed to persist so a retry
// updates those entities instead of creating them again. The draft stays dirty.
func (s *Store) ApplyPartialSave(res SaveResult) {
	s.applySave(res, false)
}

func (s *Store) applySave(res SaveResult, complete bool) {
	expanded := make(map[string]bool, len(s.expanded))
	for id := range s.expanded {
		if v, ok := res.GroupIDs[id]; ok {
			id = v
		}
		expanded[id] = true
	}
	s.expanded = expanded

	s.state.adopt(res, complete)
	if res.Template.ID != "" {
		t := res.Template
		t.IsNew = false
		s.state.Template = t
	}
	if complete {
		s.history.reset(s.state)
		return
	}
	s.history.rebase(res, s.state)
}

// adopt rewrites ids in st to what the server assigned. Entities the server
// created but st does not hold become pending deletes, and entities st holds
// that the server already deleted are marked new so a later save recreates
// them. complete marks everything persisted and clears pending deletes.
func (st *State) adopt(res SaveResult, complete bool) {
	if res.Template.ID != "" {
		st.Template.ID = res.Template.ID
		st.Template.IsNew = false
	} else if complete {
		st.Template.IsNew = false
	}
	persisted := !st.Template.IsNew

	groups := make(map[string]bool, len(st.Groups))
	for i := range st.Groups {
		g := &st.Groups[i]
		if id, ok := res.GroupIDs[g.ID]; ok {
			g.ID = id
			g.IsNew = false
		} else if complete {
			g.IsNew = false
		}
		if slices.Contains(res.DeletedGroups, g.ID) {
			g.IsNew = true
		}
		if persisted {
			g.TemplateID = st.Template.ID
		}
		groups[g.ID] = true
	}

	criteria := make(map[string]bool, len(st.Criteria))
	for i := range st.Criteria {
		c := &st.Criteria[i]
		if id, ok := res.CriteriaIDs[c.ID]; ok {
			c.ID = id
			c.IsNew = false
		} else if complete {
			c.IsNew = false
		}
		if slices.Contains(res.DeletedCriteria, c.ID) {
			c.IsNew = true
		}
		if persisted {
			c.TemplateID = st.Template.ID
		}
		if c.GroupID != nil {
			if gid, ok := res.GroupIDs[*c.GroupID]; ok {
				c.GroupID = &gid
			}
		}
		criteria[c.ID] = true
	}

	if complete {
		st.DeletedGroups = nil
		st.DeletedCriteria = nil
		return
	}
	st.DeletedGroups = without(st.DeletedGroups, res.DeletedGroups)
	st.DeletedCriteria = without(st.DeletedCriteria, res.DeletedCriteria)
	for _, id := range sortedValues(res.GroupIDs) {
		if !groups[id] && !slices.Contains(st.DeletedGroups, id) {
			st.DeletedGroups = append(st.DeletedGroups, id)
		}
	}
	for _, id := range sortedValues(res.CriteriaIDs) {
		if !criteria[id] && !slices.Contains(st.DeletedCriteria, id) {
			st.DeletedCriteria = append(st.DeletedCriteria, id)
		}
	}
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func without(list, drop []string) []string {
	if len(drop) == 0 {
		return list
	}
	var out []string
	for _, id := range list {
		if !slices.Contains(drop, id) {
			out = append(out, id)
		}
	}
	return out
}

// AdoptTemplate replaces the template with the server's copy (for example
// after publishing) and restarts history from the result.
func (s *Store) AdoptTemplate(t models.Template) {
	t.IsNew = false
	s.state.Template = t
	s.history.reset(s.state)
}
