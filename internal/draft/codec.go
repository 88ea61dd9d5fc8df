package draft

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/callcoach/internal/models"
)

const stashVersion = 1

type stashedTemplate struct {
	models.Template
	New bool `json:"is_new"`
}

type stashedGroup struct {
	models.Group
	New      bool `json:"is_new"`
	Expanded bool `json:"expanded"`
}

type stashedCriterion struct {
	models.Criterion
	New      bool `json:"is_new"`
	Expanded bool `json:"expanded"`
}

type stashDoc struct {
	Version         int                `json:"version"`
	Template        stashedTemplate    `json:"template"`
	Groups          []stashedGroup     `json:"groups"`
	Criteria        []stashedCriterion `json:"criteria"`
	DeletedGroups   []string           `json:"deleted_groups,omitempty"`
	DeletedCriteria []string           `json:"deleted_criteria,omitempty"`
}

// Encode serializes the draft, client-only flags included, so it can be
// stashed and resumed later. History is not kept.
func (s *Store) Encode() ([]byte, error) {
	st := s.state.Clone()
	doc := stashDoc{
		Version:         stashVersion,
		Template:        stashedTemplate{Template: st.Template, New: st.Template.IsNew},
		DeletedGroups:   st.DeletedGroups,
		DeletedCriteria: st.DeletedCriteria,
	}
	for _, g := range st.Groups {
		doc.Groups = append(doc.Groups, stashedGroup{Group: g, New: g.IsNew, Expanded: s.expanded[g.ID]})
	}
	for _, c := range st.Criteria {
		doc.Criteria = append(doc.Criteria, stashedCriterion{Criterion: c, New: c.IsNew, Expanded: c.Expanded})
	}
	return json.Marshal(doc)
}

// Decode restores a stashed draft. The result starts a fresh history and is
// dirty, since its contents have not been saved.
func Decode(data []byte) (*Store, error) {
	var doc stashDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	if doc.Version != stashVersion {
		return nil, fmt.Errorf("unsupported draft version %d", doc.Version)
	}

	s := &Store{newID: tempID, expanded: make(map[string]bool)}
	st := State{
		Template:        doc.Template.Template,
		DeletedGroups:   doc.DeletedGroups,
		DeletedCriteria: doc.DeletedCriteria,
	}
	st.Template.IsNew = doc.Template.New
	for _, g := range doc.Groups {
		grp := g.Group
		grp.IsNew = g.New
		if g.Expanded {
			s.expanded[grp.ID] = true
		}
		st.Groups = append(st.Groups, grp)
	}
	for _, c := range doc.Criteria {
		crit := c.Criterion
		crit.IsNew = c.New
		crit.Expanded = c.Expanded
		st.Criteria = append(st.Criteria, crit)
	}
	resequenceGroups(st.Groups)
	resequenceCriteria(st.Criteria)
	s.state = st
	s.history.reset(s.state)
	s.dirty = true
	return s, nil
}
