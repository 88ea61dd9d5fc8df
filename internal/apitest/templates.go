package apitest

import (
	"cmp"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"

	"github.com/julianstephens/callcoach/internal/models"
)

// AddTemplate seeds a template with its groups and criteria. Ids must be set.
func (b *Backend) AddTemplate(d models.TemplateDetail) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.templates[d.Template.ID] = d.Template
	for _, g := range d.Groups {
		g.TemplateID = d.Template.ID
		b.groups[g.ID] = g
	}
	for _, c := range d.Criteria {
		c.TemplateID = d.Template.ID
		b.criteria[c.ID] = c.Clone()
	}
}

// Template returns the stored state of a template.
func (b *Backend) Template(id string) (models.TemplateDetail, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.detail(id)
}

// Assignments returns every assignment created so far.
func (b *Backend) Assignments() []models.Assignment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.assignments)
}

func (b *Backend) detail(id string) (models.TemplateDetail, bool) {
	t, ok := b.templates[id]
	if !ok {
		return models.TemplateDetail{}, false
	}
	d := models.TemplateDetail{Template: t, Groups: []models.Group{}, Criteria: []models.Criterion{}}
	for _, g := range b.groups {
		if g.TemplateID == id {
			d.Groups = append(d.Groups, g)
		}
	}
	for _, c := range b.criteria {
		if c.TemplateID == id {
			d.Criteria = append(d.Criteria, c.Clone())
		}
	}
	slices.SortFunc(d.Groups, func(x, y models.Group) int {
		if c := cmp.Compare(x.SortOrder, y.SortOrder); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	slices.SortFunc(d.Criteria, func(x, y models.Criterion) int {
		if c := cmp.Compare(x.SortOrder, y.SortOrder); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return d, true
}

func (b *Backend) listTemplates(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	list := make([]models.Template, 0, len(b.templates))
	for _, t := range b.templates {
		list = append(list, t)
	}
	b.mu.Unlock()
	slices.SortFunc(list, func(x, y models.Template) int { return cmp.Compare(x.ID, y.ID) })
	writeJSON(w, http.StatusOK, map[string]any{"templates": list})
}

func (b *Backend) getTemplate(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	d, ok := b.detail(mux.Vars(r)["id"])
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (b *Backend) createTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.Template
	if err := decode(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if t.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now().UTC()
	t.ID = b.nextID("tpl")
	t.Status = models.TemplateDraft
	t.Version = 1
	t.CreatedAt, t.UpdatedAt = &now, &now
	b.templates[t.ID] = t
	writeJSON(w, http.StatusCreated, map[string]any{"template": t})
}

func (b *Backend) updateTemplate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in models.Template
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.templates[id]
	if !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	now := time.Now().UTC()
	in.ID = id
	in.Status = cur.Status
	in.Version = cur.Version
	in.CreatedAt = cur.CreatedAt
	in.UpdatedAt = &now
	b.templates[id] = in
	writeJSON(w, http.StatusOK, map[string]any{"template": in})
}

func (b *Backend) publishTemplate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req models.PublishRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.templates[id]
	if !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	if t.Status != models.TemplateDraft {
		writeError(w, http.StatusConflict, "only draft templates can be published")
		return
	}
	t.Status = models.TemplatePublished
	if req.SetAsDefault {
		for oid, other := range b.templates {
			other.IsDefault = false
			b.templates[oid] = other
		}
		t.IsDefault = true
	}
	b.templates[id] = t
	writeJSON(w, http.StatusOK, map[string]any{"template": t})
}

func (b *Backend) createGroup(w http.ResponseWriter, r *http.Request) {
	tid := mux.Vars(r)["id"]
	var g models.Group
	if err := decode(r, &g); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.templates[tid]; !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	g.ID = b.nextID("grp")
	g.TemplateID = tid
	b.groups[g.ID] = g
	writeJSON(w, http.StatusCreated, map[string]any{"group": g})
}

func (b *Backend) updateGroup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var g models.Group
	if err := decode(r, &g); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.groups[vars["groupId"]]
	if !ok || cur.TemplateID != vars["id"] {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	g.ID, g.TemplateID = cur.ID, cur.TemplateID
	b.groups[g.ID] = g
	writeJSON(w, http.StatusOK, map[string]any{"group": g})
}

func (b *Backend) deleteGroup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.groups[vars["groupId"]]
	if !ok || cur.TemplateID != vars["id"] {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	delete(b.groups, cur.ID)
	for id, c := range b.criteria {
		if c.GroupID != nil && *c.GroupID == cur.ID {
			c.GroupID = nil
			b.criteria[id] = c
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// groupRefOK reports whether a criterion's group reference is valid for tid.
// Caller holds b.mu.
func (b *Backend) groupRefOK(tid string, groupID *string) bool {
	if groupID == nil {
		return true
	}
	g, ok := b.groups[*groupID]
	return ok && g.TemplateID == tid
}

func (b *Backend) createCriterion(w http.ResponseWriter, r *http.Request) {
	tid := mux.Vars(r)["id"]
	var c models.Criterion
	if err := decode(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.templates[tid]; !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	if !b.groupRefOK(tid, c.GroupID) {
		writeError(w, http.StatusBadRequest, "group_id does not belong to this template")
		return
	}
	c.ID = b.nextID("crit")
	c.TemplateID = tid
	b.criteria[c.ID] = c
	writeJSON(w, http.StatusCreated, map[string]any{"criteria": c})
}

func (b *Backend) updateCriterion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var c models.Criterion
	if err := decode(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.criteria[vars["criteriaId"]]
	if !ok || cur.TemplateID != vars["id"] {
		writeError(w, http.StatusNotFound, "criterion not found")
		return
	}
	if !b.groupRefOK(cur.TemplateID, c.GroupID) {
		writeError(w, http.StatusBadRequest, "group_id does not belong to this template")
		return
	}
	c.ID, c.TemplateID = cur.ID, cur.TemplateID
	b.criteria[c.ID] = c
	writeJSON(w, http.StatusOK, map[string]any{"criteria": c})
}

func (b *Backend) deleteCriterion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.criteria[vars["criteriaId"]]
	if !ok || cur.TemplateID != vars["id"] {
		writeError(w, http.StatusNotFound, "criterion not found")
		return
	}
	delete(b.criteria, cur.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) createAssignment(w http.ResponseWriter, r *http.Request) {
	var a models.Assignment
	if err := decode(r, &a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.templates[a.TemplateID]; !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	a.ID = b.nextID("asg")
	b.assignments = append(b.assignments, a)
	writeJSON(w, http.StatusCreated, map[string]any{"assignment": a})
}
