package apitest

import (
	"cmp"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/julianstephens/callcoach/internal/models"
)

// AddSession seeds a session and its scores.
func (b *Backend) AddSession(d models.SessionDetail) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[d.Session.ID] = d.Session
	scores := make(map[string]models.Score, len(d.Scores))
	for _, s := range d.Scores {
		scores[s.CriteriaID] = s
	}
	b.scores[d.Session.ID] = scores
}

// Session returns the stored state of a session.
func (b *Backend) Session(id string) (models.SessionDetail, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[id]
	if !ok {
		return models.SessionDetail{}, false
	}
	return models.SessionDetail{Session: s, Scores: b.sortedScores(id)}, true
}

// SetSessionStatus changes a session's status behind the client's back.
func (b *Backend) SetSessionStatus(id string, status models.SessionStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sessions[id]; ok {
		s.Status = status
		b.sessions[id] = s
	}
}

// AddMember seeds a team member.
func (b *Backend) AddMember(m models.TeamMember) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.members = append(b.members, m)
}

func (b *Backend) sortedScores(sessionID string) []models.Score {
	out := make([]models.Score, 0, len(b.scores[sessionID]))
	for _, s := range b.scores[sessionID] {
		out = append(out, s)
	}
	slices.SortFunc(out, func(x, y models.Score) int { return cmp.Compare(x.CriteriaID, y.CriteriaID) })
	return out
}

func shape(s models.Session, withTemplate, withUsers bool) models.Session {
	if !withTemplate {
		s.TemplateSnapshot = nil
	}
	if !withUsers {
		s.Coach, s.Agent = nil, nil
	}
	return s
}

func (b *Backend) listSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	withTemplate := q.Get("include_template") == "true"
	withUsers := q.Get("include_users") == "true"

	b.mu.Lock()
	list := make([]models.Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		if st := q.Get("status"); st != "" && string(s.Status) != st {
			continue
		}
		if tid := q.Get("template_id"); tid != "" && s.TemplateID != tid {
			continue
		}
		list = append(list, shape(s, withTemplate, withUsers))
	}
	b.mu.Unlock()

	slices.SortFunc(list, func(x, y models.Session) int { return cmp.Compare(x.ID, y.ID) })
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func (b *Backend) getSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	q := r.URL.Query()

	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, models.SessionDetail{
		Session: shape(s, q.Get("include_template") == "true", q.Get("include_users") == "true"),
		Scores:  b.sortedScores(id),
	})
}

func (b *Backend) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sessions[id]; !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	delete(b.sessions, id)
	delete(b.scores, id)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) submitScore(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var in models.ScoreInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[vars["id"]]
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if !s.Status.Scorable() {
		writeError(w, http.StatusConflict, "session is "+string(s.Status)+" and cannot be scored")
		return
	}
	if s.Status == models.SessionPending {
		s.Status = models.SessionInProgress
		b.sessions[s.ID] = s
	}

	scores := b.scores[s.ID]
	if scores == nil {
		scores = make(map[string]models.Score)
		b.scores[s.ID] = scores
	}
	score, exists := scores[vars["criteriaId"]]
	if !exists {
		score = models.Score{ID: b.nextID("score"), SessionID: s.ID, CriteriaID: vars["criteriaId"]}
	}
	score.Value, score.IsNA, score.Comment = in.Value, in.IsNA, in.Comment
	if in.IsNA {
		score.Value = nil
	}
	scores[score.CriteriaID] = score
	writeJSON(w, http.StatusOK, map[string]any{"score": score})
}

// completeSession finalizes the session with a plain points percentage over
// the scored, applicable criteria of the snapshot.
func (b *Backend) completeSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if !s.Status.Scorable() {
		writeError(w, http.StatusConflict, "session is already "+string(s.Status))
		return
	}

	var earned, possible float64
	threshold := 70.0
	if snap := s.TemplateSnapshot; snap != nil {
		threshold = snap.Template.PassThreshold
		for _, c := range snap.Criteria {
			sc, ok := b.scores[id][c.ID]
			if !c.Scored() || !ok || sc.IsNA || sc.Value == nil {
				continue
			}
			earned += *sc.Value
			possible += c.MaxScore
		}
	}
	pct := 0.0
	if possible > 0 {
		pct = earned / possible * 100
	}
	pass := "fail"
	if pct >= threshold {
		pass = "pass"
	}
	now := time.Now().UTC()
	s.Status = models.SessionCompleted
	s.TotalScore = &earned
	s.PercentageScore = &pct
	s.PassStatus = &pass
	s.CompletedAt = &now
	b.sessions[id] = s
	writeJSON(w, http.StatusOK, map[string]any{"session": s, "scores": b.sortedScores(id)})
}

func (b *Backend) listTeam(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))

	b.mu.Lock()
	var members []models.TeamMember
	for _, m := range b.members {
		if v := q.Get("is_active"); v != "" && strconv.FormatBool(m.IsActive) != v {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.FullName), search) &&
			!strings.Contains(strings.ToLower(m.Email), search) {
			continue
		}
		members = append(members, m)
	}
	b.mu.Unlock()

	total := len(members)
	if size, err := strconv.Atoi(q.Get("pageSize")); err == nil && size > 0 && size < len(members) {
		members = members[:size]
	}
	if members == nil {
		members = []models.TeamMember{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members, "total": total})
}
