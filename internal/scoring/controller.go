// Package scoring drives a single scoring session: loading it, gating who may
// score, submitting scores and completing the session.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/julianstephens/callcoach/internal/logger"
	"github.com/julianstephens/callcoach/internal/models"
)

var (
	// ErrViewOnly is returned when the viewer may not change the session.
	ErrViewOnly = errors.New("session is view-only")
	// ErrNotLoaded is returned when the controller has no session yet.
	ErrNotLoaded = errors.New("no session loaded")
)

// API is the slice of the backend the controller needs.
type API interface {
	GetSession(ctx context.Context, id string) (models.SessionDetail, error)
	SubmitScore(ctx context.Context, sessionID, criteriaID string, in models.ScoreInput) (models.Score, error)
	CompleteSession(ctx context.Context, id string) (models.Session, error)
}

// Viewer is the signed-in user looking at a session.
type Viewer struct {
	UserID  string
	IsAdmin bool
}

// Controller holds one session and the viewer's view of it. It is not safe
// for concurrent use.
type Controller struct {
	api    API
	viewer Viewer

	loaded      bool
	session     models.Session
	scores      []models.Score
	provisional bool
}

func NewController(api API, viewer Viewer) *Controller {
	return &Controller{api: api, viewer: viewer}
}

// Load fetches the session with its template snapshot, users and scores.
func (c *Controller) Load(ctx context.Context, id string) error {
	d, err := c.api.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", id, err)
	}
	c.session = d.Session
	c.scores = slices.Clone(d.Scores)
	c.loaded = true
	c.provisional = false
	logger.Debug("session loaded", "id", id, "status", d.Session.Status, "scores", len(d.Scores))
	return nil
}

// Refresh reloads the session from the server, replacing any optimistic
// local state.
func (c *Controller) Refresh(ctx context.Context) error {
	if !c.loaded {
		return ErrNotLoaded
	}
	return c.Load(ctx, c.session.ID)
}

func (c *Controller) Session() models.Session { return c.session }

func (c *Controller) Scores() []models.Score { return slices.Clone(c.scores) }

// Score returns the submitted score for a criterion.
func (c *Controller) Score(criteriaID string) (models.Score, bool) {
	for _, s := range c.scores {
		if s.CriteriaID == criteriaID {
			return s, true
		}
	}
	return models.Score{}, false
}

// Provisional reports whether the status shown was set locally and has not
// been confirmed by a reload yet.
func (c *Controller) Provisional() bool { return c.provisional }

func (c *Controller) isCoach() bool {
	return c.viewer.UserID != "" && c.viewer.UserID == c.session.CoachID
}

// CanScore reports whether the viewer may submit scores: they must be the
// session's coach or an admin, and the session must still be open.
func (c *Controller) CanScore() bool {
	return c.loaded && (c.isCoach() || c.viewer.IsAdmin) && c.session.Status.Scorable()
}

// ViewOnlyReason explains why CanScore is false, or returns "".
func (c *Controller) ViewOnlyReason() string {
	switch {
	case !c.loaded:
		return "Session not loaded"
	case !c.session.Status.Scorable():
		return fmt.Sprintf("This session is %s and can no longer be scored", c.session.Status.Label())
	case !c.isCoach() && !c.viewer.IsAdmin:
		return "Only the assigned coach or an admin can score this session"
	default:
		return ""
	}
}

func (c *Controller) viewOnly() error {
	if !c.loaded {
		return ErrNotLoaded
	}
	return fmt.Errorf("%w: %s", ErrViewOnly, c.ViewOnlyReason())
}

// Criteria returns the snapshot's criteria in display order.
func (c *Controller) Criteria() []models.Criterion {
	if c.session.TemplateSnapshot == nil {
		return nil
	}
	return orderedCriteria(*c.session.TemplateSnapshot)
}

func (c *Controller) criterion(id string) (models.Criterion, bool) {
	if c.session.TemplateSnapshot == nil {
		return models.Criterion{}, false
	}
	for _, cr := range c.session.TemplateSnapshot.Criteria {
		if cr.ID == id {
			return cr, true
		}
	}
	return models.Criterion{}, false
}

// SaveScore submits one criterion's score. The local score list is updated
// once the server accepts it, and a pending session is shown as in progress
// until the next Refresh confirms it.
func (c *Controller) SaveScore(ctx context.Context, criteriaID string, in models.ScoreInput) (models.Score, error) {
	if !c.CanScore() {
		return models.Score{}, c.viewOnly()
	}
	if snap := c.session.TemplateSnapshot; snap != nil {
		crit, ok := c.criterion(criteriaID)
		if !ok {
			return models.Score{}, fmt.Errorf("criterion %s is not part of this session's template", criteriaID)
		}
		if err := ValidateInput(crit, snap.Template.Settings, in); err != nil {
			return models.Score{}, err
		}
	}
	if in.IsNA {
		in.Value = nil
	}

	score, err := c.api.SubmitScore(ctx, c.session.ID, criteriaID, in)
	if err != nil {
		logger.Warn("score not saved", "session", c.session.ID, "criteria", criteriaID, "error", err)
		return models.Score{}, fmt.Errorf("failed to save score: %w", err)
	}
	if score.CriteriaID == "" {
		score.CriteriaID = criteriaID
	}

	replaced := false
	for i := range c.scores {
		if c.scores[i].CriteriaID == score.CriteriaID {
			c.scores[i] = score
			replaced = true
			break
		}
	}
	if !replaced {
		c.scores = append(c.scores, score)
	}

	if c.session.Status == models.SessionPending {
		c.session.Status = models.SessionInProgress
		c.provisional = true
	}
	return score, nil
}

// Complete finalizes the session. On failure the local state is unchanged.
func (c *Controller) Complete(ctx context.Context) error {
	if !c.CanScore() {
		return c.viewOnly()
	}
	done, err := c.api.CompleteSession(ctx, c.session.ID)
	if err != nil {
		logger.Warn("session not completed", "session", c.session.ID, "error", err)
		return fmt.Errorf("failed to complete session: %w", err)
	}

	if done.ID == "" {
		done.ID = c.session.ID
	}
	if done.TemplateSnapshot == nil {
		done.TemplateSnapshot = c.session.TemplateSnapshot
	}
	if done.Coach == nil {
		done.Coach = c.session.Coach
	}
	if done.Agent == nil {
		done.Agent = c.session.Agent
	}
	c.session = done
	c.provisional = false
	logger.Info("session completed", "id", done.ID, "status", done.Status)
	return nil
}
