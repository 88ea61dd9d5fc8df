// Package builder persists template drafts and drives the template wizard.
package builder

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/julianstephens/callcoach/internal/api"
	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/logger"
	"github.com/julianstephens/callcoach/internal/models"
)

// ErrSaveInProgress is returned when Save is called while another save on the
// same Saver has not finished.
var ErrSaveInProgress = errors.New("a save is already in progress")

// API is the slice of the backend the builder talks to.
type API interface {
	CreateTemplate(ctx context.Context, t models.Template) (models.Template, error)
	UpdateTemplate(ctx context.Context, t models.Template) (models.Template, error)
	PublishTemplate(ctx context.Context, id string, req models.PublishRequest) (models.Template, error)
	CreateGroup(ctx context.Context, templateID string, g models.Group) (models.Group, error)
	UpdateGroup(ctx context.Context, templateID string, g models.Group) (models.Group, error)
	DeleteGroup(ctx context.Context, templateID, groupID string) error
	CreateCriterion(ctx context.Context, templateID string, c models.Criterion) (models.Criterion, error)
	UpdateCriterion(ctx context.Context, templateID string, c models.Criterion) (models.Criterion, error)
	DeleteCriterion(ctx context.Context, templateID, criterionID string) error
	CreateAssignment(ctx context.Context, a models.Assignment) (models.Assignment, error)
}

// Stage names the step of a save that failed.
type Stage string

const (
	StageTemplate        Stage = "template"
	StageGroup           Stage = "group"
	StageCriterion       Stage = "criterion"
	StageDeleteCriterion Stage = "delete criterion"
	StageDeleteGroup     Stage = "delete group"
)

// SaveError reports where a save aborted. Calls that completed before the
// failure are not rolled back.
type SaveError struct {
	Stage     Stage
	EntityID  string
	Completed int
	Err       error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save %s %s after %d successful requests: %v", e.Stage, e.EntityID, e.Completed, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Saver turns a draft into the sequence of backend calls that persists it.
type Saver struct {
	api  API
	busy atomic.Bool
}

func NewSaver(a API) *Saver {
	return &Saver{api: a}
}

// Save validates the draft and persists it: the template first, then every
// group, then every criterion with group references rewritten to server ids,
// then pending deletes. On success the draft adopts the server ids and is
// marked clean. The first failing request aborts the save.
func (s *Saver) Save(ctx context.Context, store *draft.Store) (string, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return "", ErrSaveInProgress
	}
	defer s.busy.Store(false)

	if !store.Validate() {
		return "", store.Failure()
	}

	snap := store.Snapshot()
	res := draft.SaveResult{
		GroupIDs:    make(map[string]string),
		CriteriaIDs: make(map[string]string),
	}
	completed := 0
	abort := func(stage Stage, id string, err error) error {
		logger.Error("save aborted", "stage", stage, "entity", id, "completed", completed, "error", err)
		store.ApplyPartialSave(res)
		return &SaveError{Stage: stage, EntityID: id, Completed: completed, Err: err}
	}

	tpl := store.Template()
	var saved models.Template
	var err error
	if tpl.IsNew {
		saved, err = s.api.CreateTemplate(ctx, tpl)
		if err == nil && saved.ID == "" {
			err = errors.New("server returned no template id")
		}
	} else {
		saved, err = s.api.UpdateTemplate(ctx, tpl)
		if err == nil && saved.ID == "" {
			saved = tpl
		}
	}
	if err != nil {
		return "", abort(StageTemplate, tpl.ID, err)
	}
	completed++
	res.Template = saved
	templateID := saved.ID
	logger.Debug("template persisted", "id", templateID, "created", tpl.IsNew)

	for _, g := range store.Groups() {
		if g.IsNew {
			created, err := s.api.CreateGroup(ctx, templateID, g)
			if err == nil && created.ID == "" {
				err = errors.New("server returned no group id")
			}
			if err != nil {
				return "", abort(StageGroup, g.ID, err)
			}
			res.GroupIDs[g.ID] = created.ID
		} else if _, err := s.api.UpdateGroup(ctx, templateID, g); err != nil {
			return "", abort(StageGroup, g.ID, err)
		}
		completed++
	}

	for _, c := range store.Criteria() {
		if c.GroupID != nil {
			gid := *c.GroupID
			if mapped, ok := res.GroupIDs[gid]; ok {
				gid = mapped
			}
			c.GroupID = &gid
		}
		if c.IsNew {
			created, err := s.api.CreateCriterion(ctx, templateID, c)
			if err == nil && created.ID == "" {
				err = errors.New("server returned no criterion id")
			}
			if err != nil {
				return "", abort(StageCriterion, c.ID, err)
			}
			res.CriteriaIDs[c.ID] = created.ID
		} else if _, err := s.api.UpdateCriterion(ctx, templateID, c); err != nil {
			return "", abort(StageCriterion, c.ID, err)
		}
		completed++
	}

	for _, id := range snap.DeletedCriteria {
		if err := s.api.DeleteCriterion(ctx, templateID, id); err != nil && !errors.Is(err, api.ErrNotFound) {
			return "", abort(StageDeleteCriterion, id, err)
		}
		res.DeletedCriteria = append(res.DeletedCriteria, id)
		completed++
	}
	for _, id := range snap.DeletedGroups {
		if err := s.api.DeleteGroup(ctx, templateID, id); err != nil && !errors.Is(err, api.ErrNotFound) {
			return "", abort(StageDeleteGroup, id, err)
		}
		res.DeletedGroups = append(res.DeletedGroups, id)
		completed++
	}

	store.CommitSave(res)
	logger.Info("template saved", "id", templateID, "requests", completed,
		"groups", len(snap.Groups), "criteria", len(snap.Criteria))
	return templateID, nil
}
