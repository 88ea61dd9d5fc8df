package models

import (
	"fmt"
	"time"
)

type ScoringMethod string

const (
	ScoringWeighted      ScoringMethod = "weighted"
	ScoringSimpleAverage ScoringMethod = "simple_average"
	ScoringPassFail      ScoringMethod = "pass_fail"
	ScoringPoints        ScoringMethod = "points"
)

// ScoringMethods lists every supported scoring method in display order.
var ScoringMethods = []ScoringMethod{ScoringWeighted, ScoringSimpleAverage, ScoringPassFail, ScoringPoints}

func (m ScoringMethod) Valid() bool {
	for _, sm := range ScoringMethods {
		if sm == m {
			return true
		}
	}
	return false
}

type TemplateStatus string

const (
	TemplateDraft     TemplateStatus = "draft"
	TemplatePublished TemplateStatus = "published"
	TemplateArchived  TemplateStatus = "archived"
)

// TemplateSettings holds the per-template behaviour switches.
type TemplateSettings struct {
	AllowNA         bool `json:"allow_na" yaml:"allow_na"`
	RequireComments bool `json:"require_comments" yaml:"require_comments"`
	ShowWeights     bool `json:"show_weights" yaml:"show_weights"`
	AutoFailEnabled bool `json:"auto_fail_enabled" yaml:"auto_fail_enabled"`
}

// Template is a grading rubric. IsNew is client-only and marks a draft that
// has never been persisted.
type Template struct {
	ID            string           `json:"id,omitempty"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	UseCase       string           `json:"use_case"`
	ScoringMethod ScoringMethod    `json:"scoring_method"`
	PassThreshold float64          `json:"pass_threshold"`
	MaxTotalScore *float64         `json:"max_total_score,omitempty"`
	Settings      TemplateSettings `json:"settings"`
	Status        TemplateStatus   `json:"status"`
	IsDefault     bool             `json:"is_default"`
	Version       int              `json:"version,omitempty"`
	CreatedAt     *time.Time       `json:"created_at,omitempty"`
	UpdatedAt     *time.Time       `json:"updated_at,omitempty"`
	IsNew         bool             `json:"-"`
}

func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	if !t.ScoringMethod.Valid() {
		return fmt.Errorf("invalid scoring method: %s", t.ScoringMethod)
	}
	if t.PassThreshold < 0 || t.PassThreshold > 100 {
		return fmt.Errorf("pass threshold must be between 0 and 100")
	}
	return nil
}

// Group is a named section of criteria. Groups are ordered by SortOrder.
type Group struct {
	ID                   string  `json:"id,omitempty"`
	TemplateID           string  `json:"template_id,omitempty"`
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	SortOrder            int     `json:"sort_order"`
	Weight               float64 `json:"weight"`
	IsRequired           bool    `json:"is_required"`
	IsCollapsedByDefault bool    `json:"is_collapsed_by_default"`
	IsNew                bool    `json:"-"`
}

// TemplateDetail is a template together with its groups and criteria.
type TemplateDetail struct {
	Template Template    `json:"template"`
	Groups   []Group     `json:"groups"`
	Criteria []Criterion `json:"criteria"`
}

// PublishRequest is the body sent when publishing a template.
type PublishRequest struct {
	ChangeSummary string `json:"change_summary"`
	SetAsDefault  bool   `json:"set_as_default"`
}

// Assignment links a template to a user who should be scored with it.
type Assignment struct {
	ID         string `json:"id,omitempty"`
	TemplateID string `json:"template_id"`
	UserID     string `json:"user_id"`
}
