package models

import (
	"fmt"
	"slices"
)

type CriteriaType string

const (
	CriteriaScale       CriteriaType = "scale"
	CriteriaPassFail    CriteriaType = "pass_fail"
	CriteriaChecklist   CriteriaType = "checklist"
	CriteriaText        CriteriaType = "text"
	CriteriaDropdown    CriteriaType = "dropdown"
	CriteriaMultiSelect CriteriaType = "multi_select"
	CriteriaRatingStars CriteriaType = "rating_stars"
	CriteriaPercentage  CriteriaType = "percentage"
)

// DefaultCriteriaType is used when a criterion is added without a type.
const DefaultCriteriaType = CriteriaScale

// CriteriaTypes lists every criterion type in display order.
var CriteriaTypes = []CriteriaType{
	CriteriaScale,
	CriteriaPassFail,
	CriteriaChecklist,
	CriteriaText,
	CriteriaDropdown,
	CriteriaMultiSelect,
	CriteriaRatingStars,
	CriteriaPercentage,
}

func (t CriteriaType) Valid() bool {
	return slices.Contains(CriteriaTypes, t)
}

// Label returns a human readable name for the type.
func (t CriteriaType) Label() string {
	switch t {
	case CriteriaScale:
		return "Scale"
	case CriteriaPassFail:
		return "Pass / Fail"
	case CriteriaChecklist:
		return "Checklist"
	case CriteriaText:
		return "Text"
	case CriteriaDropdown:
		return "Dropdown"
	case CriteriaMultiSelect:
		return "Multi-select"
	case CriteriaRatingStars:
		return "Star rating"
	case CriteriaPercentage:
		return "Percentage"
	default:
		return string(t)
	}
}

type ChecklistItem struct {
	Label  string  `json:"label" yaml:"label"`
	Points float64 `json:"points,omitempty" yaml:"points,omitempty"`
}

// CriterionConfig is the type-specific configuration of a criterion. Only the
// fields relevant to the criterion's type are populated.
type CriterionConfig struct {
	// scale, percentage
	Min  *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Step *float64 `json:"step,omitempty" yaml:"step,omitempty"`

	// pass_fail
	PassLabel string `json:"pass_label,omitempty" yaml:"pass_label,omitempty"`
	FailLabel string `json:"fail_label,omitempty" yaml:"fail_label,omitempty"`

	// checklist
	Items []ChecklistItem `json:"items,omitempty" yaml:"items,omitempty"`

	// text
	MaxLength int `json:"max_length,omitempty" yaml:"max_length,omitempty"`

	// dropdown, multi_select
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`

	// rating_stars
	MaxStars  int  `json:"max_stars,omitempty" yaml:"max_stars,omitempty"`
	AllowHalf bool `json:"allow_half,omitempty" yaml:"allow_half,omitempty"`
}

func float(v float64) *float64 { return &v }

// DefaultConfig returns the configuration a freshly added criterion of type t starts with.
func DefaultConfig(t CriteriaType) CriterionConfig {
	switch t {
	case CriteriaScale:
		return CriterionConfig{Min: float(1), Max: float(5), Step: float(1)}
	case CriteriaPassFail:
		return CriterionConfig{PassLabel: "Pass", FailLabel: "Fail"}
	case CriteriaChecklist:
		return CriterionConfig{Items: []ChecklistItem{}}
	case CriteriaText:
		return CriterionConfig{MaxLength: 500}
	case CriteriaDropdown, CriteriaMultiSelect:
		return CriterionConfig{Options: []string{}}
	case CriteriaRatingStars:
		return CriterionConfig{MaxStars: 5}
	case CriteriaPercentage:
		return CriterionConfig{Min: float(0), Max: float(100), Step: float(1)}
	default:
		return CriterionConfig{}
	}
}

// DefaultMaxScore returns the max score implied by a type and its config.
func DefaultMaxScore(t CriteriaType, cfg CriterionConfig) float64 {
	switch t {
	case CriteriaScale, CriteriaPercentage:
		if cfg.Max != nil {
			return *cfg.Max
		}
		if t == CriteriaPercentage {
			return 100
		}
		return 5
	case CriteriaPassFail, CriteriaDropdown, CriteriaMultiSelect:
		return 1
	case CriteriaChecklist:
		if len(cfg.Items) == 0 {
			return 1
		}
		return float64(len(cfg.Items))
	case CriteriaRatingStars:
		if cfg.MaxStars > 0 {
			return float64(cfg.MaxStars)
		}
		return 5
	default:
		return 0
	}
}

// Clone returns a deep copy of the config.
func (c CriterionConfig) Clone() CriterionConfig {
	out := c
	if c.Min != nil {
		out.Min = float(*c.Min)
	}
	if c.Max != nil {
		out.Max = float(*c.Max)
	}
	if c.Step != nil {
		out.Step = float(*c.Step)
	}
	if c.Items != nil {
		out.Items = slices.Clone(c.Items)
	}
	if c.Options != nil {
		out.Options = slices.Clone(c.Options)
	}
	return out
}

// Criterion is one scoreable dimension of a template. GroupID is nil for
// ungrouped criteria. IsNew and Expanded are client-only.
type Criterion struct {
	ID                string          `json:"id,omitempty"`
	TemplateID        string          `json:"template_id,omitempty"`
	GroupID           *string         `json:"group_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	CriteriaType      CriteriaType    `json:"criteria_type"`
	Config            CriterionConfig `json:"config"`
	Weight            float64         `json:"weight"`
	MaxScore          float64         `json:"max_score"`
	SortOrder         int             `json:"sort_order"`
	IsRequired        bool            `json:"is_required"`
	IsAutoFail        bool            `json:"is_auto_fail"`
	AutoFailThreshold *float64        `json:"auto_fail_threshold"`
	ScoringGuide      string          `json:"scoring_guide"`
	Keywords          []string        `json:"keywords"`
	IsNew             bool            `json:"-"`
	Expanded          bool            `json:"-"`
}

// Clone returns a deep copy of the criterion.
func (c Criterion) Clone() Criterion {
	out := c
	if c.GroupID != nil {
		g := *c.GroupID
		out.GroupID = &g
	}
	if c.AutoFailThreshold != nil {
		out.AutoFailThreshold = float(*c.AutoFailThreshold)
	}
	out.Config = c.Config.Clone()
	if c.Keywords != nil {
		out.Keywords = slices.Clone(c.Keywords)
	}
	return out
}

// InGroup reports whether the criterion belongs to the group with the given
// id. A nil groupID matches ungrouped criteria.
func (c Criterion) InGroup(groupID *string) bool {
	if groupID == nil {
		return c.GroupID == nil
	}
	return c.GroupID != nil && *c.GroupID == *groupID
}

// Scored reports whether the criterion contributes to the numeric score.
func (c Criterion) Scored() bool {
	return c.CriteriaType != CriteriaText
}

func (c *Criterion) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("criterion name cannot be empty")
	}
	if !c.CriteriaType.Valid() {
		return fmt.Errorf("invalid criteria type: %s", c.CriteriaType)
	}
	if c.Weight < 0 {
		return fmt.Errorf("criterion weight cannot be negative")
	}
	if c.IsAutoFail && c.AutoFailThreshold == nil {
		return fmt.Errorf("auto-fail criterion needs a threshold")
	}
	return nil
}
