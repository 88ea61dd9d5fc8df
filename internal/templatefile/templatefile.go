// Package templatefile reads and writes scorecard templates as YAML so they
// can be versioned, reviewed and shared outside the backend.
package templatefile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/models"
)

// Document is the on-disk shape of a scorecard.
type Document struct {
	Template TemplateDoc    `yaml:"template"`
	Groups   []GroupDoc     `yaml:"groups,omitempty"`
	Criteria []CriterionDoc `yaml:"criteria,omitempty"`
}

type TemplateDoc struct {
	Name          string                  `yaml:"name"`
	Description   string                  `yaml:"description,omitempty"`
	UseCase       string                  `yaml:"use_case,omitempty"`
	ScoringMethod models.ScoringMethod    `yaml:"scoring_method"`
	PassThreshold float64                 `yaml:"pass_threshold"`
	MaxTotalScore *float64                `yaml:"max_total_score,omitempty"`
	Settings      models.TemplateSettings `yaml:"settings"`
}

type GroupDoc struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Weight      float64        `yaml:"weight,omitempty"`
	Required    bool           `yaml:"required,omitempty"`
	Collapsed   bool           `yaml:"collapsed,omitempty"`
	Criteria    []CriterionDoc `yaml:"criteria,omitempty"`
}

type CriterionDoc struct {
	Name              string                 `yaml:"name"`
	Description       string                 `yaml:"description,omitempty"`
	Type              models.CriteriaType    `yaml:"type"`
	Config            models.CriterionConfig `yaml:"config,omitempty"`
	Weight            float64                `yaml:"weight,omitempty"`
	MaxScore          float64                `yaml:"max_score,omitempty"`
	Required          bool                   `yaml:"required,omitempty"`
	AutoFail          bool                   `yaml:"auto_fail,omitempty"`
	AutoFailThreshold *float64               `yaml:"auto_fail_threshold,omitempty"`
	ScoringGuide      string                 `yaml:"scoring_guide,omitempty"`
	Keywords          []string               `yaml:"keywords,omitempty"`
}

func criterionDoc(c models.Criterion) CriterionDoc {
	c = c.Clone()
	return CriterionDoc{
		Name:              c.Name,
		Description:       c.Description,
		Type:              c.CriteriaType,
		Config:            c.Config,
		Weight:            c.Weight,
		MaxScore:          c.MaxScore,
		Required:          c.IsRequired,
		AutoFail:          c.IsAutoFail,
		AutoFailThreshold: c.AutoFailThreshold,
		ScoringGuide:      c.ScoringGuide,
		Keywords:          c.Keywords,
	}
}

func (d CriterionDoc) criterion(groupID *string) models.Criterion {
	c := models.Criterion{
		GroupID:           groupID,
		Name:              strings.TrimSpace(d.Name),
		Description:       d.Description,
		CriteriaType:      d.Type,
		Config:            d.Config,
		Weight:            d.Weight,
		MaxScore:          d.MaxScore,
		IsRequired:        d.Required,
		IsAutoFail:        d.AutoFail,
		AutoFailThreshold: d.AutoFailThreshold,
		ScoringGuide:      d.ScoringGuide,
		Keywords:          d.Keywords,
	}
	if c.CriteriaType == "" {
		c.CriteriaType = models.DefaultCriteriaType
	}
	if isZeroConfig(c.Config) {
		c.Config = models.DefaultConfig(c.CriteriaType)
	}
	if c.MaxScore == 0 {
		c.MaxScore = models.DefaultMaxScore(c.CriteriaType, c.Config)
	}
	return c.Clone()
}

func isZeroConfig(cfg models.CriterionConfig) bool {
	return cfg.Min == nil && cfg.Max == nil && cfg.Step == nil &&
		cfg.PassLabel == "" && cfg.FailLabel == "" &&
		len(cfg.Items) == 0 && cfg.MaxLength == 0 && len(cfg.Options) == 0 &&
		cfg.MaxStars == 0 && !cfg.AllowHalf
}

// FromStore builds a document from a draft, in display order.
func FromStore(s *draft.Store) Document {
	t := s.Template()
	doc := Document{
		Template: TemplateDoc{
			Name:          t.Name,
			Description:   t.Description,
			UseCase:       t.UseCase,
			ScoringMethod: t.ScoringMethod,
			PassThreshold: t.PassThreshold,
			MaxTotalScore: t.MaxTotalScore,
			Settings:      t.Settings,
		},
	}
	for _, g := range s.Groups() {
		gd := GroupDoc{
			Name:        g.Name,
			Description: g.Description,
			Weight:      g.Weight,
			Required:    g.IsRequired,
			Collapsed:   g.IsCollapsedByDefault,
		}
		for _, c := range s.GroupCriteria(g.ID) {
			gd.Criteria = append(gd.Criteria, criterionDoc(c))
		}
		doc.Groups = append(doc.Groups, gd)
	}
	for _, c := range s.UngroupedCriteria() {
		doc.Criteria = append(doc.Criteria, criterionDoc(c))
	}
	return doc
}

// Detail converts the document to a template detail whose group ids are
// local placeholders. Pass it to draft.NewFrom to get an editable draft.
func (d Document) Detail() models.TemplateDetail {
	detail := models.TemplateDetail{
		Template: models.Template{
			Name:          strings.TrimSpace(d.Template.Name),
			Description:   d.Template.Description,
			UseCase:       d.Template.UseCase,
			ScoringMethod: d.Template.ScoringMethod,
			PassThreshold: d.Template.PassThreshold,
			MaxTotalScore: d.Template.MaxTotalScore,
			Settings:      d.Template.Settings,
			Status:        models.TemplateDraft,
		},
	}
	for i, g := range d.Groups {
		id := fmt.Sprintf("group-%d", i)
		detail.Groups = append(detail.Groups, models.Group{
			ID:                   id,
			Name:                 strings.TrimSpace(g.Name),
			Description:          g.Description,
			SortOrder:            i,
			Weight:               g.Weight,
			IsRequired:           g.Required,
			IsCollapsedByDefault: g.Collapsed,
		})
		for j, cd := range g.Criteria {
			gid := id
			c := cd.criterion(&gid)
			c.SortOrder = j
			detail.Criteria = append(detail.Criteria, c)
		}
	}
	for j, cd := range d.Criteria {
		c := cd.criterion(nil)
		c.SortOrder = j
		detail.Criteria = append(detail.Criteria, c)
	}
	return detail
}

// Validate rejects documents that cannot become a draft at all. Content rules
// such as missing criterion names are left to the draft's own validation.
func (d Document) Validate() error {
	if strings.TrimSpace(d.Template.Name) == "" {
		return fmt.Errorf("template.name is required")
	}
	if d.Template.ScoringMethod != "" && !d.Template.ScoringMethod.Valid() {
		return fmt.Errorf("template.scoring_method %q is not one of %v", d.Template.ScoringMethod, models.ScoringMethods)
	}
	check := func(where string, c CriterionDoc) error {
		if c.Type != "" && !c.Type.Valid() {
			return fmt.Errorf("%s: unknown criterion type %q", where, c.Type)
		}
		return nil
	}
	for i, g := range d.Groups {
		for j, c := range g.Criteria {
			if err := check(fmt.Sprintf("groups[%d].criteria[%d]", i, j), c); err != nil {
				return err
			}
		}
	}
	for j, c := range d.Criteria {
		if err := check(fmt.Sprintf("criteria[%d]", j), c); err != nil {
			return err
		}
	}
	return nil
}

// Marshal encodes a draft as YAML.
func Marshal(s *draft.Store) ([]byte, error) {
	data, err := yaml.Marshal(FromStore(s))
	if err != nil {
		return nil, fmt.Errorf("marshal scorecard: %w", err)
	}
	return data, nil
}

// Unmarshal parses YAML into a new, unsaved draft.
func Unmarshal(data []byte) (*draft.Store, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scorecard yaml: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scorecard: %w", err)
	}
	return draft.NewFrom(doc.Detail()), nil
}

func Read(path string) (*draft.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scorecard: %w", err)
	}
	return Unmarshal(data)
}

func Write(path string, s *draft.Store) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
