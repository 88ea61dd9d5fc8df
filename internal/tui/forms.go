package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/models"
)

type BasicsFormModel struct {
	Name            string
	Description     string
	UseCase         string
	Method          models.ScoringMethod
	PassThreshold   string
	AllowNA         bool
	RequireComments bool
	ShowWeights     bool
	AutoFailEnabled bool
}

type CriterionFormModel struct {
	Name              string
	Description       string
	Type              models.CriteriaType
	Weight            string
	Required          bool
	AutoFail          bool
	AutoFailThreshold string
	ScoringGuide      string
	Keywords          string
	// Options holds dropdown options or checklist items, one per line.
	Options string
	// Range is "min-max" for scale and percentage criteria.
	Range    string
	MaxStars string
}

type GroupFormModel struct {
	Name        string
	Description string
	Weight      string
	Required    bool
	Collapsed   bool
}

const (
	quitStash   = "stash"
	quitDiscard = "discard"
	quitCancel  = "cancel"
)

type QuitFormModel struct {
	Choice string
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func validateNumber(lo, hi float64) func(string) error {
	return func(s string) error {
		v, err := parseNumber(s)
		if err != nil {
			return fmt.Errorf("enter a number")
		}
		if v < lo || v > hi {
			return fmt.Errorf("must be between %s and %s", formatFloat(lo), formatFloat(hi))
		}
		return nil
	}
}

func notBlank(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", what)
		}
		return nil
	}
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ',' }) {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// parseRange reads "min-max". A leading minus belongs to min.
func parseRange(s string) (float64, float64, error) {
	s = strings.TrimSpace(s)
	idx := strings.Index(s[min(1, len(s)):], "-")
	if idx < 0 {
		return 0, 0, fmt.Errorf("use the form min-max, e.g. 1-5")
	}
	idx += min(1, len(s))
	lo, err := strconv.ParseFloat(strings.TrimSpace(s[:idx]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minimum")
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(s[idx+1:]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid maximum")
	}
	if lo >= hi {
		return 0, 0, fmt.Errorf("minimum must be below maximum")
	}
	return lo, hi, nil
}

func newBasicsFormModel(t models.Template) *BasicsFormModel {
	method := t.ScoringMethod
	if !method.Valid() {
		method = models.ScoringWeighted
	}
	return &BasicsFormModel{
		Name:            t.Name,
		Description:     t.Description,
		UseCase:         t.UseCase,
		Method:          method,
		PassThreshold:   formatFloat(t.PassThreshold),
		AllowNA:         t.Settings.AllowNA,
		RequireComments: t.Settings.RequireComments,
		ShowWeights:     t.Settings.ShowWeights,
		AutoFailEnabled: t.Settings.AutoFailEnabled,
	}
}

func NewBasicsForm(fm *BasicsFormModel) *huh.Form {
	methods := make([]huh.Option[models.ScoringMethod], 0, len(models.ScoringMethods))
	for _, sm := range models.ScoringMethods {
		methods = append(methods, huh.NewOption(methodLabel(sm), sm))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Template name").
				Value(&fm.Name).
				Validate(notBlank("template name")),
			huh.NewText().
				Title("Description").
				Value(&fm.Description),
			huh.NewInput().
				Title("Use case").
				Description("What kind of calls is this for?").
				Value(&fm.UseCase),
			huh.NewSelect[models.ScoringMethod]().
				Title("Scoring method").
				Options(methods...).
				Value(&fm.Method),
			huh.NewInput().
				Title("Pass threshold (%)").
				Value(&fm.PassThreshold).
				Validate(validateNumber(0, 100)),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Allow N/A answers").
				Value(&fm.AllowNA),
			huh.NewConfirm().
				Title("Require a comment on every score").
				Value(&fm.RequireComments),
			huh.NewConfirm().
				Title("Show weights to coaches").
				Value(&fm.ShowWeights),
			huh.NewConfirm().
				Title("Enable auto-fail criteria").
				Value(&fm.AutoFailEnabled),
		),
	).WithTheme(huh.ThemeDracula())
}

func methodLabel(sm models.ScoringMethod) string {
	switch sm {
	case models.ScoringWeighted:
		return "Weighted"
	case models.ScoringSimpleAverage:
		return "Simple average"
	case models.ScoringPassFail:
		return "Pass/fail"
	case models.ScoringPoints:
		return "Points"
	default:
		return string(sm)
	}
}

func applyBasicsForm(store *draft.Store, fm *BasicsFormModel) {
	threshold, _ := parseNumber(fm.PassThreshold)
	store.UpdateTemplate(func(t *models.Template) {
		t.Name = strings.TrimSpace(fm.Name)
		t.Description = strings.TrimSpace(fm.Description)
		t.UseCase = strings.TrimSpace(fm.UseCase)
		t.ScoringMethod = fm.Method
		t.PassThreshold = threshold
		t.Settings = models.TemplateSettings{
			AllowNA:         fm.AllowNA,
			RequireComments: fm.RequireComments,
			ShowWeights:     fm.ShowWeights,
			AutoFailEnabled: fm.AutoFailEnabled,
		}
	})
}

func newCriterionFormModel(c models.Criterion) *CriterionFormModel {
	fm := &CriterionFormModel{
		Name:         c.Name,
		Description:  c.Description,
		Type:         c.CriteriaType,
		Weight:       formatFloat(c.Weight),
		Required:     c.IsRequired,
		AutoFail:     c.IsAutoFail,
		ScoringGuide: c.ScoringGuide,
		Keywords:     strings.Join(c.Keywords, ", "),
		MaxStars:     strconv.Itoa(c.Config.MaxStars),
	}
	if c.AutoFailThreshold != nil {
		fm.AutoFailThreshold = formatFloat(*c.AutoFailThreshold)
	}
	switch c.CriteriaType {
	case models.CriteriaDropdown, models.CriteriaMultiSelect:
		fm.Options = strings.Join(c.Config.Options, "\n")
	case models.CriteriaChecklist:
		labels := make([]string, len(c.Config.Items))
		for i, it := range c.Config.Items {
			labels[i] = it.Label
		}
		fm.Options = strings.Join(labels, "\n")
	}
	if c.Config.Min != nil && c.Config.Max != nil {
		fm.Range = formatFloat(*c.Config.Min) + "-" + formatFloat(*c.Config.Max)
	}
	return fm
}

func hasOptions(t models.CriteriaType) bool {
	return t == models.CriteriaDropdown || t == models.CriteriaMultiSelect || t == models.CriteriaChecklist
}

func hasRange(t models.CriteriaType) bool {
	return t == models.CriteriaScale || t == models.CriteriaPercentage
}

func NewCriterionForm(fm *CriterionFormModel) *huh.Form {
	types := make([]huh.Option[models.CriteriaType], 0, len(models.CriteriaTypes))
	for _, t := range models.CriteriaTypes {
		types = append(types, huh.NewOption(t.Label(), t))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Criterion name").
				Value(&fm.Name).
				Validate(notBlank("criterion name")),
			huh.NewText().
				Title("Description").
				Value(&fm.Description),
			huh.NewSelect[models.CriteriaType]().
				Title("Type").
				Description("Changing the type resets its configuration").
				Options(types...).
				Value(&fm.Type),
			huh.NewInput().
				Title("Weight (%)").
				Value(&fm.Weight).
				Validate(validateNumber(0, 100)),
			huh.NewConfirm().
				Title("Required").
				Value(&fm.Required),
		),
		huh.NewGroup(
			huh.NewText().
				Title("Options").
				Description("One per line").
				Value(&fm.Options),
		).WithHideFunc(func() bool { return !hasOptions(fm.Type) }),
		huh.NewGroup(
			huh.NewInput().
				Title("Range").
				Description("min-max, e.g. 1-5").
				Value(&fm.Range).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, _, err := parseRange(s)
					return err
				}),
		).WithHideFunc(func() bool { return !hasRange(fm.Type) }),
		huh.NewGroup(
			huh.NewInput().
				Title("Number of stars").
				Value(&fm.MaxStars).
				Validate(validateNumber(1, 10)),
		).WithHideFunc(func() bool { return fm.Type != models.CriteriaRatingStars }),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Auto-fail").
				Description("Fail the whole session when this scores below the threshold").
				Value(&fm.AutoFail),
			huh.NewInput().
				Title("Auto-fail threshold").
				Value(&fm.AutoFailThreshold).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := parseNumber(s)
					return err
				}),
			huh.NewText().
				Title("Scoring guide").
				Value(&fm.ScoringGuide),
			huh.NewInput().
				Title("Keywords").
				Description("Comma separated").
				Value(&fm.Keywords),
		),
	).WithTheme(huh.ThemeDracula())
}

// applyCriterionForm writes the form back to the criterion. A type change
// resets the config first; the type-specific fields are then applied on top.
func applyCriterionForm(store *draft.Store, id string, fm *CriterionFormModel) {
	if cur, ok := store.Criterion(id); ok && cur.CriteriaType != fm.Type {
		store.ChangeCriterionType(id, fm.Type)
	}
	weight, _ := parseNumber(fm.Weight)

	store.UpdateCriterion(id, func(c *models.Criterion) {
		c.Name = strings.TrimSpace(fm.Name)
		c.Description = strings.TrimSpace(fm.Description)
		c.Weight = weight
		c.IsRequired = fm.Required
		c.IsAutoFail = fm.AutoFail
		c.AutoFailThreshold = nil
		if strings.TrimSpace(fm.AutoFailThreshold) != "" {
			if v, err := parseNumber(fm.AutoFailThreshold); err == nil {
				c.AutoFailThreshold = &v
			}
		}
		c.ScoringGuide = strings.TrimSpace(fm.ScoringGuide)
		c.Keywords = splitLines(fm.Keywords)
		if c.Keywords == nil {
			c.Keywords = []string{}
		}

		switch c.CriteriaType {
		case models.CriteriaDropdown, models.CriteriaMultiSelect:
			c.Config.Options = splitLines(fm.Options)
			if c.Config.Options == nil {
				c.Config.Options = []string{}
			}
		case models.CriteriaChecklist:
			c.Config.Items = []models.ChecklistItem{}
			for _, label := range splitLines(fm.Options) {
				c.Config.Items = append(c.Config.Items, models.ChecklistItem{Label: label})
			}
		case models.CriteriaScale, models.CriteriaPercentage:
			if lo, hi, err := parseRange(fm.Range); err == nil {
				c.Config.Min, c.Config.Max = &lo, &hi
			}
		case models.CriteriaRatingStars:
			if n, err := strconv.Atoi(strings.TrimSpace(fm.MaxStars)); err == nil && n > 0 {
				c.Config.MaxStars = n
			}
		}
		c.MaxScore = models.DefaultMaxScore(c.CriteriaType, c.Config)
	})
}

func newGroupFormModel(g models.Group) *GroupFormModel {
	return &GroupFormModel{
		Name:        g.Name,
		Description: g.Description,
		Weight:      formatFloat(g.Weight),
		Required:    g.IsRequired,
		Collapsed:   g.IsCollapsedByDefault,
	}
}

func NewGroupForm(fm *GroupFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Section name").
				Value(&fm.Name).
				Validate(notBlank("section name")),
			huh.NewText().
				Title("Description").
				Value(&fm.Description),
			huh.NewInput().
				Title("Weight (%)").
				Value(&fm.Weight).
				Validate(validateNumber(0, 100)),
			huh.NewConfirm().
				Title("Required").
				Value(&fm.Required),
			huh.NewConfirm().
				Title("Collapsed by default").
				Value(&fm.Collapsed),
		),
	).WithTheme(huh.ThemeDracula())
}

func applyGroupForm(store *draft.Store, id string, fm *GroupFormModel) {
	weight, _ := parseNumber(fm.Weight)
	store.UpdateGroup(id, func(g *models.Group) {
		g.Name = strings.TrimSpace(fm.Name)
		g.Description = strings.TrimSpace(fm.Description)
		g.Weight = weight
		g.IsRequired = fm.Required
		g.IsCollapsedByDefault = fm.Collapsed
	})
}

func NewQuitForm(fm *QuitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("This template has unsaved changes").
				Options(
					huh.NewOption("Stash the draft and quit", quitStash),
					huh.NewOption("Discard changes and quit", quitDiscard),
					huh.NewOption("Keep editing", quitCancel),
				).
				Value(&fm.Choice),
		),
	).WithTheme(huh.ThemeDracula())
}
