package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/models"
)

// FormatPercent renders an optional percentage, "-" when unset.
func FormatPercent(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + "%"
}

// FormatNumber drops trailing zeros: 12.50 -> 12.5, 40.0 -> 40.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// TemplateLine is the one-line summary used by list commands.
func TemplateLine(t models.Template) string {
	var flags []string
	if t.IsDefault {
		flags = append(flags, "default")
	}
	if t.Version > 0 {
		flags = append(flags, "v"+strconv.Itoa(t.Version))
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = " (" + strings.Join(flags, ", ") + ")"
	}
	return fmt.Sprintf("[%s] %s%s - %s, pass at %s%% (ID: %s)",
		t.Status, t.Name, suffix, t.ScoringMethod, FormatNumber(t.PassThreshold), t.ID)
}

// PrintOutline prints a draft as an indented outline of groups and criteria.
func PrintOutline(s *draft.Store) {
	t := s.Template()
	fmt.Printf("%s\n", t.Name)
	if t.Description != "" {
		fmt.Printf("  %s\n", t.Description)
	}
	fmt.Printf("  Scoring: %s, pass threshold %s%%\n", t.ScoringMethod, FormatNumber(t.PassThreshold))

	printCriterion := func(indent string, c models.Criterion) {
		extra := ""
		if c.IsRequired {
			extra += " required"
		}
		if c.IsAutoFail {
			extra += " auto-fail"
		}
		fmt.Printf("%s- %s [%s] weight %s%%%s\n", indent, c.Name, c.CriteriaType.Label(), FormatNumber(c.Weight), extra)
	}
	for _, g := range s.Groups() {
		fmt.Printf("  %s\n", g.Name)
		for _, c := range s.GroupCriteria(g.ID) {
			printCriterion("    ", c)
		}
	}
	if ungrouped := s.UngroupedCriteria(); len(ungrouped) > 0 {
		if len(s.Groups()) > 0 {
			fmt.Println("  Ungrouped")
		}
		for _, c := range ungrouped {
			printCriterion("    ", c)
		}
	}

	if t.ScoringMethod == models.ScoringWeighted {
		if wb := s.WeightBalance(); wb.Balanced {
			fmt.Printf("  ✓ Weights total %s%%\n", FormatNumber(wb.Total))
		} else {
			fmt.Printf("  ⚠ %s\n", wb.Message)
		}
	}
}

// TemplateLoader is the part of the API client needed to open a template.
type TemplateLoader interface {
	GetTemplate(ctx context.Context, id string) (models.TemplateDetail, error)
}

// OpenTemplate fetches a template and hydrates an editable draft from it.
func OpenTemplate(ctx context.Context, api TemplateLoader, id string) (*draft.Store, error) {
	detail, err := api.GetTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", id, err)
	}
	return draft.Load(detail), nil
}
