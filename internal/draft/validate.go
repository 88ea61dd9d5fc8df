package draft

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/models"
)

// ValidationError is one problem found in a draft. EntityID names the group or
// criterion at fault, and is empty for template-level problems.
type ValidationError struct {
	EntityID string
	Message  string
}

// ValidationFailure is returned by callers that refuse to save an invalid draft.
type ValidationFailure struct {
	Errors []ValidationError
}

func (f *ValidationFailure) Error() string {
	if len(f.Errors) == 1 {
		return "validation failed: " + f.Errors[0].Message
	}
	msgs := make([]string, 0, len(f.Errors))
	for _, e := range f.Errors {
		msgs = append(msgs, e.Message)
	}
	return fmt.Sprintf("validation failed (%d problems): %s", len(f.Errors), strings.Join(msgs, "; "))
}

// Validate checks the draft for problems that block saving and records them
// in ValidationErrors. Weight balance is not part of validation.
func (s *Store) Validate() bool {
	s.errors = s.collect(false)
	return len(s.errors) == 0
}

// ValidateForPublish is Validate plus the rules that only apply to a
// template about to go live.
func (s *Store) ValidateForPublish() bool {
	s.errors = s.collect(true)
	return len(s.errors) == 0
}

// ValidationErrors returns the problems found by the last validation.
func (s *Store) ValidationErrors() []ValidationError {
	out := make([]ValidationError, len(s.errors))
	copy(out, s.errors)
	return out
}

// Failure wraps the last validation errors as an error, or returns nil when
// there are none.
func (s *Store) Failure() error {
	if len(s.errors) == 0 {
		return nil
	}
	return &ValidationFailure{Errors: s.ValidationErrors()}
}

func (s *Store) collect(publishing bool) []ValidationError {
	var errs []ValidationError
	add := func(id, format string, args ...any) {
		errs = append(errs, ValidationError{EntityID: id, Message: fmt.Sprintf(format, args...)})
	}

	t := s.state.Template
	if strings.TrimSpace(t.Name) == "" {
		add("", "Template name is required")
	}
	if t.PassThreshold < 0 || t.PassThreshold > 100 {
		add("", "Pass threshold must be between 0 and 100")
	}
	if !t.ScoringMethod.Valid() {
		add("", "Unknown scoring method %q", t.ScoringMethod)
	}

	for _, g := range s.Groups() {
		if strings.TrimSpace(g.Name) == "" {
			add(g.ID, "Section %d needs a name", g.SortOrder+1)
		}
	}

	criteria := s.Criteria()
	if publishing && len(criteria) == 0 {
		add("", "At least one criterion is required")
	}
	for n, c := range criteria {
		label := strings.TrimSpace(c.Name)
		if label == "" {
			add(c.ID, "Criterion %d needs a name", n+1)
			label = fmt.Sprintf("Criterion %d", n+1)
		}
		if c.Weight < 0 {
			add(c.ID, "%s: weight cannot be negative", label)
		}
		if c.IsAutoFail && c.AutoFailThreshold == nil {
			add(c.ID, "%s: auto-fail needs a threshold", label)
		}
		switch c.CriteriaType {
		case models.CriteriaScale, models.CriteriaPercentage:
			if c.Config.Min != nil && c.Config.Max != nil && *c.Config.Min >= *c.Config.Max {
				add(c.ID, "%s: minimum must be below maximum", label)
			}
		case models.CriteriaDropdown, models.CriteriaMultiSelect:
			if publishing && len(c.Config.Options) == 0 {
				add(c.ID, "%s: add at least one option", label)
			}
		case models.CriteriaRatingStars:
			if c.Config.MaxStars < 1 {
				add(c.ID, "%s: star rating needs at least one star", label)
			}
		}
	}
	return errs
}

// TotalWeight returns the sum of all criterion weights, regardless of grouping.
func (s *Store) TotalWeight() float64 {
	total := 0.0
	for _, c := range s.state.Criteria {
		total += c.Weight
	}
	return total
}

// WeightBalance describes how far a weighted template is from 100%.
type WeightBalance struct {
	Total      float64
	Difference float64 // target minus total; positive when weight is missing
	Balanced   bool
	Message    string
}

// WeightBalance computes the balance check. Templates that are not weighted
// are always balanced.
func (s *Store) WeightBalance() WeightBalance {
	total := s.TotalWeight()
	wb := WeightBalance{Total: total, Difference: constants.TargetTotalWeight - total, Balanced: true}
	if s.state.Template.ScoringMethod != models.ScoringWeighted {
		return wb
	}
	if math.Abs(wb.Difference) <= constants.WeightTolerance {
		return wb
	}
	wb.Balanced = false
	if wb.Difference > 0 {
		wb.Message = fmt.Sprintf("Weights total %s%%, missing %s%%", formatPercent(total), formatPercent(wb.Difference))
	} else {
		wb.Message = fmt.Sprintf("Weights total %s%%, over by %s%%", formatPercent(total), formatPercent(-wb.Difference))
	}
	return wb
}

// WeightError returns the weight balance message, or "" when balanced.
func (s *Store) WeightError() string {
	return s.WeightBalance().Message
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
