package draft

import (
	"errors"
	"strings"
	"testing"

	"github.com/julianstephens/callcoach/internal/models"
)

func TestValidateRequiresTemplateName(t *testing.T) {
	s := newTestStore()
	if s.Validate() {
		t.Fatal("Validate() = true for a draft without a name")
	}
	errs := s.ValidationErrors()
	if len(errs) == 0 || errs[0].Message != "Template name is required" {
		t.Errorf("errors = %+v", errs)
	}
	var vf *ValidationFailure
	if err := s.Failure(); !errors.As(err, &vf) {
		t.Errorf("Failure() = %v, want *ValidationFailure", err)
	}
}

func TestValidateMinimalTemplate(t *testing.T) {
	s := newTestStore()
	s.UpdateTemplate(func(t *models.Template) {
		t.Name = "Cold call"
		t.ScoringMethod = models.ScoringSimpleAverage
	})
	id, _ := s.AddCriterion(nil, models.CriteriaPassFail)
	s.UpdateCriterion(id, func(c *models.Criterion) { c.Name = "Introduced self" })

	if !s.Validate() {
		t.Errorf("Validate() = false: %+v", s.ValidationErrors())
	}
	if !s.ValidateForPublish() {
		t.Errorf("ValidateForPublish() = false: %+v", s.ValidationErrors())
	}
	if s.Failure() != nil {
		t.Error("Failure() should be nil after a passing validation")
	}
}

func TestValidateIgnoresWeightBalance(t *testing.T) {
	s := newTestStore()
	s.UpdateTemplate(func(t *models.Template) { t.Name = "Weighted" })
	id, _ := s.AddCriterion(nil, "")
	s.UpdateCriterion(id, func(c *models.Criterion) { c.Name = "Tone"; c.Weight = 40 })
	if !s.Validate() {
		t.Errorf("weight imbalance must not fail validation: %+v", s.ValidationErrors())
	}
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(s *Store)
		publishing bool
		wantSubstr string
	}{
		{
			name:       "publishing needs a criterion",
			setup:      func(s *Store) {},
			publishing: true,
			wantSubstr: "At least one criterion is required",
		},
		{
			name: "criterion name required",
			setup: func(s *Store) {
				s.AddCriterion(nil, "")
			},
			wantSubstr: "Criterion 1 needs a name",
		},
		{
			name: "auto fail threshold",
			setup: func(s *Store) {
				id, _ := s.AddCriterion(nil, "")
				s.UpdateCriterion(id, func(c *models.Criterion) { c.Name = "Compliance"; c.IsAutoFail = true })
			},
			wantSubstr: "auto-fail needs a threshold",
		},
		{
			name: "scale bounds",
			setup: func(s *Store) {
				id, _ := s.AddCriterion(nil, models.CriteriaScale)
				s.UpdateCriterion(id, func(c *models.Criterion) {
					c.Name = "Energy"
					lo, hi := 5.0, 1.0
					c.Config.Min, c.Config.Max = &lo, &hi
				})
			},
			wantSubstr: "minimum must be below maximum",
		},
		{
			name: "dropdown options when publishing",
			setup: func(s *Store) {
				id, _ := s.AddCriterion(nil, models.CriteriaDropdown)
				s.UpdateCriterion(id, func(c *models.Criterion) { c.Name = "Outcome" })
			},
			publishing: true,
			wantSubstr: "add at least one option",
		},
		{
			name: "negative weight",
			setup: func(s *Store) {
				id, _ := s.AddCriterion(nil, "")
				s.UpdateCriterion(id, func(c *models.Criterion) { c.Name = "Pace"; c.Weight = -1 })
			},
			wantSubstr: "weight cannot be negative",
		},
		{
			name: "group name",
			setup: func(s *Store) {
				g := s.AddGroup()
				s.UpdateGroup(g, func(g *models.Group) { g.Name = "  " })
			},
			wantSubstr: "Section 1 needs a name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			s.UpdateTemplate(func(t *models.Template) { t.Name = "Rubric" })
			tt.setup(s)
			var ok bool
			if tt.publishing {
				ok = s.ValidateForPublish()
			} else {
				ok = s.Validate()
			}
			if ok {
				t.Fatal("validation passed, want failure")
			}
			found := false
			for _, e := range s.ValidationErrors() {
				if strings.Contains(e.Message, tt.wantSubstr) {
					found = true
				}
			}
			if !found {
				t.Errorf("errors = %+v, want one containing %q", s.ValidationErrors(), tt.wantSubstr)
			}
		})
	}
}

func TestTotalWeightIgnoresGrouping(t *testing.T) {
	s := newTestStore()
	g := s.AddGroup()
	s.UpdateGroup(g, func(g *models.Group) { g.Weight = 50 })
	weights := map[*string]float64{&g: 25, nil: 12.5}
	for gid, w := range weights {
		id, _ := s.AddCriterion(gid, "")
		s.UpdateCriterion(id, func(c *models.Criterion) { c.Weight = w })
	}
	if got := s.TotalWeight(); got != 37.5 {
		t.Errorf("TotalWeight() = %v, want 37.5", got)
	}
}

func TestWeightBalance(t *testing.T) {
	build := func(method models.ScoringMethod, weights ...float64) *Store {
		s := newTestStore()
		s.UpdateTemplate(func(t *models.Template) { t.ScoringMethod = method })
		for _, w := range weights {
			id, _ := s.AddCriterion(nil, "")
			s.UpdateCriterion(id, func(c *models.Criterion) { c.Weight = w })
		}
		return s
	}

	t.Run("missing weight", func(t *testing.T) {
		s := build(models.ScoringWeighted, 30, 30, 30)
		if s.TotalWeight() != 90 {
			t.Fatalf("TotalWeight() = %v, want 90", s.TotalWeight())
		}
		wb := s.WeightBalance()
		if wb.Balanced || !strings.Contains(wb.Message, "missing 10%") {
			t.Errorf("balance = %+v, want a 'missing 10%%' warning", wb)
		}
		if s.WeightError() == "" {
			t.Error("WeightError() should be set")
		}
	})

	t.Run("over weight", func(t *testing.T) {
		wb := build(models.ScoringWeighted, 60, 45).WeightBalance()
		if wb.Balanced || !strings.Contains(wb.Message, "over by 5%") {
			t.Errorf("balance = %+v", wb)
		}
	})

	t.Run("within tolerance", func(t *testing.T) {
		s := build(models.ScoringWeighted, 33.333, 33.333, 33.333)
		if !s.WeightBalance().Balanced {
			t.Errorf("balance = %+v, want balanced", s.WeightBalance())
		}
	})

	t.Run("not weighted", func(t *testing.T) {
		s := build(models.ScoringPoints, 10)
		if !s.WeightBalance().Balanced || s.WeightError() != "" {
			t.Error("non-weighted templates are always balanced")
		}
	})
}
