package scoring

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/models"
)

// Result is a locally computed score. The server's numbers win once the
// session is completed.
type Result struct {
	Percentage float64
	Total      float64
	MaxTotal   float64
	Pass       bool
	// AutoFailed lists criteria whose value fell below their auto-fail threshold.
	AutoFailed      []string
	Answered        int
	Scorable        int
	MissingRequired []string
}

// PassStatus returns "pass" or "fail".
func (r Result) PassStatus() string {
	if r.Pass {
		return constants.PassStatusPass
	}
	return constants.PassStatusFail
}

// Preview computes the session score from the template snapshot and the
// scores submitted so far.
func (c *Controller) Preview() Result {
	if c.session.TemplateSnapshot == nil {
		return Result{}
	}
	return Compute(*c.session.TemplateSnapshot, c.scores)
}

// Compute scores a template snapshot. N/A and unanswered criteria are left out
// of both the earned and the possible score.
func Compute(snap models.TemplateSnapshot, scores []models.Score) Result {
	byCriterion := make(map[string]models.Score, len(scores))
	for _, s := range scores {
		byCriterion[s.CriteriaID] = s
	}

	var (
		res               Result
		weighted, weights float64
		ratioSum          float64
		passed            int
	)
	for _, crit := range orderedCriteria(snap) {
		s, ok := byCriterion[crit.ID]
		answered := ok && (s.IsNA || s.Value != nil || (crit.CriteriaType == models.CriteriaText && s.Comment != ""))
		if crit.IsRequired && !answered {
			res.MissingRequired = append(res.MissingRequired, crit.ID)
		}
		if !crit.Scored() {
			continue
		}
		res.Scorable++
		if !ok || s.IsNA || s.Value == nil {
			continue
		}

		v := *s.Value
		r := ratio(crit, v)
		res.Answered++
		res.Total += v
		res.MaxTotal += crit.MaxScore
		weighted += crit.Weight * r
		weights += crit.Weight
		ratioSum += r
		if r >= 1 {
			passed++
		}
		if snap.Template.Settings.AutoFailEnabled && crit.IsAutoFail &&
			crit.AutoFailThreshold != nil && v < *crit.AutoFailThreshold {
			res.AutoFailed = append(res.AutoFailed, crit.ID)
		}
	}

	if res.Answered > 0 {
		switch snap.Template.ScoringMethod {
		case models.ScoringWeighted:
			if weights > 0 {
				res.Percentage = weighted / weights * 100
			}
		case models.ScoringSimpleAverage:
			res.Percentage = ratioSum / float64(res.Answered) * 100
		case models.ScoringPassFail:
			res.Percentage = float64(passed) / float64(res.Answered) * 100
		default:
			if res.MaxTotal > 0 {
				res.Percentage = res.Total / res.MaxTotal * 100
			}
		}
	}
	res.Percentage = math.Round(res.Percentage*100) / 100

	if snap.Template.ScoringMethod == models.ScoringPassFail {
		res.Pass = res.Answered > 0 && passed == res.Answered
	} else {
		res.Pass = res.Answered > 0 && res.Percentage >= snap.Template.PassThreshold
	}
	if len(res.AutoFailed) > 0 {
		res.Pass = false
	}
	return res
}

// ratio maps a value onto 0..1 for its criterion.
func ratio(c models.Criterion, v float64) float64 {
	var r float64
	switch c.CriteriaType {
	case models.CriteriaScale, models.CriteriaPercentage:
		if c.Config.Min != nil && c.Config.Max != nil && *c.Config.Max > *c.Config.Min {
			r = (v - *c.Config.Min) / (*c.Config.Max - *c.Config.Min)
			break
		}
		fallthrough
	default:
		if c.MaxScore <= 0 {
			return 0
		}
		r = v / c.MaxScore
	}
	return math.Max(0, math.Min(1, r))
}

// ValidateInput checks a score against its criterion before it is sent.
func ValidateInput(c models.Criterion, settings models.TemplateSettings, in models.ScoreInput) error {
	if in.IsNA {
		if !settings.AllowNA {
			return fmt.Errorf("%s: this template does not allow N/A", c.Name)
		}
		return nil
	}
	if settings.RequireComments && in.Comment == "" {
		return fmt.Errorf("%s: a comment is required", c.Name)
	}
	if in.Value == nil {
		return nil
	}

	v := *in.Value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s: score must be a number", c.Name)
	}
	switch c.CriteriaType {
	case models.CriteriaText:
		return fmt.Errorf("%s: text criteria take a comment, not a value", c.Name)
	case models.CriteriaPassFail:
		if v != 0 && v != 1 {
			return fmt.Errorf("%s: pass/fail score must be 0 or 1", c.Name)
		}
	case models.CriteriaScale, models.CriteriaPercentage:
		if c.Config.Min != nil && v < *c.Config.Min {
			return fmt.Errorf("%s: score %g is below the minimum %g", c.Name, v, *c.Config.Min)
		}
		if c.Config.Max != nil && v > *c.Config.Max {
			return fmt.Errorf("%s: score %g is above the maximum %g", c.Name, v, *c.Config.Max)
		}
	case models.CriteriaRatingStars:
		if v < 0 || (c.Config.MaxStars > 0 && v > float64(c.Config.MaxStars)) {
			return fmt.Errorf("%s: rating must be between 0 and %d stars", c.Name, c.Config.MaxStars)
		}
		if !c.Config.AllowHalf && v != math.Trunc(v) {
			return fmt.Errorf("%s: half stars are not allowed", c.Name)
		}
	default:
		if v < 0 || (c.MaxScore > 0 && v > c.MaxScore) {
			return fmt.Errorf("%s: score must be between 0 and %g", c.Name, c.MaxScore)
		}
	}
	return nil
}

// orderedCriteria returns the snapshot's criteria group by group in section
// order, followed by ungrouped ones and then any whose group is missing.
func orderedCriteria(snap models.TemplateSnapshot) []models.Criterion {
	groupOrder := make(map[string]int, len(snap.Groups))
	for _, g := range snap.Groups {
		groupOrder[g.ID] = g.SortOrder
	}
	rank := func(c models.Criterion) int {
		if c.GroupID == nil {
			return math.MaxInt - 1
		}
		if o, ok := groupOrder[*c.GroupID]; ok {
			return o
		}
		return math.MaxInt
	}
	out := slices.Clone(snap.Criteria)
	slices.SortStableFunc(out, func(a, b models.Criterion) int {
		if c := cmp.Compare(rank(a), rank(b)); c != 0 {
			return c
		}
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})
	return out
}
