package sessions

import (
	"fmt"
	"strings"

	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/models"
	"github.com/julianstephens/callcoach/internal/scoring"
)

func openSession(ctx *cli.Context, id string) (*scoring.Controller, error) {
	client, err := ctx.API()
	if err != nil {
		return nil, err
	}
	viewer, err := ctx.Viewer()
	if err != nil {
		return nil, err
	}
	ctrl := scoring.NewController(client, viewer)
	if err := ctrl.Load(ctx.Context(), id); err != nil {
		return nil, err
	}
	return ctrl, nil
}

// findCriterion matches a criterion by id, then by case-insensitive name.
func findCriterion(ctrl *scoring.Controller, ref string) (models.Criterion, error) {
	criteria := ctrl.Criteria()
	for _, c := range criteria {
		if c.ID == ref {
			return c, nil
		}
	}
	var matches []models.Criterion
	for _, c := range criteria {
		if strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(ref)) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.Criterion{}, fmt.Errorf("no criterion %q in this session's template", ref)
	default:
		return models.Criterion{}, fmt.Errorf("%d criteria are named %q, use the criterion ID", len(matches), ref)
	}
}

func criterionNames(ctrl *scoring.Controller, ids []string) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name := id
		for _, c := range ctrl.Criteria() {
			if c.ID == id {
				name = c.Name
				break
			}
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

type ShowCmd struct {
	ID string `arg:"" help:"Session ID."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	ctrl, err := openSession(ctx, c.ID)
	if err != nil {
		return err
	}
	s := ctrl.Session()
	fmt.Println(sessionLine(s))
	if s.CallID != "" {
		fmt.Printf("  Call: %s\n", s.CallID)
	}
	if s.Notes != "" {
		fmt.Printf("  Notes: %s\n", s.Notes)
	}
	fmt.Println()

	for _, crit := range ctrl.Criteria() {
		fmt.Printf("  %s: %s\n", crit.Name, scoreText(crit, ctrl))
	}

	if s.Status.Scorable() {
		p := ctrl.Preview()
		fmt.Println()
		fmt.Printf("Preview: %.1f%% (%s), %d of %d answered\n", p.Percentage, p.PassStatus(), p.Answered, p.Scorable)
		if len(p.AutoFailed) > 0 {
			fmt.Printf("  ⚠ Auto-failed: %s\n", criterionNames(ctrl, p.AutoFailed))
		}
		if len(p.MissingRequired) > 0 {
			fmt.Printf("  ⚠ Required and unanswered: %s\n", criterionNames(ctrl, p.MissingRequired))
		}
	}
	if reason := ctrl.ViewOnlyReason(); reason != "" {
		fmt.Printf("ℹ %s\n", reason)
	}
	return nil
}

func scoreText(crit models.Criterion, ctrl *scoring.Controller) string {
	sc, ok := ctrl.Score(crit.ID)
	var text string
	switch {
	case !ok:
		text = "-"
	case sc.IsNA:
		text = "N/A"
	case sc.Value != nil:
		text = cli.FormatNumber(*sc.Value)
		if crit.MaxScore > 0 {
			text += "/" + cli.FormatNumber(crit.MaxScore)
		}
	default:
		text = "-"
	}
	if ok && sc.Comment != "" {
		text += fmt.Sprintf(" (%s)", sc.Comment)
	}
	return text
}

type ScoreCmd struct {
	ID        string   `arg:"" help:"Session ID."`
	Criterion string   `arg:"" help:"Criterion ID or name."`
	Value     *float64 `help:"Score value."`
	NA        bool     `help:"Mark the criterion not applicable." name:"na"`
	Comment   string   `help:"Comment for the criterion." short:"c"`
}

func (c *ScoreCmd) Run(ctx *cli.Context) error {
	if c.NA && c.Value != nil {
		return fmt.Errorf("--value and --na cannot be combined")
	}
	if !c.NA && c.Value == nil && c.Comment == "" {
		return fmt.Errorf("pass --value, --na or --comment")
	}

	ctrl, err := openSession(ctx, c.ID)
	if err != nil {
		return err
	}
	crit, err := findCriterion(ctrl, c.Criterion)
	if err != nil {
		return err
	}
	if _, err := ctrl.SaveScore(ctx.Context(), crit.ID, models.ScoreInput{
		Value:   c.Value,
		IsNA:    c.NA,
		Comment: c.Comment,
	}); err != nil {
		return err
	}

	fmt.Printf("✓ %s: %s\n", crit.Name, scoreText(crit, ctrl))
	p := ctrl.Preview()
	fmt.Printf("Preview: %.1f%% (%s), %d of %d answered\n", p.Percentage, p.PassStatus(), p.Answered, p.Scorable)
	return nil
}

type CompleteCmd struct {
	ID    string `arg:"" help:"Session ID."`
	Force bool   `help:"Complete even if required criteria are unanswered."`
}

func (c *CompleteCmd) Run(ctx *cli.Context) error {
	ctrl, err := openSession(ctx, c.ID)
	if err != nil {
		return err
	}
	if !ctrl.CanScore() {
		return fmt.Errorf("%w: %s", scoring.ErrViewOnly, ctrl.ViewOnlyReason())
	}
	if p := ctrl.Preview(); len(p.MissingRequired) > 0 && !c.Force {
		return fmt.Errorf("required criteria are unanswered: %s (use --force to complete anyway)",
			criterionNames(ctrl, p.MissingRequired))
	}
	if err := ctrl.Complete(ctx.Context()); err != nil {
		return err
	}

	s := ctrl.Session()
	pass := ""
	if s.PassStatus != nil {
		pass = " " + *s.PassStatus
	}
	fmt.Printf("✓ Session completed: %s%s\n", formatScore(s.PercentageScore), pass)
	return nil
}

type DeleteCmd struct {
	ID string `arg:"" help:"Session ID."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	client, err := ctx.API()
	if err != nil {
		return err
	}
	if err := client.DeleteSession(ctx.Context(), c.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	fmt.Printf("Deleted session %s\n", c.ID)
	return nil
}
