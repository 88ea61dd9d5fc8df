package sessions

import (
	"fmt"

	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/models"
)

var statuses = []models.SessionStatus{
	models.SessionPending,
	models.SessionInProgress,
	models.SessionCompleted,
	models.SessionReviewed,
	models.SessionDisputed,
	models.SessionCancelled,
}

type ListCmd struct {
	Status   string `help:"Only show sessions with this status."`
	Template string `help:"Only show sessions scored with this template ID."`
	Mine     bool   `help:"Only show sessions where you are the coach."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	filter := models.SessionFilter{
		Status:          models.SessionStatus(c.Status),
		TemplateID:      c.Template,
		IncludeTemplate: true,
		IncludeUsers:    true,
	}
	if c.Status != "" && !validStatus(filter.Status) {
		return fmt.Errorf("unknown session status %q", c.Status)
	}

	var me string
	if c.Mine {
		viewer, err := ctx.Viewer()
		if err != nil {
			return err
		}
		if viewer.UserID == "" {
			return fmt.Errorf("--mine needs your user id, set it with 'callcoach settings --user-id <id>'")
		}
		me = viewer.UserID
	}

	client, err := ctx.API()
	if err != nil {
		return err
	}
	list, err := client.ListSessions(ctx.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	shown := 0
	for _, s := range list {
		if me != "" && s.CoachID != me {
			continue
		}
		if shown == 0 {
			fmt.Println("Sessions:")
		}
		fmt.Printf("  %s\n", sessionLine(s))
		shown++
	}
	if shown == 0 {
		fmt.Println("No sessions found")
	}
	return nil
}

func validStatus(s models.SessionStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func userName(u *models.UserRef, id string) string {
	switch {
	case u == nil:
		return id
	case u.FullName != "":
		return u.FullName
	case u.Email != "":
		return u.Email
	default:
		return id
	}
}

func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func sessionLine(s models.Session) string {
	tpl := s.TemplateID
	if s.TemplateSnapshot != nil {
		tpl = s.TemplateSnapshot.Template.Name
	}
	line := fmt.Sprintf("[%s] %s - agent %s, coach %s", s.Status.Label(), tpl,
		userName(s.Agent, s.AgentID), userName(s.Coach, s.CoachID))
	if s.PercentageScore != nil {
		line += ", score " + formatScore(s.PercentageScore)
		if s.PassStatus != nil {
			line += " " + *s.PassStatus
		}
	}
	return line + fmt.Sprintf(" (ID: %s)", s.ID)
}
