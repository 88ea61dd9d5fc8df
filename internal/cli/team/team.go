package team

import (
	"fmt"

	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/models"
)

type ListCmd struct {
	Active   *bool  `help:"Only show active members, or inactive ones with --active=false."`
	Search   string `help:"Filter by name or email." short:"s"`
	PageSize int    `help:"Maximum number of members to fetch." name:"page-size"`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	if c.PageSize < 0 {
		return fmt.Errorf("page size cannot be negative")
	}
	size := c.PageSize
	if size == 0 {
		size = constants.TeamPageSize
	}

	client, err := ctx.API()
	if err != nil {
		return err
	}
	members, err := client.ListTeam(ctx.Context(), models.TeamFilter{
		IsActive: c.Active,
		Search:   c.Search,
		PageSize: size,
	})
	if err != nil {
		return fmt.Errorf("failed to list team: %w", err)
	}
	if len(members) == 0 {
		fmt.Println("No team members found")
		return nil
	}

	fmt.Println("Team:")
	for _, m := range members {
		state := ""
		if !m.IsActive {
			state = " (inactive)"
		}
		fmt.Printf("  %s <%s> - %s%s (ID: %s)\n", m.DisplayName(), m.Email, m.Role, state, m.ID)
	}
	return nil
}
