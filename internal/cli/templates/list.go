package templates

import (
	"fmt"

	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/models"
)

type ListCmd struct {
	Status string `help:"Only show templates with this status (draft, published, archived)."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	switch models.TemplateStatus(c.Status) {
	case "", models.TemplateDraft, models.TemplatePublished, models.TemplateArchived:
	default:
		return fmt.Errorf("unknown template status %q", c.Status)
	}
	client, err := ctx.API()
	if err != nil {
		return err
	}
	templates, err := client.ListTemplates(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	shown := 0
	for _, t := range templates {
		if c.Status != "" && t.Status != models.TemplateStatus(c.Status) {
			continue
		}
		if shown == 0 {
			fmt.Println("Templates:")
		}
		fmt.Printf("  %s\n", cli.TemplateLine(t))
		shown++
	}
	if shown == 0 {
		fmt.Println("No templates found")
	}
	return nil
}

type ShowCmd struct {
	ID string `arg:"" help:"Template ID."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	client, err := ctx.API()
	if err != nil {
		return err
	}
	store, err := cli.OpenTemplate(ctx.Context(), client, c.ID)
	if err != nil {
		return err
	}
	fmt.Println(cli.TemplateLine(store.Template()))
	fmt.Println()
	cli.PrintOutline(store)
	return nil
}
