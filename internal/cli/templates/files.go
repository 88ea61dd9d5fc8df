package templates

import (
	"fmt"
	"os"

	"github.com/julianstephens/callcoach/internal/builder"
	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/models"
	"github.com/julianstephens/callcoach/internal/templatefile"
)

type ExportCmd struct {
	ID     string `arg:"" help:"Template ID."`
	Output string `help:"Write to this file instead of stdout." short:"o" type:"path"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	client, err := ctx.API()
	if err != nil {
		return err
	}
	store, err := cli.OpenTemplate(ctx.Context(), client, c.ID)
	if err != nil {
		return err
	}

	if c.Output == "" {
		data, err := templatefile.Marshal(store)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := templatefile.Write(c.Output, store); err != nil {
		return err
	}
	fmt.Printf("Exported %s to %s\n", store.Template().Name, c.Output)
	return nil
}

type ImportCmd struct {
	File    string `arg:"" help:"Scorecard YAML file." type:"existingfile"`
	Name    string `help:"Override the template name from the file."`
	Publish bool   `help:"Publish the template right after creating it."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	store, err := templatefile.Read(c.File)
	if err != nil {
		return err
	}
	if c.Name != "" {
		store.UpdateTemplate(func(t *models.Template) { t.Name = c.Name })
	}

	client, err := ctx.API()
	if err != nil {
		return err
	}
	saver := builder.NewSaver(client)
	id, err := saver.Save(ctx.Context(), store)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %s (ID: %s) with %d criteria\n", store.Template().Name, id, store.CriteriaCount())

	if c.Publish {
		published, err := saver.Publish(ctx.Context(), store, models.PublishRequest{}, builder.GateStrict)
		if err != nil {
			return fmt.Errorf("template was created but not published: %w", err)
		}
		fmt.Printf("Published: %s\n", cli.TemplateLine(published))
	}
	return nil
}
