package templates

import (
	"fmt"
	"strings"

	"github.com/julianstephens/callcoach/internal/builder"
	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/models"
	"github.com/julianstephens/callcoach/internal/tui"
)

// BasicsFlags are the template fields settable from the command line.
type BasicsFlags struct {
	Name          string   `help:"Template name." short:"n"`
	Description   *string  `help:"Template description."`
	UseCase       *string  `help:"What kind of calls the template is for." name:"use-case"`
	Method        string   `help:"Scoring method: weighted, simple_average, pass_fail or points."`
	PassThreshold *float64 `help:"Pass threshold percentage (0-100)." name:"pass-threshold"`
}

func (f BasicsFlags) set() bool {
	return f.Name != "" || f.Description != nil || f.UseCase != nil || f.Method != "" || f.PassThreshold != nil
}

func (f BasicsFlags) validate() error {
	if f.Method != "" && !models.ScoringMethod(f.Method).Valid() {
		return fmt.Errorf("unknown scoring method %q", f.Method)
	}
	if f.PassThreshold != nil && (*f.PassThreshold < 0 || *f.PassThreshold > 100) {
		return fmt.Errorf("pass threshold must be between 0 and 100")
	}
	return nil
}

func (f BasicsFlags) apply(store *draft.Store) {
	store.UpdateTemplate(func(t *models.Template) {
		if f.Name != "" {
			t.Name = strings.TrimSpace(f.Name)
		}
		if f.Description != nil {
			t.Description = *f.Description
		}
		if f.UseCase != nil {
			t.UseCase = *f.UseCase
		}
		if f.Method != "" {
			t.ScoringMethod = models.ScoringMethod(f.Method)
		}
		if f.PassThreshold != nil {
			t.PassThreshold = *f.PassThreshold
		}
	})
}

type NewCmd struct {
	BasicsFlags
	Wizard bool `help:"Build the template step by step in the interactive wizard." short:"w"`
}

func (c *NewCmd) Run(ctx *cli.Context) error {
	if err := c.validate(); err != nil {
		return err
	}
	store := draft.New()
	if c.BasicsFlags.set() {
		c.apply(store)
	}
	if c.Wizard {
		return tui.Launch(ctx, store, tui.LaunchOptions{Mode: tui.ModeWizard})
	}
	if c.Name == "" {
		return fmt.Errorf("--name is required unless --wizard is used")
	}

	client, err := ctx.API()
	if err != nil {
		return err
	}
	id, err := builder.NewSaver(client).Save(ctx.Context(), store)
	if err != nil {
		return err
	}
	fmt.Printf("Created draft template: %s (ID: %s)\n", store.Template().Name, id)
	fmt.Printf("Add criteria with '%s template edit %s'\n", constants.AppName, id)
	return nil
}

type EditCmd struct {
	ID string `arg:"" help:"Template ID."`
	BasicsFlags
}

// Run updates the template's basics when flags are given and opens the
// builder otherwise.
func (c *EditCmd) Run(ctx *cli.Context) error {
	if err := c.validate(); err != nil {
		return err
	}
	client, err := ctx.API()
	if err != nil {
		return err
	}

	if !c.BasicsFlags.set() {
		if rec, err := ctx.Store.GetDraftForTemplate(c.ID); err == nil {
			fmt.Printf("A stashed draft exists for this template, resume it with '%s draft resume %s'\n", constants.AppName, rec.ID)
		}
		store, err := cli.OpenTemplate(ctx.Context(), client, c.ID)
		if err != nil {
			return err
		}
		return tui.Launch(ctx, store, tui.LaunchOptions{Mode: tui.ModeBuilder})
	}

	lock, err := ctx.LockTemplate(c.ID)
	if err != nil {
		return err
	}
	defer lock.Release()

	store, err := cli.OpenTemplate(ctx.Context(), client, c.ID)
	if err != nil {
		return err
	}
	c.apply(store)
	if _, err := builder.NewSaver(client).Save(ctx.Context(), store); err != nil {
		return err
	}
	fmt.Printf("Updated template: %s\n", cli.TemplateLine(store.Template()))
	return nil
}

type CopyCmd struct {
	ID   string `arg:"" help:"Template ID to copy."`
	Name string `help:"Name of the copy. Defaults to the original name with a suffix."`
}

func (c *CopyCmd) Run(ctx *cli.Context) error {
	client, err := ctx.API()
	if err != nil {
		return err
	}
	detail, err := client.GetTemplate(ctx.Context(), c.ID)
	if err != nil {
		return fmt.Errorf("failed to load template %s: %w", c.ID, err)
	}

	store := draft.NewFrom(detail)
	name := c.Name
	if name == "" {
		name = detail.Template.Name + constants.CopyNameSuffix
	}
	store.UpdateTemplate(func(t *models.Template) { t.Name = name })

	id, err := builder.NewSaver(client).Save(ctx.Context(), store)
	if err != nil {
		return err
	}
	fmt.Printf("Created draft template: %s (ID: %s)\n", name, id)
	return nil
}
