package templates

import (
	"fmt"

	"github.com/julianstephens/callcoach/internal/builder"
	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/models"
)

type PublishCmd struct {
	ID         string `arg:"" help:"Template ID."`
	Summary    string `help:"Change summary recorded with the version." short:"m"`
	Default    bool   `help:"Make this the organization's default template." name:"default"`
	SkipChecks bool   `help:"Publish even if weights are unbalanced." name:"skip-checks"`
}

func (c *PublishCmd) Run(ctx *cli.Context) error {
	client, err := ctx.API()
	if err != nil {
		return err
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

	gate := builder.GateStrict
	if c.SkipChecks {
		gate = builder.GateAdvisory
	}
	published, err := builder.NewSaver(client).Publish(ctx.Context(), store, models.PublishRequest{
		ChangeSummary: c.Summary,
		SetAsDefault:  c.Default,
	}, gate)
	if err != nil {
		return err
	}
	fmt.Printf("Published: %s\n", cli.TemplateLine(published))
	return nil
}

type AssignCmd struct {
	ID       string   `arg:"" help:"Template ID."`
	Users    []string `arg:"" optional:"" help:"User IDs to assign the template to."`
	Everyone bool     `help:"Make the template the default for everyone instead."`
}

func (c *AssignCmd) Run(ctx *cli.Context) error {
	if c.Everyone == (len(c.Users) > 0) {
		return fmt.Errorf("pass either --everyone or at least one user id")
	}
	client, err := ctx.API()
	if err != nil {
		return err
	}
	saver := builder.NewSaver(client)

	if c.Everyone {
		lock, err := ctx.LockTemplate(c.ID)
		if err != nil {
			return err
		}
		defer lock.Release()

		store, err := cli.OpenTemplate(ctx.Context(), client, c.ID)
		if err != nil {
			return err
		}
		if !store.Template().IsDefault {
			store.UpdateTemplate(func(t *models.Template) { t.IsDefault = true })
			if _, err := saver.Save(ctx.Context(), store); err != nil {
				return err
			}
		}
		report := saver.CreateAssignments(ctx.Context(), c.ID, builder.AssignEveryone, nil)
		fmt.Printf("%s: %s\n", store.Template().Name, report)
		return nil
	}

	report := saver.CreateAssignments(ctx.Context(), c.ID, builder.AssignSpecific, c.Users)
	fmt.Println(report)
	for _, f := range report.Failed {
		fmt.Printf("  ❌ %s: %v\n", f.UserID, f.Err)
	}
	if !report.OK() {
		return fmt.Errorf("%d of %d assignment(s) failed", len(report.Failed), len(c.Users))
	}
	return nil
}
