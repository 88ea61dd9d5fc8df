package system

import (
	"fmt"

	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/tui"
)

type TuiCmd struct {
	ID     string `arg:"" optional:"" help:"Template ID to open. A new draft is started when omitted."`
	Wizard bool   `help:"Use the step-by-step wizard." short:"w"`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	mode := tui.ModeBuilder
	if c.Wizard {
		mode = tui.ModeWizard
	}
	if c.ID == "" {
		return tui.Launch(ctx, draft.New(), tui.LaunchOptions{Mode: mode})
	}

	if rec, err := ctx.Store.GetDraftForTemplate(c.ID); err == nil {
		fmt.Printf("ℹ A stashed draft exists for this template, resume it with '%s draft resume %s'\n", constants.AppName, rec.ID)
	}
	client, err := ctx.API()
	if err != nil {
		return err
	}
	store, err := cli.OpenTemplate(ctx.Context(), client, c.ID)
	if err != nil {
		return err
	}
	return tui.Launch(ctx, store, tui.LaunchOptions{Mode: mode})
}
