package drafts

import (
	"errors"
	"fmt"

	"github.com/julianstephens/callcoach/internal/builder"
	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/logger"
	"github.com/julianstephens/callcoach/internal/storage"
	"github.com/julianstephens/callcoach/internal/tui"
)

type ListCmd struct{}

func (c *ListCmd) Run(ctx *cli.Context) error {
	records, err := ctx.Store.GetAllDrafts()
	if err != nil {
		return fmt.Errorf("failed to list drafts: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No stashed drafts")
		return nil
	}

	fmt.Println("Stashed drafts:")
	for _, rec := range records {
		target := "new template"
		if rec.TemplateID != "" {
			target = "template " + rec.TemplateID
		}
		fmt.Printf("  %s - %s, saved %s (ID: %s)\n", rec.Name, target, rec.UpdatedAt, rec.ID)
	}
	return nil
}

type ResumeCmd struct {
	ID   string `arg:"" help:"Draft ID."`
	Save bool   `help:"Save the draft to the backend without opening the builder."`
}

// Run reopens a stashed draft in the builder, or pushes it straight to the
// backend with --save. A pushed draft is removed from the stash.
func (c *ResumeCmd) Run(ctx *cli.Context) error {
	store, rec, err := storage.ResumeDraft(ctx.Store, c.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no stashed draft %s, list them with '%s draft list'", c.ID, constants.AppName)
		}
		return err
	}
	if !c.Save {
		return tui.Launch(ctx, store, tui.LaunchOptions{Mode: tui.ModeBuilder, DraftID: rec.ID})
	}

	key := rec.TemplateID
	if key == "" {
		key = rec.ID
	}
	lock, err := ctx.LockTemplate(key)
	if err != nil {
		return err
	}
	defer lock.Release()

	client, err := ctx.API()
	if err != nil {
		return err
	}
	id, err := builder.NewSaver(client).Save(ctx.Context(), store)
	if err != nil {
		// Keep whatever ids the partial save assigned.
		if _, serr := storage.StashDraft(ctx.Store, store, rec.ID); serr != nil {
			logger.Error("failed to restash draft", "id", rec.ID, "error", serr)
		}
		return err
	}
	if err := ctx.Store.DeleteDraft(rec.ID); err != nil {
		logger.Warn("saved draft could not be removed from the stash", "id", rec.ID, "error", err)
	}
	fmt.Printf("Saved %s (ID: %s)\n", store.Template().Name, id)
	return nil
}

type DeleteCmd struct {
	ID string `arg:"" help:"Draft ID."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.DeleteDraft(c.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no stashed draft %s", c.ID)
		}
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	fmt.Printf("Deleted draft %s\n", c.ID)
	return nil
}
