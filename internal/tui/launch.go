package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/callcoach/internal/builder"
	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/editlock"
	"github.com/julianstephens/callcoach/internal/logger"
)

// LaunchOptions selects how Launch opens the editor.
type LaunchOptions struct {
	Mode    Mode
	DraftID string
}

// Launch runs the editor on store until the user quits and then reports what
// was saved, published or stashed. Existing templates and resumed drafts are
// locked for the duration of the session.
func Launch(ctx *cli.Context, store *draft.Store, opts LaunchOptions) error {
	key := opts.DraftID
	if !store.IsNewTemplate() {
		key = store.Template().ID
	}
	var lock *editlock.Lock
	if key != "" {
		var err error
		if lock, err = ctx.LockTemplate(key); err != nil {
			return err
		}
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release edit lock", "key", key, "error", err)
		}
	}()

	client, err := ctx.API()
	if err != nil {
		return err
	}

	model := New(store, Options{
		Mode:    opts.Mode,
		DraftID: opts.DraftID,
		Saver:   builder.NewSaver(client),
		Team:    client,
		Stash:   ctx.Store,
		Ctx:     ctx.Context(),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx.Context()))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("editor exited with an error: %w", err)
	}
	if m, ok := final.(Model); ok {
		printResult(m.Result())
	}
	return nil
}

func printResult(res Result) {
	switch {
	case res.Published != nil:
		fmt.Printf("✓ Published: %s (ID: %s, version %d)\n", res.Published.Name, res.Published.ID, res.Published.Version)
	case res.Saved:
		fmt.Printf("✓ Saved template (ID: %s)\n", res.TemplateID)
	}
	if res.Assignments != nil {
		marker := "✓"
		if !res.Assignments.OK() {
			marker = "⚠"
		}
		fmt.Printf("%s %s\n", marker, res.Assignments)
		for _, f := range res.Assignments.Failed {
			fmt.Printf("  ❌ %s: %v\n", f.UserID, f.Err)
		}
	}
	switch {
	case res.StashedID != "":
		fmt.Printf("ℹ Unsaved changes stashed. Resume with '%s draft resume %s'\n", constants.AppName, res.StashedID)
	case res.Discarded:
		fmt.Println("ℹ Unsaved changes discarded")
	}
}
