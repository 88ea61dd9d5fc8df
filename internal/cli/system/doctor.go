package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/callcoach/internal/api"
	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/draft"
	"github.com/julianstephens/callcoach/internal/keyring"
)

type DoctorCmd struct {
	Offline bool          `help:"Skip checks that contact the backend."`
	Timeout time.Duration `help:"Timeout for the backend check." default:"10s"`
}

type checkLevel int

const (
	levelFail checkLevel = iota
	levelWarn
)

type check struct {
	name  string
	level checkLevel
	// needsDB checks are skipped when the database is unreachable.
	needsDB bool
	run     func() error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	checks := []check{
		{name: "Database reachable", run: func() error { return checkDBReachable(ctx) }},
		{name: "Schema version", needsDB: true, run: func() error { return checkSchema(ctx) }},
		{name: "Stashed drafts", needsDB: true, run: func() error { return checkDrafts(ctx) }},
		{name: "Identity", level: levelWarn, needsDB: true, run: func() error { return checkIdentity(ctx) }},
		{name: "OS keyring", level: levelWarn, run: checkKeyring},
		{name: "Edit locks", level: levelWarn, run: func() error { return checkLocks(ctx) }},
	}
	if !cmd.Offline {
		checks = append(checks, check{name: "Backend reachable", needsDB: true, run: func() error { return checkBackend(ctx, cmd.Timeout) }})
	}

	hasError := false
	dbReachable := true
	for i, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run()
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.level == levelWarn:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
			if i == 0 {
				dbReachable = false
			}
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if _, err := ctx.Store.GetSettings(); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	return nil
}

func checkSchema(ctx *cli.Context) error {
	m, ok := ctx.Store.(cli.Migrator)
	if !ok {
		return nil
	}
	runner, err := m.Migrations()
	if err != nil {
		return err
	}
	st, err := runner.Status()
	if err != nil {
		return err
	}
	if !st.UpToDate() {
		return fmt.Errorf("schema version %d, latest is %d: run '%s migrate'", st.Current, st.Latest, constants.AppName)
	}
	return nil
}

func checkDrafts(ctx *cli.Context) error {
	drafts, err := ctx.Store.GetAllDrafts()
	if err != nil {
		return err
	}
	var bad []string
	for _, d := range drafts {
		if _, err := draft.Decode(d.Payload); err != nil {
			bad = append(bad, d.ID)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%d unreadable draft(s): %v, remove them with '%s draft delete'", len(bad), bad, constants.AppName)
	}
	return nil
}

func checkIdentity(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	if settings.UserID == "" && !settings.IsAdmin {
		return fmt.Errorf("no user id configured, sessions will be view-only: run '%s settings --user-id <id>'", constants.AppName)
	}
	return nil
}

func checkKeyring() error {
	if !keyring.IsAvailable() {
		return errors.New("OS keyring is not available, pass the API token with --token or CALLCOACH_API_TOKEN")
	}
	if _, err := keyring.GetAPIToken(); errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("no API token stored: run '%s auth set <token>'", constants.AppName)
	}
	return nil
}

func checkLocks(ctx *cli.Context) error {
	entries, err := os.ReadDir(ctx.LockDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	n := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) == constants.LockFileSuffix {
			n++
		}
	}
	if n > 0 {
		return fmt.Errorf("%d lock file(s) in %s, stale ones are replaced on the next edit", n, ctx.LockDir())
	}
	return nil
}

func checkBackend(ctx *cli.Context, timeout time.Duration) error {
	client, err := ctx.API()
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := client.ListTemplates(c); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Hint() != "" {
			return fmt.Errorf("%w (%s)", err, apiErr.Hint())
		}
		return err
	}
	return nil
}
