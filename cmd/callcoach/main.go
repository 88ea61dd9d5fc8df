package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/cli/auth"
	"github.com/julianstephens/callcoach/internal/cli/drafts"
	"github.com/julianstephens/callcoach/internal/cli/sessions"
	"github.com/julianstephens/callcoach/internal/cli/settings"
	"github.com/julianstephens/callcoach/internal/cli/system"
	"github.com/julianstephens/callcoach/internal/cli/team"
	"github.com/julianstephens/callcoach/internal/cli/templates"
	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/errors"
	"github.com/julianstephens/callcoach/internal/logger"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"SQLite file path, PostgreSQL connection string, or 'keyring' to read the connection string from the OS keyring. Credentials must NOT be embedded in a connection string." type:"string" default:"${default_config}" env:"CALLCOACH_CONFIG"`
	Debug    bool   `help:"Mirror log output to stderr."`
	LogLevel string `help:"Log level (debug, info, warn, error)." name:"log-level" env:"CALLCOACH_LOG_LEVEL"`
	LogJSON  bool   `help:"Write logs as JSON lines." name:"log-json"`
	APIURL   string `help:"Override the backend URL from settings." name:"api-url" env:"CALLCOACH_API_URL"`
	Token    string `help:"Override the API token stored in the keyring." env:"CALLCOACH_API_TOKEN"`

	Init     system.InitCmd       `cmd:"" help:"Initialize callcoach storage."`
	Migrate  system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd        `cmd:"" help:"Open the interactive template builder." default:"withargs"`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Auth     struct {
		Set      auth.SetCmd      `cmd:"" help:"Store the API token in the OS keyring."`
		Status   auth.StatusCmd   `cmd:"" help:"Show which credentials are stored."`
		Delete   auth.DeleteCmd   `cmd:"" help:"Remove the API token from the OS keyring."`
		SetDB    auth.SetDBCmd    `cmd:"" name:"set-db" help:"Store a PostgreSQL connection string in the OS keyring."`
		DeleteDB auth.DeleteDBCmd `cmd:"" name:"delete-db" help:"Remove the PostgreSQL connection string from the OS keyring."`
	} `cmd:"" help:"Manage credentials."`
	Template struct {
		List    templates.ListCmd    `cmd:"" help:"List scorecard templates." default:"1"`
		Show    templates.ShowCmd    `cmd:"" help:"Show a template with its sections and criteria."`
		New     templates.NewCmd     `cmd:"" help:"Create a draft template."`
		Edit    templates.EditCmd    `cmd:"" help:"Edit a template's basics or open it in the builder."`
		Copy    templates.CopyCmd    `cmd:"" help:"Copy a template into a new draft."`
		Publish templates.PublishCmd `cmd:"" help:"Publish a draft template."`
		Assign  templates.AssignCmd  `cmd:"" help:"Assign a template to users or to everyone."`
		Export  templates.ExportCmd  `cmd:"" help:"Export a template as a YAML scorecard."`
		Import  templates.ImportCmd  `cmd:"" help:"Create a template from a YAML scorecard."`
	} `cmd:"" help:"Manage scorecard templates."`
	Draft struct {
		List   drafts.ListCmd   `cmd:"" help:"List stashed drafts." default:"1"`
		Resume drafts.ResumeCmd `cmd:"" help:"Reopen or save a stashed draft."`
		Delete drafts.DeleteCmd `cmd:"" help:"Delete a stashed draft."`
	} `cmd:"" help:"Manage locally stashed drafts."`
	Session struct {
		List     sessions.ListCmd     `cmd:"" help:"List coaching sessions." default:"1"`
		Show     sessions.ShowCmd     `cmd:"" help:"Show a session with its scores."`
		Score    sessions.ScoreCmd    `cmd:"" help:"Score one criterion of a session."`
		Complete sessions.CompleteCmd `cmd:"" help:"Complete a session."`
		Delete   sessions.DeleteCmd   `cmd:"" help:"Delete a session."`
	} `cmd:"" help:"Score coaching sessions."`
	Team struct {
		List team.ListCmd `cmd:"" help:"List team members." default:"1"`
	} `cmd:"" help:"Browse the team."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Scorecard builder and call scoring client for sales coaching"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
		},
	)

	configDir, err := cli.ConfigDirFor(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: configDir,
		Level:     CLI.LogLevel,
		JSON:      CLI.LogJSON,
	}); err != nil {
		errors.Fatal(err)
	}

	store, err := cli.OpenStore(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}

	// init creates the store, everything else expects it to exist.
	if kctx.Selected() == nil || kctx.Selected().Name != "init" {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}
	defer store.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := &cli.Context{
		Store:     store,
		ConfigDir: configDir,
		APIURL:    CLI.APIURL,
		Token:     CLI.Token,
		Ctx:       sigCtx,
	}
	logger.Debug("running command", "command", kctx.Command())

	if err := kctx.Run(appCtx); err != nil {
		stop()
		store.Close()
		errors.Fatal(err)
	}
}
