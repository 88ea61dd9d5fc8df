package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/constants"
)

type InitCmd struct {
	Force   bool   `help:"Delete the existing local database before initializing."`
	APIURL  string `help:"Backend URL to store in settings." name:"api-url"`
	UserID  string `help:"Your user id, used to decide which sessions you may score." name:"user-id"`
	IsAdmin bool   `help:"Mark yourself as an organization admin." name:"admin"`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized %s storage at: %s\n", constants.AppName, ctx.Store.GetConfigPath())

	if c.APIURL == "" && c.UserID == "" && !c.IsAdmin {
		return nil
	}
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if c.APIURL != "" {
		settings.APIURL = c.APIURL
	}
	if c.UserID != "" {
		settings.UserID = c.UserID
	}
	if c.IsAdmin {
		settings.IsAdmin = true
	}
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Printf("Backend: %s\n", settings.APIURL)
	return nil
}
