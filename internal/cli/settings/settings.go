package settings

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/callcoach/internal/cli"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	APIURL  *string `help:"Base URL of the coaching backend." name:"api-url"`
	UserID  *string `help:"Your user id, used to decide which sessions you may score." name:"user-id"`
	IsAdmin *bool   `help:"Whether you are an organization admin." name:"admin"`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		userID := settings.UserID
		if userID == "" {
			userID = "(not set)"
		}
		fmt.Println("Current Settings:")
		fmt.Printf("  API URL:  %s\n", settings.APIURL)
		fmt.Printf("  User ID:  %s\n", userID)
		fmt.Printf("  Admin:    %v\n", settings.IsAdmin)
		fmt.Printf("  Storage:  %s\n", ctx.Store.GetConfigPath())
		return nil
	}

	updated := false
	if c.APIURL != nil {
		u, err := url.Parse(strings.TrimSpace(*c.APIURL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid API URL %q: expected http(s)://host", *c.APIURL)
		}
		settings.APIURL = strings.TrimRight(u.String(), "/")
		updated = true
	}
	if c.UserID != nil {
		settings.UserID = strings.TrimSpace(*c.UserID)
		updated = true
	}
	if c.IsAdmin != nil {
		settings.IsAdmin = *c.IsAdmin
		updated = true
	}

	if updated {
		if err := ctx.Store.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Println("Settings updated successfully.")
	} else {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
	}
	return nil
}
