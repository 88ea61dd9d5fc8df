package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/keyring"
	"github.com/julianstephens/callcoach/internal/storage/postgres"
)

// SetCmd stores the backend API token in the OS keyring.
type SetCmd struct {
	Token string `arg:"" help:"API token issued by the coaching backend."`
}

func (cmd *SetCmd) Run(ctx *cli.Context) error {
	token := strings.TrimSpace(cmd.Token)
	info, isJWT := keyring.InspectToken(token)
	if isJWT && info.Expired(time.Now()) {
		return fmt.Errorf("%w (expired %s)", keyring.ErrTokenExpired, info.ExpiresAt.Format(time.RFC3339))
	}
	if err := keyring.SetAPIToken(token); err != nil {
		return err
	}
	fmt.Println("✓ API token stored in OS keyring")
	if isJWT {
		printTokenInfo(info)
	}
	return nil
}

func printTokenInfo(info keyring.TokenInfo) {
	if info.Subject != "" {
		fmt.Printf("  Subject: %s\n", info.Subject)
	}
	switch {
	case info.ExpiresAt == nil:
		fmt.Println("  Expires: never")
	case info.Expired(time.Now()):
		fmt.Printf("  ⚠ Expired: %s\n", info.ExpiresAt.Local().Format(time.RFC1123))
	default:
		fmt.Printf("  Expires: %s\n", info.ExpiresAt.Local().Format(time.RFC1123))
	}
}

type StatusCmd struct{}

func (cmd *StatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		fmt.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	fmt.Println("✓ OS keyring is available")

	token, err := keyring.GetAPIToken()
	switch {
	case err == nil:
		fmt.Printf("✓ API token stored (%s)\n", maskToken(token))
		if info, ok := keyring.InspectToken(token); ok {
			printTokenInfo(info)
		}
	case errors.Is(err, keyring.ErrNotFound):
		fmt.Printf("ℹ No API token stored, use '%s auth set <token>'\n", constants.AppName)
	default:
		return err
	}

	connStr, err := keyring.GetConnectionString()
	switch {
	case err == nil:
		fmt.Printf("✓ Database connection string stored: %s\n", maskPassword(connStr))
	case errors.Is(err, keyring.ErrNotFound):
		fmt.Println("ℹ No database connection string stored")
	default:
		return err
	}
	return nil
}

type DeleteCmd struct{}

func (cmd *DeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteAPIToken(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no API token found in keyring")
		}
		return err
	}
	fmt.Println("✓ API token deleted from OS keyring")
	return nil
}

// SetDBCmd stores a PostgreSQL connection string for --config=keyring.
type SetDBCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring."`
}

func (cmd *SetDBCmd) Run(ctx *cli.Context) error {
	if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		fmt.Println("⚠️  Connection string contains a password. It is stored as-is in the encrypted OS keyring.")
	}
	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return err
	}
	fmt.Println("✓ Connection string stored in OS keyring")
	fmt.Printf("  Use it with: %s --config=%s\n", constants.AppName, cli.KeyringConfig)
	return nil
}

type DeleteDBCmd struct{}

func (cmd *DeleteDBCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return err
	}
	fmt.Println("✓ Connection string deleted from OS keyring")
	return nil
}

// maskToken keeps only the last four characters.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

// maskPassword hides the password of URL and DSN connection strings.
func maskPassword(connStr string) string {
	if i := strings.Index(connStr, "://"); i != -1 {
		rest := connStr[i+3:]
		if at := strings.LastIndex(rest, "@"); at != -1 {
			if colon := strings.Index(rest[:at], ":"); colon != -1 {
				return connStr[:i+3] + rest[:colon] + ":****" + rest[at:]
			}
		}
		return connStr
	}
	parts := strings.Fields(connStr)
	for i, p := range parts {
		if k, _, ok := strings.Cut(p, "="); ok && strings.EqualFold(k, "password") {
			parts[i] = k + "=****"
		}
	}
	return strings.Join(parts, " ")
}
