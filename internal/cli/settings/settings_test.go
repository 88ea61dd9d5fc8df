package settings

import (
	"path/filepath"
	"testing"

	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) *cli.Context {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return &cli.Context{Store: store}
}

func ptr[T any](v T) *T { return &v }

func TestSettingsCmd_List(t *testing.T) {
	ctx := setupTestDB(t)
	if err := (&SettingsCmd{List: true}).Run(ctx); err != nil {
		t.Errorf("settings list failed: %v", err)
	}
}

func TestSettingsCmd_Update(t *testing.T) {
	ctx := setupTestDB(t)

	cmd := &SettingsCmd{
		APIURL:  ptr("https://coach.example.com/"),
		UserID:  ptr(" coach-7 "),
		IsAdmin: ptr(true),
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("settings update failed: %v", err)
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatal(err)
	}
	if settings.APIURL != "https://coach.example.com" {
		t.Errorf("APIURL = %q, want trailing slash trimmed", settings.APIURL)
	}
	if settings.UserID != "coach-7" || !settings.IsAdmin {
		t.Errorf("settings = %+v", settings)
	}

	if err := (&SettingsCmd{IsAdmin: ptr(false)}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	settings, _ = ctx.Store.GetSettings()
	if settings.IsAdmin || settings.UserID != "coach-7" {
		t.Errorf("partial update changed other fields: %+v", settings)
	}
}

func TestSettingsCmd_RejectsBadURL(t *testing.T) {
	ctx := setupTestDB(t)
	for _, raw := range []string{"coach.example.com", "ftp://coach.example.com", "https://"} {
		if err := (&SettingsCmd{APIURL: ptr(raw)}).Run(ctx); err == nil {
			t.Errorf("API URL %q should be rejected", raw)
		}
	}
}

func TestSettingsCmd_NoChanges(t *testing.T) {
	ctx := setupTestDB(t)
	if err := (&SettingsCmd{}).Run(ctx); err != nil {
		t.Errorf("settings without flags failed: %v", err)
	}
}
