package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/callcoach/internal/apitest"
	"github.com/julianstephens/callcoach/internal/cli"
	"github.com/julianstephens/callcoach/internal/models"
	"github.com/julianstephens/callcoach/internal/storage/sqlite"
)

func setupTestContext(t *testing.T) (*cli.Context, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	store := sqlite.NewStore(dbPath)
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return &cli.Context{Store: store, ConfigDir: dir}, dbPath
}

func TestInitCmd_Success(t *testing.T) {
	ctx, dbPath := setupTestContext(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _ := setupTestContext(t)
	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("second init failed (should be idempotent): %v", err)
	}
}

func TestInitCmd_StoresIdentity(t *testing.T) {
	ctx, _ := setupTestContext(t)
	cmd := &InitCmd{APIURL: "https://coach.example.com", UserID: "coach-1", IsAdmin: true}
	if err := cmd.Run(ctx); err != nil {
		t.Fatal(err)
	}
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatal(err)
	}
	if settings.APIURL != "https://coach.example.com" || settings.UserID != "coach-1" || !settings.IsAdmin {
		t.Errorf("settings = %+v", settings)
	}
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	ctx, _ := setupTestContext(t)
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Store.SaveDraft(models.DraftRecord{ID: "d1", Name: "old", Payload: []byte("{}"), UpdatedAt: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatal(err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("force init failed: %v", err)
	}
	drafts, err := ctx.Store.GetAllDrafts()
	if err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 0 {
		t.Errorf("force init should start from an empty database, found %d drafts", len(drafts))
	}
}

func TestMigrateCmd(t *testing.T) {
	ctx, _ := setupTestContext(t)
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&MigrateCmd{Status: true}).Run(ctx); err != nil {
		t.Errorf("migrate --status failed: %v", err)
	}
	if err := (&MigrateCmd{}).Run(ctx); err != nil {
		t.Errorf("migrate on an up to date schema failed: %v", err)
	}
}

func TestDoctorCmd(t *testing.T) {
	gokeyring.MockInit()

	t.Run("healthy", func(t *testing.T) {
		ctx, _ := setupTestContext(t)
		if err := (&InitCmd{}).Run(ctx); err != nil {
			t.Fatal(err)
		}
		backend := apitest.New(t)
		ctx.APIURL = backend.URL()
		if err := (&DoctorCmd{Timeout: defaultTimeout}).Run(ctx); err != nil {
			t.Errorf("doctor failed on a healthy setup: %v", err)
		}
		if len(backend.CallsTo("GET", "/api/templates")) != 1 {
			t.Error("doctor should call the backend once")
		}
	})

	t.Run("uninitialized", func(t *testing.T) {
		ctx, _ := setupTestContext(t)
		if err := (&DoctorCmd{Offline: true}).Run(ctx); err == nil {
			t.Error("doctor should fail without a database")
		}
	})

	t.Run("corrupt draft", func(t *testing.T) {
		ctx, _ := setupTestContext(t)
		if err := (&InitCmd{}).Run(ctx); err != nil {
			t.Fatal(err)
		}
		if err := ctx.Store.SaveDraft(models.DraftRecord{ID: "bad", Name: "bad", Payload: []byte("nope"), UpdatedAt: "2026-01-01T00:00:00Z"}); err != nil {
			t.Fatal(err)
		}
		if err := (&DoctorCmd{Offline: true}).Run(ctx); err == nil {
			t.Error("doctor should report unreadable drafts")
		}
	})

	t.Run("backend down", func(t *testing.T) {
		ctx, _ := setupTestContext(t)
		if err := (&InitCmd{}).Run(ctx); err != nil {
			t.Fatal(err)
		}
		ctx.APIURL = "http://127.0.0.1:1"
		if err := (&DoctorCmd{Timeout: defaultTimeout}).Run(ctx); err == nil {
			t.Error("doctor should fail when the backend is unreachable")
		}
	})
}

const defaultTimeout = 5 * time.Second
