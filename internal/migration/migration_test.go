package migration

import (
	"database/sql"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/callcoach/migrations"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestApplyEmbeddedSQLiteMigrations(t *testing.T) {
	db := openDB(t)
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(db, sub, SQLite)

	n, err := r.Apply()
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if n < 1 {
		t.Fatalf("Apply() applied %d migrations", n)
	}
	st, err := r.Status()
	if err != nil || !st.UpToDate() {
		t.Errorf("Status() = %+v, %v", st, err)
	}

	if n, err := r.Apply(); err != nil || n != 0 {
		t.Errorf("second Apply() = %d, %v; want 0, nil", n, err)
	}
	if _, err := db.Exec("INSERT INTO drafts (id, name, payload, updated_at) VALUES ('d', 'n', x'00', 't')"); err != nil {
		t.Errorf("drafts table missing: %v", err)
	}
}

func TestReadMigrations(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		want    []int
		wantErr bool
	}{
		{
			name: "sorted",
			files: fstest.MapFS{
				"002_b.sql": {Data: []byte("SELECT 1")},
				"001_a.sql": {Data: []byte("SELECT 1")},
				"README.md": {Data: []byte("ignored")},
				"010_c.sql": {Data: []byte("SELECT 1")},
			},
			want: []int{1, 2, 10},
		},
		{name: "duplicate", files: fstest.MapFS{"001_a.sql": {}, "1_b.sql": {}}, wantErr: true},
		{name: "no underscore", files: fstest.MapFS{"001.sql": {}}, wantErr: true},
		{name: "zero version", files: fstest.MapFS{"000_a.sql": {}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewRunner(nil, tt.files, SQLite).ReadMigrations()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadMigrations() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			var versions []int
			for _, m := range got {
				versions = append(versions, m.Version)
			}
			if len(versions) != len(tt.want) {
				t.Fatalf("versions = %v, want %v", versions, tt.want)
			}
			for i := range versions {
				if versions[i] != tt.want[i] {
					t.Errorf("versions = %v, want %v", versions, tt.want)
				}
			}
			if got[0].Name != "a" {
				t.Errorf("name = %q, want a", got[0].Name)
			}
		})
	}
}

func TestStatusRejectsNewerDatabase(t *testing.T) {
	db := openDB(t)
	r := NewRunner(db, fstest.MapFS{"001_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER)")}}, SQLite)
	if err := r.EnsureSchemaVersionTable(); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (5)"); err != nil {
		t.Fatal(err)
	}
	if err := r.Validate(); err == nil {
		t.Error("Validate() should fail for a newer schema")
	}
}

func TestFailedMigrationRollsBack(t *testing.T) {
	db := openDB(t)
	r := NewRunner(db, fstest.MapFS{
		"001_ok.sql": {Data: []byte("CREATE TABLE ok (id INTEGER)")},
		"002_bad.sql": {Data: []byte("CREATE TABLE nope (")},
	}, SQLite)

	n, err := r.Apply()
	if err == nil || n != 1 {
		t.Fatalf("Apply() = %d, %v; want 1 and an error", n, err)
	}
	v, err := r.CurrentVersion()
	if err != nil || v != 1 {
		t.Errorf("CurrentVersion() = %d, %v; want 1", v, err)
	}
}

func TestDialect(t *testing.T) {
	if Postgres.placeholder() != "$1" || SQLite.placeholder() != "?" {
		t.Error("unexpected placeholders")
	}
	if Postgres.String() != "postgres" {
		t.Errorf("String() = %q", Postgres.String())
	}
}
