package editlock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-ps"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func stubProcesses(t *testing.T, pid int, find func(int) (ps.Process, error)) {
	t.Helper()
	oldFind, oldPid := findProcessFunc, getpidFunc
	t.Cleanup(func() { findProcessFunc, getpidFunc = oldFind, oldPid })
	findProcessFunc = find
	getpidFunc = func() int { return pid }
}

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()
	stubProcesses(t, 100, func(int) (ps.Process, error) { return nil, nil })

	lock, err := Acquire(dir, "tpl-42")
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if _, err := os.Stat(lock.Path()); err != nil {
		t.Fatalf("lockfile missing: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if _, err := os.Stat(lock.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("lockfile still present after Release: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release() error: %v", err)
	}
}

func TestAcquireHeldByLiveProcess(t *testing.T) {
	dir := t.TempDir()
	stubProcesses(t, 100, func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: "callcoach"}, nil
	})
	if _, err := Acquire(dir, "tpl-1"); err != nil {
		t.Fatalf("first Acquire() error: %v", err)
	}

	getpidFunc = func() int { return 200 }
	_, err := Acquire(dir, "tpl-1")
	var locked *LockedError
	if !errors.As(err, &locked) {
		t.Fatalf("Acquire() error = %v, want *LockedError", err)
	}
	if locked.PID != 100 {
		t.Errorf("LockedError.PID = %d, want 100", locked.PID)
	}
	if !errors.Is(err, ErrLocked) {
		t.Error("LockedError should match ErrLocked")
	}
}

func TestAcquireReplacesStaleLock(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		find func(int) (ps.Process, error)
	}{
		{"process gone", func(int) (ps.Process, error) { return nil, nil }},
		{"pid reused by another program", func(pid int) (ps.Process, error) {
			return &mockProcess{pid: pid, executable: "vim"}, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, fileName("tpl-9"))
			stamp := time.Now().UTC().Format(time.RFC3339)
			if err := os.WriteFile(path, []byte("4242|"+stamp), 0o600); err != nil {
				t.Fatal(err)
			}
			stubProcesses(t, 7, tt.find)

			lock, err := Acquire(dir, "tpl-9")
			if err != nil {
				t.Fatalf("Acquire() error: %v", err)
			}
			defer lock.Release()

			h, err := readHolder(path)
			if err != nil || h.pid != 7 {
				t.Errorf("holder = %+v, %v; want pid 7", h, err)
			}
		})
	}
}

func TestAcquireMalformedLock(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		content string
		held    bool
	}{
		{"old garbage is stale", time.Minute, "garbage", false},
		{"old empty file is stale", time.Minute, "", false},
		{"empty file being written is held", 0, "", true},
		{"fresh garbage is held", time.Second, "garbage", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			stubProcesses(t, 5, func(int) (ps.Process, error) { return nil, nil })
			path := filepath.Join(dir, fileName("new"))
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			stamp := time.Now().Add(-tt.age)
			if err := os.Chtimes(path, stamp, stamp); err != nil {
				t.Fatal(err)
			}

			lock, err := Acquire(dir, "new")
			if !tt.held {
				if err != nil {
					t.Fatalf("Acquire() over stale lock error: %v", err)
				}
				if h, err := readHolder(lock.Path()); err != nil || h.pid != 5 {
					t.Errorf("holder = %+v, %v; want pid 5", h, err)
				}
				return
			}
			var locked *LockedError
			if !errors.As(err, &locked) || locked.PID != 0 {
				t.Fatalf("Acquire() error = %v, want *LockedError without a pid", err)
			}
			if data, _ := os.ReadFile(path); string(data) != tt.content {
				t.Errorf("lockfile rewritten to %q", data)
			}
		})
	}
}

func TestAcquireLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	stubProcesses(t, 100, func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: "callcoach"}, nil
	})
	if _, err := Acquire(dir, "tpl-1"); err != nil {
		t.Fatal(err)
	}
	getpidFunc = func() int { return 200 }
	if _, err := Acquire(dir, "tpl-1"); !errors.Is(err, ErrLocked) {
		t.Fatalf("Acquire() error = %v, want ErrLocked", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != fileName("tpl-1") {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("lock dir = %v, want only the lockfile", names)
	}
}

func TestAcquireOwnLockIsReentrant(t *testing.T) {
	dir := t.TempDir()
	stubProcesses(t, 11, func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: "callcoach"}, nil
	})
	if _, err := Acquire(dir, "tpl-2"); err != nil {
		t.Fatal(err)
	}
	if _, err := Acquire(dir, "tpl-2"); err != nil {
		t.Errorf("re-acquire by owner error: %v", err)
	}
}

func TestFileName(t *testing.T) {
	got := fileName("tmp-ab/../c d")
	if !strings.HasPrefix(got, "tmp-ab____c_d-") || filepath.Ext(got) != ".lock" || strings.ContainsAny(got, "/ ") {
		t.Errorf("fileName() = %q", got)
	}
	if fileName("a.b") == fileName("a_b") {
		t.Error("keys that sanitize alike must map to distinct files")
	}
	if fileName("tpl-1") != fileName("tpl-1") {
		t.Error("fileName must be stable")
	}
}

func TestAcquireRejectsEmptyKey(t *testing.T) {
	if _, err := Acquire(t.TempDir(), " "); err == nil {
		t.Error("Acquire() with blank key should fail")
	}
}
