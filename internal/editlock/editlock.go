// Package editlock keeps two callcoach processes on the same machine from
// editing one template draft at a time.
package editlock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/callcoach/internal/constants"
	"github.com/julianstephens/callcoach/internal/logger"
)

// ErrLocked matches every *LockedError.
var ErrLocked = errors.New("template is locked by another editor")

// lockGrace is how long an unreadable lockfile counts as held.
const lockGrace = 5 * time.Second

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
	nowFunc         = time.Now
)

// LockedError reports a live lock held by another process.
type LockedError struct {
	Key   string
	PID   int
	Since time.Time
}

func (e *LockedError) Error() string {
	if e.PID == 0 {
		return fmt.Sprintf("%q is being opened by another editor", e.Key)
	}
	return fmt.Sprintf("%q is being edited by process %d since %s", e.Key, e.PID, e.Since.Format(time.Kitchen))
}

func (e *LockedError) Unwrap() error { return ErrLocked }

func (e *LockedError) Hint() string {
	return "close the other editor or wait for it to exit"
}

// Lock is a held edit lock.
type Lock struct {
	Key  string
	path string
}

// Path returns the lockfile backing l.
func (l *Lock) Path() string { return l.path }

// Acquire takes the lock for key inside dir. A lockfile left by a process
// that is no longer running is replaced. An unreadable lockfile is replaced
// only once it is older than lockGrace.
func Acquire(dir, key string) (*Lock, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("lock key cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock dir: %w", err)
	}

	path := filepath.Join(dir, fileName(key))
	content := fmt.Sprintf("%d|%s", getpidFunc(), nowFunc().UTC().Format(time.RFC3339))

	for attempt := 0; attempt < 2; attempt++ {
		err := publish(dir, path, content)
		if err == nil {
			logger.Debug("edit lock acquired", "key", key, "path", path)
			return &Lock{Key: key, path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}

		holder, err := readHolder(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			continue
		case err != nil:
			if info, serr := os.Stat(path); serr == nil && nowFunc().Sub(info.ModTime()) < lockGrace {
				return nil, &LockedError{Key: key, Since: info.ModTime()}
			}
		case holder.pid == getpidFunc():
			return &Lock{Key: key, path: path}, nil
		case holderAlive(holder.pid):
			return nil, &LockedError{Key: key, PID: holder.pid, Since: holder.since}
		}

		logger.Info("replacing stale edit lock", "key", key, "path", path)
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale lockfile: %w", rmErr)
		}
	}
	return nil, fmt.Errorf("could not acquire edit lock for %q", key)
}

// publish writes content to a temporary file and links it into place, so path
// never exists without its contents. It fails with os.ErrExist when path is
// already taken.
func publish(dir, path, content string) error {
	tmp, err := os.CreateTemp(dir, ".pending-*")
	if err != nil {
		return fmt.Errorf("failed to create lockfile: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, werr := tmp.WriteString(content)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		return fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
	}
	if err := os.Link(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to create lockfile: %w", err)
	}
	return nil
}

// Release removes the lockfile. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to release edit lock: %w", err)
	}
	logger.Debug("edit lock released", "key", l.Key)
	return nil
}

type holder struct {
	pid   int
	since time.Time
}

func readHolder(path string) (holder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return holder{}, err
	}
	parts := strings.Split(strings.TrimSpace(string(data)), "|")
	if len(parts) != 2 {
		return holder{}, errors.New("lockfile is malformed")
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return holder{}, errors.New("invalid process ID in lockfile")
	}
	since, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return holder{}, errors.New("invalid timestamp in lockfile")
	}
	return holder{pid: pid, since: since}, nil
}

func holderAlive(pid int) bool {
	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return false
	}
	return strings.HasPrefix(process.Executable(), constants.AppName)
}

// fileName keeps the key readable and appends a digest so keys that sanitize
// to the same text still get distinct files.
func fileName(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	sum := sha256.Sum256([]byte(key))
	return safe + "-" + hex.EncodeToString(sum[:6]) + constants.LockFileSuffix
}
