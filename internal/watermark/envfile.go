package watermark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"pun_archiver/internal/domain"
)

const (
	KeyLastSeenID  = "LAST_SEEN_TWEET_ID"
	KeyLastRunDate = "LAST_RUN_DATE"

	// RunDateLayout is how LAST_RUN_DATE is written, MM/DD/YYYY.
	RunDateLayout = "01/02/2006"
)

// EnvFileStore keeps the watermark as two keys in a dotenv file, next to
// whatever else the file holds. Saves touch only the watermark lines and
// replace the file through a temporary file and a rename.
type EnvFileStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

func NewEnvFileStore(path string, logger *slog.Logger) *EnvFileStore {
	return &EnvFileStore{
		path:   path,
		logger: logger.With("watermark", "env", "path", path),
	}
}

func (s *EnvFileStore) Load(_ context.Context) (*domain.Watermark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.read()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrConfig, s.path, err)
	}

	id := unquote(env[KeyLastSeenID])
	if err := validateID(id); err != nil {
		return nil, malformed("%s: %v", KeyLastSeenID, err)
	}

	date, err := parseDate(unquote(env[KeyLastRunDate]), RunDateLayout)
	if err != nil {
		return nil, malformed("%s: %v", KeyLastRunDate, err)
	}

	return &domain.Watermark{LastSeenID: id, LastRunDate: date}, nil
}

func (s *EnvFileStore) SaveLastSeenID(_ context.Context, id string) error {
	id = unquote(id)
	if err := validateID(id); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersist, err)
	}
	if err := s.set(KeyLastSeenID, id); err != nil {
		return err
	}
	s.logger.Info("saved last seen tweet ID", "id", id)
	return nil
}

func (s *EnvFileStore) SaveLastRunDate(_ context.Context, date time.Time) error {
	value := date.Format(RunDateLayout)
	if err := s.set(KeyLastRunDate, value); err != nil {
		return err
	}
	s.logger.Info("saved last run date", "date", value)
	return nil
}

func (s *EnvFileStore) read() (map[string]string, error) {
	env, err := godotenv.Read(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	return env, err
}

// set rewrites only the lines assigning key, appending one if there is
// none. Every other line is written back unchanged.
func (s *EnvFileStore) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: read %s: %v", domain.ErrPersist, s.path, err)
	}

	content := setLine(current, key, value)

	env, err := godotenv.Parse(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", domain.ErrPersist, s.path, err)
	}
	if env[key] != value {
		return fmt.Errorf("%w: encode %s: %s reads back as %q", domain.ErrPersist, s.path, key, env[key])
	}

	if err := s.replace(content); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrPersist, s.path, err)
	}
	return nil
}

func setLine(content []byte, key, value string) []byte {
	assignment := key + "=" + value

	lines := strings.Split(string(content), "\n")
	found := false
	for i, line := range lines {
		if lineKey(line) == key {
			lines[i] = assignment
			found = true
		}
	}
	if found {
		return []byte(strings.Join(lines, "\n"))
	}

	out := string(content)
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return []byte(out + assignment + "\n")
}

// lineKey returns the variable a dotenv line assigns, or "" for blank
// lines and comments.
func lineKey(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}
	line = strings.TrimPrefix(line, "export ")
	name, _, ok := strings.Cut(line, "=")
	if !ok {
		name, _, ok = strings.Cut(line, ":")
	}
	if !ok {
		return ""
	}
	return strings.TrimSpace(name)
}

func (s *EnvFileStore) replace(content []byte) error {
	mode := fs.FileMode(0o600)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".env-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}
