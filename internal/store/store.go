// Package store persists projects as YAML snapshots. Loading is all or
// nothing: a file either yields a project that passes both the schema and the
// timeline invariants, or an error.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/nle/internal/project"
	"github.com/ivlev/nle/internal/system"
)

// ProjectExts are the file extensions FindLatestProject considers.
var ProjectExts = []string{".yaml", ".yml"}

// ErrInvalid wraps every schema or invariant failure reported by Load.
var ErrInvalid = errors.New("invalid project snapshot")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Swappable in tests.
var (
	renameFunc = os.Rename
	now        = time.Now
)

// Save writes p to path atomically: a temporary file in the same directory
// is synced and renamed over the target.
func Save(p project.Project, path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(FromProject(p)); err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

func writeFileAtomic(path string, data []byte) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := renameFunc(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Load reads and validates the project at path. Unknown YAML fields are
// rejected. Validation failures wrap ErrInvalid.
func Load(path string) (project.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return project.Project{}, err
	}

	var s Snapshot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return project.Project{}, fmt.Errorf("%w: decode %s: %v", ErrInvalid, path, err)
	}
	if err := validate.Struct(s); err != nil {
		return project.Project{}, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}

	p := s.Project()
	if err := project.Validate(p); err != nil {
		return project.Project{}, fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
	}
	return p, nil
}

// LoadOrDefault returns the project at path, or project.Default() when the
// file is missing or invalid. The failure is logged, never returned.
func LoadOrDefault(log *logrus.Entry, path string) project.Project {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if path == "" {
		return project.Default()
	}
	p, err := Load(path)
	if err != nil {
		level := logrus.WarnLevel
		if errors.Is(err, os.ErrNotExist) {
			level = logrus.InfoLevel
		}
		log.WithError(err).WithField("path", path).Log(level, "[!] Проект не загружен, создан пустой проект")
		return project.Default()
	}
	return p
}

// GenerateProjectPath returns a timestamped file name in dir.
func GenerateProjectPath(dir string) string {
	timestamp := now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("project_%s.yaml", timestamp))
}

// FindLatestProject returns the most recently modified project file in dir.
func FindLatestProject(dir string) (string, error) {
	return system.FindLatestFile(dir, ProjectExts...)
}
