package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const maxFolderNameLength = 50

var (
	ErrEmptyFolder  = errors.New("storage: folder is required")
	ErrOutsideRoot  = errors.New("storage: path escapes upload root")
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// FileStore persists attachment bytes. Delete and RemoveFolder treat a missing
// target as success.
type FileStore interface {
	Store(folder, desiredName string, data []byte) (string, error)
	Exists(path string) bool
	Delete(path string) error
	RemoveFolder(folder string) error
}

// SanitizeName keeps [A-Za-z0-9_-], replaces everything else with '_' and
// truncates the result to 50 characters.
func SanitizeName(name string) string {
	cleaned := unsafeNameChars.ReplaceAllString(name, "_")
	if len(cleaned) > maxFolderNameLength {
		cleaned = cleaned[:maxFolderNameLength]
	}
	return cleaned
}

// TaskFolder is the upload folder of a task at the time of upload.
func TaskFolder(taskID uint, title string) string {
	return fmt.Sprintf("%d_%s", taskID, SanitizeName(title))
}

type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("storage: upload root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", abs, err)
	}
	return &LocalStore{root: abs}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

// Store writes data under folder without overwriting existing files: a taken
// name becomes base_01.ext, base_02.ext and so on.
func (s *LocalStore) Store(folder, desiredName string, data []byte) (string, error) {
	dir, err := s.folderPath(folder)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create folder %s: %w", folder, err)
	}

	name := baseName(desiredName)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for counter := 1; ; counter++ {
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			candidate = fmt.Sprintf("%s_%02d%s", stem, counter, ext)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("storage: create %s: %w", path, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("storage: write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("storage: close %s: %w", path, err)
		}
		return path, nil
	}
}

func (s *LocalStore) Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func (s *LocalStore) Delete(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

func (s *LocalStore) RemoveFolder(folder string) error {
	dir, err := s.folderPath(folder)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("storage: remove folder %s: %w", folder, err)
	}
	return nil
}

// Health reports whether the upload root is still a writable directory.
func (s *LocalStore) Health() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("storage: stat %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: %s is not a directory", s.root)
	}
	probe, err := os.CreateTemp(s.root, ".health-*")
	if err != nil {
		return fmt.Errorf("storage: %s is not writable: %w", s.root, err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

func (s *LocalStore) folderPath(folder string) (string, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return "", ErrEmptyFolder
	}
	dir := filepath.Join(s.root, folder)
	rel, err := filepath.Rel(s.root, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrOutsideRoot
	}
	return dir, nil
}

// baseName strips any directory part a client may have sent.
func baseName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}
