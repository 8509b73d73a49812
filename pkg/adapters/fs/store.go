package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/studynotes/pkg/core"
	"github.com/aretw0/studynotes/pkg/git"
)

// DefaultSystemDir is the hidden directory holding the store index and lock file.
const DefaultSystemDir = ".studynotes"

// Store implements core.Store on the filesystem: one file per record key,
// written atomically, optionally versioned with Git.
type Store struct {
	Path   string
	git    *git.Client
	index  *index
	config Config

	mu            sync.RWMutex
	watcherActive bool
	lastWrite     *time.Time
	lastReconcile *time.Time
}

// Config holds the configuration for the filesystem store.
type Config struct {
	Path         string
	SystemDir    string // e.g. ".studynotes"
	Format       string // file extension without dot: "json" (default) or "yaml"
	Versioning   bool   // commit every write with git
	AutoInit     bool   // create the directory (and git repo) when missing
	MustExist    bool
	ReadOnly     bool
	Logger       *slog.Logger
	ErrorHandler func(error) // receives watcher failures
}

// NewStore creates a new filesystem-backed store.
func NewStore(config Config) *Store {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Format == "" {
		config.Format = "json"
	}
	return &Store{
		Path:   config.Path,
		git:    git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config: config,
		index:  newIndex(config.Path, config.SystemDir),
	}
}

// Initialize prepares the vault directory and, when versioning, the git repository.
func (s *Store) Initialize(ctx context.Context) error {
	// 1. Directory
	if s.config.MustExist || s.config.ReadOnly {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("vault path does not exist: %s", s.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat vault: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", s.Path)
		}
	} else {
		if err := os.MkdirAll(s.Path, 0755); err != nil {
			return fmt.Errorf("failed to create vault directory: %w", err)
		}
	}

	if s.config.ReadOnly {
		return nil
	}

	if err := os.MkdirAll(filepath.Join(s.Path, s.config.SystemDir), 0755); err != nil {
		return fmt.Errorf("failed to create system directory: %w", err)
	}

	if err := s.index.Load(); err != nil {
		s.logger().Warn("index unreadable, starting fresh", "error", err)
	}

	// 2. Git
	if !s.config.Versioning {
		return nil
	}
	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !s.git.IsRepo() {
		if !s.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", s.Path)
		}
		if err := s.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := s.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}

	if mod && wasNewRepo {
		if err := s.git.Add(".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := s.git.Commit(git.FormatCommitMessage(git.CommitTypeChore, "", fmt.Sprintf("configure %s ignore", s.config.SystemDir), "")); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}

	return nil
}

func (s *Store) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(s.Path, ".gitignore")
	ignoreEntry := s.config.SystemDir + "/"

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == ignoreEntry {
			return false, nil
		}
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(ignoreEntry + "\n"); err != nil {
		return false, err
	}

	// Lock files live next to the vault root, not inside the system dir.
	if _, err := f.WriteString(s.config.SystemDir + ".lock\n"); err != nil {
		return false, err
	}

	return true, nil
}

// filename maps a record key to its file name, e.g. "studynotes-notes.json".
func (s *Store) filename(key string) string {
	return key + "." + s.config.Format
}

// keyFor maps a file name back to a record key. ok is false for foreign files.
func (s *Store) keyFor(name string) (string, bool) {
	ext := "." + s.config.Format
	if !strings.HasSuffix(name, ext) || strings.HasPrefix(name, TempFilePrefix) {
		return "", false
	}
	key := strings.TrimSuffix(name, ext)
	if key == "" || strings.ContainsAny(key, `/\`) {
		return "", false
	}
	return key, true
}

func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("record key is empty")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid record key %q", key)
	}
	return nil
}

// Get reads the record file for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.Path, s.filename(key)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put writes the record file atomically and, when versioning, commits it.
//
// Workflow:
//  1. Validate the key and reject writes in read-only mode.
//  2. Write to a temp file and rename over the target.
//  3. Record the new mtime in the index so the watcher can skip our own writes.
//  4. (If versioning) 'git add' and 'git commit' with the change reason from ctx.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := validKey(key); err != nil {
		return err
	}

	filename := s.filename(key)
	fullPath := filepath.Join(s.Path, filename)

	if err := writeFileAtomic(fullPath, value, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if info, err := os.Stat(fullPath); err == nil {
		s.index.Set(key, &indexEntry{Key: key, Size: info.Size(), LastModified: info.ModTime()})
		if err := s.index.Save(); err != nil {
			s.logger().Debug("index save failed", "error", err)
		}
	}
	s.recordWrite()

	if !s.config.Versioning {
		return nil
	}

	unlock, err := s.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := s.git.Add(filename); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}

	msg := git.FormatCommitMessage(git.CommitTypeDocs, "notes", "update "+key, "")
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = git.AppendFooter(val)
	}

	clean, err := s.git.IsClean()
	if err != nil {
		return fmt.Errorf("failed to read git status: %w", err)
	}
	if clean {
		// Identical content, nothing to commit.
		return nil
	}

	if err := s.git.Commit(msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// Delete removes the record file. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := validKey(key); err != nil {
		return err
	}

	filename := s.filename(key)
	fullPath := filepath.Join(s.Path, filename)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}

	// Forget the key first so the watcher treats the removal as ours.
	s.index.Delete(key)
	_ = s.index.Save()

	if !s.config.Versioning {
		if err := os.Remove(fullPath); err != nil {
			return fmt.Errorf("failed to remove file: %w", err)
		}
		return nil
	}

	unlock, err := s.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := s.git.Rm(filename); err != nil {
		return fmt.Errorf("failed to git rm: %w", err)
	}
	if err := s.git.Commit(git.FormatCommitMessage(git.CommitTypeDocs, "notes", "delete "+key, "")); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// Keys lists the record keys present in the vault, sorted.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if key, ok := s.keyFor(e.Name()); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) logger() *slog.Logger {
	if s.config.Logger != nil {
		return s.config.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (s *Store) recordWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastWrite = &now
}

var _ core.Store = (*Store)(nil)
var _ core.Deleter = (*Store)(nil)
var _ core.Lister = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)
