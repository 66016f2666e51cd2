// Package toolgit keeps an append-only history of tool definitions.
// Every tool gets its own bare-bones git repository under the base
// directory with a single main branch and one tracked file, tool.json.
// Admin edits commit a new revision; the version endpoints read the log
// back without any extra bookkeeping tables.
package toolgit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"artemo/api/internal/store"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const definitionFile = "tool.json"

// DefinitionQuestion is one question of a versioned tool definition.
type DefinitionQuestion struct {
	Label       string `json:"label"`
	Placeholder string `json:"placeholder,omitempty"`
	FieldKey    string `json:"fieldKey,omitempty"`
	SortOrder   int    `json:"sortOrder"`
}

// Definition is the canonical on-disk form of a tool: everything the
// catalog serves for it, flattened into one reviewable JSON file.
type Definition struct {
	ID             string               `json:"id"`
	CategoryID     string               `json:"categoryId"`
	Slug           string               `json:"slug"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	PromptTemplate string               `json:"promptTemplate"`
	Model          string               `json:"model"`
	IsPro          bool                 `json:"isPro"`
	IsPublished    bool                 `json:"isPublished"`
	Questions      []DefinitionQuestion `json:"questions"`
}

type Service struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// EnsureToolRepo initializes the repository for a tool with a baseline
// commit of def. Calling it for an existing repo is a no-op.
func (s *Service) EnsureToolRepo(toolID string, def Definition, author string) error {
	lock := s.toolLock(toolID)
	lock.Lock()
	defer lock.Unlock()

	path := s.repoPath(toolID)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat repo path: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create repo dir: %w", err)
	}

	repo, err := git.PlainInit(path, false)
	if err != nil {
		return fmt.Errorf("init repo: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := writeDefinitionFile(path, def); err != nil {
		return err
	}
	if _, err := worktree.Add(definitionFile); err != nil {
		return fmt.Errorf("git add definition: %w", err)
	}
	hash, err := worktree.Commit("Create tool definition", &git.CommitOptions{
		Author: signature(author),
	})
	if err != nil {
		return fmt.Errorf("commit baseline definition: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)); err != nil {
		return fmt.Errorf("set main branch ref: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))); err != nil {
		return fmt.Errorf("set HEAD to main: %w", err)
	}
	return nil
}

// CommitDefinition records def as a new revision of the tool. A commit
// that would change nothing is not an error; the current head is
// returned instead so callers always get a version back.
func (s *Service) CommitDefinition(toolID string, def Definition, author, message string) (store.ToolVersion, error) {
	lock := s.toolLock(toolID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(toolID))
	if err != nil {
		return store.ToolVersion{}, fmt.Errorf("open repo: %w", err)
	}

	if err := checkoutMain(repo); err != nil {
		return store.ToolVersion{}, err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return store.ToolVersion{}, fmt.Errorf("open worktree: %w", err)
	}
	if err := writeDefinitionFile(worktree.Filesystem.Root(), def); err != nil {
		return store.ToolVersion{}, err
	}
	if _, err := worktree.Add(definitionFile); err != nil {
		return store.ToolVersion{}, fmt.Errorf("git add definition: %w", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: signature(author),
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return s.headVersion(repo)
		}
		return store.ToolVersion{}, fmt.Errorf("commit definition: %w", err)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return store.ToolVersion{}, fmt.Errorf("read commit object: %w", err)
	}
	return toVersion(commitObj), nil
}

// History lists the tool's revisions newest first, at most limit of
// them when limit is positive.
func (s *Service) History(toolID string, limit int) ([]store.ToolVersion, error) {
	lock := s.toolLock(toolID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(toolID))
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		return nil, fmt.Errorf("resolve main: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]store.ToolVersion, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toVersion(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// DefinitionAt reads the tool definition as of a revision. Both full
// and abbreviated hashes resolve.
func (s *Service) DefinitionAt(toolID, hash string) (Definition, error) {
	lock := s.toolLock(toolID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(toolID))
	if err != nil {
		return Definition{}, fmt.Errorf("open repo: %w", err)
	}

	resolvedHash, err := resolveHash(repo, hash)
	if err != nil {
		return Definition{}, err
	}
	commitObj, err := repo.CommitObject(resolvedHash)
	if err != nil {
		return Definition{}, fmt.Errorf("read commit %s: %w", hash, err)
	}
	return readDefinition(commitObj)
}

func (s *Service) repoPath(toolID string) string {
	return filepath.Join(s.baseDir, toolID)
}

func (s *Service) toolLock(toolID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[toolID]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	s.locks[toolID] = lock
	return lock
}

func (s *Service) headVersion(repo *git.Repository) (store.ToolVersion, error) {
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		return store.ToolVersion{}, fmt.Errorf("resolve main: %w", err)
	}
	commitObj, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return store.ToolVersion{}, fmt.Errorf("read head commit: %w", err)
	}
	return toVersion(commitObj), nil
}

func checkoutMain(repo *git.Repository) error {
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("main"), Force: true}); err != nil {
		return fmt.Errorf("checkout main: %w", err)
	}
	return nil
}

func writeDefinitionFile(dir string, def Definition) error {
	payload, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal definition: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, definitionFile), append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write definition: %w", err)
	}
	return nil
}

func readDefinition(commitObj *object.Commit) (Definition, error) {
	file, err := commitObj.File(definitionFile)
	if err != nil {
		return Definition{}, fmt.Errorf("load %s from commit: %w", definitionFile, err)
	}
	reader, err := file.Reader()
	if err != nil {
		return Definition{}, fmt.Errorf("open definition reader: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return Definition{}, fmt.Errorf("read definition bytes: %w", err)
	}

	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return Definition{}, fmt.Errorf("decode definition: %w", err)
	}
	return def, nil
}

func signature(author string) *object.Signature {
	return &object.Signature{
		Name:  author,
		Email: fmt.Sprintf("%s@tools.artemo.dev", sanitizeEmail(author)),
		When:  time.Now(),
	}
}

func toVersion(commitObj *object.Commit) store.ToolVersion {
	return store.ToolVersion{
		Hash:      commitObj.Hash.String()[:7],
		Message:   commitObj.Message,
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

func sanitizeEmail(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			out = append(out, '.')
		}
	}
	if len(out) == 0 {
		return "admin"
	}
	return string(out)
}

func resolveHash(repo *git.Repository, hash string) (plumbing.Hash, error) {
	if len(hash) == 40 {
		return plumbing.NewHash(hash), nil
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve hash %s: %w", hash, err)
	}
	return *resolved, nil
}
