package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	"artemo/api/internal/search"
	"artemo/api/internal/store"
)

// Loader is the primary catalog source, implemented by the Postgres store.
type Loader interface {
	ListCategories(ctx context.Context) ([]store.Category, error)
	ListTools(ctx context.Context, categoryID string, includeUnpublished bool) ([]store.Tool, error)
	ListAllToolQuestions(ctx context.Context) ([]store.ToolQuestion, error)
}

// Service resolves the catalog through its tiers. Reloads are
// single-flighted behind the mutex: concurrent requests during a reload
// wait for the first one rather than piling onto Postgres.
type Service struct {
	loader    Loader
	snapshots *SnapshotStore // nil when Redis is not configured
	ttl       time.Duration

	mu       sync.Mutex
	cached   *Bundle
	loadedAt time.Time
	stale    bool
}

func NewService(loader Loader, snapshots *SnapshotStore, ttl time.Duration) *Service {
	return &Service{
		loader:    loader,
		snapshots: snapshots,
		ttl:       ttl,
	}
}

// Catalog returns the current bundle. A fresh in-memory copy is served
// as-is; otherwise Postgres is consulted, then the Redis snapshot, then
// the embedded default. A copy loaded from a colder tier is flagged
// stale so every subsequent request retries Postgres until it recovers.
func (s *Service) Catalog(ctx context.Context) (Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && !s.stale && time.Since(s.loadedAt) < s.ttl {
		return *s.cached, nil
	}

	bundle, err := s.loadFromStore(ctx)
	if err == nil {
		s.remember(bundle, false)
		s.writeSnapshot(ctx, bundle)
		return bundle, nil
	}
	log.Printf("catalog: primary load failed: %v", err)

	// Serving what we already have beats dropping to a colder tier.
	if s.cached != nil {
		return *s.cached, nil
	}

	if s.snapshots != nil {
		snapshot, snapErr := s.snapshots.Load(ctx)
		if snapErr != nil {
			log.Printf("catalog: snapshot load failed: %v", snapErr)
		} else if snapshot != nil {
			log.Printf("catalog: serving redis snapshot")
			s.remember(*snapshot, true)
			return *snapshot, nil
		}
	}

	embedded, embErr := embeddedBundle()
	if embErr != nil {
		return Bundle{}, err
	}
	log.Printf("catalog: serving embedded default bundle")
	s.remember(embedded, true)
	return embedded, nil
}

// Tool finds a published tool by ID or slug.
func (s *Service) Tool(ctx context.Context, idOrSlug string) (Tool, bool, error) {
	bundle, err := s.Catalog(ctx)
	if err != nil {
		return Tool{}, false, err
	}
	for _, tool := range bundle.Tools {
		if tool.ID == idOrSlug || tool.Slug == idOrSlug {
			return tool, true, nil
		}
	}
	return Tool{}, false, nil
}

// Invalidate drops the in-memory copy so the next read reloads. Admin
// catalog writes call this after committing.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.loadedAt = time.Time{}
	s.stale = false
}

// SearchDocuments flattens the current catalog into search records.
func (s *Service) SearchDocuments(ctx context.Context) ([]search.ToolRecord, error) {
	bundle, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]search.ToolRecord, 0, len(bundle.Tools))
	for _, tool := range bundle.Tools {
		records = append(records, ToolSearchRecord(tool))
	}
	return records, nil
}

func (s *Service) remember(bundle Bundle, stale bool) {
	s.cached = &bundle
	s.loadedAt = time.Now()
	s.stale = stale
}

func (s *Service) writeSnapshot(ctx context.Context, bundle Bundle) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, bundle); err != nil {
		log.Printf("catalog: snapshot write failed: %v", err)
	}
}

func (s *Service) loadFromStore(ctx context.Context) (Bundle, error) {
	categories, err := s.loader.ListCategories(ctx)
	if err != nil {
		return Bundle{}, err
	}
	tools, err := s.loader.ListTools(ctx, "", false)
	if err != nil {
		return Bundle{}, err
	}
	questions, err := s.loader.ListAllToolQuestions(ctx)
	if err != nil {
		return Bundle{}, err
	}

	byTool := make(map[string][]Question, len(tools))
	for _, q := range questions {
		byTool[q.ToolID] = append(byTool[q.ToolID], fromStoreQuestion(q))
	}

	bundle := Bundle{
		Categories: make([]Category, 0, len(categories)),
		Tools:      make([]Tool, 0, len(tools)),
	}
	for _, c := range categories {
		bundle.Categories = append(bundle.Categories, fromStoreCategory(c))
	}
	for _, t := range tools {
		tool := fromStoreTool(t)
		tool.Questions = byTool[t.ID]
		if tool.Questions == nil {
			tool.Questions = []Question{}
		}
		bundle.Tools = append(bundle.Tools, tool)
	}
	return bundle, nil
}
