// Package catalog serves the tool catalog through a chain of tiers: an
// in-memory copy refreshed on a TTL, Postgres as the source of truth, a
// Redis snapshot for when Postgres is unreachable, and an embedded
// default bundle as the last resort. Dashboards keep rendering through
// database outages; they just see the newest copy we can still get.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"artemo/api/internal/search"
	"artemo/api/internal/store"
)

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

type Question struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder,omitempty"`
	FieldKey    string `json:"fieldKey,omitempty"`
	SortOrder   int    `json:"sortOrder"`
}

type Tool struct {
	ID             string     `json:"id"`
	CategoryID     string     `json:"categoryId"`
	Slug           string     `json:"slug"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	PromptTemplate string     `json:"promptTemplate"`
	Model          string     `json:"model"`
	IsPro          bool       `json:"isPro"`
	IsPublished    bool       `json:"isPublished"`
	Questions      []Question `json:"questions"`
}

// Bundle is one complete, serializable copy of the published catalog.
type Bundle struct {
	Categories []Category `json:"categories"`
	Tools      []Tool     `json:"tools"`
}

// ToolSearchRecord flattens a tool into the shape the search index
// wants, folding question labels into one searchable blob.
func ToolSearchRecord(tool Tool) search.ToolRecord {
	labels := make([]string, 0, len(tool.Questions))
	for _, q := range tool.Questions {
		labels = append(labels, q.Label)
	}
	return search.ToolRecord{
		ID:           tool.ID,
		Name:         tool.Name,
		Description:  tool.Description,
		Category:     tool.CategoryID,
		QuestionText: strings.Join(labels, " "),
		IsPro:        tool.IsPro,
	}
}

func fromStoreCategory(c store.Category) Category {
	return Category{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		SortOrder:   c.SortOrder,
	}
}

func fromStoreTool(t store.Tool) Tool {
	return Tool{
		ID:             t.ID,
		CategoryID:     t.CategoryID,
		Slug:           t.Slug,
		Name:           t.Name,
		Description:    t.Description,
		PromptTemplate: t.PromptTemplate,
		Model:          t.Model,
		IsPro:          t.IsPro,
		IsPublished:    t.IsPublished,
	}
}

func fromStoreQuestion(q store.ToolQuestion) Question {
	return Question{
		ID:          q.ID,
		Label:       q.Label,
		Placeholder: q.Placeholder,
		FieldKey:    q.FieldKey,
		SortOrder:   q.SortOrder,
	}
}

//go:embed bundle.json
var defaultBundleRaw []byte

var (
	defaultBundleOnce sync.Once
	defaultBundle     Bundle
	defaultBundleErr  error
)

func embeddedBundle() (Bundle, error) {
	defaultBundleOnce.Do(func() {
		defaultBundleErr = json.Unmarshal(defaultBundleRaw, &defaultBundle)
	})
	if defaultBundleErr != nil {
		return Bundle{}, fmt.Errorf("decode embedded bundle: %w", defaultBundleErr)
	}
	return defaultBundle, nil
}
