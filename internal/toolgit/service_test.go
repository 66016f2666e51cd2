package toolgit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleDefinition() Definition {
	return Definition{
		ID:             "tool-1",
		CategoryID:     "cat-1",
		Slug:           "sales-email",
		Name:           "Sales Email",
		Description:    "A persuasive single-send sales email.",
		PromptTemplate: "Write a persuasive sales email.",
		Model:          "anthropic",
		IsPublished:    true,
		Questions: []DefinitionQuestion{
			{Label: "Who is the audience?", FieldKey: "audience", SortOrder: 1},
			{Label: "What are you selling?", SortOrder: 2},
		},
	}
}

func TestToolRepoLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	initial := sampleDefinition()
	if err := svc.EnsureToolRepo("tool-1", initial, "Robin Admin"); err != nil {
		t.Fatalf("EnsureToolRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "tool-1")); err != nil {
		t.Fatalf("repo directory missing: %v", err)
	}

	updated := initial
	updated.PromptTemplate = "Write a persuasive sales email under 150 words."
	version, err := svc.CommitDefinition("tool-1", updated, "Robin Admin", "Tighten word limit")
	if err != nil {
		t.Fatalf("CommitDefinition() error = %v", err)
	}
	if version.Hash == "" {
		t.Fatal("expected commit hash")
	}
	if version.Author != "Robin Admin" {
		t.Errorf("version.Author = %q", version.Author)
	}

	history, err := svc.History("tool-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if !strings.Contains(history[0].Message, "Tighten word limit") {
		t.Errorf("newest entry = %q, want the update first", history[0].Message)
	}

	baseline, err := svc.DefinitionAt("tool-1", history[1].Hash)
	if err != nil {
		t.Fatalf("DefinitionAt() error = %v", err)
	}
	if baseline.PromptTemplate != initial.PromptTemplate {
		t.Errorf("baseline prompt = %q, want original", baseline.PromptTemplate)
	}
	if len(baseline.Questions) != 2 || baseline.Questions[0].FieldKey != "audience" {
		t.Errorf("baseline questions = %+v", baseline.Questions)
	}
}

func TestEnsureToolRepoIsIdempotent(t *testing.T) {
	svc := New(t.TempDir())

	def := sampleDefinition()
	if err := svc.EnsureToolRepo("tool-1", def, "Robin Admin"); err != nil {
		t.Fatalf("EnsureToolRepo() error = %v", err)
	}

	changed := def
	changed.Name = "Renamed"
	if err := svc.EnsureToolRepo("tool-1", changed, "Robin Admin"); err != nil {
		t.Fatalf("second EnsureToolRepo() error = %v", err)
	}

	history, err := svc.History("tool-1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1 baseline commit", len(history))
	}

	current, err := svc.DefinitionAt("tool-1", history[0].Hash)
	if err != nil {
		t.Fatalf("DefinitionAt() error = %v", err)
	}
	if current.Name != def.Name {
		t.Errorf("name = %q, want the original %q", current.Name, def.Name)
	}
}

func TestCommitDefinitionWithoutChangesReturnsHead(t *testing.T) {
	svc := New(t.TempDir())

	def := sampleDefinition()
	if err := svc.EnsureToolRepo("tool-1", def, "Robin Admin"); err != nil {
		t.Fatalf("EnsureToolRepo() error = %v", err)
	}

	version, err := svc.CommitDefinition("tool-1", def, "Robin Admin", "No-op save")
	if err != nil {
		t.Fatalf("CommitDefinition() error = %v", err)
	}
	if version.Hash == "" {
		t.Fatal("expected head version for unchanged definition")
	}

	history, err := svc.History("tool-1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1 (unchanged save must not add a revision)", len(history))
	}
	if history[0].Hash != version.Hash {
		t.Errorf("returned hash %q does not match head %q", version.Hash, history[0].Hash)
	}
}
