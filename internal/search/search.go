package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultTool     ResultType = "tool"
	ResultDocument ResultType = "document"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type      ResultType `json:"type"`
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Snippet   string     `json:"snippet"`
	Category  string     `json:"category,omitempty"`
	IsPro     bool       `json:"isPro,omitempty"`
	ProjectID string     `json:"projectId,omitempty"`
}

// Query describes a search request. OwnerID scopes document hits to the
// caller; tool hits come from the shared catalog and ignore it.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	OwnerID    string
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// ToolRecord is the data we index for a catalog tool. QuestionText
// folds the question labels in so a search for "audience" surfaces the
// tools that ask about one.
type ToolRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	QuestionText string `json:"questionText"`
	IsPro        bool   `json:"isPro"`
}

// DocumentRecord is the data we index for a generated document.
type DocumentRecord struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	OwnerID   string `json:"ownerId"`
	ProjectID string `json:"projectId"`
}
