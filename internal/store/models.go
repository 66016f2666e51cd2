package store

import "time"

type Profile struct {
	ID              string
	Email           string
	FullName        string
	Role            string
	IsActive        bool
	Metadata        map[string]any
	StatusUpdatedBy *string
	StatusUpdatedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Tool struct {
	ID             string
	CategoryID     string
	Slug           string
	Name           string
	Description    string
	PromptTemplate string
	Model          string
	IsPro          bool
	IsPublished    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ToolQuestion struct {
	ID          string
	ToolID      string
	Label       string
	Placeholder string
	FieldKey    string
	SortOrder   int
}

// ToolWithQuestions is the shape tool detail endpoints return.
type ToolWithQuestions struct {
	Tool
	Questions []ToolQuestion
}

type Project struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ClientProfile struct {
	ID        string
	OwnerID   string
	Name      string
	Audience  string
	Tone      string
	Language  string
	Sample    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chat statuses. A chat collects one answer per tool question, becomes
// ready when every question is answered, and generated once a draft exists.
const (
	ChatStatusCollecting = "collecting"
	ChatStatusReady      = "ready"
	ChatStatusGenerated  = "generated"
)

type Chat struct {
	ID                string
	OwnerID           string
	ToolID            string
	ProjectID         *string
	ClientProfileID   *string
	Title             string
	Answers           []string
	NextQuestionIndex int
	Status            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type ChatMessage struct {
	ID        string
	ChatID    string
	Role      string
	Content   string
	CreatedAt time.Time
}

type Document struct {
	ID        string
	OwnerID   string
	ProjectID *string
	ChatID    *string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Favorite struct {
	UserID    string
	ToolID    string
	CreatedAt time.Time
}

// ToolVersion describes one commit in a tool's prompt history.
type ToolVersion struct {
	Hash      string
	Message   string
	Author    string
	CreatedAt time.Time
}
