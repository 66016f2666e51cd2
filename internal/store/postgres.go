package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) GetProfileByID(ctx context.Context, profileID string) (Profile, error) {
	var item Profile
	var metadataRaw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, role, is_active, COALESCE(metadata::text, '{}'), status_updated_by, status_updated_at, created_at, updated_at
		FROM profiles
		WHERE id=$1
	`, profileID).Scan(
		&item.ID,
		&item.Email,
		&item.FullName,
		&item.Role,
		&item.IsActive,
		&metadataRaw,
		&item.StatusUpdatedBy,
		&item.StatusUpdatedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return Profile{}, err
	}
	_ = json.Unmarshal(metadataRaw, &item.Metadata)
	return item, nil
}

// GetProfileByEmail returns nil without error when no profile matches;
// webhook provisioning treats absence as a normal case.
func (s *PostgresStore) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	var item Profile
	var metadataRaw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, role, is_active, COALESCE(metadata::text, '{}'), status_updated_by, status_updated_at, created_at, updated_at
		FROM profiles
		WHERE email=$1
	`, email).Scan(
		&item.ID,
		&item.Email,
		&item.FullName,
		&item.Role,
		&item.IsActive,
		&metadataRaw,
		&item.StatusUpdatedBy,
		&item.StatusUpdatedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	_ = json.Unmarshal(metadataRaw, &item.Metadata)
	return &item, nil
}

// UpsertProfile writes the provisioning outcome for a profile. The
// status audit columns always record an automated change: the actor is
// cleared and the timestamp reset to now.
func (s *PostgresStore) UpsertProfile(ctx context.Context, profile Profile) error {
	metadata := profile.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	encodedMetadata, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal profile metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, role, is_active, metadata, status_updated_by, status_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, NULL, NOW())
		ON CONFLICT (id) DO UPDATE SET
			email=EXCLUDED.email,
			full_name=EXCLUDED.full_name,
			role=EXCLUDED.role,
			is_active=EXCLUDED.is_active,
			metadata=EXCLUDED.metadata,
			status_updated_by=NULL,
			status_updated_at=NOW(),
			updated_at=NOW()
	`, profile.ID, profile.Email, profile.FullName, profile.Role, profile.IsActive, string(encodedMetadata))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// UpdateProfileStatus applies a manual role or activation change and
// records which admin made it.
func (s *PostgresStore) UpdateProfileStatus(ctx context.Context, profileID, role string, isActive bool, updatedBy string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET role=$2, is_active=$3, status_updated_by=$4, status_updated_at=NOW(), updated_at=NOW()
		WHERE id=$1
	`, profileID, role, isActive, updatedBy)
	if err != nil {
		return fmt.Errorf("update profile status: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, full_name, role, is_active, COALESCE(metadata::text, '{}'), status_updated_by, status_updated_at, created_at, updated_at
		FROM profiles
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	items := make([]Profile, 0)
	for rows.Next() {
		var item Profile
		var metadataRaw []byte
		if err := rows.Scan(
			&item.ID,
			&item.Email,
			&item.FullName,
			&item.Role,
			&item.IsActive,
			&metadataRaw,
			&item.StatusUpdatedBy,
			&item.StatusUpdatedAt,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		_ = json.Unmarshal(metadataRaw, &item.Metadata)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, description, sort_order, created_at, updated_at
		FROM categories
		ORDER BY sort_order ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := make([]Category, 0)
	for rows.Next() {
		var item Category
		if err := rows.Scan(&item.ID, &item.Name, &item.Slug, &item.Description, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertCategory(ctx context.Context, category Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, slug, description, sort_order)
		VALUES ($1, $2, $3, $4, $5)
	`, category.ID, category.Name, category.Slug, category.Description, category.SortOrder)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, categoryID, name, description string, sortOrder int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name=$2, description=$3, sort_order=$4, updated_at=NOW()
		WHERE id=$1
	`, categoryID, name, description, sortOrder)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, categoryID string) error {
	var toolCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tools WHERE category_id=$1`, categoryID).Scan(&toolCount); err != nil {
		return fmt.Errorf("count category tools: %w", err)
	}
	if toolCount > 0 {
		return fmt.Errorf("category contains %d tools", toolCount)
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id=$1`, categoryID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListTools(ctx context.Context, categoryID string, includeUnpublished bool) ([]Tool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, slug, name, description, prompt_template, model, is_pro, is_published, created_at, updated_at
		FROM tools
		WHERE ($1='' OR category_id=$1)
		  AND ($2::boolean OR is_published)
		ORDER BY name ASC
	`, categoryID, includeUnpublished)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	defer rows.Close()

	items := make([]Tool, 0)
	for rows.Next() {
		var item Tool
		if err := rows.Scan(
			&item.ID,
			&item.CategoryID,
			&item.Slug,
			&item.Name,
			&item.Description,
			&item.PromptTemplate,
			&item.Model,
			&item.IsPro,
			&item.IsPublished,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan tool: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tools: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetTool(ctx context.Context, toolID string) (Tool, error) {
	var item Tool
	err := s.db.QueryRowContext(ctx, `
		SELECT id, category_id, slug, name, description, prompt_template, model, is_pro, is_published, created_at, updated_at
		FROM tools
		WHERE id=$1
	`, toolID).Scan(
		&item.ID,
		&item.CategoryID,
		&item.Slug,
		&item.Name,
		&item.Description,
		&item.PromptTemplate,
		&item.Model,
		&item.IsPro,
		&item.IsPublished,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return Tool{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertTool(ctx context.Context, tool Tool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tools (id, category_id, slug, name, description, prompt_template, model, is_pro, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, tool.ID, tool.CategoryID, tool.Slug, tool.Name, tool.Description, tool.PromptTemplate, tool.Model, tool.IsPro, tool.IsPublished)
	if err != nil {
		return fmt.Errorf("insert tool: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateTool(ctx context.Context, tool Tool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tools
		SET category_id=$2, name=$3, description=$4, prompt_template=$5, model=$6, is_pro=$7, is_published=$8, updated_at=NOW()
		WHERE id=$1
	`, tool.ID, tool.CategoryID, tool.Name, tool.Description, tool.PromptTemplate, tool.Model, tool.IsPro, tool.IsPublished)
	if err != nil {
		return fmt.Errorf("update tool: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteTool(ctx context.Context, toolID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tools WHERE id=$1`, toolID)
	if err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListToolQuestions(ctx context.Context, toolID string) ([]ToolQuestion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tool_id, label, COALESCE(placeholder, ''), field_key, sort_order
		FROM tool_questions
		WHERE tool_id=$1
		ORDER BY sort_order ASC
	`, toolID)
	if err != nil {
		return nil, fmt.Errorf("list tool questions: %w", err)
	}
	defer rows.Close()

	items := make([]ToolQuestion, 0)
	for rows.Next() {
		var item ToolQuestion
		if err := rows.Scan(&item.ID, &item.ToolID, &item.Label, &item.Placeholder, &item.FieldKey, &item.SortOrder); err != nil {
			return nil, fmt.Errorf("scan tool question: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tool questions: %w", err)
	}
	return items, nil
}

// ListAllToolQuestions returns every question in the catalog, grouped
// by tool through the ordering so callers can bucket them in one pass.
func (s *PostgresStore) ListAllToolQuestions(ctx context.Context) ([]ToolQuestion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tool_id, label, COALESCE(placeholder, ''), field_key, sort_order
		FROM tool_questions
		ORDER BY tool_id ASC, sort_order ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list all tool questions: %w", err)
	}
	defer rows.Close()

	items := make([]ToolQuestion, 0)
	for rows.Next() {
		var item ToolQuestion
		if err := rows.Scan(&item.ID, &item.ToolID, &item.Label, &item.Placeholder, &item.FieldKey, &item.SortOrder); err != nil {
			return nil, fmt.Errorf("scan tool question: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tool questions: %w", err)
	}
	return items, nil
}

// ReplaceToolQuestions swaps a tool's question list for the given one.
func (s *PostgresStore) ReplaceToolQuestions(ctx context.Context, toolID string, questions []ToolQuestion) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tool_questions WHERE tool_id=$1`, toolID); err != nil {
		return fmt.Errorf("clear tool questions: %w", err)
	}
	for _, q := range questions {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO tool_questions (id, tool_id, label, placeholder, field_key, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, q.ID, toolID, q.Label, q.Placeholder, q.FieldKey, q.SortOrder); err != nil {
			return fmt.Errorf("insert tool question: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) ListProjects(ctx context.Context, ownerID string) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, description, created_at, updated_at
		FROM projects
		WHERE owner_id=$1
		ORDER BY updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		var item Project
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Description, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (Project, error) {
	var item Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, description, created_at, updated_at
		FROM projects
		WHERE id=$1
	`, projectID).Scan(&item.ID, &item.OwnerID, &item.Name, &item.Description, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertProject(ctx context.Context, project Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, owner_id, name, description)
		VALUES ($1, $2, $3, $4)
	`, project.ID, project.OwnerID, project.Name, project.Description)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, projectID, name, description string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE projects SET name=$2, description=$3, updated_at=NOW()
		WHERE id=$1
	`, projectID, name, description)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteProject(ctx context.Context, projectID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id=$1`, projectID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListClientProfiles(ctx context.Context, ownerID string) ([]ClientProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, audience, tone, language, sample, created_at, updated_at
		FROM client_profiles
		WHERE owner_id=$1
		ORDER BY name ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list client profiles: %w", err)
	}
	defer rows.Close()

	items := make([]ClientProfile, 0)
	for rows.Next() {
		var item ClientProfile
		if err := rows.Scan(
			&item.ID,
			&item.OwnerID,
			&item.Name,
			&item.Audience,
			&item.Tone,
			&item.Language,
			&item.Sample,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan client profile: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client profiles: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetClientProfile(ctx context.Context, clientProfileID string) (ClientProfile, error) {
	var item ClientProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, audience, tone, language, sample, created_at, updated_at
		FROM client_profiles
		WHERE id=$1
	`, clientProfileID).Scan(
		&item.ID,
		&item.OwnerID,
		&item.Name,
		&item.Audience,
		&item.Tone,
		&item.Language,
		&item.Sample,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return ClientProfile{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertClientProfile(ctx context.Context, profile ClientProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_profiles (id, owner_id, name, audience, tone, language, sample)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, profile.ID, profile.OwnerID, profile.Name, profile.Audience, profile.Tone, profile.Language, profile.Sample)
	if err != nil {
		return fmt.Errorf("insert client profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateClientProfile(ctx context.Context, profile ClientProfile) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE client_profiles
		SET name=$2, audience=$3, tone=$4, language=$5, sample=$6, updated_at=NOW()
		WHERE id=$1
	`, profile.ID, profile.Name, profile.Audience, profile.Tone, profile.Language, profile.Sample)
	if err != nil {
		return fmt.Errorf("update client profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteClientProfile(ctx context.Context, clientProfileID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM client_profiles WHERE id=$1`, clientProfileID)
	if err != nil {
		return fmt.Errorf("delete client profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListChats(ctx context.Context, ownerID string) ([]Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, tool_id, project_id, client_profile_id, title, COALESCE(answers::text, '[]'), next_question_index, status, created_at, updated_at
		FROM chats
		WHERE owner_id=$1
		ORDER BY updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	items := make([]Chat, 0)
	for rows.Next() {
		var item Chat
		var answersRaw []byte
		if err := rows.Scan(
			&item.ID,
			&item.OwnerID,
			&item.ToolID,
			&item.ProjectID,
			&item.ClientProfileID,
			&item.Title,
			&answersRaw,
			&item.NextQuestionIndex,
			&item.Status,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		_ = json.Unmarshal(answersRaw, &item.Answers)
		if item.Answers == nil {
			item.Answers = []string{}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetChat(ctx context.Context, chatID string) (Chat, error) {
	var item Chat
	var answersRaw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, tool_id, project_id, client_profile_id, title, COALESCE(answers::text, '[]'), next_question_index, status, created_at, updated_at
		FROM chats
		WHERE id=$1
	`, chatID).Scan(
		&item.ID,
		&item.OwnerID,
		&item.ToolID,
		&item.ProjectID,
		&item.ClientProfileID,
		&item.Title,
		&answersRaw,
		&item.NextQuestionIndex,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return Chat{}, err
	}
	_ = json.Unmarshal(answersRaw, &item.Answers)
	if item.Answers == nil {
		item.Answers = []string{}
	}
	return item, nil
}

func (s *PostgresStore) InsertChat(ctx context.Context, chat Chat) error {
	answers := chat.Answers
	if answers == nil {
		answers = []string{}
	}
	encodedAnswers, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal chat answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chats (id, owner_id, tool_id, project_id, client_profile_id, title, answers, next_question_index, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)
	`, chat.ID, chat.OwnerID, chat.ToolID, chat.ProjectID, chat.ClientProfileID, chat.Title, string(encodedAnswers), chat.NextQuestionIndex, chat.Status)
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chats SET title=$2, updated_at=NOW() WHERE id=$1
	`, chatID, title)
	if err != nil {
		return fmt.Errorf("update chat title: %w", err)
	}
	return nil
}

// UpdateChatProgress replaces the collected answers and question cursor
// in one write so a reread never sees answers ahead of the index.
func (s *PostgresStore) UpdateChatProgress(ctx context.Context, chatID string, answers []string, nextQuestionIndex int, status string) error {
	if answers == nil {
		answers = []string{}
	}
	encodedAnswers, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal chat answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE chats
		SET answers=$2::jsonb, next_question_index=$3, status=$4, updated_at=NOW()
		WHERE id=$1
	`, chatID, string(encodedAnswers), nextQuestionIndex, status)
	if err != nil {
		return fmt.Errorf("update chat progress: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateChatStatus(ctx context.Context, chatID, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chats SET status=$2, updated_at=NOW() WHERE id=$1
	`, chatID, status)
	if err != nil {
		return fmt.Errorf("update chat status: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteChat(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id=$1`, chatID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListChatMessages(ctx context.Context, chatID string) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, role, content, created_at
		FROM chat_messages
		WHERE chat_id=$1
		ORDER BY created_at ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	items := make([]ChatMessage, 0)
	for rows.Next() {
		var item ChatMessage
		if err := rows.Scan(&item.ID, &item.ChatID, &item.Role, &item.Content, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertChatMessage(ctx context.Context, message ChatMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, chat_id, role, content)
		VALUES ($1, $2, $3, $4)
	`, message.ID, message.ChatID, message.Role, message.Content)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE chats SET updated_at=NOW() WHERE id=$1`, message.ChatID); err != nil {
		return fmt.Errorf("touch chat: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, ownerID, projectID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, project_id, chat_id, title, content, created_at, updated_at
		FROM documents
		WHERE owner_id=$1
		  AND ($2='' OR project_id=$2)
		ORDER BY updated_at DESC
	`, ownerID, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0)
	for rows.Next() {
		var item Document
		if err := rows.Scan(
			&item.ID,
			&item.OwnerID,
			&item.ProjectID,
			&item.ChatID,
			&item.Title,
			&item.Content,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, documentID string) (Document, error) {
	var item Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, project_id, chat_id, title, content, created_at, updated_at
		FROM documents
		WHERE id=$1
	`, documentID).Scan(
		&item.ID,
		&item.OwnerID,
		&item.ProjectID,
		&item.ChatID,
		&item.Title,
		&item.Content,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertDocument(ctx context.Context, item Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, owner_id, project_id, chat_id, title, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, item.ID, item.OwnerID, item.ProjectID, item.ChatID, item.Title, item.Content)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, documentID, title, content string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE documents SET title=$2, content=$3, updated_at=NOW()
		WHERE id=$1
	`, documentID, title, content)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id=$1`, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFavoriteToolIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tool_id FROM favorites WHERE user_id=$1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	items := make([]string, 0)
	for rows.Next() {
		var toolID string
		if err := rows.Scan(&toolID); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		items = append(items, toolID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) AddFavorite(ctx context.Context, userID, toolID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, tool_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, tool_id) DO NOTHING
	`, userID, toolID)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveFavorite(ctx context.Context, userID, toolID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM favorites WHERE user_id=$1 AND tool_id=$2
	`, userID, toolID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
