package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"artemo/api/internal/auth"
	"artemo/api/internal/catalog"
	"artemo/api/internal/config"
	"artemo/api/internal/email"
	"artemo/api/internal/export"
	"artemo/api/internal/identity"
	"artemo/api/internal/llm"
	"artemo/api/internal/prefill"
	"artemo/api/internal/provision"
	"artemo/api/internal/rbac"
	"artemo/api/internal/search"
	"artemo/api/internal/store"
	"artemo/api/internal/toolgit"
	"artemo/api/internal/util"
)

// Session is the authenticated caller on dashboard routes: a verified
// identity-platform token resolved to its local profile row.
type Session struct {
	UserID   string
	Email    string
	FullName string
	Role     string
	IsActive bool
}

// ProvisionInput is the parsed provisioning webhook payload.
type ProvisionInput struct {
	Email    string
	FullName string
	Event    provision.Event
	Metadata map[string]any
}

// ProvisionOutcome reports what a webhook delivery did. Skipped marks
// the 202 no-op case (unknown user on a non-creating event).
type ProvisionOutcome struct {
	Skipped bool
	Created bool
	UserID  string
	Email   string
	Event   provision.Event
	Role    string
	Active  bool
}

// ToolQuestionInput is one question row in an admin tool write.
type ToolQuestionInput struct {
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
	FieldKey    string `json:"fieldKey"`
	SortOrder   int    `json:"sortOrder"`
}

// CategoryInput is the body of an admin category write.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

// ClientProfileInput is the body of a client profile write.
type ClientProfileInput struct {
	Name     string `json:"name"`
	Audience string `json:"audience"`
	Tone     string `json:"tone"`
	Language string `json:"language"`
	Sample   string `json:"sample"`
}

// ToolInput is the body of an admin tool create or update.
type ToolInput struct {
	CategoryID     string              `json:"categoryId"`
	Slug           string              `json:"slug"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	PromptTemplate string              `json:"promptTemplate"`
	Model          string              `json:"model"`
	IsPro          bool                `json:"isPro"`
	IsPublished    bool                `json:"isPublished"`
	Questions      []ToolQuestionInput `json:"questions"`
	ChangeNote     string              `json:"changeNote"`
}

type dataStore interface {
	GetProfileByID(context.Context, string) (store.Profile, error)
	GetProfileByEmail(context.Context, string) (*store.Profile, error)
	UpsertProfile(context.Context, store.Profile) error
	UpdateProfileStatus(context.Context, string, string, bool, string) error
	ListProfiles(context.Context) ([]store.Profile, error)
	ListCategories(context.Context) ([]store.Category, error)
	InsertCategory(context.Context, store.Category) error
	UpdateCategory(context.Context, string, string, string, int) error
	DeleteCategory(context.Context, string) error
	ListTools(context.Context, string, bool) ([]store.Tool, error)
	GetTool(context.Context, string) (store.Tool, error)
	InsertTool(context.Context, store.Tool) error
	UpdateTool(context.Context, store.Tool) error
	DeleteTool(context.Context, string) error
	ListToolQuestions(context.Context, string) ([]store.ToolQuestion, error)
	ReplaceToolQuestions(context.Context, string, []store.ToolQuestion) error
	ListProjects(context.Context, string) ([]store.Project, error)
	GetProject(context.Context, string) (store.Project, error)
	InsertProject(context.Context, store.Project) error
	UpdateProject(context.Context, string, string, string) error
	DeleteProject(context.Context, string) error
	ListClientProfiles(context.Context, string) ([]store.ClientProfile, error)
	GetClientProfile(context.Context, string) (store.ClientProfile, error)
	InsertClientProfile(context.Context, store.ClientProfile) error
	UpdateClientProfile(context.Context, store.ClientProfile) error
	DeleteClientProfile(context.Context, string) error
	ListChats(context.Context, string) ([]store.Chat, error)
	GetChat(context.Context, string) (store.Chat, error)
	InsertChat(context.Context, store.Chat) error
	UpdateChatTitle(context.Context, string, string) error
	UpdateChatProgress(context.Context, string, []string, int, string) error
	UpdateChatStatus(context.Context, string, string) error
	DeleteChat(context.Context, string) error
	ListChatMessages(context.Context, string) ([]store.ChatMessage, error)
	InsertChatMessage(context.Context, store.ChatMessage) error
	ListDocuments(context.Context, string, string) ([]store.Document, error)
	GetDocument(context.Context, string) (store.Document, error)
	InsertDocument(context.Context, store.Document) error
	UpdateDocument(context.Context, string, string, string) error
	DeleteDocument(context.Context, string) error
	ListFavoriteToolIDs(context.Context, string) ([]string, error)
	AddFavorite(context.Context, string, string) error
	RemoveFavorite(context.Context, string, string) error
	Ping(ctx context.Context) error
}

type identityClient interface {
	LookupByEmail(ctx context.Context, email string) (*identity.User, error)
	CreateUser(ctx context.Context, email, fullName string) (identity.User, error)
	SetBan(ctx context.Context, userID string, action provision.BanAction) error
}

type toolCatalog interface {
	Catalog(ctx context.Context) (catalog.Bundle, error)
	Tool(ctx context.Context, idOrSlug string) (catalog.Tool, bool, error)
	Invalidate()
}

type searchIndex interface {
	Search(q search.Query) search.Response
	IndexTool(tool search.ToolRecord)
	IndexDocument(doc search.DocumentRecord)
	DeleteTool(id string)
	DeleteDocument(id string)
}

type llmProviders interface {
	Get(name string) (llm.Provider, error)
}

type toolVersioner interface {
	EnsureToolRepo(toolID string, def toolgit.Definition, author string) error
	CommitDefinition(toolID string, def toolgit.Definition, author, message string) (store.ToolVersion, error)
	History(toolID string, limit int) ([]store.ToolVersion, error)
	DefinitionAt(toolID, hash string) (toolgit.Definition, error)
}

type documentExporter interface {
	Export(ctx context.Context, req export.Request) (*export.Result, error)
}

type mailer interface {
	IsConfigured() bool
	SendWelcomeEmail(to, userName, dashboardURL string) error
	SendPaymentIssueEmail(to, userName, billingURL string) error
}

// Deps carries the service collaborators. Identity may be nil when the
// platform's admin API is not configured; provisioning then manages
// profile rows locally and skips ban sync.
type Deps struct {
	Identity *identity.Client
	Catalog  *catalog.Service
	Search   *search.Service
	LLM      *llm.Registry
	Versions *toolgit.Service
	Exporter *export.Service
	Mailer   *email.Service
}

type Service struct {
	cfg      config.Config
	store    dataStore
	identity identityClient
	catalog  toolCatalog
	search   searchIndex
	llm      llmProviders
	versions toolVersioner
	exporter documentExporter
	mailer   mailer
	verifier *auth.Verifier
}

func New(cfg config.Config, dataStore *store.PostgresStore, deps Deps) *Service {
	s := &Service{
		cfg:      cfg,
		store:    dataStore,
		catalog:  deps.Catalog,
		search:   deps.Search,
		llm:      deps.LLM,
		versions: deps.Versions,
		exporter: deps.Exporter,
		verifier: auth.NewVerifier(cfg.JWTSecret),
	}
	if deps.Identity != nil {
		s.identity = deps.Identity
	}
	if deps.Mailer != nil {
		s.mailer = deps.Mailer
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) ProvisioningSecret() string {
	return s.cfg.ProvisioningSecret
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// SessionFromToken verifies an access token and resolves its profile.
// A valid token without a profile row means provisioning has not run
// for that account yet; an inactive profile is a banned/lapsed account.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		return Session{}, err
	}

	profile, err := s.store.GetProfileByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, domainError(http.StatusForbidden, "PROFILE_NOT_PROVISIONED", "No profile exists for this account yet", nil)
		}
		return Session{}, err
	}
	if !profile.IsActive {
		return Session{}, domainError(http.StatusForbidden, "ACCOUNT_DISABLED", "This account is disabled", nil)
	}

	email := profile.Email
	if email == "" {
		email = claims.Email
	}
	return Session{
		UserID:   profile.ID,
		Email:    email,
		FullName: profile.FullName,
		Role:     string(rbac.Normalize(profile.Role)),
		IsActive: profile.IsActive,
	}, nil
}

// ProvisionUser runs the webhook sequence for one lifecycle event:
// resolve or create the identity, read the existing profile, compute
// the target state from the event rule, upsert the profile, then sync
// the ban flag. The steps are strictly ordered; a ban-sync failure
// after a committed upsert is surfaced as its own error and never
// rolled back.
func (s *Service) ProvisionUser(ctx context.Context, input ProvisionInput) (ProvisionOutcome, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return ProvisionOutcome{}, domainError(http.StatusBadRequest, "EMAIL_REQUIRED", "Email is required", nil)
	}

	rule, err := provision.RuleFor(input.Event)
	if err != nil {
		return ProvisionOutcome{}, err
	}

	log.Printf("provision: event=%s email=%s", input.Event, email)

	if s.identity == nil {
		return s.provisionLocal(ctx, email, input, rule)
	}

	user, err := s.identity.LookupByEmail(ctx, email)
	if err != nil {
		return ProvisionOutcome{}, domainError(http.StatusInternalServerError, "AUTH_SYNC_FAILED", "Auth sync failed", err.Error())
	}

	created := false
	if user == nil {
		if !rule.CreateIfMissing {
			log.Printf("provision: no identity for %s on %s; no changes applied", email, input.Event)
			return ProvisionOutcome{Skipped: true, Email: email, Event: input.Event}, nil
		}
		newUser, err := s.identity.CreateUser(ctx, email, strings.TrimSpace(input.FullName))
		if err != nil {
			return ProvisionOutcome{}, domainError(http.StatusInternalServerError, "CREATE_USER_FAILED", "Failed to create user", err.Error())
		}
		user = &newUser
		created = true
		log.Printf("provision: created identity %s for %s", user.ID, email)
	}

	var existing *store.Profile
	if profile, err := s.store.GetProfileByID(ctx, user.ID); err == nil {
		existing = &profile
	} else if !errors.Is(err, sql.ErrNoRows) {
		return ProvisionOutcome{}, domainError(http.StatusInternalServerError, "DATABASE_ERROR", "Database error", err.Error())
	}

	fullName := resolveFullName(input.FullName, existing, user.Metadata.FullName, user.Email, email)
	role := resolveRole(rule, existing)

	if err := s.store.UpsertProfile(ctx, store.Profile{
		ID:       user.ID,
		Email:    email,
		FullName: fullName,
		Role:     role,
		IsActive: rule.Active,
		Metadata: input.Metadata,
	}); err != nil {
		return ProvisionOutcome{}, domainError(http.StatusInternalServerError, "DATABASE_ERROR", "Database error", err.Error())
	}
	log.Printf("provision: profile %s set role=%s active=%t", user.ID, role, rule.Active)

	if err := s.identity.SetBan(ctx, user.ID, rule.BanAction); err != nil {
		return ProvisionOutcome{}, domainError(http.StatusInternalServerError, "AUTH_SYNC_FAILED", "Auth sync failed", err.Error())
	}
	if rule.BanAction != provision.BanActionNone {
		log.Printf("provision: ban action %s applied to %s", rule.BanAction, user.ID)
	}

	s.notifyProvisioned(input.Event, created, existing != nil, email, fullName)

	return ProvisionOutcome{
		Created: created,
		UserID:  user.ID,
		Email:   email,
		Event:   input.Event,
		Role:    role,
		Active:  rule.Active,
	}, nil
}

// provisionLocal is the degraded path used when no identity platform is
// configured: profile rows are keyed by locally generated ids and ban
// sync is skipped.
func (s *Service) provisionLocal(ctx context.Context, email string, input ProvisionInput, rule provision.Rule) (ProvisionOutcome, error) {
	existing, err := s.store.GetProfileByEmail(ctx, email)
	if err != nil {
		return ProvisionOutcome{}, domainError(http.StatusInternalServerError, "DATABASE_ERROR", "Database error", err.Error())
	}

	created := false
	userID := ""
	if existing != nil {
		userID = existing.ID
	} else {
		if !rule.CreateIfMissing {
			log.Printf("provision: no profile for %s on %s; no changes applied", email, input.Event)
			return ProvisionOutcome{Skipped: true, Email: email, Event: input.Event}, nil
		}
		userID = util.NewID("usr")
		created = true
	}

	fullName := resolveFullName(input.FullName, existing, "", "", email)
	role := resolveRole(rule, existing)

	if err := s.store.UpsertProfile(ctx, store.Profile{
		ID:       userID,
		Email:    email,
		FullName: fullName,
		Role:     role,
		IsActive: rule.Active,
		Metadata: input.Metadata,
	}); err != nil {
		return ProvisionOutcome{}, domainError(http.StatusInternalServerError, "DATABASE_ERROR", "Database error", err.Error())
	}
	log.Printf("provision: profile %s set role=%s active=%t (local, no identity platform)", userID, role, rule.Active)

	s.notifyProvisioned(input.Event, created, existing != nil, email, fullName)

	return ProvisionOutcome{
		Created: created,
		UserID:  userID,
		Email:   email,
		Event:   input.Event,
		Role:    role,
		Active:  rule.Active,
	}, nil
}

// notifyProvisioned fires the lifecycle emails. Sending never blocks
// the webhook response or affects its status.
func (s *Service) notifyProvisioned(event provision.Event, created, hadProfile bool, email, fullName string) {
	if s.mailer == nil || !s.mailer.IsConfigured() {
		return
	}
	if created {
		dashboardURL := s.cfg.AppBaseURL + "/dashboard"
		go func() {
			if err := s.mailer.SendWelcomeEmail(email, fullName, dashboardURL); err != nil {
				log.Printf("provision: welcome email to %s failed: %v", email, err)
			}
		}()
		return
	}
	if event == provision.EventPaymentFailed && hadProfile {
		billingURL := s.cfg.AppBaseURL + "/billing"
		go func() {
			if err := s.mailer.SendPaymentIssueEmail(email, fullName, billingURL); err != nil {
				log.Printf("provision: payment issue email to %s failed: %v", email, err)
			}
		}()
	}
}

// resolveFullName picks the first usable display name: the webhook
// payload, then the stored profile, then identity metadata, then the
// identity email, then the normalized email.
func resolveFullName(payloadName string, existing *store.Profile, metadataName, identityEmail, email string) string {
	if trimmed := strings.TrimSpace(payloadName); trimmed != "" {
		return trimmed
	}
	if existing != nil && strings.TrimSpace(existing.FullName) != "" {
		return existing.FullName
	}
	if trimmed := strings.TrimSpace(metadataName); trimmed != "" {
		return trimmed
	}
	if identityEmail != "" {
		return identityEmail
	}
	return email
}

// resolveRole applies the event rule's role with admin preservation:
// an existing admin keeps admin no matter what the rule prescribes. A
// rule without a role leaves the current role alone (defaulting new
// rows to user).
func resolveRole(rule provision.Rule, existing *store.Profile) string {
	current := string(rbac.RoleUser)
	if existing != nil && existing.Role != "" {
		current = existing.Role
	}
	if !rule.HasRole() {
		return current
	}
	if current == string(rbac.RoleAdmin) {
		return current
	}
	return rule.Role
}

// --- Me ---

func (s *Service) Me(ctx context.Context, session Session) (map[string]any, error) {
	profile, err := s.store.GetProfileByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	favorites, err := s.store.ListFavoriteToolIDs(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	payload := profilePayload(profile)
	payload["favoriteToolIds"] = favorites
	return payload, nil
}

// --- Catalog reads ---

func (s *Service) ListTools(ctx context.Context, session Session, includeUnpublished bool) (map[string]any, error) {
	if includeUnpublished && s.Can(session.Role, rbac.ActionManageCatalog) {
		tools, err := s.store.ListTools(ctx, "", true)
		if err != nil {
			return nil, err
		}
		items := make([]map[string]any, 0, len(tools))
		for _, tool := range tools {
			questions, err := s.store.ListToolQuestions(ctx, tool.ID)
			if err != nil {
				return nil, err
			}
			items = append(items, toolPayload(tool, questions))
		}
		return map[string]any{"tools": items}, nil
	}

	bundle, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"tools": bundle.Tools}, nil
}

func (s *Service) ListCategories(ctx context.Context) (map[string]any, error) {
	bundle, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"categories": bundle.Categories}, nil
}

func (s *Service) GetTool(ctx context.Context, session Session, idOrSlug string) (map[string]any, error) {
	tool, ok, err := s.catalog.Tool(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if ok {
		return map[string]any{"tool": tool}, nil
	}

	// Unpublished tools stay visible to catalog managers.
	if s.Can(session.Role, rbac.ActionManageCatalog) {
		stored, err := s.store.GetTool(ctx, idOrSlug)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Tool not found", nil)
			}
			return nil, err
		}
		questions, err := s.store.ListToolQuestions(ctx, stored.ID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"tool": toolPayload(stored, questions)}, nil
	}

	return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Tool not found", nil)
}

// --- Admin catalog writes ---

var supportedModels = map[string]struct{}{
	llm.AnthropicName: {},
	llm.OpenAIName:    {},
}

func (s *Service) CreateTool(ctx context.Context, session Session, input ToolInput) (map[string]any, error) {
	if err := validateToolInput(&input); err != nil {
		return nil, err
	}

	tool := store.Tool{
		ID:             util.NewID("tool"),
		CategoryID:     input.CategoryID,
		Slug:           input.Slug,
		Name:           input.Name,
		Description:    input.Description,
		PromptTemplate: input.PromptTemplate,
		Model:          input.Model,
		IsPro:          input.IsPro,
		IsPublished:    input.IsPublished,
	}
	if err := s.store.InsertTool(ctx, tool); err != nil {
		return nil, err
	}

	questions := questionRows(tool.ID, input.Questions)
	if err := s.store.ReplaceToolQuestions(ctx, tool.ID, questions); err != nil {
		return nil, err
	}

	s.afterToolWrite(tool, questions, session, "", true)
	return map[string]any{"tool": toolPayload(tool, questions)}, nil
}

func (s *Service) UpdateTool(ctx context.Context, session Session, toolID string, input ToolInput) (map[string]any, error) {
	existing, err := s.store.GetTool(ctx, toolID)
	if err != nil {
		return nil, err
	}

	input.Slug = existing.Slug // slugs are permanent; they are referenced by bookmarks
	if err := validateToolInput(&input); err != nil {
		return nil, err
	}

	tool := store.Tool{
		ID:             existing.ID,
		CategoryID:     input.CategoryID,
		Slug:           existing.Slug,
		Name:           input.Name,
		Description:    input.Description,
		PromptTemplate: input.PromptTemplate,
		Model:          input.Model,
		IsPro:          input.IsPro,
		IsPublished:    input.IsPublished,
	}
	if err := s.store.UpdateTool(ctx, tool); err != nil {
		return nil, err
	}

	questions := questionRows(tool.ID, input.Questions)
	if err := s.store.ReplaceToolQuestions(ctx, tool.ID, questions); err != nil {
		return nil, err
	}

	s.afterToolWrite(tool, questions, session, input.ChangeNote, false)
	return map[string]any{"tool": toolPayload(tool, questions)}, nil
}

func (s *Service) DeleteTool(ctx context.Context, toolID string) error {
	if _, err := s.store.GetTool(ctx, toolID); err != nil {
		return err
	}
	if err := s.store.DeleteTool(ctx, toolID); err != nil {
		return err
	}
	s.catalog.Invalidate()
	if s.search != nil {
		s.search.DeleteTool(toolID)
	}
	// The git history survives deletion on purpose: versions of a
	// removed tool remain inspectable.
	return nil
}

// afterToolWrite refreshes the read paths behind an admin tool write:
// the catalog snapshot, the search index, and the git version history.
// Indexing and the git commit run detached so admin writes stay fast.
func (s *Service) afterToolWrite(tool store.Tool, questions []store.ToolQuestion, session Session, changeNote string, created bool) {
	s.catalog.Invalidate()

	if s.search != nil {
		if tool.IsPublished {
			s.search.IndexTool(toolSearchRecord(tool, questions))
		} else {
			s.search.DeleteTool(tool.ID)
		}
	}

	if s.versions == nil {
		return
	}
	def := toolDefinition(tool, questions)
	author := session.FullName
	if author == "" {
		author = session.Email
	}
	message := strings.TrimSpace(changeNote)
	if message == "" {
		message = fmt.Sprintf("Update %s", tool.Name)
	}
	go func() {
		if err := s.versions.EnsureToolRepo(tool.ID, def, author); err != nil {
			log.Printf("toolgit: ensure repo for %s failed: %v", tool.ID, err)
			return
		}
		if created {
			return
		}
		if _, err := s.versions.CommitDefinition(tool.ID, def, author, message); err != nil {
			log.Printf("toolgit: commit for %s failed: %v", tool.ID, err)
		}
	}()
}

func (s *Service) ToolVersions(ctx context.Context, toolID string, limit int) (map[string]any, error) {
	if _, err := s.store.GetTool(ctx, toolID); err != nil {
		return nil, err
	}
	if s.versions == nil {
		return map[string]any{"versions": []map[string]any{}}, nil
	}
	versions, err := s.versions.History(toolID, limit)
	if err != nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "No version history for this tool", nil)
	}
	items := make([]map[string]any, 0, len(versions))
	for _, version := range versions {
		items = append(items, map[string]any{
			"hash":      version.Hash,
			"message":   version.Message,
			"author":    version.Author,
			"createdAt": version.CreatedAt.Format(time.RFC3339),
		})
	}
	return map[string]any{"versions": items}, nil
}

func (s *Service) ToolVersionDefinition(ctx context.Context, toolID, hash string) (map[string]any, error) {
	if _, err := s.store.GetTool(ctx, toolID); err != nil {
		return nil, err
	}
	if s.versions == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Version not found", nil)
	}
	def, err := s.versions.DefinitionAt(toolID, hash)
	if err != nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Version not found", nil)
	}
	return map[string]any{"definition": def}, nil
}

func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (map[string]any, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	category := store.Category{
		ID:          util.NewID("cat"),
		Name:        strings.TrimSpace(input.Name),
		Slug:        slugify(input.Name),
		Description: input.Description,
		SortOrder:   input.SortOrder,
	}
	if err := s.store.InsertCategory(ctx, category); err != nil {
		return nil, err
	}
	s.catalog.Invalidate()
	return map[string]any{"category": categoryPayload(category)}, nil
}

func (s *Service) UpdateCategory(ctx context.Context, categoryID, name, description string, sortOrder int) (map[string]any, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if err := s.store.UpdateCategory(ctx, categoryID, strings.TrimSpace(name), description, sortOrder); err != nil {
		return nil, err
	}
	s.catalog.Invalidate()
	return map[string]any{"ok": true}, nil
}

func (s *Service) DeleteCategory(ctx context.Context, categoryID string) error {
	tools, err := s.store.ListTools(ctx, categoryID, true)
	if err != nil {
		return err
	}
	if len(tools) > 0 {
		return domainError(http.StatusConflict, "CATEGORY_NOT_EMPTY", "Move or delete this category's tools first", map[string]any{"toolCount": len(tools)})
	}
	if err := s.store.DeleteCategory(ctx, categoryID); err != nil {
		return err
	}
	s.catalog.Invalidate()
	return nil
}

func validateToolInput(input *ToolInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if strings.TrimSpace(input.CategoryID) == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "categoryId is required", nil)
	}
	if strings.TrimSpace(input.PromptTemplate) == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "promptTemplate is required", nil)
	}
	if input.Model == "" {
		input.Model = llm.AnthropicName
	}
	if _, ok := supportedModels[input.Model]; !ok {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("model must be one of: %s, %s", llm.AnthropicName, llm.OpenAIName), nil)
	}
	if input.Slug == "" {
		input.Slug = slugify(input.Name)
	}
	return nil
}

func questionRows(toolID string, inputs []ToolQuestionInput) []store.ToolQuestion {
	rows := make([]store.ToolQuestion, 0, len(inputs))
	for i, input := range inputs {
		label := strings.TrimSpace(input.Label)
		if label == "" {
			continue
		}
		order := input.SortOrder
		if order == 0 {
			order = i
		}
		rows = append(rows, store.ToolQuestion{
			ID:          util.NewID("q"),
			ToolID:      toolID,
			Label:       label,
			Placeholder: input.Placeholder,
			FieldKey:    input.FieldKey,
			SortOrder:   order,
		})
	}
	return rows
}

func toolDefinition(tool store.Tool, questions []store.ToolQuestion) toolgit.Definition {
	def := toolgit.Definition{
		ID:             tool.ID,
		CategoryID:     tool.CategoryID,
		Slug:           tool.Slug,
		Name:           tool.Name,
		Description:    tool.Description,
		PromptTemplate: tool.PromptTemplate,
		Model:          tool.Model,
		IsPro:          tool.IsPro,
		IsPublished:    tool.IsPublished,
	}
	for _, q := range questions {
		def.Questions = append(def.Questions, toolgit.DefinitionQuestion{
			Label:       q.Label,
			Placeholder: q.Placeholder,
			FieldKey:    q.FieldKey,
			SortOrder:   q.SortOrder,
		})
	}
	return def
}

func toolSearchRecord(tool store.Tool, questions []store.ToolQuestion) search.ToolRecord {
	labels := make([]string, 0, len(questions))
	for _, q := range questions {
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

// --- Search ---

func (s *Service) Search(ctx context.Context, session Session, text, filterType string, limit, offset int) (search.Response, error) {
	resultType := search.ResultType(filterType)
	switch resultType {
	case "", search.ResultTool, search.ResultDocument:
	default:
		return search.Response{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "type must be tool or document", nil)
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.search.Search(search.Query{
		Text:       text,
		FilterType: resultType,
		OwnerID:    session.UserID,
		Limit:      limit,
		Offset:     offset,
	}), nil
}

// --- Projects ---

func (s *Service) ListProjects(ctx context.Context, session Session) ([]map[string]any, error) {
	projects, err := s.store.ListProjects(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(projects))
	for _, project := range projects {
		items = append(items, projectPayload(project))
	}
	return items, nil
}

func (s *Service) CreateProject(ctx context.Context, session Session, name, description string) (map[string]any, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	project := store.Project{
		ID:          util.NewID("proj"),
		OwnerID:     session.UserID,
		Name:        name,
		Description: description,
	}
	if err := s.store.InsertProject(ctx, project); err != nil {
		return nil, err
	}
	return projectPayload(project), nil
}

func (s *Service) GetProject(ctx context.Context, session Session, projectID string) (map[string]any, error) {
	project, err := s.ownedProject(ctx, session, projectID)
	if err != nil {
		return nil, err
	}
	return projectPayload(project), nil
}

func (s *Service) UpdateProject(ctx context.Context, session Session, projectID, name, description string) (map[string]any, error) {
	project, err := s.ownedProject(ctx, session, projectID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if err := s.store.UpdateProject(ctx, project.ID, name, description); err != nil {
		return nil, err
	}
	project.Name = name
	project.Description = description
	return projectPayload(project), nil
}

func (s *Service) DeleteProject(ctx context.Context, session Session, projectID string) error {
	if _, err := s.ownedProject(ctx, session, projectID); err != nil {
		return err
	}
	return s.store.DeleteProject(ctx, projectID)
}

// ownedProject loads a project and hides other owners' rows behind the
// same 404 a missing row gets.
func (s *Service) ownedProject(ctx context.Context, session Session, projectID string) (store.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return store.Project{}, err
	}
	if project.OwnerID != session.UserID {
		return store.Project{}, sql.ErrNoRows
	}
	return project, nil
}

// --- Client profiles ---

func (s *Service) ListClientProfiles(ctx context.Context, session Session) ([]map[string]any, error) {
	profiles, err := s.store.ListClientProfiles(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(profiles))
	for _, profile := range profiles {
		items = append(items, clientProfilePayload(profile))
	}
	return items, nil
}

func (s *Service) CreateClientProfile(ctx context.Context, session Session, input ClientProfileInput) (map[string]any, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	profile := store.ClientProfile{
		ID:       util.NewID("cp"),
		OwnerID:  session.UserID,
		Name:     input.Name,
		Audience: input.Audience,
		Tone:     input.Tone,
		Language: input.Language,
		Sample:   input.Sample,
	}
	if err := s.store.InsertClientProfile(ctx, profile); err != nil {
		return nil, err
	}
	return clientProfilePayload(profile), nil
}

func (s *Service) GetClientProfile(ctx context.Context, session Session, clientProfileID string) (map[string]any, error) {
	profile, err := s.ownedClientProfile(ctx, session, clientProfileID)
	if err != nil {
		return nil, err
	}
	return clientProfilePayload(profile), nil
}

func (s *Service) UpdateClientProfile(ctx context.Context, session Session, clientProfileID string, input ClientProfileInput) (map[string]any, error) {
	profile, err := s.ownedClientProfile(ctx, session, clientProfileID)
	if err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	profile.Name = input.Name
	profile.Audience = input.Audience
	profile.Tone = input.Tone
	profile.Language = input.Language
	profile.Sample = input.Sample
	if err := s.store.UpdateClientProfile(ctx, profile); err != nil {
		return nil, err
	}
	return clientProfilePayload(profile), nil
}

func (s *Service) DeleteClientProfile(ctx context.Context, session Session, clientProfileID string) error {
	if _, err := s.ownedClientProfile(ctx, session, clientProfileID); err != nil {
		return err
	}
	return s.store.DeleteClientProfile(ctx, clientProfileID)
}

func (s *Service) ownedClientProfile(ctx context.Context, session Session, clientProfileID string) (store.ClientProfile, error) {
	profile, err := s.store.GetClientProfile(ctx, clientProfileID)
	if err != nil {
		return store.ClientProfile{}, err
	}
	if profile.OwnerID != session.UserID {
		return store.ClientProfile{}, sql.ErrNoRows
	}
	return profile, nil
}

// --- Favorites ---

func (s *Service) ListFavorites(ctx context.Context, session Session) (map[string]any, error) {
	ids, err := s.store.ListFavoriteToolIDs(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	bundle, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	tools := make([]catalog.Tool, 0, len(ids))
	for _, tool := range bundle.Tools {
		if _, ok := wanted[tool.ID]; ok {
			tools = append(tools, tool)
		}
	}
	return map[string]any{"tools": tools}, nil
}

func (s *Service) AddFavorite(ctx context.Context, session Session, toolID string) error {
	tool, ok, err := s.catalog.Tool(ctx, toolID)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Tool not found", nil)
	}
	return s.store.AddFavorite(ctx, session.UserID, tool.ID)
}

func (s *Service) RemoveFavorite(ctx context.Context, session Session, toolID string) error {
	return s.store.RemoveFavorite(ctx, session.UserID, toolID)
}

// --- Chats ---

// StartChat opens a tool run. The client profile, when given, answers
// the leading questions it can and the chat resumes at the first
// unanswered one.
func (s *Service) StartChat(ctx context.Context, session Session, toolID, clientProfileID, projectID string) (map[string]any, error) {
	tool, ok, err := s.catalog.Tool(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Tool not found", nil)
	}
	if tool.IsPro && !s.Can(session.Role, rbac.ActionUseProTools) {
		return nil, domainError(http.StatusForbidden, "PRO_REQUIRED", "This tool requires a Pro plan", nil)
	}

	var profilePtr *prefill.ClientProfile
	var profileIDPtr *string
	if clientProfileID != "" {
		stored, err := s.ownedClientProfile(ctx, session, clientProfileID)
		if err != nil {
			return nil, err
		}
		profilePtr = &prefill.ClientProfile{
			Name:     stored.Name,
			Audience: stored.Audience,
			Tone:     stored.Tone,
			Language: stored.Language,
			Sample:   stored.Sample,
		}
		profileIDPtr = &stored.ID
	}

	var projectIDPtr *string
	if projectID != "" {
		project, err := s.ownedProject(ctx, session, projectID)
		if err != nil {
			return nil, err
		}
		projectIDPtr = &project.ID
	}

	questions := prefillQuestions(tool)
	result := prefill.Match(profilePtr, questions)
	note := prefill.ComposeMessage(result, len(questions))

	status := store.ChatStatusCollecting
	if result.NextQuestionIndex >= len(tool.Questions) {
		status = store.ChatStatusReady
	}

	chat := store.Chat{
		ID:                util.NewID("chat"),
		OwnerID:           session.UserID,
		ToolID:            tool.ID,
		ProjectID:         projectIDPtr,
		ClientProfileID:   profileIDPtr,
		Title:             tool.Name,
		Answers:           result.Answers,
		NextQuestionIndex: result.NextQuestionIndex,
		Status:            status,
	}
	if err := s.store.InsertChat(ctx, chat); err != nil {
		return nil, err
	}

	messages := make([]store.ChatMessage, 0, 2)
	if note != "" {
		messages = append(messages, s.assistantMessage(chat.ID, note))
	}
	if status == store.ChatStatusCollecting {
		messages = append(messages, s.assistantMessage(chat.ID, tool.Questions[result.NextQuestionIndex].Label))
	}
	for _, message := range messages {
		if err := s.store.InsertChatMessage(ctx, message); err != nil {
			return nil, err
		}
	}

	payload := chatPayload(chat)
	payload["messages"] = messagePayloads(messages)
	payload["prefill"] = map[string]any{
		"matchedQuestions":  result.MatchedQuestions,
		"nextQuestionIndex": result.NextQuestionIndex,
		"hasPrefilledData":  result.HasPrefilledData,
	}
	return payload, nil
}

// AddChatMessage advances a collecting chat by one answer. The answer
// that completes the question list triggers generation in the same
// request; posting to an already-ready chat regenerates with the new
// message as extra instruction.
func (s *Service) AddChatMessage(ctx context.Context, session Session, chatID, body string) (map[string]any, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body is required", nil)
	}

	chat, err := s.ownedChat(ctx, session, chatID)
	if err != nil {
		return nil, err
	}
	if chat.Status == store.ChatStatusGenerated {
		return nil, domainError(http.StatusConflict, "CHAT_COMPLETE", "This chat already generated its copy", nil)
	}

	tool, ok, err := s.catalog.Tool(ctx, chat.ToolID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Tool not found", nil)
	}

	if err := s.store.InsertChatMessage(ctx, store.ChatMessage{
		ID:      util.NewID("msg"),
		ChatID:  chat.ID,
		Role:    "user",
		Content: body,
	}); err != nil {
		return nil, err
	}

	extra := ""
	if chat.Status == store.ChatStatusCollecting && chat.NextQuestionIndex < len(tool.Questions) {
		chat.Answers = append(chat.Answers, body)
		chat.NextQuestionIndex++
		if chat.NextQuestionIndex < len(tool.Questions) {
			chat.Status = store.ChatStatusCollecting
		} else {
			chat.Status = store.ChatStatusReady
		}
		if err := s.store.UpdateChatProgress(ctx, chat.ID, chat.Answers, chat.NextQuestionIndex, chat.Status); err != nil {
			return nil, err
		}

		if chat.Status == store.ChatStatusCollecting {
			question := s.assistantMessage(chat.ID, tool.Questions[chat.NextQuestionIndex].Label)
			if err := s.store.InsertChatMessage(ctx, question); err != nil {
				return nil, err
			}
			return s.chatWithMessages(ctx, chat)
		}
	} else {
		// Ready chat: the message is not an answer, it is extra
		// direction for the draft.
		extra = body
	}

	if err := s.generateDraft(ctx, &chat, tool, extra); err != nil {
		return nil, err
	}
	return s.chatWithMessages(ctx, chat)
}

// generateDraft composes the prompt from the tool template, the
// collected answers, and the client profile, then stores the provider's
// draft as the assistant reply and marks the chat generated. The chat
// stays ready when the provider fails, so the caller can retry.
func (s *Service) generateDraft(ctx context.Context, chat *store.Chat, tool catalog.Tool, extra string) error {
	provider, err := s.llm.Get(tool.Model)
	if err != nil {
		return domainError(http.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE", "The model behind this tool is not configured", tool.Model)
	}

	var clientProfile *store.ClientProfile
	if chat.ClientProfileID != nil {
		if stored, err := s.store.GetClientProfile(ctx, *chat.ClientProfileID); err == nil {
			clientProfile = &stored
		}
	}

	draft, err := provider.Generate(ctx, llm.Request{
		System: tool.PromptTemplate,
		Prompt: composePrompt(tool, chat.Answers, clientProfile, extra),
	})
	if err != nil {
		return domainError(http.StatusBadGateway, "GENERATION_FAILED", "Copy generation failed", err.Error())
	}

	if err := s.store.InsertChatMessage(ctx, s.assistantMessage(chat.ID, draft)); err != nil {
		return err
	}
	if err := s.store.UpdateChatStatus(ctx, chat.ID, store.ChatStatusGenerated); err != nil {
		return err
	}
	chat.Status = store.ChatStatusGenerated
	return nil
}

// composePrompt renders the user turn sent to the provider: numbered
// question/answer pairs, then client context, then any extra direction.
func composePrompt(tool catalog.Tool, answers []string, profile *store.ClientProfile, extra string) string {
	var b strings.Builder
	for i, question := range tool.Questions {
		if i >= len(answers) {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n%s\n\n", i+1, question.Label, answers[i])
	}
	if profile != nil {
		b.WriteString("Client context:\n")
		writeContextLine(&b, "Client", profile.Name)
		writeContextLine(&b, "Audience", profile.Audience)
		writeContextLine(&b, "Tone", profile.Tone)
		writeContextLine(&b, "Language", profile.Language)
		writeContextLine(&b, "Writing sample", profile.Sample)
		b.WriteString("\n")
	}
	if extra != "" {
		fmt.Fprintf(&b, "Additional direction:\n%s\n", extra)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeContextLine(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

func (s *Service) ListChats(ctx context.Context, session Session) ([]map[string]any, error) {
	chats, err := s.store.ListChats(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(chats))
	for _, chat := range chats {
		items = append(items, chatPayload(chat))
	}
	return items, nil
}

func (s *Service) GetChat(ctx context.Context, session Session, chatID string) (map[string]any, error) {
	chat, err := s.ownedChat(ctx, session, chatID)
	if err != nil {
		return nil, err
	}
	return s.chatWithMessages(ctx, chat)
}

func (s *Service) RenameChat(ctx context.Context, session Session, chatID, title string) (map[string]any, error) {
	chat, err := s.ownedChat(ctx, session, chatID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if err := s.store.UpdateChatTitle(ctx, chat.ID, title); err != nil {
		return nil, err
	}
	chat.Title = title
	return chatPayload(chat), nil
}

func (s *Service) DeleteChat(ctx context.Context, session Session, chatID string) error {
	if _, err := s.ownedChat(ctx, session, chatID); err != nil {
		return err
	}
	return s.store.DeleteChat(ctx, chatID)
}

func (s *Service) ownedChat(ctx context.Context, session Session, chatID string) (store.Chat, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return store.Chat{}, err
	}
	if chat.OwnerID != session.UserID {
		return store.Chat{}, sql.ErrNoRows
	}
	return chat, nil
}

func (s *Service) chatWithMessages(ctx context.Context, chat store.Chat) (map[string]any, error) {
	messages, err := s.store.ListChatMessages(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	payload := chatPayload(chat)
	payload["messages"] = messagePayloads(messages)
	return payload, nil
}

func (s *Service) assistantMessage(chatID, content string) store.ChatMessage {
	return store.ChatMessage{
		ID:      util.NewID("msg"),
		ChatID:  chatID,
		Role:    "assistant",
		Content: content,
	}
}

func prefillQuestions(tool catalog.Tool) []prefill.Question {
	questions := make([]prefill.Question, 0, len(tool.Questions))
	for _, q := range tool.Questions {
		questions = append(questions, prefill.Question{Label: q.Label, Order: q.SortOrder})
	}
	return questions
}

// --- Documents ---

func (s *Service) ListDocuments(ctx context.Context, session Session, projectID string) ([]map[string]any, error) {
	documents, err := s.store.ListDocuments(ctx, session.UserID, projectID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(documents))
	for _, doc := range documents {
		items = append(items, documentSummaryPayload(doc))
	}
	return items, nil
}

func (s *Service) CreateDocument(ctx context.Context, session Session, title, content string, projectID, chatID *string) (map[string]any, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if projectID != nil && *projectID != "" {
		if _, err := s.ownedProject(ctx, session, *projectID); err != nil {
			return nil, err
		}
	} else {
		projectID = nil
	}
	if chatID != nil && *chatID != "" {
		if _, err := s.ownedChat(ctx, session, *chatID); err != nil {
			return nil, err
		}
	} else {
		chatID = nil
	}

	doc := store.Document{
		ID:        util.NewID("doc"),
		OwnerID:   session.UserID,
		ProjectID: projectID,
		ChatID:    chatID,
		Title:     title,
		Content:   content,
	}
	if err := s.store.InsertDocument(ctx, doc); err != nil {
		return nil, err
	}
	s.indexDocument(doc)
	return documentPayload(doc), nil
}

func (s *Service) GetDocument(ctx context.Context, session Session, documentID string) (map[string]any, error) {
	doc, err := s.ownedDocument(ctx, session, documentID)
	if err != nil {
		return nil, err
	}
	return documentPayload(doc), nil
}

func (s *Service) UpdateDocument(ctx context.Context, session Session, documentID, title, content string) (map[string]any, error) {
	doc, err := s.ownedDocument(ctx, session, documentID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if err := s.store.UpdateDocument(ctx, doc.ID, title, content); err != nil {
		return nil, err
	}
	doc.Title = title
	doc.Content = content
	s.indexDocument(doc)
	return documentPayload(doc), nil
}

func (s *Service) DeleteDocument(ctx context.Context, session Session, documentID string) error {
	if _, err := s.ownedDocument(ctx, session, documentID); err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteDocument(documentID)
	}
	return nil
}

func (s *Service) ExportDocument(ctx context.Context, session Session, documentID, format string) (*export.Result, error) {
	doc, err := s.ownedDocument(ctx, session, documentID)
	if err != nil {
		return nil, err
	}
	result, err := s.exporter.Export(ctx, export.Request{
		Document: export.Document{
			Title:     doc.Title,
			Content:   doc.Content,
			Author:    session.FullName,
			UpdatedAt: doc.UpdatedAt,
		},
		Format: export.Format(format),
	})
	if err != nil {
		switch {
		case errors.Is(err, export.ErrContentUnavailable):
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Document has no content to export", nil)
		case errors.Is(err, export.ErrPDFDependencyMissing), errors.Is(err, export.ErrDOCXDependencyMissing):
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export dependency is not installed on this server", err.Error())
		default:
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		}
	}
	return result, nil
}

func (s *Service) ownedDocument(ctx context.Context, session Session, documentID string) (store.Document, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return store.Document{}, err
	}
	if doc.OwnerID != session.UserID {
		return store.Document{}, sql.ErrNoRows
	}
	return doc, nil
}

func (s *Service) indexDocument(doc store.Document) {
	if s.search == nil {
		return
	}
	projectID := ""
	if doc.ProjectID != nil {
		projectID = *doc.ProjectID
	}
	s.search.IndexDocument(search.DocumentRecord{
		ID:        doc.ID,
		Title:     doc.Title,
		Content:   doc.Content,
		OwnerID:   doc.OwnerID,
		ProjectID: projectID,
	})
}

// --- Admin users ---

func (s *Service) AdminListUsers(ctx context.Context) ([]map[string]any, error) {
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(profiles))
	for _, profile := range profiles {
		items = append(items, profilePayload(profile))
	}
	return items, nil
}

// AdminUpdateUser applies an explicit role or activation change. A
// deactivation also bans the identity, reactivation unbans; as in
// provisioning, a ban-sync failure after the committed profile write is
// surfaced, not compensated.
func (s *Service) AdminUpdateUser(ctx context.Context, session Session, userID string, role *string, active *bool) (map[string]any, error) {
	profile, err := s.store.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	newRole := profile.Role
	if role != nil {
		switch rbac.Role(*role) {
		case rbac.RoleUser, rbac.RolePro, rbac.RoleAdmin:
			newRole = *role
		default:
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "role must be user, pro, or admin", nil)
		}
	}
	newActive := profile.IsActive
	if active != nil {
		newActive = *active
	}

	if err := s.store.UpdateProfileStatus(ctx, userID, newRole, newActive, session.UserID); err != nil {
		return nil, err
	}

	if active != nil && newActive != profile.IsActive && s.identity != nil {
		action := provision.BanActionBan
		if newActive {
			action = provision.BanActionUnban
		}
		if err := s.identity.SetBan(ctx, userID, action); err != nil {
			return nil, domainError(http.StatusInternalServerError, "AUTH_SYNC_FAILED", "Auth sync failed", err.Error())
		}
	}

	profile.Role = newRole
	profile.IsActive = newActive
	return profilePayload(profile), nil
}

// --- Payload helpers ---

func profilePayload(profile store.Profile) map[string]any {
	payload := map[string]any{
		"id":        profile.ID,
		"email":     profile.Email,
		"fullName":  profile.FullName,
		"role":      profile.Role,
		"isActive":  profile.IsActive,
		"createdAt": profile.CreatedAt.Format(time.RFC3339),
		"updatedAt": profile.UpdatedAt.Format(time.RFC3339),
	}
	if profile.StatusUpdatedBy != nil {
		payload["statusUpdatedBy"] = *profile.StatusUpdatedBy
	}
	if profile.StatusUpdatedAt != nil {
		payload["statusUpdatedAt"] = profile.StatusUpdatedAt.Format(time.RFC3339)
	}
	return payload
}

func categoryPayload(category store.Category) map[string]any {
	return map[string]any{
		"id":          category.ID,
		"name":        category.Name,
		"slug":        category.Slug,
		"description": category.Description,
		"sortOrder":   category.SortOrder,
	}
}

func toolPayload(tool store.Tool, questions []store.ToolQuestion) map[string]any {
	questionItems := make([]map[string]any, 0, len(questions))
	for _, q := range questions {
		questionItems = append(questionItems, map[string]any{
			"id":          q.ID,
			"label":       q.Label,
			"placeholder": q.Placeholder,
			"fieldKey":    q.FieldKey,
			"sortOrder":   q.SortOrder,
		})
	}
	return map[string]any{
		"id":             tool.ID,
		"categoryId":     tool.CategoryID,
		"slug":           tool.Slug,
		"name":           tool.Name,
		"description":    tool.Description,
		"promptTemplate": tool.PromptTemplate,
		"model":          tool.Model,
		"isPro":          tool.IsPro,
		"isPublished":    tool.IsPublished,
		"questions":      questionItems,
	}
}

func projectPayload(project store.Project) map[string]any {
	return map[string]any{
		"id":          project.ID,
		"name":        project.Name,
		"description": project.Description,
		"createdAt":   project.CreatedAt.Format(time.RFC3339),
		"updatedAt":   project.UpdatedAt.Format(time.RFC3339),
	}
}

func clientProfilePayload(profile store.ClientProfile) map[string]any {
	return map[string]any{
		"id":        profile.ID,
		"name":      profile.Name,
		"audience":  profile.Audience,
		"tone":      profile.Tone,
		"language":  profile.Language,
		"sample":    profile.Sample,
		"createdAt": profile.CreatedAt.Format(time.RFC3339),
		"updatedAt": profile.UpdatedAt.Format(time.RFC3339),
	}
}

func chatPayload(chat store.Chat) map[string]any {
	answers := chat.Answers
	if answers == nil {
		answers = []string{}
	}
	payload := map[string]any{
		"id":                chat.ID,
		"toolId":            chat.ToolID,
		"title":             chat.Title,
		"answers":           answers,
		"nextQuestionIndex": chat.NextQuestionIndex,
		"status":            chat.Status,
		"createdAt":         chat.CreatedAt.Format(time.RFC3339),
		"updatedAt":         chat.UpdatedAt.Format(time.RFC3339),
	}
	if chat.ProjectID != nil {
		payload["projectId"] = *chat.ProjectID
	}
	if chat.ClientProfileID != nil {
		payload["clientProfileId"] = *chat.ClientProfileID
	}
	return payload
}

func messagePayloads(messages []store.ChatMessage) []map[string]any {
	items := make([]map[string]any, 0, len(messages))
	for _, message := range messages {
		items = append(items, map[string]any{
			"id":        message.ID,
			"role":      message.Role,
			"content":   message.Content,
			"createdAt": message.CreatedAt.Format(time.RFC3339),
		})
	}
	return items
}

func documentSummaryPayload(doc store.Document) map[string]any {
	payload := map[string]any{
		"id":        doc.ID,
		"title":     doc.Title,
		"excerpt":   excerpt(doc.Content, 160),
		"createdAt": doc.CreatedAt.Format(time.RFC3339),
		"updatedAt": doc.UpdatedAt.Format(time.RFC3339),
	}
	if doc.ProjectID != nil {
		payload["projectId"] = *doc.ProjectID
	}
	if doc.ChatID != nil {
		payload["chatId"] = *doc.ChatID
	}
	return payload
}

func documentPayload(doc store.Document) map[string]any {
	payload := documentSummaryPayload(doc)
	payload["content"] = doc.Content
	delete(payload, "excerpt")
	return payload
}

func excerpt(content string, max int) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) <= max {
		return content
	}
	cut := content[:max]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}

func slugify(input string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(input)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
