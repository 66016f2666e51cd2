package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across published tools and the
// caller's documents using plainto_tsquery and ts_rank, with
// ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	// Tools sub-query: only published tools are searchable.
	if q.FilterType == "" || q.FilterType == ResultTool {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'tool'::text AS type, t.id, t.name AS title,
				ts_headline('english', coalesce(t.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				t.category_id AS category, t.is_pro,
				''::text AS project_id,
				ts_rank(t.fts, %s) AS rank
			FROM tools t
			WHERE t.fts @@ %s AND t.is_published`, tsQuery, tsQuery, tsQuery))
	}

	// Documents sub-query: always owner-scoped.
	if (q.FilterType == "" || q.FilterType == ResultDocument) && q.OwnerID != "" {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'document'::text AS type, d.id, d.title,
				ts_headline('english', coalesce(d.content, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				''::text AS category, FALSE AS is_pro,
				coalesce(d.project_id, '') AS project_id,
				ts_rank(d.fts, %s) AS rank
			FROM documents d
			WHERE d.fts @@ %s AND d.owner_id = $%d`, tsQuery, tsQuery, tsQuery, argN))
		args = append(args, q.OwnerID)
		argN++
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, category, is_pro, project_id
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.Category, &r.IsPro, &r.ProjectID); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
// Question labels are folded into each tool record so Meilisearch can
// match on them even though the FTS columns only cover name and
// description.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]ToolRecord, []DocumentRecord, error) {
	toolRows, err := p.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.description, t.category_id, t.is_pro,
			coalesce(string_agg(q.label, ' ' ORDER BY q.sort_order), '')
		FROM tools t
		LEFT JOIN tool_questions q ON q.tool_id = t.id
		WHERE t.is_published
		GROUP BY t.id
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load tools: %w", err)
	}
	defer toolRows.Close()

	tools := make([]ToolRecord, 0)
	for toolRows.Next() {
		var t ToolRecord
		if err := toolRows.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.IsPro, &t.QuestionText); err != nil {
			return nil, nil, fmt.Errorf("scan tool: %w", err)
		}
		tools = append(tools, t)
	}
	if err := toolRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate tools: %w", err)
	}

	docRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, content, owner_id, coalesce(project_id, '')
		FROM documents
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load documents: %w", err)
	}
	defer docRows.Close()

	documents := make([]DocumentRecord, 0)
	for docRows.Next() {
		var d DocumentRecord
		if err := docRows.Scan(&d.ID, &d.Title, &d.Content, &d.OwnerID, &d.ProjectID); err != nil {
			return nil, nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, d)
	}
	if err := docRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate documents: %w", err)
	}

	return tools, documents, nil
}
