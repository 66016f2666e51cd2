package export

import (
	"context"
	"fmt"
	"html/template"
	"strings"
)

// Service provides document export functionality
type Service struct{}

// NewService creates a new export service
func NewService() *Service {
	return &Service{}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Document.Title) == "" && strings.TrimSpace(req.Document.Content) == "" {
		return nil, ErrContentUnavailable
	}

	data := TemplateData{
		Title:       req.Document.Title,
		ContentHTML: template.HTML(TextToHTML(req.Document.Content)),
		Author:      req.Document.Author,
		UpdatedAt:   req.Document.UpdatedAt,
	}

	html, err := RenderDocumentHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(ctx, html, req.Document.Title)
	case FormatDOCX:
		return exportDOCX(ctx, html, req.Document.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}
