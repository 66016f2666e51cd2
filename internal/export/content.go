package export

import (
	"html"
	"strings"
)

// TextToHTML renders stored document text as minimal HTML: blank lines
// separate paragraphs, single newlines become hard breaks, and
// everything is escaped. Documents hold the model's plain-text output,
// so this is the whole conversion.
func TextToHTML(content string) string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")

	var b strings.Builder
	for _, block := range strings.Split(normalized, "\n\n") {
		trimmed := strings.TrimSpace(block)
		if trimmed == "" {
			continue
		}
		lines := strings.Split(trimmed, "\n")
		escaped := make([]string, 0, len(lines))
		for _, line := range lines {
			escaped = append(escaped, html.EscapeString(strings.TrimRight(line, " \t")))
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(escaped, "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
