package app

import (
	"net/url"
	"strings"
)

// originResolver decides which Access-Control-Allow-Origin value a
// request origin earns. Resolution is an ordered allow-list: exact
// origins first, then the preview-deployment pattern. Anything else
// resolves to nothing and gets no CORS headers — there is no wildcard
// mode.
type originResolver struct {
	exact         []string
	previewSuffix string
}

func newOriginResolver(origins []string, previewSuffix string) *originResolver {
	exact := make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimRight(strings.TrimSpace(origin), "/"); trimmed != "" {
			exact = append(exact, trimmed)
		}
	}
	return &originResolver{exact: exact, previewSuffix: strings.TrimSpace(previewSuffix)}
}

// resolve returns the allowed origin to echo back, or "" when the
// origin is not allowed.
func (r *originResolver) resolve(origin string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return ""
	}

	for _, allowed := range r.exact {
		if origin == allowed {
			return origin
		}
	}

	// Preview deployments get per-branch hostnames, so they are matched
	// by suffix rather than listed. HTTPS only.
	if r.previewSuffix != "" {
		parsed, err := url.Parse(origin)
		if err == nil && parsed.Scheme == "https" && parsed.Host != "" {
			if parsed.Host == strings.TrimPrefix(r.previewSuffix, ".") || strings.HasSuffix(parsed.Host, ensureLeadingDot(r.previewSuffix)) {
				return origin
			}
		}
	}

	return ""
}

func ensureLeadingDot(suffix string) string {
	if strings.HasPrefix(suffix, ".") {
		return suffix
	}
	return "." + suffix
}
