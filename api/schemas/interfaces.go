package schemas

import "context"

// CookieStore exposes the browser cookie jar. The real implementation
// queries Chrome over the DevTools protocol; tests supply a fake.
type CookieStore interface {
	// CookiesForDomain returns the cookies whose domain attribute matches
	// the given domain exactly (leading-dot variants are distinct domains).
	CookiesForDomain(ctx context.Context, domain string) ([]Cookie, error)
}

// TabContext exposes tab enumeration and lifecycle operations.
type TabContext interface {
	// FocusedTab returns the tab the user is most likely looking at.
	FocusedTab(ctx context.Context) (Tab, error)
	// FindTab returns the first tab whose URL contains the substring.
	FindTab(ctx context.Context, urlSubstring string) (Tab, error)
	// OpenTab creates a new tab navigated to the given URL.
	OpenTab(ctx context.Context, url string) (Tab, error)
	// CloseTab closes the tab with the given ID.
	CloseTab(ctx context.Context, tabID string) error
	// TabURL reports the current URL of a tab, which changes as the page
	// navigates (used by the login flow to watch for the redirect).
	TabURL(ctx context.Context, tabID string) (string, error)
}

// PageContext runs short exchanges inside a tab's JavaScript context.
// All operations are bounded by a timeout; a collaborator that never
// answers is a failure, not a hang.
type PageContext interface {
	// Probe checks that the page context is reachable at all.
	Probe(ctx context.Context, tabID string) error
	// OrgInfo extracts best-effort org metadata from the page.
	OrgInfo(ctx context.Context, tabID string) (OrgInfo, error)
	// ValidateSession performs the limits probe from inside the page,
	// reusing the page's own cookie jar and same-site context.
	ValidateSession(ctx context.Context, tabID, apiBase, token string) (ValidationResult, error)
}
