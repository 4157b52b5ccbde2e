package session

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
)

// canonicalCookieName is the cookie Salesforce uses for the org session.
const canonicalCookieName = "sid"

// Scanner enumerates candidate session cookies for a tab. It performs no
// network I/O; validation of the candidates happens elsewhere.
type Scanner struct {
	cookies schemas.CookieStore
	logger  *zap.Logger
}

// NewScanner creates a scanner over the given cookie store.
func NewScanner(cookies schemas.CookieStore, logger *zap.Logger) *Scanner {
	return &Scanner{
		cookies: cookies,
		logger:  logger.Named("scanner"),
	}
}

// ScoreSessionCookie ranks a cookie name by how closely it matches the
// canonical session cookie. 0 means the cookie is not a candidate at all.
func ScoreSessionCookie(name string) int {
	switch {
	case name == canonicalCookieName:
		return schemas.ScoreExact
	case strings.HasPrefix(name, canonicalCookieName+"_"):
		return schemas.ScorePrefixed
	case strings.Contains(name, canonicalCookieName):
		return schemas.ScoreSubstring
	}
	return 0
}

// Scan returns the session-cookie candidates for a tab, highest score
// first. Candidates carrying the same cookie value are collapsed into one.
// Tabs on generic login/test hosts yield no candidates.
func (s *Scanner) Scan(ctx context.Context, tab schemas.Tab) []schemas.SessionCandidate {
	u, err := url.Parse(tab.URL)
	if err != nil {
		s.logger.Debug("Skipping tab with unparseable URL", zap.String("url", tab.URL), zap.Error(err))
		return nil
	}
	hostname := u.Hostname()
	if IsLoginOrTestHost(hostname) {
		s.logger.Debug("Skipping login/test host", zap.String("hostname", hostname))
		return nil
	}

	// Cookie lookup domains: the exact host, its leading-dot variant, and
	// the canonical parent domains an org session may be scoped to.
	domains := []string{
		hostname,
		"." + hostname,
		".salesforce.com",
		".my.salesforce.com",
		".force.com",
	}

	var scored []schemas.SessionCandidate
	for _, domain := range domains {
		cookies, err := s.cookies.CookiesForDomain(ctx, domain)
		if err != nil {
			// A domain yielding nothing is not an error; move on.
			s.logger.Debug("Cookie lookup failed for domain", zap.String("domain", domain), zap.Error(err))
			continue
		}
		for _, c := range cookies {
			score := ScoreSessionCookie(c.Name)
			if score == 0 {
				continue
			}
			scored = append(scored, schemas.SessionCandidate{
				CookieName:  c.Name,
				CookieValue: c.Value,
				Domain:      domain,
				Score:       score,
			})
		}
	}

	// Stable sort keeps discovery order among equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	// Dedupe by value after sorting so the highest-scored name wins.
	seen := make(map[string]struct{}, len(scored))
	candidates := scored[:0]
	for _, cand := range scored {
		if _, dup := seen[cand.CookieValue]; dup {
			continue
		}
		seen[cand.CookieValue] = struct{}{}
		candidates = append(candidates, cand)
	}

	s.logger.Debug("Cookie scan complete",
		zap.String("hostname", hostname),
		zap.Int("candidates", len(candidates)),
	)
	return candidates
}
