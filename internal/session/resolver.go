package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
)

// candidateScanner and candidateValidator are the slices of Scanner and
// Validator the resolver consumes, declared here so tests can fake them.
type candidateScanner interface {
	Scan(ctx context.Context, tab schemas.Tab) []schemas.SessionCandidate
}

type candidateValidator interface {
	Validate(ctx context.Context, apiBase, token, tabID string) schemas.ValidationResult
}

// Resolver orchestrates cookie scanning and validation into a single
// OrgSession answer. GetCurrentOrg never returns an error: every failure
// mode collapses into an unauthenticated session, optionally with a
// reason attached.
type Resolver struct {
	scanner   candidateScanner
	validator candidateValidator
	tabs      schemas.TabContext
	page      schemas.PageContext
	cache     *Cache
	tabFilter string
	logger    *zap.Logger
}

// ResolverOptions tunes resolver behavior.
type ResolverOptions struct {
	// CacheTTL bounds how long an authenticated result is reused.
	CacheTTL time.Duration
	// TabFilter, when set, restricts tab selection to URLs containing it.
	TabFilter string
}

// NewResolver wires up a resolver. page may be nil; org metadata is then
// simply left unpopulated.
func NewResolver(scanner candidateScanner, validator candidateValidator, tabs schemas.TabContext, page schemas.PageContext, opts ResolverOptions, logger *zap.Logger) *Resolver {
	return &Resolver{
		scanner:   scanner,
		validator: validator,
		tabs:      tabs,
		page:      page,
		cache:     NewCache(opts.CacheTTL),
		tabFilter: opts.TabFilter,
		logger:    logger.Named("resolver"),
	}
}

// InvalidateCache drops the cached session, forcing the next resolution
// to rescan. Used when the user switches orgs or after a fresh login.
func (r *Resolver) InvalidateCache() {
	r.cache.Invalidate()
	r.logger.Debug("Session cache invalidated")
}

// GetCurrentOrg resolves the current org session. The cached result is
// returned when fresh; otherwise the single most-likely tab is scanned
// and its candidates are validated sequentially, best score first, until
// one succeeds. Negative outcomes are never cached.
func (r *Resolver) GetCurrentOrg(ctx context.Context) schemas.OrgSession {
	if org, ok := r.cache.Get(time.Now()); ok {
		r.logger.Debug("Returning cached org session", zap.String("instance_url", org.InstanceURL))
		return org
	}

	attempt := uuid.NewString()[:8]
	log := r.logger.With(zap.String("attempt", attempt))

	tab, err := r.pickTab(ctx)
	if err != nil {
		log.Debug("No usable tab", zap.Error(err))
		return schemas.OrgSession{Error: fmt.Sprintf("no usable browser tab: %v", err)}
	}
	log.Debug("Inspecting tab", zap.String("url", tab.URL))

	u, err := url.Parse(tab.URL)
	if err != nil {
		return schemas.OrgSession{Error: fmt.Sprintf("malformed tab URL: %v", err)}
	}
	hostname := u.Hostname()

	// Only real org hosts are worth scanning. Generic login/test hosts
	// and non-Salesforce pages resolve to a plain "not authenticated".
	if IsLoginOrTestHost(hostname) || !IsSalesforceHost(hostname) {
		log.Debug("Tab is not an org host", zap.String("hostname", hostname))
		return schemas.OrgSession{}
	}

	candidates := r.scanner.Scan(ctx, tab)
	if len(candidates) == 0 {
		log.Debug("No session cookie candidates found")
		return schemas.OrgSession{}
	}

	apiBase := APIBaseForHost(hostname, u.Scheme)
	isSandbox := IsSandboxHost(hostname)

	// First success wins; every failure is kept for the diagnostic trail.
	var failures []string
	for _, cand := range candidates {
		res := r.validator.Validate(ctx, apiBase, cand.CookieValue, tab.ID)
		if !res.Success {
			log.Debug("Candidate failed validation",
				zap.String("cookie", cand.CookieName),
				zap.String("reason", res.Reason()),
			)
			failures = append(failures, fmt.Sprintf("%s: %s", cand.CookieName, res.Reason()))
			continue
		}

		org := schemas.OrgSession{
			IsAuthenticated: true,
			InstanceURL:     apiBase,
			SessionToken:    cand.CookieValue,
			IsSandbox:       isSandbox,
		}
		r.attachOrgInfo(ctx, tab.ID, &org, log)

		r.cache.Put(org, time.Now())
		log.Info("Resolved org session",
			zap.String("instance_url", org.InstanceURL),
			zap.Bool("sandbox", org.IsSandbox),
			zap.String("cookie", cand.CookieName),
		)
		return org
	}

	log.Info("All session candidates failed validation", zap.Int("candidates", len(candidates)))
	return schemas.OrgSession{
		Error: "all session candidates failed validation: " + strings.Join(failures, "; "),
	}
}

// pickTab selects the single tab to inspect: the first tab matching the
// configured filter, or the focused page target. Deliberately not a scan
// of every open tab; unrelated background tabs produce false positives
// and needless cookie traffic.
func (r *Resolver) pickTab(ctx context.Context) (schemas.Tab, error) {
	if r.tabFilter != "" {
		return r.tabs.FindTab(ctx, r.tabFilter)
	}
	return r.tabs.FocusedTab(ctx)
}

// attachOrgInfo augments a resolved session with best-effort metadata
// from the page context. Absence of the collaborator is not a failure.
func (r *Resolver) attachOrgInfo(ctx context.Context, tabID string, org *schemas.OrgSession, log *zap.Logger) {
	if r.page == nil {
		return
	}
	info, err := r.page.OrgInfo(ctx, tabID)
	if err != nil {
		log.Debug("Could not get org info from tab", zap.Error(err))
		return
	}
	org.OrgID = info.OrgID
	org.UserID = info.UserID
	org.Username = info.Username
}
