// Package login drives the interactive login fallback: open a login
// page in a fresh tab, let the user authenticate, and watch for the
// redirect that signals an established session.
package login

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
)

const (
	productionLoginURL = "https://login.salesforce.com"
	sandboxLoginURL    = "https://test.salesforce.com"
)

// orgResolver is the slice of the session resolver the flow needs.
type orgResolver interface {
	GetCurrentOrg(ctx context.Context) schemas.OrgSession
	InvalidateCache()
}

// Flow runs the interactive login.
type Flow struct {
	tabs     schemas.TabContext
	resolver orgResolver
	timeout  time.Duration
	poll     time.Duration
	logger   *zap.Logger
}

// NewFlow wires up a login flow with the given overall ceiling.
func NewFlow(tabs schemas.TabContext, resolver orgResolver, timeout time.Duration, logger *zap.Logger) *Flow {
	return &Flow{
		tabs:     tabs,
		resolver: resolver,
		timeout:  timeout,
		poll:     time.Second,
		logger:   logger.Named("login"),
	}
}

// Login opens the login page and waits for the user to authenticate.
// The whole flow is bounded by the configured ceiling; on success the
// login tab is closed and the freshly resolved session returned.
func (f *Flow) Login(ctx context.Context, sandbox bool) (schemas.OrgSession, error) {
	authURL := productionLoginURL
	if sandbox {
		authURL = sandboxLoginURL
	}

	tab, err := f.tabs.OpenTab(ctx, authURL)
	if err != nil {
		return schemas.OrgSession{}, fmt.Errorf("failed to open login tab: %w", err)
	}
	f.logger.Info("Opened login page, waiting for authentication", zap.String("url", authURL))

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	ticker := time.NewTicker(f.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Deliberately leave the tab open on timeout; the user may
			// still be halfway through MFA.
			return schemas.OrgSession{}, fmt.Errorf("authentication timed out after %s", f.timeout)
		case <-ticker.C:
		}

		tabURL, err := f.tabs.TabURL(ctx, tab.ID)
		if err != nil {
			return schemas.OrgSession{}, fmt.Errorf("login tab disappeared: %w", err)
		}
		if !loginComplete(tabURL) {
			continue
		}

		// The redirect landed; the session may still take a moment to
		// settle, so an unauthenticated answer keeps us polling.
		f.resolver.InvalidateCache()
		org := f.resolver.GetCurrentOrg(ctx)
		if !org.IsAuthenticated {
			f.logger.Debug("Session not established yet, continuing to wait")
			continue
		}

		if err := f.tabs.CloseTab(ctx, tab.ID); err != nil {
			f.logger.Debug("Could not close login tab", zap.Error(err))
		}
		f.logger.Info("Login complete", zap.String("instance_url", org.InstanceURL))
		return org, nil
	}
}

// loginComplete reports whether a tab URL looks like the post-login
// landing page rather than the login form itself.
func loginComplete(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if !strings.HasSuffix(host, "salesforce.com") && !strings.HasSuffix(host, "force.com") {
		return false
	}
	return strings.Contains(u.Path, "/secur/") || strings.Contains(u.Path, "/lightning/setup/")
}
