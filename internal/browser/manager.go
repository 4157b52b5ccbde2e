// Package browser talks to the user's Chrome over the DevTools protocol.
// It prefers attaching to an already-running browser (the whole point is
// to read the session the user already has); it can launch one for the
// interactive login flow when nothing is listening.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
	"github.com/Kartikpatkar/sfpkg-cli/internal/config"
)

// Manager owns the connection to the browser and implements the
// CookieStore, TabContext and PageContext capabilities on top of it.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	allocCtx    context.Context
	allocCancel context.CancelFunc

	browserCtx    context.Context
	browserCancel context.CancelFunc

	// launched records whether we started the browser ourselves, in
	// which case Shutdown also terminates the process.
	launched bool
}

// Compile-time capability checks.
var (
	_ schemas.CookieStore = (*Manager)(nil)
	_ schemas.TabContext  = (*Manager)(nil)
	_ schemas.PageContext = (*Manager)(nil)
)

// NewManager connects to the browser. Attach to the configured DevTools
// endpoint first; optionally fall back to launching a browser when
// nothing answers.
func NewManager(ctx context.Context, logger *zap.Logger, cfg *config.Config) (*Manager, error) {
	m := &Manager{
		logger: logger.Named("browser"),
		cfg:    cfg,
	}

	if cfg.Browser.DevToolsURL != "" {
		if err := m.attach(ctx); err == nil {
			m.logger.Info("Attached to running browser", zap.String("devtools_url", cfg.Browser.DevToolsURL))
			return m, nil
		} else if !cfg.Browser.LaunchIfMissing {
			return nil, fmt.Errorf("failed to attach to browser at %s: %w", cfg.Browser.DevToolsURL, err)
		} else {
			m.logger.Warn("Could not attach to running browser, launching one",
				zap.String("devtools_url", cfg.Browser.DevToolsURL),
				zap.Error(err),
			)
		}
	}

	if err := m.launch(ctx); err != nil {
		return nil, err
	}
	m.logger.Info("Launched browser", zap.Bool("headless", cfg.Browser.Headless))
	return m, nil
}

// attach connects to an existing browser over its DevTools endpoint.
func (m *Manager) attach(ctx context.Context) error {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, m.cfg.Browser.DevToolsURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(m.logger.Sugar().Debugf),
		chromedp.WithErrorf(m.logger.Sugar().Errorf),
	)

	// Establish the connection now so a dead endpoint fails fast.
	connectCtx, cancel := context.WithTimeout(browserCtx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(connectCtx); err != nil {
		browserCancel()
		allocCancel()
		return err
	}

	m.allocCtx, m.allocCancel = allocCtx, allocCancel
	m.browserCtx, m.browserCancel = browserCtx, browserCancel
	return nil
}

// launch starts a browser process of our own.
func (m *Manager) launch(ctx context.Context) error {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-gpu", m.cfg.Browser.Headless),
	)
	if !m.cfg.Browser.Headless {
		// DefaultExecAllocatorOptions assume headless; the login flow
		// needs a window the user can type into.
		opts = append(opts, chromedp.Flag("headless", false))
	}
	for _, arg := range m.cfg.Browser.ExecArgs {
		opts = append(opts, chromedp.Flag(arg, true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(m.logger.Sugar().Debugf),
		chromedp.WithErrorf(m.logger.Sugar().Errorf),
	)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	m.allocCtx, m.allocCancel = allocCtx, allocCancel
	m.browserCtx, m.browserCancel = browserCtx, browserCancel
	m.launched = true
	return nil
}

// Shutdown disconnects from the browser. A browser we attached to keeps
// running; one we launched is terminated with the allocator.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Debug("Shutting down browser manager", zap.Bool("launched", m.launched))
	if m.browserCancel != nil {
		m.browserCancel()
	}
	if m.allocCancel != nil {
		m.allocCancel()
	}
	return nil
}

// run executes chromedp actions against the browser connection, bounded
// by the caller's deadline when one is set.
func (m *Manager) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := m.browserCtx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}
