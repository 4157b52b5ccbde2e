package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Kartikpatkar/sfpkg-cli/internal/browser"
	"github.com/Kartikpatkar/sfpkg-cli/internal/config"
	"github.com/Kartikpatkar/sfpkg-cli/internal/login"
	"github.com/Kartikpatkar/sfpkg-cli/internal/metadata"
	"github.com/Kartikpatkar/sfpkg-cli/internal/observability"
	"github.com/Kartikpatkar/sfpkg-cli/internal/session"
	"github.com/Kartikpatkar/sfpkg-cli/internal/store"
)

// Components holds the initialized services a command needs. It
// centralizes lifecycle management so every command tears down in the
// same order.
type Components struct {
	Store    *store.Store
	Browser  *browser.Manager
	Resolver *session.Resolver
	Metadata *metadata.Client
	Login    *login.Flow

	logger *zap.Logger
}

// NewComponents wires up the full stack: store, browser connection,
// scanner/validator/resolver, metadata client and login flow.
func NewComponents(ctx context.Context) (*Components, error) {
	cfg := config.Get()
	logger := observability.GetLogger()

	st, err := store.Open(ctx, cfg.Cache.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	mgr, err := browser.NewManager(ctx, logger, cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	scanner := session.NewScanner(mgr, logger)
	validator := session.NewValidator(nil, mgr, cfg.Salesforce.ProbeAPIVersion, cfg.Salesforce.ValidateTimeout, logger)
	resolver := session.NewResolver(scanner, validator, mgr, mgr, session.ResolverOptions{
		CacheTTL:  cfg.Cache.SessionTTL,
		TabFilter: cfg.Browser.TabFilter,
	}, logger)

	return &Components{
		Store:    st,
		Browser:  mgr,
		Resolver: resolver,
		Metadata: metadata.NewClient(nil, st, cfg.Salesforce.ProbeAPIVersion, cfg.Cache.ListingTTL, logger),
		Login:    login.NewFlow(mgr, resolver, cfg.Salesforce.LoginTimeout, logger),
		logger:   logger,
	}, nil
}

// Shutdown gracefully closes all components.
func (c *Components) Shutdown(ctx context.Context) {
	if c.Browser != nil {
		if err := c.Browser.Shutdown(ctx); err != nil {
			c.logger.Warn("Browser shutdown failed", zap.Error(err))
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			c.logger.Warn("Store close failed", zap.Error(err))
		}
	}
	c.logger.Debug("Components shutdown complete")
}
