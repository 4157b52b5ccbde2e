package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
)

// Validator confirms that a candidate session token is live by probing a
// lightweight, side-effect-free endpoint. It never returns an error:
// every outcome, including transport failure, is a ValidationResult so
// the resolver can keep trying further candidates.
type Validator struct {
	client       *http.Client
	page         schemas.PageContext
	probeVersion string
	logger       *zap.Logger
}

// NewValidator creates a validator. A nil transport falls back to
// http.DefaultTransport; page may be nil when no page context is
// available (direct probes only).
func NewValidator(transport http.RoundTripper, page schemas.PageContext, probeVersion string, timeout time.Duration, logger *zap.Logger) *Validator {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Validator{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			// A redirect means the session is dead and we're being
			// bounced to a login page. Surface the 3xx instead of
			// following it into a 200 OK HTML page.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		page:         page,
		probeVersion: probeVersion,
		logger:       logger.Named("validator"),
	}
}

// Validate checks a candidate token against the org at apiBase. When a
// tab ID is given, the page-context path is tried first because it runs
// inside the page's own cookie jar and same-site context; any failure
// there falls through to the direct REST probe.
func (v *Validator) Validate(ctx context.Context, apiBase, token, tabID string) schemas.ValidationResult {
	if apiBase == "" || token == "" {
		return schemas.ValidationResult{Err: "missing apiBase or session token"}
	}

	if tabID != "" && v.page != nil {
		res, err := v.page.ValidateSession(ctx, tabID, apiBase, token)
		if err == nil && res.Success {
			return res
		}
		if err != nil {
			v.logger.Debug("Page-context validation unavailable, falling back to direct probe", zap.Error(err))
		} else {
			v.logger.Debug("Page-context validation failed, falling back to direct probe", zap.String("reason", res.Reason()))
		}
	}

	return v.probe(ctx, apiBase, token)
}

// probe issues the direct authenticated GET against the limits endpoint.
func (v *Validator) probe(ctx context.Context, apiBase, token string) schemas.ValidationResult {
	probeURL := fmt.Sprintf("%s/services/data/v%s/limits", apiBase, v.probeVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return schemas.ValidationResult{Err: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := v.client.Do(req)
	if err != nil {
		return schemas.ValidationResult{Err: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return schemas.ValidationResult{
			Status: resp.StatusCode,
			Err:    "redirected, session likely expired",
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return schemas.ValidationResult{
			Status: resp.StatusCode,
			Err:    strings.TrimSpace(string(preview)),
		}
	}

	// A 200 with an HTML body is a login page in disguise.
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "json") {
		return schemas.ValidationResult{
			Status:      resp.StatusCode,
			ContentType: contentType,
		}
	}

	return schemas.ValidationResult{Success: true, Status: resp.StatusCode}
}
