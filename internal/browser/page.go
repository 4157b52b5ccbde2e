package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
)

// orgInfoJS mirrors what a Salesforce page leaks about its org: the oid
// cookie and the profile widget's display name. Everything is optional.
const orgInfoJS = `(() => {
	const m = document.cookie.match(/oid=([^;]+)/);
	const el = document.querySelector('.profileTrigger');
	return JSON.stringify({
		orgId: m ? m[1] : "",
		userId: "",
		username: el ? el.textContent.trim() : ""
	});
})()`

// validateJS runs the limits probe from inside the page so the request
// carries the page's own cookies and same-site context.
const validateJS = `(async () => {
	try {
		const res = await fetch(%s + "/services/data/v%s/limits", {
			headers: { Authorization: "Bearer " + %s },
			cache: "no-cache"
		});
		const ct = res.headers.get("content-type") || "";
		return JSON.stringify({ success: res.ok && ct.includes("json"), status: res.status, contentType: ct });
	} catch (e) {
		return JSON.stringify({ success: false, error: String(e) });
	}
})()`

// tabContext derives a chromedp context attached to one tab, bounded by
// the page-probe timeout so a silent page fails instead of hanging.
func (m *Manager) tabContext(tabID string) (context.Context, context.CancelFunc) {
	tctx, cancel1 := chromedp.NewContext(m.browserCtx, chromedp.WithTargetID(target.ID(tabID)))
	tctx, cancel2 := context.WithTimeout(tctx, m.cfg.Salesforce.PageProbeTimeout)
	return tctx, func() {
		cancel2()
		cancel1()
	}
}

// Probe checks that the tab's JavaScript context answers at all.
func (m *Manager) Probe(ctx context.Context, tabID string) error {
	tctx, cancel := m.tabContext(tabID)
	defer cancel()

	var state string
	if err := chromedp.Run(tctx, chromedp.Evaluate(`document.readyState`, &state)); err != nil {
		return fmt.Errorf("page context unreachable: %w", err)
	}
	return nil
}

// OrgInfo extracts best-effort org metadata from the page.
func (m *Manager) OrgInfo(ctx context.Context, tabID string) (schemas.OrgInfo, error) {
	tctx, cancel := m.tabContext(tabID)
	defer cancel()

	var raw string
	if err := chromedp.Run(tctx, chromedp.Evaluate(orgInfoJS, &raw)); err != nil {
		return schemas.OrgInfo{}, fmt.Errorf("org info evaluation failed: %w", err)
	}
	var info schemas.OrgInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return schemas.OrgInfo{}, fmt.Errorf("org info response malformed: %w", err)
	}
	return info, nil
}

// ValidateSession performs the limits probe inside the page context.
func (m *Manager) ValidateSession(ctx context.Context, tabID, apiBase, token string) (schemas.ValidationResult, error) {
	tctx, cancel := m.tabContext(tabID)
	defer cancel()

	expr := fmt.Sprintf(validateJS, jsString(apiBase), m.cfg.Salesforce.ProbeAPIVersion, jsString(token))

	var raw string
	err := chromedp.Run(tctx, chromedp.Evaluate(expr, &raw,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		},
	))
	if err != nil {
		return schemas.ValidationResult{}, fmt.Errorf("in-page validation failed: %w", err)
	}

	var result schemas.ValidationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return schemas.ValidationResult{}, fmt.Errorf("in-page validation response malformed: %w", err)
	}
	return result, nil
}

// jsString embeds a Go string into a JS expression as a quoted literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
