package browser

import (
	"context"

	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
)

// CookiesForDomain implements schemas.CookieStore over the browser's
// cookie jar. The DevTools call returns every cookie in the profile;
// matching is an exact comparison against the cookie's domain attribute,
// so leading-dot and host-only scopes stay distinct the way the scanner
// expects.
func (m *Manager) CookiesForDomain(ctx context.Context, domain string) ([]schemas.Cookie, error) {
	var out []schemas.Cookie
	err := m.run(ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		cookies, err := storage.GetCookies().Do(cctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			if c.Domain != domain {
				continue
			}
			out = append(out, schemas.Cookie{
				Name:   c.Name,
				Value:  c.Value,
				Domain: c.Domain,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	m.logger.Debug("Cookie lookup", zap.String("domain", domain), zap.Int("matches", len(out)))
	return out, nil
}
