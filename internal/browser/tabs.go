package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
)

// pageTargets lists the browser's page targets, skipping DevTools and
// extension surfaces.
func (m *Manager) pageTargets(ctx context.Context) ([]*target.Info, error) {
	infos, err := chromedp.Targets(m.browserCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to list browser targets: %w", err)
	}
	return filterPages(infos), nil
}

// filterPages keeps only real page targets, dropping DevTools and
// extension surfaces.
func filterPages(infos []*target.Info) []*target.Info {
	pages := make([]*target.Info, 0, len(infos))
	for _, info := range infos {
		if info.Type != "page" {
			continue
		}
		if strings.HasPrefix(info.URL, "devtools://") || strings.HasPrefix(info.URL, "chrome-extension://") {
			continue
		}
		pages = append(pages, info)
	}
	return pages
}

// FocusedTab returns the tab the user is most likely looking at.
// DevTools reports page targets in most-recently-used order, so the
// first page target is the best available stand-in for "the tab that was
// open when the tool was invoked".
func (m *Manager) FocusedTab(ctx context.Context) (schemas.Tab, error) {
	pages, err := m.pageTargets(ctx)
	if err != nil {
		return schemas.Tab{}, err
	}
	if len(pages) == 0 {
		return schemas.Tab{}, fmt.Errorf("browser has no open page tabs")
	}
	info := pages[0]
	return schemas.Tab{ID: string(info.TargetID), URL: info.URL}, nil
}

// FindTab returns the first tab whose URL contains the substring.
func (m *Manager) FindTab(ctx context.Context, urlSubstring string) (schemas.Tab, error) {
	pages, err := m.pageTargets(ctx)
	if err != nil {
		return schemas.Tab{}, err
	}
	for _, info := range pages {
		if strings.Contains(info.URL, urlSubstring) {
			return schemas.Tab{ID: string(info.TargetID), URL: info.URL}, nil
		}
	}
	return schemas.Tab{}, fmt.Errorf("no open tab matches %q", urlSubstring)
}

// OpenTab creates a new tab navigated to the given URL.
func (m *Manager) OpenTab(ctx context.Context, url string) (schemas.Tab, error) {
	var id target.ID
	err := m.run(ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		var err error
		id, err = target.CreateTarget(url).Do(cctx)
		return err
	}))
	if err != nil {
		return schemas.Tab{}, fmt.Errorf("failed to open tab: %w", err)
	}
	return schemas.Tab{ID: string(id), URL: url}, nil
}

// CloseTab closes the tab with the given ID.
func (m *Manager) CloseTab(ctx context.Context, tabID string) error {
	err := m.run(ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		return target.CloseTarget(target.ID(tabID)).Do(cctx)
	}))
	if err != nil {
		return fmt.Errorf("failed to close tab %s: %w", tabID, err)
	}
	return nil
}

// TabURL reports the current URL of a tab.
func (m *Manager) TabURL(ctx context.Context, tabID string) (string, error) {
	infos, err := chromedp.Targets(m.browserCtx)
	if err != nil {
		return "", fmt.Errorf("failed to list browser targets: %w", err)
	}
	for _, info := range infos {
		if string(info.TargetID) == tabID {
			return info.URL, nil
		}
	}
	return "", fmt.Errorf("tab %s no longer exists", tabID)
}
