package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
	"github.com/Kartikpatkar/sfpkg-cli/internal/session"
)

type fakeScanner struct {
	candidates []schemas.SessionCandidate
	scans      int
}

func (f *fakeScanner) Scan(context.Context, schemas.Tab) []schemas.SessionCandidate {
	f.scans++
	return f.candidates
}

// fakeValidator maps tokens onto canned results and records the order
// tokens were tried in.
type fakeValidator struct {
	results map[string]schemas.ValidationResult
	tried   []string
}

func (f *fakeValidator) Validate(_ context.Context, _, token, _ string) schemas.ValidationResult {
	f.tried = append(f.tried, token)
	if res, ok := f.results[token]; ok {
		return res
	}
	return schemas.ValidationResult{Err: "unknown token"}
}

type fakeTabs struct {
	focused    schemas.Tab
	focusedErr error
	found      schemas.Tab
	finds      []string
}

func (f *fakeTabs) FocusedTab(context.Context) (schemas.Tab, error) {
	return f.focused, f.focusedErr
}

func (f *fakeTabs) FindTab(_ context.Context, substring string) (schemas.Tab, error) {
	f.finds = append(f.finds, substring)
	return f.found, nil
}

func (f *fakeTabs) OpenTab(context.Context, string) (schemas.Tab, error) {
	return schemas.Tab{}, errors.New("not implemented")
}

func (f *fakeTabs) CloseTab(context.Context, string) error { return nil }

func (f *fakeTabs) TabURL(context.Context, string) (string, error) { return "", nil }

// fakeInfoPage serves org metadata for the enrichment step.
type fakeInfoPage struct {
	info schemas.OrgInfo
	err  error
}

func (f *fakeInfoPage) Probe(context.Context, string) error { return nil }

func (f *fakeInfoPage) OrgInfo(context.Context, string) (schemas.OrgInfo, error) {
	return f.info, f.err
}

func (f *fakeInfoPage) ValidateSession(context.Context, string, string, string) (schemas.ValidationResult, error) {
	return schemas.ValidationResult{}, errors.New("not implemented")
}

func orgTab(url string) schemas.Tab { return schemas.Tab{ID: "tab1", URL: url} }

func TestGetCurrentOrg_Success(t *testing.T) {
	scanner := &fakeScanner{candidates: []schemas.SessionCandidate{
		{CookieName: "sid", CookieValue: "good", Score: schemas.ScoreExact},
	}}
	validator := &fakeValidator{results: map[string]schemas.ValidationResult{
		"good": {Success: true, Status: 200},
	}}
	tabs := &fakeTabs{focused: orgTab("https://acme.my.salesforce.com/lightning/page/home")}
	page := &fakeInfoPage{info: schemas.OrgInfo{OrgID: "00D000000000001", Username: "dev@acme.com"}}

	r := session.NewResolver(scanner, validator, tabs, page, session.ResolverOptions{CacheTTL: time.Minute}, zap.NewNop())
	org := r.GetCurrentOrg(context.Background())

	assert.True(t, org.IsAuthenticated)
	assert.Equal(t, "https://acme.my.salesforce.com", org.InstanceURL)
	assert.Equal(t, "good", org.SessionToken)
	assert.False(t, org.IsSandbox)
	assert.Equal(t, "00D000000000001", org.OrgID)
	assert.Equal(t, "dev@acme.com", org.Username)
}

func TestGetCurrentOrg_LightningHostMapsToAPIHost(t *testing.T) {
	scanner := &fakeScanner{candidates: []schemas.SessionCandidate{
		{CookieName: "sid", CookieValue: "good", Score: schemas.ScoreExact},
	}}
	validator := &fakeValidator{results: map[string]schemas.ValidationResult{
		"good": {Success: true},
	}}
	tabs := &fakeTabs{focused: orgTab("https://acme.lightning.force.com/lightning/setup/home")}

	r := session.NewResolver(scanner, validator, tabs, nil, session.ResolverOptions{CacheTTL: time.Minute}, zap.NewNop())
	org := r.GetCurrentOrg(context.Background())

	require.True(t, org.IsAuthenticated)
	assert.Equal(t, "https://acme.my.salesforce.com", org.InstanceURL)
}

func TestGetCurrentOrg_SandboxHeuristic(t *testing.T) {
	scanner := &fakeScanner{candidates: []schemas.SessionCandidate{
		{CookieName: "sid", CookieValue: "good", Score: schemas.ScoreExact},
	}}
	validator := &fakeValidator{results: map[string]schemas.ValidationResult{
		"good": {Success: true},
	}}
	tabs := &fakeTabs{focused: orgTab("https://acme--uat.sandbox.my.salesforce.com/home")}

	r := session.NewResolver(scanner, validator, tabs, nil, session.ResolverOptions{CacheTTL: time.Minute}, zap.NewNop())
	org := r.GetCurrentOrg(context.Background())

	require.True(t, org.IsAuthenticated)
	assert.True(t, org.IsSandbox)
}

func TestGetCurrentOrg_NonSalesforceTab(t *testing.T) {
	scanner := &fakeScanner{}
	tabs := &fakeTabs{focused: orgTab("https://news.ycombinator.com/")}

	r := session.NewResolver(scanner, &fakeValidator{}, tabs, nil, session.ResolverOptions{CacheTTL: time.Minute}, zap.NewNop())
	org := r.GetCurrentOrg(context.Background())

	assert.False(t, org.IsAuthenticated)
	assert.Empty(t, org.Error)
	assert.Equal(t, 0, scanner.scans, "non-Salesforce tabs are never scanned")
}

func TestGetCurrentOrg_LoginHostIsNotAnOrg(t *testing.T) {
	scanner := &fakeScanner{}
	tabs := &fakeTabs{focused: orgTab("https://login.salesforce.com/")}

	r := session.NewResolver(scanner, &fakeValidator{}, tabs, nil, session.ResolverOptions{CacheTTL: time.Minute}, zap.NewNop())
	org := r.GetCurrentOrg(context.Background())

	assert.False(t, org.IsAuthenticated)
	assert.Equal(t, 0, scanner.scans)
}

func TestGetCurrentOrg_NoUsableTab(t *testing.T) {
	tabs := &fakeTabs{focusedErr: errors.New("no page targets")}

	r := session.NewResolver(&fakeScanner{}, &fakeValidator{}, tabs, nil, session.ResolverOptions{CacheTTL: time.Minute}, zap.NewNop())
	org := r.GetCurrentOrg(context.Background())

	assert.False(t, org.IsAuthenticated)
	assert.Contains(t, org.Error, "no usable browser tab")
}

func TestGetCurrentOrg_FirstSuccessWins(t *testing.T) {
	scanner := &fakeScanner{candidates: []schemas.SessionCandidate{
		{CookieName: "sid", CookieValue: "dead", Score: schemas.ScoreExact},
		{CookieName: "sid_Client", CookieValue: "alive", Score: schemas.ScorePrefixed},
		{CookieName: "sidecar", CookieValue: "never", Score: schemas.ScoreSubstring},
	}}
	validator := &fakeValidator{results: map[string]schemas.ValidationResult{
		"dead":  {Status: 401, Err: "expired"},
		"alive": {Success: true},
	}}
	tabs := &fakeTabs{focused: orgTab("https://acme.my.salesforce.com/home")}

	r := session.NewResolver(scanner, validator, tabs, nil, session.ResolverOptions{CacheTTL: time.Minute}, zap.NewNop())
	org := r.GetCurrentOrg(context.Background())

	require.True(t, org.IsAuthenticated)
	assert.Equal(t, "alive", org.SessionToken)
	assert.Equal(t, []string{"dead", "alive"}, validator.tried, "validation stops at the first success")
}

func TestGetCurrentOrg_AllCandidatesFail(t *testing.T) {
	scanner := &fakeScanner{candidates: []schemas.SessionCandidate{
		{CookieName: "sid", CookieValue: "dead1", Score: schemas.ScoreExact},
		{CookieName: "sid_Client", CookieValue: "dead2", Score: schemas.ScorePrefixed},
	}}
	validator := &fakeValidator{results: map[string]schemas.ValidationResult{
		"dead1": {Status: 401, Err: "expired"},
		"dead2": {Status: 302, Err: "redirected, session likely expired"},
	}}
	tabs := &fakeTabs{focused: orgTab("https://acme.my.salesforce.com/home")}

	r := session.NewResolver(scanner, validator, tabs, nil, session.ResolverOptions{CacheTTL: time.Minute}, zap.NewNop())
	org := r.GetCurrentOrg(context.Background())

	assert.False(t, org.IsAuthenticated)
	assert.Contains(t, org.Error, "sid: expired (HTTP 401)")
	assert.Contains(t, org.Error, "sid_Client:")
}

func TestGetCurrentOrg_CachesAuthenticatedResult(t *testing.T) {
	scanner := &fakeScanner{candidates: []schemas.SessionCandidate{
		{CookieName: "sid", CookieValue: "good", Score: schemas.ScoreExact},
	}}
	validator := &fakeValidator{results: map[string]schemas.ValidationResult{
		"good": {Success: true},
	}}
	tabs := &fakeTabs{focused: orgTab("https://acme.my.salesforce.com/home")}

	r := session.NewResolver(scanner, validator, tabs, nil, session.ResolverOptions{CacheTTL: time.Minute}, zap.NewNop())

	first := r.GetCurrentOrg(context.Background())
	second := r.GetCurrentOrg(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, 1, scanner.scans, "a fresh cached session must not trigger a rescan")
}

func TestGetCurrentOrg_InvalidateForcesRescan(t *testing.T) {
	scanner := &fakeScanner{candidates: []schemas.SessionCandidate{
		{CookieName: "sid", CookieValue: "good", Score: schemas.ScoreExact},
	}}
	validator := &fakeValidator{results: map[string]schemas.ValidationResult{
		"good": {Success: true},
	}}
	tabs := &fakeTabs{focused: orgTab("https://acme.my.salesforce.com/home")}

	r := session.NewResolver(scanner, validator, tabs, nil, session.ResolverOptions{CacheTTL: time.Minute}, zap.NewNop())

	r.GetCurrentOrg(context.Background())
	r.InvalidateCache()
	r.GetCurrentOrg(context.Background())

	assert.Equal(t, 2, scanner.scans)
}

func TestGetCurrentOrg_NegativeResultsNotCached(t *testing.T) {
	scanner := &fakeScanner{}
	tabs := &fakeTabs{focused: orgTab("https://acme.my.salesforce.com/home")}

	r := session.NewResolver(scanner, &fakeValidator{}, tabs, nil, session.ResolverOptions{CacheTTL: time.Minute}, zap.NewNop())

	r.GetCurrentOrg(context.Background())
	r.GetCurrentOrg(context.Background())

	assert.Equal(t, 2, scanner.scans, "failed resolutions always rescan")
}

func TestGetCurrentOrg_TabFilterUsesFindTab(t *testing.T) {
	scanner := &fakeScanner{candidates: []schemas.SessionCandidate{
		{CookieName: "sid", CookieValue: "good", Score: schemas.ScoreExact},
	}}
	validator := &fakeValidator{results: map[string]schemas.ValidationResult{
		"good": {Success: true},
	}}
	tabs := &fakeTabs{
		focused: orgTab("https://unrelated.example.com/"),
		found:   orgTab("https://acme.my.salesforce.com/home"),
	}

	r := session.NewResolver(scanner, validator, tabs, nil, session.ResolverOptions{
		CacheTTL:  time.Minute,
		TabFilter: "acme",
	}, zap.NewNop())
	org := r.GetCurrentOrg(context.Background())

	require.True(t, org.IsAuthenticated)
	assert.Equal(t, []string{"acme"}, tabs.finds)
}

func TestGetCurrentOrg_OrgInfoFailureIsNotFatal(t *testing.T) {
	scanner := &fakeScanner{candidates: []schemas.SessionCandidate{
		{CookieName: "sid", CookieValue: "good", Score: schemas.ScoreExact},
	}}
	validator := &fakeValidator{results: map[string]schemas.ValidationResult{
		"good": {Success: true},
	}}
	tabs := &fakeTabs{focused: orgTab("https://acme.my.salesforce.com/home")}
	page := &fakeInfoPage{err: errors.New("page gone")}

	r := session.NewResolver(scanner, validator, tabs, page, session.ResolverOptions{CacheTTL: time.Minute}, zap.NewNop())
	org := r.GetCurrentOrg(context.Background())

	require.True(t, org.IsAuthenticated)
	assert.Empty(t, org.OrgID)
}
