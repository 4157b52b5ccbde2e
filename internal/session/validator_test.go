package session_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
	"github.com/Kartikpatkar/sfpkg-cli/internal/session"
)

// mockTransport simulates network behavior for the probe path.
type mockTransport struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

// fakePage is a canned PageContext for the in-page validation path.
type fakePage struct {
	result schemas.ValidationResult
	err    error
	calls  int
}

func (f *fakePage) Probe(context.Context, string) error { return nil }

func (f *fakePage) OrgInfo(context.Context, string) (schemas.OrgInfo, error) {
	return schemas.OrgInfo{}, nil
}

func (f *fakePage) ValidateSession(context.Context, string, string, string) (schemas.ValidationResult, error) {
	f.calls++
	return f.result, f.err
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json;charset=UTF-8"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newValidator(transport http.RoundTripper, page schemas.PageContext) *session.Validator {
	return session.NewValidator(transport, page, "56.0", 5*time.Second, zap.NewNop())
}

func TestValidate_Success(t *testing.T) {
	transport := &mockTransport{
		handler: func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "https://acme.my.salesforce.com/services/data/v56.0/limits", req.URL.String())
			assert.Equal(t, "Bearer token123", req.Header.Get("Authorization"))
			return jsonResponse(http.StatusOK, `{"DailyApiRequests":{}}`), nil
		},
	}

	res := newValidator(transport, nil).Validate(context.Background(), "https://acme.my.salesforce.com", "token123", "")

	assert.True(t, res.Success)
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestValidate_HTMLBodyIsNotSuccess(t *testing.T) {
	// A 200 serving text/html is a login page, not a live session.
	transport := &mockTransport{
		handler: func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
				Body:       io.NopCloser(strings.NewReader("<html>please log in</html>")),
			}, nil
		},
	}

	res := newValidator(transport, nil).Validate(context.Background(), "https://acme.my.salesforce.com", "tok", "")

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.ContentType, "text/html")
}

func TestValidate_RedirectMeansExpired(t *testing.T) {
	transport := &mockTransport{
		handler: func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusFound,
				Header:     http.Header{"Location": []string{"https://login.salesforce.com/"}},
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil
		},
	}

	res := newValidator(transport, nil).Validate(context.Background(), "https://acme.my.salesforce.com", "tok", "")

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusFound, res.Status)
	assert.Contains(t, res.Err, "expired")
}

func TestValidate_Unauthorized(t *testing.T) {
	transport := &mockTransport{
		handler: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, `[{"errorCode":"INVALID_SESSION_ID"}]`), nil
		},
	}

	res := newValidator(transport, nil).Validate(context.Background(), "https://acme.my.salesforce.com", "tok", "")

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Contains(t, res.Err, "INVALID_SESSION_ID")
}

func TestValidate_TransportErrorIsResultNotPanic(t *testing.T) {
	transport := &mockTransport{
		handler: func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		},
	}

	res := newValidator(transport, nil).Validate(context.Background(), "https://acme.my.salesforce.com", "tok", "")

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "connection refused")
}

func TestValidate_MissingInputs(t *testing.T) {
	v := newValidator(&mockTransport{handler: func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request should be issued")
		return nil, nil
	}}, nil)

	assert.False(t, v.Validate(context.Background(), "", "tok", "").Success)
	assert.False(t, v.Validate(context.Background(), "https://acme.my.salesforce.com", "", "").Success)
}

func TestValidate_PagePathPreferred(t *testing.T) {
	page := &fakePage{result: schemas.ValidationResult{Success: true, Status: http.StatusOK}}
	transport := &mockTransport{
		handler: func(req *http.Request) (*http.Response, error) {
			t.Fatal("direct probe must not run when the page path succeeds")
			return nil, nil
		},
	}

	res := newValidator(transport, page).Validate(context.Background(), "https://acme.my.salesforce.com", "tok", "tab1")

	require.True(t, res.Success)
	assert.Equal(t, 1, page.calls)
}

func TestValidate_PageFailureFallsBackToProbe(t *testing.T) {
	page := &fakePage{err: errors.New("page context unavailable")}
	transport := &mockTransport{
		handler: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{}`), nil
		},
	}

	res := newValidator(transport, page).Validate(context.Background(), "https://acme.my.salesforce.com", "tok", "tab1")

	assert.True(t, res.Success)
	assert.Equal(t, 1, page.calls)
}

func TestValidate_NoTabSkipsPagePath(t *testing.T) {
	page := &fakePage{result: schemas.ValidationResult{Success: true}}
	transport := &mockTransport{
		handler: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{}`), nil
		},
	}

	res := newValidator(transport, page).Validate(context.Background(), "https://acme.my.salesforce.com", "tok", "")

	assert.True(t, res.Success)
	assert.Equal(t, 0, page.calls, "page path requires a tab ID")
}
