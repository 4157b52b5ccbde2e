// Package metadata lists what a Salesforce org actually contains: the
// available metadata types, the members of a type, and the supported API
// versions. Apex-family types are enumerated through the Tooling API;
// everything else goes through the Metadata API SOAP endpoint.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
	"github.com/Kartikpatkar/sfpkg-cli/internal/store"
)

// ListingCache is the slice of the store the client needs. Listings are
// cached for an hour; a zero-entry listing is never served from cache.
type ListingCache interface {
	GetList(ctx context.Context, key string) (schemas.CachedList, bool, error)
	PutList(ctx context.Context, key string, list schemas.CachedList) error
}

// toolingObjects maps metadata types onto their Tooling API objects.
// Only the Apex family is queryable this way; notably CustomLabel is
// not, despite looking like one, and must use the Metadata API.
var toolingObjects = map[string]string{
	"ApexClass":     "ApexClass",
	"ApexTrigger":   "ApexTrigger",
	"ApexComponent": "ApexComponent",
	"ApexPage":      "ApexPage",
}

// IsToolingType reports whether members of a type come from the Tooling API.
func IsToolingType(metadataType string) bool {
	_, ok := toolingObjects[metadataType]
	return ok
}

// Client performs the org listing calls.
type Client struct {
	client     *http.Client
	cache      ListingCache
	apiVersion string
	ttl        time.Duration
	logger     *zap.Logger

	// now is swappable for cache expiry tests.
	now func() time.Time
}

// NewClient creates a listing client. A nil transport falls back to
// http.DefaultTransport; a nil cache disables caching.
func NewClient(transport http.RoundTripper, cache ListingCache, apiVersion string, ttl time.Duration, logger *zap.Logger) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		client:     &http.Client{Transport: transport, Timeout: 30 * time.Second},
		cache:      cache,
		apiVersion: apiVersion,
		ttl:        ttl,
		logger:     logger.Named("metadata"),
		now:        time.Now,
	}
}

// ListMembersForType returns the member names of a metadata type, in the
// order the org reports them.
func (c *Client) ListMembersForType(ctx context.Context, org schemas.OrgSession, metadataType string) ([]string, error) {
	if !org.IsAuthenticated {
		return nil, fmt.Errorf("not authenticated")
	}
	if obj, ok := toolingObjects[metadataType]; ok {
		return c.membersViaTooling(ctx, org, obj)
	}
	return c.membersViaMetadataAPI(ctx, org, metadataType)
}

// ListAvailableTypes returns the org's metadata type names, sorted
// ascending, served from the hour-long cache when possible.
func (c *Client) ListAvailableTypes(ctx context.Context, org schemas.OrgSession) ([]string, error) {
	if cached, ok := c.fromCache(ctx, store.KeyMetadataTypes); ok {
		return cached, nil
	}
	if !org.IsAuthenticated {
		return nil, fmt.Errorf("not authenticated")
	}

	body, err := c.soapCall(ctx, org, "describeMetadata", describeMetadataEnvelope(org.SessionToken, c.apiVersion))
	if err != nil {
		return nil, err
	}

	names, err := extractElementText(bytes.NewReader(body), "xmlName")
	if err != nil {
		return nil, fmt.Errorf("describeMetadata: %w", err)
	}

	seen := make(map[string]struct{}, len(names))
	types := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		types = append(types, name)
	}
	sort.Strings(types)

	c.toCache(ctx, store.KeyMetadataTypes, types)
	c.logger.Debug("Fetched metadata types from org", zap.Int("count", len(types)))
	return types, nil
}

// ListAPIVersions returns the API versions the org supports, newest
// first, served from the hour-long cache when possible.
func (c *Client) ListAPIVersions(ctx context.Context, org schemas.OrgSession) ([]string, error) {
	if cached, ok := c.fromCache(ctx, store.KeyAPIVersions); ok {
		return cached, nil
	}
	if !org.IsAuthenticated {
		return nil, fmt.Errorf("not authenticated")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, org.InstanceURL+"/services/data", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+org.SessionToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("versions request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("versions request failed: HTTP %d", resp.StatusCode)
	}

	var entries []struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode versions response: %w", err)
	}

	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Version != "" {
			versions = append(versions, e.Version)
		}
	}
	// Newest first, numerically: "58.0" outranks "9.0" despite the lexicographic order.
	sort.Slice(versions, func(i, j int) bool {
		vi, _ := strconv.ParseFloat(versions[i], 64)
		vj, _ := strconv.ParseFloat(versions[j], 64)
		return vi > vj
	})

	c.toCache(ctx, store.KeyAPIVersions, versions)
	c.logger.Debug("Fetched API versions from org", zap.Int("count", len(versions)))
	return versions, nil
}

// membersViaTooling runs the SOQL name query against the Tooling API.
func (c *Client) membersViaTooling(ctx context.Context, org schemas.OrgSession, toolingObject string) ([]string, error) {
	query := "SELECT Name FROM " + toolingObject + " ORDER BY Name"
	queryURL := fmt.Sprintf("%s/services/data/v%s/tooling/query/?q=%s",
		org.InstanceURL, c.apiVersion, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+org.SessionToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tooling query failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tooling query failed: HTTP %d", resp.StatusCode)
	}

	var result struct {
		Records []struct {
			Name string `json:"Name"`
		} `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode tooling response: %w", err)
	}

	members := make([]string, 0, len(result.Records))
	for _, r := range result.Records {
		if r.Name != "" {
			members = append(members, r.Name)
		}
	}
	return members, nil
}

// membersViaMetadataAPI calls SOAP listMetadata and collects fullNames.
func (c *Client) membersViaMetadataAPI(ctx context.Context, org schemas.OrgSession, metadataType string) ([]string, error) {
	body, err := c.soapCall(ctx, org, "listMetadata", listMetadataEnvelope(org.SessionToken, metadataType, c.apiVersion))
	if err != nil {
		return nil, err
	}
	members, err := extractElementText(bytes.NewReader(body), "fullName")
	if err != nil {
		return nil, fmt.Errorf("listMetadata: %w", err)
	}
	return members, nil
}

// soapCall posts a SOAP envelope to the Metadata API endpoint.
func (c *Client) soapCall(ctx context.Context, org schemas.OrgSession, action, envelope string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/services/Soap/m/%s", org.InstanceURL, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(envelope))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml")
	req.Header.Set("SOAPAction", action)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s failed reading response: %w", action, err)
	}
	if resp.StatusCode != http.StatusOK {
		if fault := soapFaultString(body); fault != "" {
			return nil, fmt.Errorf("%s failed: HTTP %d: %s", action, resp.StatusCode, fault)
		}
		return nil, fmt.Errorf("%s failed: HTTP %d", action, resp.StatusCode)
	}
	return body, nil
}

// fromCache serves a listing if the cached copy is fresh and non-empty.
func (c *Client) fromCache(ctx context.Context, key string) ([]string, bool) {
	if c.cache == nil {
		return nil, false
	}
	list, found, err := c.cache.GetList(ctx, key)
	if err != nil {
		c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !found || !list.Valid(c.now(), c.ttl) {
		return nil, false
	}
	c.logger.Debug("Serving listing from cache", zap.String("key", key), zap.Int("count", len(list.Values)))
	return list.Values, true
}

// toCache stores a listing. Empty listings are not written; caching a
// transient empty response would pin it until expiry.
func (c *Client) toCache(ctx context.Context, key string, values []string) {
	if c.cache == nil || len(values) == 0 {
		return
	}
	if err := c.cache.PutList(ctx, key, schemas.CachedList{Values: values, FetchedAt: c.now()}); err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
