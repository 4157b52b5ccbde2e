// Package schemas holds the shared data contracts used across the
// application: the resolved org session, cookie candidates, the manifest
// selection model, and the capability interfaces that abstract browser
// access so the core can be tested without a live Chrome.
package schemas

import (
	"fmt"
	"time"
)

// OrgSession is the result of a session resolution attempt. It is
// constructed fresh on every attempt; InstanceURL and SessionToken are
// only populated when IsAuthenticated is true.
type OrgSession struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	InstanceURL     string `json:"instanceUrl,omitempty"`
	SessionToken    string `json:"-"`
	// IsSandbox is a best-effort hostname heuristic, not an authoritative
	// signal from the org.
	IsSandbox bool   `json:"isSandbox,omitempty"`
	OrgID     string `json:"orgId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Username  string `json:"username,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Candidate scores. Exact matches on the canonical session cookie name
// outrank prefixed variants, which outrank plain substring matches.
const (
	ScoreExact     = 3
	ScorePrefixed  = 2
	ScoreSubstring = 1
)

// SessionCandidate is a scored cookie discovered during a tab scan.
type SessionCandidate struct {
	CookieName  string
	CookieValue string
	Domain      string
	Score       int
}

// Cookie is the minimal cookie view the scanner needs.
type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// Tab describes a browser tab (a page target in DevTools terms).
type Tab struct {
	ID  string
	URL string
}

// OrgInfo is best-effort org metadata pulled from the page context.
type OrgInfo struct {
	OrgID    string `json:"orgId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ValidationResult describes the outcome of a single session probe.
// Failures are data, not errors: the resolver keeps trying further
// candidates and needs the diagnostic detail intact.
type ValidationResult struct {
	Success     bool   `json:"success"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Err         string `json:"error,omitempty"`
}

// Reason renders a human-readable failure explanation for diagnostics.
func (r ValidationResult) Reason() string {
	switch {
	case r.Success:
		return "ok"
	case r.Err != "" && r.Status != 0:
		return fmt.Sprintf("%s (HTTP %d)", r.Err, r.Status)
	case r.Err != "":
		return r.Err
	case r.ContentType != "":
		return "unexpected content type " + r.ContentType
	case r.Status != 0:
		return fmt.Sprintf("HTTP %d", r.Status)
	default:
		return "validation failed"
	}
}

// PackageSelection is the input to manifest generation. Types is the set
// of selected metadata types. A type present in MembersByType with a
// non-empty set means "only these members"; absent or empty means
// "wildcard". Entries in MembersByType for types not in Types are ignored.
type PackageSelection struct {
	Types         map[string]struct{}
	MembersByType map[string]map[string]struct{}
}

// NewPackageSelection returns an empty selection ready for AddType calls.
func NewPackageSelection() PackageSelection {
	return PackageSelection{
		Types:         make(map[string]struct{}),
		MembersByType: make(map[string]map[string]struct{}),
	}
}

// AddType marks a metadata type as selected (wildcard until members are added).
func (s PackageSelection) AddType(name string) {
	s.Types[name] = struct{}{}
}

// AddMember restricts a type to named members instead of the wildcard.
func (s PackageSelection) AddMember(typeName, member string) {
	set, ok := s.MembersByType[typeName]
	if !ok {
		set = make(map[string]struct{})
		s.MembersByType[typeName] = set
	}
	set[member] = struct{}{}
}

// CachedList is a persisted listing (metadata types or API versions) with
// its fetch time, stored between runs to spare the org repeated calls.
type CachedList struct {
	Values    []string  `json:"values"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Valid reports whether the cache may be served. A cache with zero
// entries is never valid, even inside the TTL window, so a transient
// empty response can't get pinned until expiry.
func (c CachedList) Valid(now time.Time, ttl time.Duration) bool {
	if len(c.Values) == 0 {
		return false
	}
	return now.Sub(c.FetchedAt) < ttl
}
