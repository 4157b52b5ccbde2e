package session

import "strings"

// IsLoginOrTestHost reports whether a hostname is a generic login or test
// host. These never carry a real org session, so scanning them is a waste
// and tends to surface stale cookies.
func IsLoginOrTestHost(hostname string) bool {
	return hostname == "login.salesforce.com" ||
		hostname == "test.salesforce.com" ||
		strings.HasPrefix(hostname, "login.") ||
		strings.HasPrefix(hostname, "test.")
}

// IsSalesforceHost reports whether a hostname belongs to a recognized
// Salesforce domain family.
func IsSalesforceHost(hostname string) bool {
	return hostname == "salesforce.com" ||
		hostname == "force.com" ||
		strings.HasSuffix(hostname, ".salesforce.com") ||
		strings.HasSuffix(hostname, ".force.com")
}

// IsSandboxHost applies the hostname heuristic for sandbox, developer and
// scratch orgs. There is no authoritative client-side signal, so this is
// best-effort metadata only.
func IsSandboxHost(hostname string) bool {
	return strings.Contains(hostname, ".sandbox.") ||
		strings.Contains(hostname, "--") ||
		strings.Contains(hostname, ".develop.") ||
		strings.Contains(hostname, ".scratch.")
}

// APIBaseForHost maps a tab hostname to the origin serving the REST API.
// Lightning domains don't serve the API directly and must be mapped back
// to the corresponding my.salesforce.com host.
func APIBaseForHost(hostname, scheme string) string {
	if hostname == "" {
		return ""
	}
	if scheme == "" {
		scheme = "https"
	}
	if strings.HasSuffix(hostname, ".lightning.force.com") {
		hostname = strings.TrimSuffix(hostname, ".lightning.force.com") + ".my.salesforce.com"
	}
	return scheme + "://" + hostname
}
