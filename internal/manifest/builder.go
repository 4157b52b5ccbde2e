// Package manifest renders Metadata API package.xml manifests.
//
// Build is a pure function: output depends only on the selection and the
// version string, never on insertion order or prior calls, so identical
// selections always produce byte-identical, diff-stable manifests.
package manifest

import (
	"bytes"
	"encoding/xml"
	"sort"
	"strings"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
)

const (
	// PackageNamespace is the Metadata API manifest namespace.
	PackageNamespace = "http://soap.sforce.com/2006/04/metadata"
	// DefaultAPIVersion is used when no version is supplied.
	DefaultAPIVersion = "58.0"

	header  = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n"
	indent  = "    "
	indent2 = indent + indent
)

// Build renders a package.xml manifest for the selection. Types are
// emitted in ascending ordinal order; member lists likewise. A type with
// no (or an empty) member set gets the wildcard member. An empty
// selection yields the envelope with a placeholder comment instead of
// failing. Member entries for unselected types are ignored.
func Build(selection schemas.PackageSelection, apiVersion string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("<Package xmlns=\"" + PackageNamespace + "\">\n")

	types := sortedTypes(selection)
	if len(types) == 0 {
		b.WriteString(indent + "<!-- No metadata types selected -->\n")
	}
	for _, typeName := range types {
		b.WriteString(indent + "<types>\n")
		for _, member := range sortedMembers(selection, typeName) {
			b.WriteString(indent2 + "<members>" + escape(member) + "</members>\n")
		}
		b.WriteString(indent2 + "<name>" + escape(typeName) + "</name>\n")
		b.WriteString(indent + "</types>\n")
	}

	version := strings.TrimSpace(apiVersion)
	if version == "" {
		version = DefaultAPIVersion
	}
	b.WriteString(indent + "<version>" + escape(version) + "</version>\n")
	b.WriteString("</Package>")

	return b.String()
}

// sortedTypes returns the selected type names, trimmed, de-blanked and
// in ascending ordinal order.
func sortedTypes(selection schemas.PackageSelection) []string {
	types := make([]string, 0, len(selection.Types))
	for name := range selection.Types {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			types = append(types, trimmed)
		}
	}
	sort.Strings(types)
	return types
}

// sortedMembers returns the explicit members for a type in ascending
// order, or the wildcard when none are selected.
func sortedMembers(selection schemas.PackageSelection, typeName string) []string {
	set := selection.MembersByType[typeName]
	if len(set) == 0 {
		return []string{"*"}
	}
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	sort.Strings(members)
	return members
}

// escape XML-escapes text content. Component names containing &, < or >
// are rare in Salesforce but legal in labels, and an unescaped name
// corrupts the whole manifest.
func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
