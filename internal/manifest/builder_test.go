package manifest_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
	"github.com/Kartikpatkar/sfpkg-cli/internal/manifest"
)

func TestBuild_EmptySelection(t *testing.T) {
	out := manifest.Build(schemas.NewPackageSelection(), "58.0")

	assert.True(t, strings.HasPrefix(out, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n"))
	assert.Contains(t, out, "<Package xmlns=\"http://soap.sforce.com/2006/04/metadata\">")
	assert.Contains(t, out, "<!-- No metadata types selected -->")
	assert.NotContains(t, out, "<types>")
	assert.Contains(t, out, "<version>58.0</version>")
	assert.True(t, strings.HasSuffix(out, "</Package>"))
}

func TestBuild_WildcardTypesSorted(t *testing.T) {
	sel := schemas.NewPackageSelection()
	sel.AddType("CustomObject")
	sel.AddType("ApexClass")

	out := manifest.Build(sel, "58.0")

	apex := strings.Index(out, "<name>ApexClass</name>")
	custom := strings.Index(out, "<name>CustomObject</name>")
	require.GreaterOrEqual(t, apex, 0)
	require.GreaterOrEqual(t, custom, 0)
	assert.Less(t, apex, custom, "types must be emitted in ascending order")

	assert.Equal(t, 2, strings.Count(out, "<members>*</members>"))
	assert.Contains(t, out, "<version>58.0</version>")
}

func TestBuild_ExplicitMembersSorted(t *testing.T) {
	sel := schemas.NewPackageSelection()
	sel.AddType("ApexClass")
	sel.AddMember("ApexClass", "Foo")
	sel.AddMember("ApexClass", "Bar")

	out := manifest.Build(sel, "58.0")

	bar := strings.Index(out, "<members>Bar</members>")
	foo := strings.Index(out, "<members>Foo</members>")
	name := strings.Index(out, "<name>ApexClass</name>")
	require.GreaterOrEqual(t, bar, 0)
	require.GreaterOrEqual(t, foo, 0)
	require.GreaterOrEqual(t, name, 0)
	assert.Less(t, bar, foo, "members must be sorted ascending")
	assert.Less(t, foo, name, "members precede the type name")
	assert.NotContains(t, out, "<members>*</members>")
}

func TestBuild_MembersForUnselectedTypeIgnored(t *testing.T) {
	sel := schemas.NewPackageSelection()
	sel.AddType("ApexClass")
	// Members recorded for a type that was never selected.
	sel.MembersByType["CustomObject"] = map[string]struct{}{"Account": {}}

	out := manifest.Build(sel, "58.0")

	assert.NotContains(t, out, "CustomObject")
	assert.NotContains(t, out, "Account")
	assert.Equal(t, 1, strings.Count(out, "<types>"))
}

func TestBuild_DefaultVersionFallback(t *testing.T) {
	sel := schemas.NewPackageSelection()
	sel.AddType("ApexClass")

	for _, version := range []string{"", "   "} {
		out := manifest.Build(sel, version)
		assert.Contains(t, out, "<version>"+manifest.DefaultAPIVersion+"</version>")
	}
}

func TestBuild_EscapesSpecialCharacters(t *testing.T) {
	sel := schemas.NewPackageSelection()
	sel.AddType("CustomLabel")
	sel.AddMember("CustomLabel", "Fish & Chips <Deluxe>")

	out := manifest.Build(sel, "58.0")

	assert.Contains(t, out, "<members>Fish &amp; Chips &lt;Deluxe&gt;</members>")
	assert.NotContains(t, out, "Fish & Chips")
}

func TestBuild_BlankTypeNamesDropped(t *testing.T) {
	sel := schemas.NewPackageSelection()
	sel.AddType("  ApexClass  ")
	sel.AddType("   ")
	sel.AddType("")

	out := manifest.Build(sel, "58.0")

	assert.Equal(t, 1, strings.Count(out, "<types>"))
	assert.Contains(t, out, "<name>ApexClass</name>")
}

func TestBuild_Deterministic(t *testing.T) {
	sel := schemas.NewPackageSelection()
	sel.AddType("ApexTrigger")
	sel.AddType("ApexClass")
	sel.AddMember("ApexClass", "Zeta")
	sel.AddMember("ApexClass", "Alpha")

	first := manifest.Build(sel, "59.0")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, manifest.Build(sel, "59.0"))
	}
}

func TestBuild_FullDocument(t *testing.T) {
	sel := schemas.NewPackageSelection()
	sel.AddType("ApexClass")
	sel.AddMember("ApexClass", "Foo")
	sel.AddMember("ApexClass", "Bar")

	want := `<?xml version="1.0" encoding="UTF-8"?>
<Package xmlns="http://soap.sforce.com/2006/04/metadata">
    <types>
        <members>Bar</members>
        <members>Foo</members>
        <name>ApexClass</name>
    </types>
    <version>58.0</version>
</Package>`

	assert.Equal(t, want, manifest.Build(sel, "58.0"))
}
