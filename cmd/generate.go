package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
	"github.com/Kartikpatkar/sfpkg-cli/internal/config"
	"github.com/Kartikpatkar/sfpkg-cli/internal/manifest"
	"github.com/Kartikpatkar/sfpkg-cli/internal/observability"
	"github.com/Kartikpatkar/sfpkg-cli/internal/store"
)

var (
	generateTypes   []string
	generateVersion string
	generateOut     string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a package.xml manifest from selected metadata types",
	Long: `Generate renders a Metadata API package.xml manifest.

Each --type takes either a bare type name (wildcard members) or a
type:member list:

    sfpkg generate -t ApexClass -t "CustomObject:Account,Contact" -o package.xml

Types and members are emitted in sorted order, so the same selection
always produces the same file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		selection, err := parseSelection(generateTypes)
		if err != nil {
			return err
		}

		version := generateVersion
		if version == "" {
			// Fall back to the remembered preference, then the default.
			version = preferredVersion(ctx)
		}

		xml := manifest.Build(selection, version)

		if generateOut == "-" {
			fmt.Println(xml)
			return nil
		}
		if err := os.WriteFile(generateOut, []byte(xml), 0o644); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
		fmt.Printf("Wrote %s (%d types, API %s)\n", generateOut, len(selection.Types), version)

		rememberSelection(ctx, selection, version)
		return nil
	},
}

// parseSelection turns the --type flags into a PackageSelection.
func parseSelection(specs []string) (schemas.PackageSelection, error) {
	selection := schemas.NewPackageSelection()
	for _, spec := range specs {
		typeName, memberList, hasMembers := strings.Cut(spec, ":")
		typeName = strings.TrimSpace(typeName)
		if typeName == "" {
			return schemas.PackageSelection{}, fmt.Errorf("empty type name in %q", spec)
		}
		selection.AddType(typeName)
		if !hasMembers {
			continue
		}
		for _, member := range strings.Split(memberList, ",") {
			if member = strings.TrimSpace(member); member != "" {
				selection.AddMember(typeName, member)
			}
		}
	}
	return selection, nil
}

// preferredVersion looks up the remembered API version, falling back to
// the configured default. Store access is best-effort; manifest
// generation never fails because a preference could not be read.
func preferredVersion(ctx context.Context) string {
	cfg := config.Get()
	st, err := store.Open(ctx, cfg.Cache.DBPath, observability.GetLogger())
	if err != nil {
		return cfg.Salesforce.DefaultAPIVersion
	}
	defer st.Close()

	if v, ok, err := st.GetString(ctx, store.KeyAPIVersion); err == nil && ok {
		return v
	}
	return cfg.Salesforce.DefaultAPIVersion
}

// rememberSelection persists the version and type selection as the next
// run's defaults. Best-effort only.
func rememberSelection(ctx context.Context, selection schemas.PackageSelection, version string) {
	st, err := store.Open(ctx, config.Get().Cache.DBPath, observability.GetLogger())
	if err != nil {
		return
	}
	defer st.Close()

	_ = st.PutString(ctx, store.KeyAPIVersion, version)

	types := make([]string, 0, len(selection.Types))
	for t := range selection.Types {
		types = append(types, t)
	}
	sort.Strings(types)
	_ = st.PutString(ctx, store.KeySelectedTypes, strings.Join(types, ","))
}

func init() {
	generateCmd.Flags().StringArrayVarP(&generateTypes, "type", "t", nil, "metadata type to include, optionally with members as Type:M1,M2 (repeatable)")
	generateCmd.Flags().StringVar(&generateVersion, "api-version", "", "manifest API version (default: remembered preference, then config)")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "package.xml", "output file, or - for stdout")
}
