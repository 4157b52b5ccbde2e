package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Kartikpatkar/sfpkg-cli/internal/config"
	"github.com/Kartikpatkar/sfpkg-cli/internal/observability"
)

// Version is the CLI version, overridable at link time.
var Version = "0.1.0"

var (
	cfgFile     string
	devtoolsURL string
	tabFilter   string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "sfpkg",
	Short:   "Generate Salesforce package.xml manifests from your live browser session.",
	Long: `sfpkg finds the Salesforce session already open in your browser,
validates it against the org, and generates Metadata API package.xml
manifests without asking for credentials.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1. Initialize configuration loading (Viper).
		if err := initializeConfig(); err != nil {
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}

		// 2. Load and validate the configuration singleton.
		if err := config.Load(viper.GetViper()); err != nil {
			return err
		}
		cfg := config.Get()

		// CLI flags override the file/env configuration.
		if devtoolsURL != "" {
			cfg.Browser.DevToolsURL = devtoolsURL
		}
		if tabFilter != "" {
			cfg.Browser.TabFilter = tabFilter
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		// 3. Initialize the logger.
		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Debug("Starting sfpkg", zap.String("version", Version))
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
// It accepts a context passed from main.go for graceful shutdown.
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); ctx.Err() == nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&devtoolsURL, "devtools-url", "", "DevTools endpoint of a running browser (default http://127.0.0.1:9222)")
	rootCmd.PersistentFlags().StringVar(&tabFilter, "tab", "", "pick the tab whose URL contains this substring instead of the focused tab")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeConfig reads in the config file and environment variables.
func initializeConfig() error {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SFPKG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind the endpoints people most often override.
	_ = v.BindEnv("browser.devtools_url", "SFPKG_DEVTOOLS_URL", "SFPKG_BROWSER_DEVTOOLS_URL")
	_ = v.BindEnv("cache.db_path", "SFPKG_DB_PATH", "SFPKG_CACHE_DB_PATH")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; parsing errors are not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}
