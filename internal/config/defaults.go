package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// defaultMetadataTypes mirrors the stock selection presented before the
// org has been asked for its real type list.
var defaultMetadataTypes = []string{
	"ApexClass", "ApexPage", "ApexTrigger", "ApexComponent",
	"CustomObject", "CustomField", "Layout", "Profile", "PermissionSet",
	"CustomTab", "Workflow", "ValidationRule", "RecordType", "Flow",
	"CustomMetadata", "CustomLabel",
}

// SetDefaults registers default values so the app can run with no config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "sfpkg")
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("browser.devtools_url", "http://127.0.0.1:9222")
	v.SetDefault("browser.launch_if_missing", true)
	v.SetDefault("browser.headless", false)

	v.SetDefault("salesforce.probe_api_version", "56.0")
	v.SetDefault("salesforce.default_api_version", "58.0")
	v.SetDefault("salesforce.default_types", defaultMetadataTypes)
	v.SetDefault("salesforce.validate_timeout", 5*time.Second)
	v.SetDefault("salesforce.page_probe_timeout", 5*time.Second)
	v.SetDefault("salesforce.login_timeout", 60*time.Second)

	v.SetDefault("cache.session_ttl", 60*time.Second)
	v.SetDefault("cache.listing_ttl", time.Hour)
	v.SetDefault("cache.db_path", defaultDBPath())
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "sfpkg.db"
	}
	return filepath.Join(dir, "sfpkg", "sfpkg.db")
}
