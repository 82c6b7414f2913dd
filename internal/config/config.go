package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// OverwriteFiles controls whether existing report and snapshot files should be overwritten
	OverwriteFiles bool
	// DryRun makes remote writes log instead of executing
	DryRun bool
	// APIToken is the bearer token for the remote service
	APIToken string
)

// InitConfig initializes the global configuration
func InitConfig() {
	viper.SetDefault("report.dir", "./reports/")
	viper.SetDefault("OverwriteFiles", false)

	OverwriteFiles = viper.GetBool("OverwriteFiles")
	DryRun = viper.GetBool("DryRun")
	APIToken = viper.GetString("hardcover.token")
}

// SetOverwriteFiles sets the OverwriteFiles flag
func SetOverwriteFiles(overwrite bool) {
	OverwriteFiles = overwrite
}
