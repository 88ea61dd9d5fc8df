package constants

import "time"

const (
	AppName            = "callcoach"
	DefaultKeyringUser = "api-token"
	DefaultConfigPath  = "~/.config/callcoach/callcoach.db"
	DefaultAPIURL      = "http://localhost:3000"
	Version            = "v0.3.0"

	// Environment variables read by the CLI
	EnvAPIURL   = "CALLCOACH_API_URL"
	EnvAPIToken = "CALLCOACH_API_TOKEN"
	EnvConfig   = "CALLCOACH_CONFIG"

	// HTTP client constants
	APITimeout     = 30 * time.Second
	APIBasePath    = "/api"
	TeamPageSize   = 100
	UserAgentValue = AppName + "/" + Version

	// Editor lock constants
	LockDirName    = "locks"
	LockFileSuffix = ".lock"

	// Draft constants
	DefaultPassThreshold = 70.0
	CopyNameSuffix       = " (Copy)"
	TempIDPrefix         = "tmp-"
)
