package config

// Version is the neighborrank binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/neighborrank/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
