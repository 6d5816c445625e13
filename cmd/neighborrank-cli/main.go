// Command neighborrank-cli queries a neighborrank server or ranks a local
// YAML graph offline.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/persistorai/neighborrank/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3030"

var (
	apiClient *client.Client
	flagURL   string
	flagKey   string
	flagFmt   string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("neighborrank-cli version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("neighborrank-cli version %s-dev", version)
}

type configFile struct {
	URL           string                   `yaml:"url"`
	APIKey        string                   `yaml:"api_key"`
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type configProfile struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "neighborrank-cli",
		Short:   "Personalized multi-hop neighbor ranking over a labelled graph",
		Version: versionString(),
		PersistentPreRun: func(*cobra.Command, []string) {
			resolveConfig()
			var opts []client.Option
			if flagKey != "" {
				opts = append(opts, client.WithAPIKey(flagKey))
			}
			apiClient = client.New(flagURL, opts...)
		},
		SilenceUsage: true,
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "Server URL (env: NEIGHBORRANK_URL)")
	root.PersistentFlags().StringVar(&flagKey, "api-key", "", "API key (env: NEIGHBORRANK_API_KEY)")
	root.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")

	root.AddCommand(newRankCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newHealthCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig fills flagURL and flagKey. Flags win, then the environment,
// then ~/.neighborrank/config.yaml (active profile first, flat keys second).
func resolveConfig() {
	if flagURL == defaultURL {
		if v := os.Getenv("NEIGHBORRANK_URL"); v != "" {
			flagURL = v
		}
	}
	if flagKey == "" {
		flagKey = os.Getenv("NEIGHBORRANK_API_KEY")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	data, err := os.ReadFile(filepath.Join(home, ".neighborrank", "config.yaml"))
	if err != nil {
		return
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring malformed config file: %v\n", err)
		return
	}

	resolvedURL, resolvedKey := cfg.URL, cfg.APIKey
	if cfg.Profiles != nil {
		name := cfg.ActiveProfile
		if name == "" {
			name = "default"
		}
		if p, ok := cfg.Profiles[name]; ok {
			if p.URL != "" {
				resolvedURL = p.URL
			}
			if p.APIKey != "" {
				resolvedKey = p.APIKey
			}
		}
	}
	if flagURL == defaultURL && resolvedURL != "" {
		flagURL = resolvedURL
	}
	if flagKey == "" && resolvedKey != "" {
		flagKey = resolvedKey
	}
}
