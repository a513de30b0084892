package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/persistorai/leadintake/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.3.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3030"

var (
	apiClient *client.Client
	flagURL   string
	flagToken string
	flagFmt   string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("leadintake version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("leadintake version %s-dev", version)
}

type configFile struct {
	// Flat format
	URL   string `yaml:"url,omitempty"`
	Token string `yaml:"token,omitempty"`
	// Profile format
	Profiles      map[string]configProfile `yaml:"profiles,omitempty"`
	ActiveProfile string                   `yaml:"active_profile,omitempty"`
}

type configProfile struct {
	URL   string `yaml:"url,omitempty"`
	Token string `yaml:"token,omitempty"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "leadintake",
		Short:   "Lead intake CLI: manage buyer leads from the terminal",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			var opts []client.Option
			if flagToken != "" {
				opts = append(opts, client.WithToken(flagToken))
			}
			apiClient = client.New(flagURL, opts...)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "Server URL (env: LEADINTAKE_URL)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Session token (env: LEADINTAKE_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")

	addCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommands(root *cobra.Command) {
	root.AddCommand(newLoginCmd())
	root.AddCommand(newWhoamiCmd())
	root.AddCommand(newHealthCmd())
	root.AddCommand(newBuyerCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newTemplateCmd())
	root.AddCommand(newAuditCmd())
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".leadintake", "config.yaml"), nil
}

func loadConfigFile() (*configFile, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &configFile{}, nil
		}
		return nil, err
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func (cfg *configFile) profileName() string {
	if cfg.ActiveProfile == "" {
		return "default"
	}
	return cfg.ActiveProfile
}

// resolved returns the URL and token of the active profile, falling back to
// the flat keys.
func (cfg *configFile) resolved() (string, string) {
	url, token := cfg.URL, cfg.Token
	if p, ok := cfg.Profiles[cfg.profileName()]; ok {
		if p.URL != "" {
			url = p.URL
		}
		if p.Token != "" {
			token = p.Token
		}
	}
	return url, token
}

func resolveConfig() {
	// Flag takes precedence, then env, then config file.
	if flagURL == defaultURL {
		if v := os.Getenv("LEADINTAKE_URL"); v != "" {
			flagURL = v
		}
	}
	if flagToken == "" {
		flagToken = os.Getenv("LEADINTAKE_TOKEN")
	}

	cfg, err := loadConfigFile()
	if err != nil {
		return
	}
	resolvedURL, resolvedToken := cfg.resolved()
	if flagURL == defaultURL && resolvedURL != "" {
		flagURL = resolvedURL
	}
	if flagToken == "" && resolvedToken != "" {
		flagToken = resolvedToken
	}
}

// saveSession stores url and token in the active profile of the config file.
func saveSession(url, token string) (string, error) {
	cfg, err := loadConfigFile()
	if err != nil {
		return "", err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]configProfile{}
	}
	cfg.Profiles[cfg.profileName()] = configProfile{URL: url, Token: token}

	path, err := configPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func fatal(msg string, err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		for _, f := range apiErr.Fields {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Field, f.Message)
		}
		for _, r := range apiErr.Rows {
			for _, f := range r.Fields {
				fmt.Fprintf(os.Stderr, "  row %d: %s: %s\n", r.Row, f.Field, f.Message)
			}
		}
	}
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
