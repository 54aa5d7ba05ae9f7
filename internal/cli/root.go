package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ferrite-labs/ferrite/internal/branding"
	"github.com/ferrite-labs/ferrite/internal/config"
	"github.com/ferrite-labs/ferrite/internal/platform"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var flagVerbose bool

// registry is built once per invocation by the root PersistentPreRun and
// shared by every command that touches the platform.
var registry *platform.Registry

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"Log every resolved operation call to stderr")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` abstracts filesystem, permission, and download operations behind
per-platform capability layers, so the same operations work with native
code where available and fall back to external tools where not.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Commands that never touch the platform skip resolution.
		switch cmd.Name() {
		case "version", "help", "completion":
			return
		}

		config.Load()
		result, err := config.ValidateFile(config.FilePath())
		if err != nil {
			fatalf("validating %s: %v", config.FilePath(), err)
		}
		if !result.Valid {
			fmt.Fprintf(os.Stderr, "Invalid configuration %s:\n", config.FilePath())
			for _, issue := range result.Issues {
				if issue.Path != "" {
					fmt.Fprintf(os.Stderr, "  - %s: %s\n", issue.Path, issue.Message)
				} else {
					fmt.Fprintf(os.Stderr, "  - %s\n", issue.Message)
				}
			}
			os.Exit(1)
		}

		settings := config.Current()
		if flagVerbose {
			settings.Verbose = true
		}

		opts := []platform.Option{}
		if settings.Verbose {
			opts = append(opts, platform.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))))
		}
		registry = platform.New(settings, opts...)
		if err := registry.Resolve(); err != nil {
			fatalf("resolving platform capabilities: %v", err)
		}
	},
}

// fatalf reports a configuration-stage failure and exits. Everything past
// the entry points returns errors instead.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", branding.CLIName(), fmt.Sprintf(format, args...))
	os.Exit(1)
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
