package cli

import (
	"encoding/json"
	"fmt"

	"github.com/ferrite-labs/ferrite/internal/branding"
	"github.com/spf13/cobra"
)

var (
	versionShort bool
	versionJSON  bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
	rootCmd.AddCommand(versionCmd)
}

type buildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildInfo{Version: buildVersion, Commit: buildCommit, Date: buildDate}

		switch {
		case versionShort:
			fmt.Println(info.Version)
		case versionJSON:
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling version info: %w", err)
			}
			fmt.Println(string(out))
		default:
			fmt.Printf("%s %s\n", branding.CLIName(), info.Version)
			fmt.Printf("  commit: %s\n", info.Commit)
			fmt.Printf("  built:  %s\n", info.Date)
		}
		return nil
	},
}
