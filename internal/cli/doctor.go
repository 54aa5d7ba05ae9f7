package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ferrite-labs/ferrite/internal/config"
	"github.com/ferrite-labs/ferrite/internal/platform"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Show the resolved capability table and tool probe results",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := registry.Settings()

		fmt.Printf("Platforms: %s\n", strings.Join(settings.Platforms, ", "))
		fmt.Printf("User: %s\n", config.CurrentUser())
		fmt.Printf("Umask: %03o\n", registry.Moderator().Umask())

		fmt.Println("\nCapabilities:")
		bound := registry.BoundNames()
		names := make([]string, 0, len(bound))
		for name := range bound {
			names = append(names, string(name))
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  [ OK ] %-16s -> %s\n", name, bound[platform.Capability(name)])
		}
		for _, name := range allCapabilities {
			if _, ok := bound[name]; !ok {
				fmt.Printf("  [MISS] %-16s unbound\n", name)
			}
		}

		fmt.Println("\nTools:")
		tools := make([]string, 0, len(settings.Tools))
		for name := range settings.Tools {
			tools = append(tools, name)
		}
		sort.Strings(tools)
		for _, name := range tools {
			path, ok := registry.LookupTool(name)
			if !ok {
				fmt.Printf("  [MISS] %s not found\n", name)
				continue
			}
			if v, ok := registry.ToolVersion(name); ok {
				fmt.Printf("  [ OK ] %s %s at %s\n", name, v, path)
			} else {
				fmt.Printf("  [ OK ] %s at %s\n", name, path)
			}
		}

		if order := registry.InitOrder(); len(order) > 0 {
			fmt.Println("\nInitialized layers:")
			for _, layer := range order {
				fmt.Printf("  %s\n", layer)
			}
		}
		return nil
	},
}

var allCapabilities = []platform.Capability{
	platform.OpExists,
	platform.OpIsDir,
	platform.OpIsFile,
	platform.OpMakeDir,
	platform.OpRemove,
	platform.OpCopy,
	platform.OpList,
	platform.OpSetPermissions,
	platform.OpCurrentDir,
	platform.OpChangeDir,
	platform.OpTempDir,
	platform.OpExecute,
	platform.OpDownload,
}
