package cli

import (
	"fmt"

	"github.com/ferrite-labs/ferrite/internal/perms"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(permsCmd)
}

var permsCmd = &cobra.Command{
	Use:   "perms <mode> <scope> [path]",
	Short: "Print a moderated permission, or apply it to a path",
	Long: `Compute the permission for a (mode, scope) pair after umask moderation.
Mode is "read" or "exec"; scope is "user" or "all". With a path argument
the permission is applied through the resolved set_permissions capability.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := perms.ParseMode(args[0])
		if !ok {
			return fmt.Errorf("unknown mode %q (want read or exec)", args[0])
		}
		scope, ok := perms.ParseScope(args[1])
		if !ok {
			return fmt.Errorf("unknown scope %q (want user or all)", args[1])
		}

		moderated, err := registry.Moderator().Moderate(mode, scope)
		if err != nil {
			return err
		}
		if len(args) == 3 {
			if err := registry.SetPermissions(args[2], mode, scope); err != nil {
				return fmt.Errorf("applying %s to %s: %w", moderated, args[2], err)
			}
			fmt.Printf("Applied %s to %s\n", moderated, args[2])
			return nil
		}
		fmt.Println(moderated)
		return nil
	},
}
