package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/ferrite-labs/ferrite/internal/fetch"
	"github.com/spf13/cobra"
)

var (
	fetchCache    bool
	fetchTimeout  int
	fetchProgress bool
)

func init() {
	fetchCmd.Flags().BoolVar(&fetchCache, "cache", false, "Reuse the destination when the remote file is unchanged")
	fetchCmd.Flags().IntVar(&fetchTimeout, "timeout", 0, "Per-attempt timeout in seconds (0 uses the configured default)")
	fetchCmd.Flags().BoolVar(&fetchProgress, "progress", false, "Show download progress")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <url> <dest>",
	Short: "Download a file through the resolved download capability",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := fetch.Request{
			URL:          args[0],
			Dest:         args[1],
			Cache:        fetchCache,
			Timeout:      time.Duration(fetchTimeout) * time.Second,
			ShowProgress: fetchProgress || registry.Settings().ShowDownloads,
		}

		res, err := registry.Download(req)
		if err != nil {
			var transport *fetch.TransportError
			if errors.As(err, &transport) && transport.Cached {
				return fmt.Errorf("fetching %s: recent failure replayed from cache: %w", args[0], err)
			}
			return fmt.Errorf("fetching %s: %w", args[0], err)
		}
		if res.FromCache {
			fmt.Printf("Up to date: %s\n", res.Path)
		} else {
			fmt.Printf("Saved to %s\n", res.Path)
		}
		return nil
	},
}
