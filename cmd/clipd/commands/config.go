package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/clipd/config"
)

// loadConfig resolves configuration for a command, honoring the
// persistent --config flag when set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
