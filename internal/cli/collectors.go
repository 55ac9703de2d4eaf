package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/collectors/registry"
)

var collectorsCmd = &cobra.Command{
	Use:   "collectors",
	Short: "List the available collectors",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range registry.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}
