package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"nostrdm/internal/services/topology"
)

// relays: print the composed topology without connecting.
func relaysCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "relays",
		Short: "Print the relays a chat would read from and publish to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := o.config()
			if err != nil {
				return err
			}
			set, err := topology.Compose(cfg.DMRelays, cfg.ReadRelays, cfg.WriteRelays)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, url := range set.URLs() {
				fmt.Fprintf(out, "%-10s %s\n", set[url], url)
			}
			return nil
		},
	}
}
