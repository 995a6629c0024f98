package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"nostrdm/internal/crypto"
)

func keygenCmd() *cobra.Command {
	var showHex bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new identity and print its keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := crypto.GenerateIdentity()
			if err != nil {
				return err
			}
			defer id.Wipe()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "nsec: %s\n", crypto.EncodeNsec(id))
			fmt.Fprintf(out, "npub: %s\n", crypto.EncodeNpub(id.Public))
			if showHex {
				fmt.Fprintf(out, "pubkey: %s\n", id.Public.Hex())
			}
			fmt.Fprintf(out, "fingerprint: %s\n", crypto.Fingerprint(id.Public))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showHex, "hex", false, "also print the hex public key")
	return cmd
}
