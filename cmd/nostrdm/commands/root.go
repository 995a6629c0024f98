package commands

import (
	"context"

	"github.com/spf13/cobra"

	"nostrdm/internal/app"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath  string
	logLevel    string
	nsec        string
	npub        string
	dmRelays    []string
	readRelays  []string
	writeRelays []string
	oneShot     bool
}

// config loads the config file and layers the relay and session flags on top.
func (o *rootOptions) config() (file, merged app.Config, err error) {
	file, err = app.LoadConfig(o.configPath)
	if err != nil {
		return app.Config{}, app.Config{}, err
	}
	merged = file.Merge(app.Config{
		DMRelays:    o.dmRelays,
		ReadRelays:  o.readRelays,
		WriteRelays: o.writeRelays,
		OneShot:     o.oneShot,
		LogLevel:    o.logLevel,
	})
	return file, merged, nil
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:   "nostrdm",
		Short: "End-to-end encrypted Nostr direct messages",
		Long: "Chat with one peer using NIP-17 private direct messages.\n\n" +
			"Messages are gift-wrapped (NIP-59) and encrypted with NIP-44, so relays\n" +
			"see neither the sender nor the content.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, o)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "path to a TOML config file")
	pf.StringVar(&o.logLevel, "log-level", "", "diagnostic log level (debug, info, warn, error); default warn")
	pf.StringSliceVar(&o.dmRelays, "dm-relay", nil, "peer DM relay, used for reading and writing (repeatable)")
	pf.StringSliceVar(&o.readRelays, "read-relay", nil, "extra relay to read from (repeatable)")
	pf.StringSliceVar(&o.writeRelays, "write-relay", nil, "extra relay to publish to (repeatable)")

	f := root.Flags()
	f.StringVar(&o.nsec, "nsec", "", "your secret key (nsec or hex); prompted if omitted")
	f.StringVar(&o.npub, "npub", "", "recipient public key (npub); prompted if omitted")
	f.BoolVar(&o.oneShot, "one-shot", false, "exit after the first message is sent")

	root.AddCommand(keygenCmd(), relaysCmd(o), versionCmd())
	return root
}
