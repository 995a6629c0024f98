package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"nostrdm/internal/app"
	"nostrdm/internal/console"
	"nostrdm/internal/crypto"
	"nostrdm/internal/domain"
	"nostrdm/internal/logging"
	"nostrdm/internal/services/topology"
)

// runChat resolves keys and relays, then runs one interactive session.
func runChat(cmd *cobra.Command, o *rootOptions) error {
	file, cfg, err := o.config()
	if err != nil {
		return err
	}
	level, err := logging.ResolveLevel(o.logLevel, file.LogLevel)
	if err != nil {
		return err
	}
	log := logging.New(cmd.ErrOrStderr(), level)

	// Fail on bad relays before asking for keys.
	if _, err := topology.Compose(cfg.DMRelays, cfg.ReadRelays, cfg.WriteRelays); err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	printer := console.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

	id, err := resolveIdentity(in, cmd.ErrOrStderr(), printer, o.nsec)
	if err != nil {
		return err
	}
	defer id.Wipe()

	peer, err := resolvePeer(in, cmd.ErrOrStderr(), o.npub)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := app.NewWire(ctx, app.Options{
		Identity: id,
		Peer:     peer,
		Config:   cfg,
		Console:  printer,
		Logger:   log,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	printer.Topology(crypto.EncodeNpub(id.Public), w.Relays, w.Pool.Relays())
	log.Info().Str("peer", crypto.Fingerprint(peer)).Int("relays", len(w.Relays)).Msg("session ready")
	return w.Run(ctx, console.ReadLines(ctx, in))
}

// resolveIdentity parses nsec, or prompts for one. A blank answer generates
// a fresh identity and prints it.
func resolveIdentity(in *bufio.Reader, prompt io.Writer, printer *console.Printer, nsec string) (domain.Identity, error) {
	if nsec == "" {
		answer, err := ask(in, prompt, "Your nsec (blank to generate a new identity): ")
		if err != nil {
			return domain.Identity{}, err
		}
		if answer == "" {
			id, err := crypto.GenerateIdentity()
			if err != nil {
				return domain.Identity{}, fmt.Errorf("generate identity: %w", err)
			}
			printer.Identity(id)
			return id, nil
		}
		nsec = answer
	}
	id, err := crypto.ParseSecret(nsec)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return id, nil
}

// resolvePeer parses npub, or prompts for one.
func resolvePeer(in *bufio.Reader, prompt io.Writer, npub string) (domain.PeerIdentity, error) {
	if npub == "" {
		answer, err := ask(in, prompt, "Recipient npub: ")
		if err != nil {
			return domain.PeerIdentity{}, err
		}
		npub = answer
	}
	return crypto.ParseNpub(npub)
}

// ask prints question and reads one trimmed line.
func ask(in *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
