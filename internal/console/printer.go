package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"nostrdm/internal/crypto"
	"nostrdm/internal/domain"
	"nostrdm/internal/services/topology"
)

const (
	timeLayout = "15:04"
	promptText = "> "
)

// Printer implements domain.Console on a pair of writers.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer

	you, peer, warn, dim *color.Color
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithoutColor disables ANSI colors regardless of the terminal.
func WithoutColor() PrinterOption {
	return func(p *Printer) {
		for _, c := range []*color.Color{p.you, p.peer, p.warn, p.dim} {
			c.DisableColor()
		}
	}
}

// NewPrinter writes the session to out and warnings to errOut.
func NewPrinter(out, errOut io.Writer, opts ...PrinterOption) *Printer {
	p := &Printer{
		out:    out,
		errOut: errOut,
		you:    color.New(color.FgCyan, color.Bold),
		peer:   color.New(color.FgGreen, color.Bold),
		warn:   color.New(color.FgYellow),
		dim:    color.New(color.Faint),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Banner announces the peer at session start.
func (p *Printer) Banner(peer string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "Chatting with %s\n", peer)
	p.dim.Fprintln(p.out, "Type a message and press Enter. Ctrl-C to quit.")
}

// Topology shows the local npub and the relay sets for the session. Relays
// absent from connected are marked unreachable.
func (p *Printer) Topology(npub string, relays, connected domain.RelaySet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "Your npub: %s\n", npub)
	p.relayList("Read relays", relays.ReadURLs(), connected)
	p.relayList("Write relays (incl. fallbacks)", relays.WriteURLs(), connected)
}

func (p *Printer) relayList(title string, urls []string, connected domain.RelaySet) {
	fmt.Fprintf(p.out, "%s:\n", title)
	for _, u := range urls {
		if _, ok := connected[u]; ok {
			fmt.Fprintf(p.out, "  %s\n", u)
			continue
		}
		fmt.Fprintf(p.out, "  %s ", u)
		p.warn.Fprintln(p.out, "(unreachable)")
	}
}

// Prompt prints the input prompt without a newline.
func (p *Printer) Prompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, promptText)
}

// Sent renders a line we sent.
func (p *Printer) Sent(at time.Time, text string) {
	p.line(at, p.you, "You:", text)
}

// Received renders a message from the peer.
func (p *Printer) Received(msg domain.UnwrappedMessage) {
	p.line(msg.Timestamp, p.peer, "Peer:", msg.Content)
}

// NoWriteRelay warns that nothing could be published.
func (p *Printer) NoWriteRelay() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warn.Fprintln(p.errOut, "\rsend failed: no write relays connected")
	p.dim.Fprintf(p.errOut, "check that your relays are reachable; public fallback relays (%s) are already in use\n",
		strings.Join(topology.Fallback(), ", "))
}

// SendFailed renders any other send error.
func (p *Printer) SendFailed(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warn.Fprintf(p.errOut, "\r%v\n", err)
}

// Farewell is printed once on interrupt.
func (p *Printer) Farewell() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, "\nbye")
}

// Identity prints a freshly generated identity so the user can keep it.
func (p *Printer) Identity(id domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warn.Fprintln(p.errOut, "generated a new identity; save the nsec to reuse it")
	fmt.Fprintf(p.out, "nsec: %s\nnpub: %s\n", crypto.EncodeNsec(id), crypto.EncodeNpub(id.Public))
}

// line overwrites the pending prompt with a timestamped message.
func (p *Printer) line(at time.Time, marker *color.Color, label, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, "\r")
	p.dim.Fprintf(p.out, "[%s] ", at.Local().Format(timeLayout))
	marker.Fprint(p.out, label)
	fmt.Fprintf(p.out, " %s\n", text)
}

var _ domain.Console = (*Printer)(nil)
