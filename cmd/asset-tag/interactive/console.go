// Package interactive provides the interactive console of a running tag.
package interactive

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/asset-tag/tag-go/pkg/gatt"
	"github.com/asset-tag/tag-go/pkg/tag"
	"github.com/asset-tag/tag-go/pkg/timer"
)

// Target is the tag driven by the console.
type Target interface {
	Server() *gatt.Server
	Registry() *timer.Registry
	Status() tag.Status
	Finish(reason string)
	Wake()
}

var _ Target = (*tag.Tag)(nil)

// Console plays the connected peer: it reads and writes characteristics
// and controls the lifecycle of the tag.
type Console struct {
	target Target
	rl     *readline.Instance
	out    io.Writer
}

// New creates a console on the terminal. The target may be attached later,
// before Run.
func New(target Target) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tag> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{target: target, rl: rl, out: rl.Stdout()}, nil
}

// Attach sets the tag driven by the console.
func (c *Console) Attach(target Target) {
	c.target = target
}

// Close releases the terminal. A blocked Run returns.
func (c *Console) Close() error {
	return c.rl.Close()
}

// Stdout returns a writer that coordinates with the prompt. Use it for log
// output while the console runs.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run reads commands until quit, EOF or ctx is done. Quitting calls cancel.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if !c.Exec(line) {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Exec runs one command line. It returns false when the console should
// exit.
func (c *Console) Exec(line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "chars", "c":
		c.cmdChars()
	case "read", "r":
		c.cmdRead(args)
	case "write", "w":
		c.cmdWrite(args)
	case "status", "s":
		c.cmdStatus()
	case "timers", "t":
		c.cmdTimers()
	case "wake":
		c.target.Wake()
		fmt.Fprintln(c.out, "Wake cycle requested")
	case "finish":
		reason := strings.Join(args, " ")
		if reason == "" {
			reason = "console"
		}
		c.target.Finish(reason)
		fmt.Fprintln(c.out, "Lifecycle finished; the tag powers off")
	case "quit", "exit", "q":
		return false
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Asset Tag Commands:
  Attributes:
    chars                          - List characteristics
    read <char> [offset]           - Read a characteristic
    write <char> [@offset] <value> - Write a characteristic (0x prefix for hex)

  Lifecycle:
    status             - Show tag status
    timers             - List registered timers
    wake               - Run a wake cycle now
    finish [reason]    - Finish the lifecycle and power off

  General:
    help               - Show this help
    quit               - Exit

  Characteristics can be named (value, error, version, data) or given by UUID.`)
}

func (c *Console) lookup(name string) (gatt.Characteristic, bool) {
	char, ok := c.target.Server().Lookup(name)
	if !ok {
		fmt.Fprintf(c.out, "Unknown characteristic: %s\n", name)
	}
	return char, ok
}

func (c *Console) cmdChars() {
	for _, char := range c.target.Server().Characteristics() {
		persisted := ""
		if char.Buffer.Path != "" {
			persisted = " persisted as " + char.Buffer.Path
		}
		fmt.Fprintf(c.out, "  %-8s %s %-4s cap %d%s\n",
			char.Name, char.UUID, char.Access, char.Buffer.Capacity, persisted)
	}
}

func (c *Console) cmdRead(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "Usage: read <char> [offset]")
		return
	}
	char, ok := c.lookup(args[0])
	if !ok {
		return
	}
	offset := 0
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(c.out, "Invalid offset: %s\n", args[1])
			return
		}
		offset = n
	}

	data, err := c.target.Server().Read(char.UUID, offset)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "%s = %q (%d bytes: % x)\n", char.Name, data, len(data), data)
}

func (c *Console) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: write <char> [@offset] <value>")
		return
	}
	char, ok := c.lookup(args[0])
	if !ok {
		return
	}
	args = args[1:]

	offset := 0
	if strings.HasPrefix(args[0], "@") {
		n, err := strconv.Atoi(args[0][1:])
		if err != nil {
			fmt.Fprintf(c.out, "Invalid offset: %s\n", args[0])
			return
		}
		offset = n
		args = args[1:]
		if len(args) == 0 {
			fmt.Fprintln(c.out, "Usage: write <char> [@offset] <value>")
			return
		}
	}

	value, err := parseValue(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintf(c.out, "Invalid value: %v\n", err)
		return
	}

	n, err := c.target.Server().Write(char.UUID, value, offset)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Wrote %d bytes to %s at offset %d (persisted on the next wake)\n", n, char.Name, offset)
}

// parseValue decodes a 0x-prefixed hex string or returns the text bytes.
func parseValue(s string) ([]byte, error) {
	if h, ok := strings.CutPrefix(s, "0x"); ok {
		return hex.DecodeString(h)
	}
	return []byte(s), nil
}

func (c *Console) cmdStatus() {
	st := c.target.Status()
	fmt.Fprintf(c.out, "Tag:        %s\n", st.State)
	fmt.Fprintf(c.out, "Lifecycle:  %s\n", st.Lifecycle)
	fmt.Fprintf(c.out, "Boot:       %d\n", st.BootCount)
	fmt.Fprintf(c.out, "Cycles:     %d\n", st.Cycles)
	fmt.Fprintf(c.out, "Pending:    %t\n", st.Touched)
	fmt.Fprintf(c.out, "Timers:     %d/%d\n", st.Timers, st.TimerCap)
	fmt.Fprintf(c.out, "Wake slot:  %d submits, %d runs, %d fallbacks\n",
		st.WakeStats.Submits, st.WakeStats.Runs, st.WakeStats.Fallbacks)
	if st.Drops > 0 {
		fmt.Fprintf(c.out, "Dropped:    %d\n", st.Drops)
	}
	if st.PowerTries > 0 {
		fmt.Fprintf(c.out, "Power-offs: %d\n", st.PowerTries)
	}
}

func (c *Console) cmdTimers() {
	bindings := c.target.Registry().Bindings()
	if len(bindings) == 0 {
		fmt.Fprintln(c.out, "No timers registered")
		return
	}
	for _, b := range bindings {
		state := "stopped"
		if b.Live {
			state = "live"
		}
		fmt.Fprintf(c.out, "  #%d %-8s %-9s every %v (first after %v) fired %d, %s\n",
			b.ID, b.Name, b.Kind, b.Period, b.Initial, b.Fired, state)
	}
}
