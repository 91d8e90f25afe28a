package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/creack/pty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kernelsim/preemptk"
	"github.com/kernelsim/preemptk/internal/simhw"
)

func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Boot the kernel with the keyboard driver fed from this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runInteractive(cfg)
		},
	}
}

// runInteractive puts the controlling terminal into raw mode (so the
// keyboard driver sees every keystroke, not line-buffered input) and
// runs a kernel process that writes what it reads to a pty, whose master
// side is forwarded to stdout, while keystrokes are injected into the
// kernel's keyboard driver via
// InterruptASCII. This is the one place golang.org/x/term and
// github.com/creack/pty are exercised: a real terminal driving a
// simulated device, rather than the GoroutineSwitcher's synthetic input.
func runInteractive(cfg preemptk.Config) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("preemptk: interactive mode requires a real terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, oldState)

	ptmx, tty, err := pty.Open()
	if err != nil {
		return err
	}
	defer ptmx.Close()
	defer tty.Close()
	go io.Copy(os.Stdout, ptmx)

	switcher := simhw.NewGoroutineSwitcher()
	stacks := simhw.NewConfiguredAllocator(cfg)
	k := preemptk.New(cfg, switcher, stacks)

	kbd := preemptk.NewKeyboardDriver(k, cfg.RingBufferCap, cfg.DefaultEOFChar)
	if err := k.RegisterDevice(preemptk.KeyboardMinorEcho, kbd); err != nil {
		return err
	}

	echoShell := func(uc *preemptk.UserContext) {
		fd, code := uc.Open(preemptk.KeyboardMinorEcho)
		if code < 0 {
			return
		}
		defer uc.Close(fd)
		buf := make([]byte, 1)
		for {
			n, data := uc.Read(fd, buf)
			if n < 0 {
				return
			}
			if len(data) > 0 {
				fmt.Fprint(tty, string(data))
			}
		}
	}

	if _, err := k.Boot(echoShell, 4096); err != nil {
		return err
	}

	// Reading os.Stdin genuinely blocks, so it runs on its own goroutine;
	// everything that touches kernel or device state — including the
	// keyboard ISR lower half — still only ever runs on this function's
	// goroutine, fed through a channel the same way a real interrupt
	// controller would hand scan codes to a single-threaded kernel one
	// at a time rather than letting the input source call in directly.
	keys := make(chan byte, 64)
	go func() {
		in := make([]byte, 1)
		for {
			if _, err := os.Stdin.Read(in); err != nil {
				close(keys)
				return
			}
			keys <- in[0]
		}
	}()

	for !k.Halted() {
		select {
		case b, ok := <-keys:
			if !ok {
				return nil
			}
			kbd.InterruptASCII(b)
		default:
		}
		k.Step()
	}
	return nil
}
