package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kernelsim/preemptk"
	"github.com/kernelsim/preemptk/internal/simhw"
)

func newRunCmd() *cobra.Command {
	var maxTicks int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the kernel against a canned two-process IPC demo",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runDemo(cfg, maxTicks)
		},
	}
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 2000, "stop after this many ticks even if not halted")
	return cmd
}

// runDemo boots a producer/consumer pair: the producer sends ten messages
// to the consumer and exits; the consumer prints each one via puts. The
// consumer's recv_any is not tied to the producer, so the producer's exit
// does not wake it; the run ends after --max-ticks ticks.
func runDemo(cfg preemptk.Config, maxTicks int) error {
	switcher := simhw.NewGoroutineSwitcher()
	stacks := simhw.NewConfiguredAllocator(cfg)
	k := preemptk.New(cfg, switcher, stacks)

	consumer := func(uc *preemptk.UserContext) {
		for {
			buf := make([]byte, 32)
			code, data := uc.RecvAny(buf)
			if code == preemptk.IPCTargetDied {
				return
			}
			if code < 0 {
				continue
			}
			uc.Puts(fmt.Sprintf("consumer got: %s", string(data)))
		}
	}

	producer := func(uc *preemptk.UserContext) {
		consumerPID, code := uc.Create(consumer, 4096, 1)
		if code < 0 {
			return
		}
		for i := 0; i < 10; i++ {
			uc.Send(consumerPID, []byte(fmt.Sprintf("msg-%d", i)))
			uc.Sleep(5)
		}
	}

	if _, err := k.Boot(producer, 4096); err != nil {
		return err
	}

	for i := 0; i < maxTicks && !k.Halted(); i++ {
		k.Step()
	}
	return nil
}
