package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kernelsim/preemptk"
	"github.com/kernelsim/preemptk/internal/simhw"
)

func newSnapshotCmd() *cobra.Command {
	var ticks int
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Run a sleeping worker process for N ticks and print a hex-encoded state snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runSnapshot(cfg, ticks)
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 50, "number of ticks to run before snapshotting")
	return cmd
}

func runSnapshot(cfg preemptk.Config, ticks int) error {
	switcher := simhw.NewGoroutineSwitcher()
	stacks := simhw.NewConfiguredAllocator(cfg)
	k := preemptk.New(cfg, switcher, stacks)

	worker := func(uc *preemptk.UserContext) {
		for i := 0; i < 1000; i++ {
			uc.Sleep(1)
		}
	}
	if _, err := k.Boot(worker, 4096); err != nil {
		return err
	}
	for i := 0; i < ticks; i++ {
		k.Step()
	}

	buf := make([]byte, k.SnapshotSize())
	if err := k.Snapshot(buf); err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(buf))
	return nil
}
