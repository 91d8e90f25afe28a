// Command preemptk boots the process-management nucleus against either a
// canned demo workload or a real terminal, for manual exploration of the
// scheduler, IPC, and keyboard driver without attaching a debugger to the
// test suite.
package main

import (
	"fmt"
	"os"

	"github.com/kernelsim/preemptk/cmd/preemptk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
