// stress-runonce hammers a resident SwiftShot with concurrent delegated
// capture requests to verify the busy-rejection path under load.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/SysAdminDoc/SwiftShot/src/singleinstance"
)

type stressOptions struct {
	n        int
	mode     string
	std      bool
	deadline time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-runonce",
		Short:         "Stress test run-once capture delegation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts)
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.mode, "mode", singleinstance.RequestRegion, "capture mode: region|window|repeat")
	cmd.Flags().BoolVar(&opts.std, "std", false, "request the saved path on stdout (run-once-std form)")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func runWithOptions(opts stressOptions) error {
	switch opts.mode {
	case singleinstance.RequestRegion, singleinstance.RequestWindow, singleinstance.RequestRepeat:
	default:
		return fmt.Errorf("invalid mode %q: want region, window or repeat", opts.mode)
	}

	var wg sync.WaitGroup
	var okCount int32
	var busyCount int32
	var cancelCount int32
	var errCount int32

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			client := singleinstance.NewClient()
			delegated, _, err := client.TryRunOnce(ctx, opts.mode, opts.std)
			switch {
			case errors.Is(err, singleinstance.ErrCancelled):
				atomic.AddInt32(&cancelCount, 1)
			case err != nil && strings.Contains(strings.ToLower(err.Error()), "busy"):
				atomic.AddInt32(&busyCount, 1)
			case err != nil:
				atomic.AddInt32(&errCount, 1)
			case delegated:
				atomic.AddInt32(&okCount, 1)
			default:
				// No resident answered; for a stress run that is a failure.
				atomic.AddInt32(&errCount, 1)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)
	fmt.Fprintf(os.Stdout, "launched=%d ok=%d busy=%d cancelled=%d err=%d elapsed=%s\n",
		opts.n, okCount, busyCount, cancelCount, errCount, elapsed)
	return nil
}
