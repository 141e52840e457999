package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/spboyer/slidestats/internal/projectconfig"
	"github.com/spboyer/slidestats/internal/reporting"
	"github.com/spboyer/slidestats/internal/slidingstats"
	"github.com/spboyer/slidestats/internal/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

func newVerifyCommand() *cobra.Command {
	var flags flagValues
	var junitPath string

	cmd := &cobra.Command{
		Use:   "verify <file> [file ...]",
		Short: "Check that streamed statistics match a batch computation",
		Long: `Replay each file as a stream (see "stream") and compare the retained mean and
variance with the tail of a batch computation over the whole file. The result
must not depend on how the stream was chunked.

Exits with code 1 if any file differs by more than --tolerance (relative to
the magnitude of the expected value, or absolute below 1).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var done atomic.Int32
			stop := func() {}
			if f, ok := cmd.ErrOrStderr().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				stop = spinner.Start(f, func() string {
					return fmt.Sprintf("Verifying %d/%d file(s)", done.Load(), len(args))
				})
			}

			results := make([]reporting.Result, len(args))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(runtime.GOMAXPROCS(0))
			for i, path := range args {
				g.Go(func() error {
					res, err := runVerify(gctx, s, path)
					if err != nil {
						return err
					}
					results[i] = res
					done.Add(1)
					return nil
				})
			}
			err = g.Wait()
			stop()
			if err != nil {
				return err
			}

			if err := s.writeResults(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			if junitPath != "" {
				if err := reporting.WriteJUnitXML(results, s.tolerance, junitPath); err != nil {
					return fmt.Errorf("writing JUnit report: %w", err)
				}
			}

			failed := 0
			for _, r := range results {
				if !*r.Passed {
					failed++
				}
			}
			if failed > 0 {
				return &VerificationFailureError{
					Message: fmt.Sprintf("verification failed for %d of %d file(s)", failed, len(results)),
				}
			}
			return nil
		},
	}

	flags.registerCommon(cmd)
	flags.registerStream(cmd)
	cmd.Flags().Float64Var(&flags.tolerance, "tolerance", projectconfig.DefaultVerifyTolerance, "Largest accepted deviation between streamed and batch statistics")
	cmd.Flags().StringVar(&junitPath, "junit", "", "Also write the verdicts as JUnit XML to this path")
	return cmd
}

func runVerify(ctx context.Context, s *settings, path string) (reporting.Result, error) {
	started := time.Now()
	values, err := s.load(path)
	if err != nil {
		return reporting.Result{}, err
	}

	streamed, err := runStream(ctx, s, path, values)
	if err != nil {
		return reporting.Result{}, err
	}

	wantMean, wantVar, err := slidingstats.SlidingMeanVar(values, s.window)
	if err != nil {
		return reporting.Result{}, fmt.Errorf("%s: %w", path, err)
	}
	tail := len(wantMean) - len(streamed.Mean)

	gotVar := streamed.Variance
	if s.std {
		// compare like with like
		for i := range wantVar {
			wantVar[i] = math.Sqrt(wantVar[i])
		}
		gotVar = streamed.Std
	}

	deviation := max(
		maxDeviation(wantMean[tail:], streamed.Mean),
		maxDeviation(wantVar[tail:], gotVar),
	)
	passed := deviation <= s.tolerance

	slog.Debug("Verified series",
		"source", path,
		"windows", len(streamed.Mean),
		"maxDeviation", deviation,
		"passed", passed)

	streamed.Mode = "verify"
	streamed.MaxDeviation = &deviation
	streamed.Passed = &passed
	streamed.Elapsed = time.Since(started)
	return streamed, nil
}

// maxDeviation returns the largest difference between expected and actual,
// relative to the magnitude of the expected value once it exceeds 1.
func maxDeviation(expected, actual []float64) float64 {
	if len(expected) != len(actual) {
		return math.Inf(1)
	}
	worst := 0.0
	for i := range expected {
		d := math.Abs(expected[i]-actual[i]) / math.Max(1, math.Abs(expected[i]))
		worst = max(worst, d)
	}
	return worst
}
