package main

import (
	"context"
	"fmt"
	"math"

	"github.com/spboyer/slidestats/internal/replay"
	"github.com/spboyer/slidestats/internal/reporting"
	"github.com/spf13/cobra"
)

func newStreamCommand() *cobra.Command {
	var flags flagValues

	cmd := &cobra.Command{
		Use:   "stream <file> [file ...]",
		Short: "Replay files as streams and report the tracked statistics",
		Long: `Replay each file as a data stream. The first --initial samples seed the
streaming statistics, the rest are appended in chunks whose sizes cycle
through --chunks. The statistics retained at the end of the stream are
printed: one per window over the last --initial samples.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.resolve(cmd)
			if err != nil {
				return err
			}

			results := make([]reporting.Result, 0, len(args))
			for _, path := range args {
				values, err := s.load(path)
				if err != nil {
					return err
				}
				res, err := runStream(cmd.Context(), s, path, values)
				if err != nil {
					return err
				}
				results = append(results, res)
			}
			return s.writeResults(cmd.OutOrStdout(), results)
		},
	}

	flags.registerCommon(cmd)
	flags.registerStream(cmd)
	return cmd
}

func runStream(ctx context.Context, s *settings, path string, values []float64) (reporting.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	initial := s.initialLength(len(values))
	runner, err := replay.NewRunner(values[:initial], s.window)
	if err != nil {
		return reporting.Result{}, fmt.Errorf("%s: %w", path, err)
	}

	src, err := replay.NewSliceSource(values[initial:], s.chunks)
	if err != nil {
		return reporting.Result{}, err
	}

	summary, err := runner.Run(ctx, src)
	if err != nil {
		return reporting.Result{}, fmt.Errorf("%s: %w", path, err)
	}

	stats := runner.Stats()
	mean := stats.Mean()
	res := reporting.Result{
		Source:     path,
		Mode:       "stream",
		Window:     s.window,
		Samples:    summary.Samples,
		Chunks:     summary.Chunks,
		Strategies: summary.StrategyCounts(),
		Offset:     summary.Samples - s.window + 1 - len(mean),
		Mean:       mean,
	}

	variance := stats.Variance()
	if s.std {
		for i, v := range variance {
			variance[i] = math.Sqrt(v)
		}
		res.Std = variance
	} else {
		res.Variance = variance
	}
	return res, nil
}
