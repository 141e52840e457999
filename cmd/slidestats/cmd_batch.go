package main

import (
	"fmt"

	"github.com/spboyer/slidestats/internal/reporting"
	"github.com/spboyer/slidestats/internal/slidingstats"
	"github.com/spf13/cobra"
)

func newBatchCommand() *cobra.Command {
	var flags flagValues

	cmd := &cobra.Command{
		Use:   "batch <file> [file ...]",
		Short: "Compute sliding mean and variance over whole files",
		Long: `Compute the mean and variance (or standard deviation with --std) of every
window of the series stored in each file, in a single pass per file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.resolve(cmd)
			if err != nil {
				return err
			}

			results := make([]reporting.Result, 0, len(args))
			for _, path := range args {
				res, err := runBatch(s, path)
				if err != nil {
					return err
				}
				results = append(results, res)
			}
			return s.writeResults(cmd.OutOrStdout(), results)
		},
	}

	flags.registerCommon(cmd)
	return cmd
}

func runBatch(s *settings, path string) (reporting.Result, error) {
	values, err := s.load(path)
	if err != nil {
		return reporting.Result{}, err
	}

	res := reporting.Result{
		Source:  path,
		Mode:    "batch",
		Window:  s.window,
		Samples: len(values),
	}

	if s.std {
		res.Mean, res.Std, err = slidingstats.SlidingMeanStd(values, s.window)
	} else {
		res.Mean, res.Variance, err = slidingstats.SlidingMeanVar(values, s.window)
	}
	if err != nil {
		return reporting.Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
