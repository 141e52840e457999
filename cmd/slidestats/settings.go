package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spboyer/slidestats/internal/projectconfig"
	"github.com/spboyer/slidestats/internal/reporting"
	"github.com/spboyer/slidestats/internal/series"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const configFileHint = projectconfig.FileName

// settings is the effective configuration of a command: config file values
// overridden by any flags the user set.
type settings struct {
	window      int
	inputFormat series.Format
	options     map[string]any
	initial     int
	chunks      []int
	output      string
	std         bool
	limit       int
	tolerance   float64
}

// flagValues holds the raw flag destinations shared by all subcommands.
type flagValues struct {
	window      int
	inputFormat string
	column      string
	initial     int
	chunks      []int
	output      string
	std         bool
	limit       int
	tolerance   float64
}

func (f *flagValues) registerCommon(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.window, "window", "m", projectconfig.DefaultWindow, "Sliding window length")
	cmd.Flags().StringVar(&f.inputFormat, "input-format", "", "Input format: csv, json, yaml or text (default: from file extension)")
	cmd.Flags().StringVar(&f.column, "column", "", "CSV column holding the series")
	cmd.Flags().StringVarP(&f.output, "format", "f", projectconfig.DefaultOutputFormat, "Output format: auto, table or json")
	cmd.Flags().BoolVar(&f.std, "std", false, "Report standard deviation instead of variance")
	cmd.Flags().IntVar(&f.limit, "limit", projectconfig.DefaultOutputLimit, "Windows shown per series in table output (0 = all)")
}

func (f *flagValues) registerStream(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.initial, "initial", projectconfig.DefaultStreamInitial, "Samples used to seed the stream (0 = a quarter of the series, at least the window)")
	cmd.Flags().IntSliceVar(&f.chunks, "chunks", projectconfig.DefaultStreamChunks, "Chunk sizes to cycle through when replaying")
}

// resolve loads the project configuration and applies flags the user set
// explicitly on top of it.
func (f *flagValues) resolve(cmd *cobra.Command) (*settings, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	s := &settings{
		window:      cfg.Window,
		inputFormat: series.Format(cfg.Input.Format),
		options:     cfg.Input.Options,
		initial:     cfg.Stream.Initial,
		chunks:      cfg.Stream.Chunks,
		output:      cfg.Output.Format,
		std:         *cfg.Output.Std,
		limit:       *cfg.Output.Limit,
		tolerance:   cfg.Verify.Tolerance,
	}

	flags := cmd.Flags()
	if flags.Changed("window") {
		s.window = f.window
	}
	if flags.Changed("input-format") {
		s.inputFormat = series.Format(f.inputFormat)
	}
	if flags.Changed("column") {
		options := make(map[string]any, len(s.options)+1)
		for k, v := range s.options {
			options[k] = v
		}
		options["column"] = f.column
		s.options = options
	}
	if flags.Changed("format") {
		s.output = f.output
	}
	if flags.Changed("std") {
		s.std = f.std
	}
	if flags.Changed("limit") {
		s.limit = f.limit
	}
	if flags.Changed("initial") {
		s.initial = f.initial
	}
	if flags.Changed("chunks") {
		s.chunks = f.chunks
	}
	if flags.Changed("tolerance") {
		s.tolerance = f.tolerance
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	slog.Debug("Resolved settings",
		"config", cfg.Path,
		"window", s.window,
		"inputFormat", s.inputFormat,
		"chunks", s.chunks,
		"output", s.output)
	return s, nil
}

func (s *settings) validate() error {
	if s.window <= 0 {
		return fmt.Errorf("window must be > 0, got %d", s.window)
	}
	if s.inputFormat != series.FormatAuto && !slices.Contains(series.Formats, s.inputFormat) {
		return fmt.Errorf("unsupported input format %q: must be one of csv, json, yaml or text", s.inputFormat)
	}
	switch s.output {
	case "auto", "table", "json":
	default:
		return fmt.Errorf("unsupported format %q: must be auto, table or json", s.output)
	}
	if s.initial < 0 {
		return fmt.Errorf("initial must be >= 0, got %d", s.initial)
	}
	if s.tolerance <= 0 {
		return fmt.Errorf("tolerance must be > 0, got %g", s.tolerance)
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (*projectconfig.ProjectConfig, error) {
	var path string
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}
	if path != "" {
		return projectconfig.LoadFile(path)
	}
	return projectconfig.Load(".")
}

func (s *settings) load(path string) ([]float64, error) {
	return series.Load(path, s.inputFormat, s.options)
}

// initialLength picks how many samples seed a stream of n samples.
func (s *settings) initialLength(n int) int {
	initial := s.initial
	if initial == 0 {
		initial = max(s.window, n/4)
	}
	return min(initial, n)
}

// writeResults prints results in the configured format. "auto" means a table
// on a terminal and JSON otherwise.
func (s *settings) writeResults(w io.Writer, results []reporting.Result) error {
	format := s.output
	if format == "auto" {
		format = "json"
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = "table"
		}
	}

	if format == "json" {
		return reporting.WriteJSON(w, results)
	}
	reporting.WriteTable(w, results, s.limit)
	return nil
}
