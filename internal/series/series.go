// Package series loads numeric series from CSV, JSON, YAML or plain text
// files, optionally gzip or zstd compressed.
package series

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spboyer/slidestats/internal/slidingstats"
)

type Format string

const (
	FormatAuto Format = ""
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// Formats lists the formats accepted by Load, in the order they are documented.
var Formats = []Format{FormatCSV, FormatJSON, FormatYAML, FormatText}

// Load reads the series stored at path. An empty format is inferred from the
// file extension, ignoring a trailing .gz or .zst. options holds
// format-specific settings, see CSVOptions and TextOptions.
//
// Values that are NaN or infinite are rejected with an error wrapping
// slidingstats.ErrInvalidInput.
func Load(path string, format Format, options map[string]any) ([]float64, error) {
	if format == FormatAuto {
		format = DetectFormat(path)
	}
	decode, err := decoderFor(format, options)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("series: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	r, closeFn, err := decompress(path, f)
	if err != nil {
		return nil, fmt.Errorf("series: decompress %s: %w", path, err)
	}
	defer closeFn()

	values, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("series: parse %s: %w", path, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("series: %s contains no values", path)
	}
	if err := slidingstats.CheckFinite(values); err != nil {
		return nil, fmt.Errorf("series: %s: %w", path, err)
	}
	return values, nil
}

// DetectFormat infers the format of path from its extension. Unknown
// extensions are read as text.
func DetectFormat(path string) Format {
	base := strings.ToLower(filepath.Base(path))
	base = strings.TrimSuffix(base, ".gz")
	base = strings.TrimSuffix(base, ".zst")

	switch filepath.Ext(base) {
	case ".csv", ".tsv":
		return FormatCSV
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

type decodeFunc func(r io.Reader) ([]float64, error)

func decoderFor(format Format, options map[string]any) (decodeFunc, error) {
	switch format {
	case FormatCSV:
		opts := CSVOptions{Delimiter: ","}
		if err := decodeOptions(options, &opts); err != nil {
			return nil, err
		}
		return opts.read, nil
	case FormatText:
		opts := TextOptions{Comment: "#"}
		if err := decodeOptions(options, &opts); err != nil {
			return nil, err
		}
		return opts.read, nil
	case FormatJSON:
		return readJSON, nil
	case FormatYAML:
		return readYAML, nil
	default:
		return nil, fmt.Errorf("series: unsupported format %q", format)
	}
}

func decodeOptions(options map[string]any, out any) error {
	if len(options) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(options); err != nil {
		return fmt.Errorf("series: invalid options: %w", err)
	}
	return nil
}

func decompress(path string, r io.Reader) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gz, func() { _ = gz.Close() }, nil
	case ".zst":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	default:
		return r, func() {}, nil
	}
}
