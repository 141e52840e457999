package series

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// CSVOptions selects the column holding the series.
type CSVOptions struct {
	// Column names the column to read. Requires a header row.
	Column string `mapstructure:"column"`

	// Index is the zero-based column to read when Column is empty.
	Index int `mapstructure:"index"`

	// NoHeader means the first row is data.
	NoHeader bool `mapstructure:"no_header"`

	Delimiter string `mapstructure:"delimiter"`
}

func (o CSVOptions) read(r io.Reader) ([]float64, error) {
	reader := csv.NewReader(r)
	if o.Delimiter != "" {
		d, size := utf8.DecodeRuneInString(o.Delimiter)
		if size != len(o.Delimiter) {
			return nil, fmt.Errorf("csv: delimiter must be a single character, got %q", o.Delimiter)
		}
		reader.Comma = d
	}
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := o.Index
	rows := records
	if !o.NoHeader {
		headers := records[0]
		rows = records[1:]
		if o.Column != "" {
			col = slices.Index(headers, o.Column)
			if col < 0 {
				return nil, fmt.Errorf("csv: no column named %q (have %s)", o.Column, strings.Join(headers, ", "))
			}
		}
	} else if o.Column != "" {
		return nil, errors.New("csv: column names need a header row")
	}
	if col < 0 {
		return nil, fmt.Errorf("csv: column index must be >= 0, got %d", col)
	}

	values := make([]float64, 0, len(rows))
	for i, row := range rows {
		line := i + 1
		if !o.NoHeader {
			line++
		}
		if col >= len(row) {
			return nil, fmt.Errorf("csv: row %d has %d columns, need column %d", line, len(row), col)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: %w", line, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// TextOptions controls parsing of files with one value per line.
type TextOptions struct {
	// Comment is the prefix of lines to skip.
	Comment string `mapstructure:"comment"`
}

func (o TextOptions) read(r io.Reader) ([]float64, error) {
	var values []float64
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || (o.Comment != "" && strings.HasPrefix(text, o.Comment)) {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// document is the object form accepted by the JSON and YAML readers.
type document struct {
	Values []float64 `json:"values" yaml:"values"`
}

func readJSON(r io.Reader) ([]float64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var values []float64
	if err := json.Unmarshal(data, &values); err == nil {
		return values, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("json: expected an array of numbers or an object with \"values\": %w", err)
	}
	return doc.Values, nil
}

func readYAML(r io.Reader) ([]float64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var values []float64
	if err := yaml.Unmarshal(data, &values); err == nil {
		return values, nil
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml: expected a list of numbers or a mapping with \"values\": %w", err)
	}
	return doc.Values, nil
}
