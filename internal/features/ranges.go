package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// Reference is the result of scanning a reference dataset: the ordered
// feature specs plus a little bookkeeping about the table they came from.
type Reference struct {
	Specs       []FeatureSpec
	LabelColumn string
	Rows        int
}

// LoadRanges reads the reference dataset at path and returns one FeatureSpec
// per feature column, in column order. The trailing label column is excluded.
func LoadRanges(path string) ([]FeatureSpec, error) {
	ref, err := LoadReference(path)
	if err != nil {
		return nil, err
	}
	return ref.Specs, nil
}

// LoadReference is LoadRanges with the table metadata kept.
func LoadReference(path string) (*Reference, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DataFormatError{Path: path, Reason: "cannot open", Err: err}
	}
	defer file.Close()

	ref, err := DeriveReference(file)
	if err != nil {
		var dfe *DataFormatError
		if errors.As(err, &dfe) {
			dfe.Path = path
		}
		return nil, err
	}

	log.Info().
		Str("file", path).
		Int("rows", ref.Rows).
		Int("features", len(ref.Specs)).
		Str("label_column", ref.LabelColumn).
		Msg("reference dataset loaded")

	return ref, nil
}

// DeriveRanges computes feature specs from CSV content.
func DeriveRanges(r io.Reader) ([]FeatureSpec, error) {
	ref, err := DeriveReference(r)
	if err != nil {
		return nil, err
	}
	return ref.Specs, nil
}

// DeriveReference scans CSV content: a header of feature names followed by
// numeric rows whose last column is the training label.
func DeriveReference(r io.Reader) (*Reference, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DataFormatError{Reason: "missing header row"}
		}
		return nil, &DataFormatError{Reason: "failed to read header", Err: err}
	}
	if len(header) < 2 {
		return nil, &DataFormatError{Reason: fmt.Sprintf("need at least one feature column and a label column, got %d columns", len(header))}
	}

	names := make([]string, len(header)-1)
	seen := make(map[string]bool, len(names))
	for i, col := range header[:len(header)-1] {
		name := strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if name == "" {
			return nil, &DataFormatError{Reason: fmt.Sprintf("feature column %d has no name", i)}
		}
		if seen[name] {
			return nil, &DataFormatError{Column: name, Reason: "duplicate column name"}
		}
		seen[name] = true
		names[i] = name
	}

	columns := make([][]float64, len(names))
	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DataFormatError{Row: rows + 1, Reason: "malformed record", Err: err}
		}
		rows++

		for i, name := range names {
			raw := strings.TrimSpace(record[i])
			if raw == "" {
				return nil, &DataFormatError{Column: name, Row: rows, Reason: "empty value"}
			}
			x, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, &DataFormatError{Column: name, Row: rows, Reason: fmt.Sprintf("non-numeric value %q", raw)}
			}
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, &DataFormatError{Column: name, Row: rows, Reason: fmt.Sprintf("non-finite value %q", raw)}
			}
			columns[i] = append(columns[i], x)
		}
	}

	specs := make([]FeatureSpec, len(names))
	for i, name := range names {
		if len(columns[i]) == 0 {
			return nil, &DataFormatError{Column: name, Reason: "column is empty"}
		}
		specs[i] = FeatureSpec{
			Name: name,
			Min:  floats.Min(columns[i]),
			Max:  floats.Max(columns[i]),
		}
	}

	return &Reference{
		Specs:       specs,
		LabelColumn: strings.TrimSpace(header[len(header)-1]),
		Rows:        rows,
	}, nil
}
