package pointio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/geoclust/points"
)

// ReadCSV reads one point per record. A first record that does not parse as
// numbers is treated as a header and skipped.
func ReadCSV(r io.Reader) (*points.Flat, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var (
		data []float64
		dim  int
	)
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}

		row, err := parseRecord(rec)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidFormat, line, err)
		}
		if dim == 0 {
			dim = len(row)
		}
		data = append(data, row...)
	}
	if dim == 0 {
		return nil, fmt.Errorf("%w: no points", ErrInvalidFormat)
	}
	return points.NewFlat(data, dim)
}

func parseRecord(rec []string) ([]float64, error) {
	row := make([]float64, len(rec))
	for i, field := range rec {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}
