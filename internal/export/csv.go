// Package export writes a finished ResultSet to disk: the CSV table, the
// trend plot and the search-info sidecar.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/FranksOps/scholartrend/internal/trend"
)

// Layout selects the CSV column set.
type Layout int

const (
	// LayoutCounts writes one row per year.
	LayoutCounts Layout = iota
	// LayoutEntries writes one row per scraped entry.
	LayoutEntries
)

var (
	countsHeader  = []string{"year", "numberOfResults"}
	entriesHeader = []string{"year", "totalResults", "authorYear"}
)

// ErrMalformedCSV is returned by ReadCSV for input that is not one of the
// two layouts.
var ErrMalformedCSV = errors.New("malformed csv")

// LayoutFor picks the entries layout when entry scraping was enabled.
func LayoutFor(extractEntries bool) Layout {
	if extractEntries {
		return LayoutEntries
	}
	return LayoutCounts
}

// WriteCSV writes rs in the given layout. In the entries layout a year
// without entries still gets one row, with an empty authorYear.
func WriteCSV(w io.Writer, rs trend.ResultSet, layout Layout) error {
	cw := csv.NewWriter(w)

	header := countsHeader
	if layout == LayoutEntries {
		header = entriesHeader
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range rs {
		year := strconv.Itoa(r.Year)
		total := strconv.Itoa(r.TotalCount)

		if layout == LayoutCounts {
			if err := cw.Write([]string{year, total}); err != nil {
				return fmt.Errorf("write year %d: %w", r.Year, err)
			}
			continue
		}

		if len(r.Entries) == 0 {
			if err := cw.Write([]string{year, total, ""}); err != nil {
				return fmt.Errorf("write year %d: %w", r.Year, err)
			}
			continue
		}
		for _, e := range r.Entries {
			if err := cw.Write([]string{year, total, e}); err != nil {
				return fmt.Errorf("write year %d: %w", r.Year, err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteCSVFile writes rs to path, creating parent directories as needed.
// The file is truncated, not appended to.
func WriteCSVFile(path string, rs trend.ResultSet, layout Layout) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(f, rs, layout); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	return nil
}

// ReadCSV reconstructs a ResultSet from either layout. Failure kinds are not
// stored in the file, so every row comes back healthy.
func ReadCSV(r io.Reader) (trend.ResultSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return trend.ResultSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var layout Layout
	switch len(header) {
	case len(countsHeader):
		layout = LayoutCounts
	case len(entriesHeader):
		layout = LayoutEntries
	default:
		return nil, fmt.Errorf("%w: unexpected header %v", ErrMalformedCSV, header)
	}

	rs := trend.ResultSet{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d", ErrMalformedCSV, line, len(record), len(header))
		}

		year, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: year %q", ErrMalformedCSV, line, record[0])
		}
		total, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: count %q", ErrMalformedCSV, line, record[1])
		}

		// Entry rows of the same year are consecutive.
		if n := len(rs); n == 0 || rs[n-1].Year != year {
			rs = append(rs, trend.YearResult{Year: year, TotalCount: total, Entries: []string{}})
		}
		if layout == LayoutEntries && record[2] != "" {
			last := &rs[len(rs)-1]
			last.Entries = append(last.Entries, record[2])
		}
	}
	return rs, nil
}
