package datasource

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vanderheijden86/chemoscope/pkg/model"
)

// CSVOptions tunes delimited-text parsing. The zero value auto-detects both
// the field delimiter and the decimal separator per value.
type CSVOptions struct {
	// Delimiter separates fields. 0 auto-detects among ';', ',' and tab
	// from the header line. Composition exports are usually
	// semicolon-separated.
	Delimiter rune
	// DecimalSeparator is the decimal mark inside numbers. 0 auto-detects
	// per value, accepting both "1.5" and "1,5".
	DecimalSeparator rune
}

// DefaultCSVOptions returns auto-detecting parse options.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{}
}

// Header names recognized for each required column, lowercase. The
// Portuguese names come first: they are what the instrument export uses.
var headerAliases = map[string][]string{
	"condition":     {"condicao", "condition"},
	"replica":       {"replica", "replicate"},
	"compound":      {"composto", "compound"},
	"concentration": {"concentracao", "concentration"},
}

// ReadCSVFile parses a delimited observation file into a Dataset.
func ReadCSVFile(path string, opts CSVOptions) (*model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	ds, err := ReadCSV(f, opts)
	if err != nil {
		return nil, err
	}
	ds.Source = path
	return ds, nil
}

// ReadCSV parses delimited observation records from a reader. The first
// line must be a header naming the condition, replica, compound and
// concentration columns (Portuguese or English names). Extra columns are
// ignored.
func ReadCSV(r io.Reader, opts CSVOptions) (*model.Dataset, error) {
	br := bufio.NewReader(r)

	delim := opts.Delimiter
	if delim == 0 {
		header, err := br.Peek(4096)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read input: %w", err)
		}
		delim = detectDelimiter(string(header))
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &model.InvalidInputError{Reason: "empty input"}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	ds := &model.Dataset{Source: "reader"}
	row := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}
		row++
		if len(rec) <= cols.max() {
			return nil, &model.InvalidInputError{Reason: "too few fields", Row: row}
		}
		conc, err := parseConcentration(rec[cols.concentration], opts.DecimalSeparator)
		if err != nil {
			return nil, &model.InvalidInputError{
				Reason: fmt.Sprintf("non-numeric concentration %q", rec[cols.concentration]),
				Row:    row,
				Field:  "concentration",
			}
		}
		ds.Observations = append(ds.Observations, model.Observation{
			Condition:     strings.TrimSpace(rec[cols.condition]),
			Replica:       strings.TrimSpace(rec[cols.replica]),
			Compound:      strings.TrimSpace(rec[cols.compound]),
			Concentration: conc,
		})
	}
	return ds, nil
}

// columnIndexes maps the required logical columns to header positions.
type columnIndexes struct {
	condition     int
	replica       int
	compound      int
	concentration int
}

func (c columnIndexes) max() int {
	m := c.condition
	for _, v := range []int{c.replica, c.compound, c.concentration} {
		if v > m {
			m = v
		}
	}
	return m
}

func resolveColumns(header []string) (columnIndexes, error) {
	find := func(logical string) int {
		for i, h := range header {
			h = strings.ToLower(strings.TrimSpace(h))
			for _, alias := range headerAliases[logical] {
				if h == alias {
					return i
				}
			}
		}
		return -1
	}

	cols := columnIndexes{
		condition:     find("condition"),
		replica:       find("replica"),
		compound:      find("compound"),
		concentration: find("concentration"),
	}
	for logical, idx := range map[string]int{
		"condition":     cols.condition,
		"replica":       cols.replica,
		"compound":      cols.compound,
		"concentration": cols.concentration,
	} {
		if idx < 0 {
			return cols, &model.InvalidInputError{
				Reason: fmt.Sprintf("missing required column (aliases: %s)", strings.Join(headerAliases[logical], ", ")),
				Field:  logical,
			}
		}
	}
	return cols, nil
}

// detectDelimiter picks the delimiter with the most occurrences in the
// header line. Semicolon wins ties: it is the common export format.
func detectDelimiter(header string) rune {
	if i := strings.IndexAny(header, "\r\n"); i >= 0 {
		header = header[:i]
	}
	best, bestCount := ';', strings.Count(header, ";")
	for _, cand := range []rune{',', '\t'} {
		if c := strings.Count(header, string(cand)); c > bestCount {
			best, bestCount = cand, c
		}
	}
	return best
}

// parseConcentration parses a numeric value with explicit decimal-separator
// handling. When sep is 0 it accepts both the dot and the decimal comma,
// treating a comma as the decimal mark whenever no dot is present.
func parseConcentration(raw string, sep rune) (float64, error) {
	s := strings.TrimSpace(raw)
	switch {
	case sep == ',':
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case sep == '.':
		s = strings.ReplaceAll(s, ",", "")
	case strings.Contains(s, ",") && !strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}
