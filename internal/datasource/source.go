// Package datasource resolves the input-source variant for chemoscope:
// a semicolon-delimited CSV file, a SQLite database of observations, or an
// in-memory record slice. The variant is resolved once at the edge; the
// analysis core only ever sees a model.Dataset.
package datasource

import (
	"fmt"

	"github.com/vanderheijden86/chemoscope/pkg/model"
)

// SourceType identifies the type of input source.
type SourceType string

const (
	// SourceTypeCSV is a delimited text file of observations.
	SourceTypeCSV SourceType = "csv"
	// SourceTypeSQLite is a SQLite database with an observations table.
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeMemory is an in-memory observation slice.
	SourceTypeMemory SourceType = "memory"
)

// Source is the tagged input variant. Exactly one of Path (csv, sqlite) or
// Records (memory) is meaningful for a given Type.
type Source struct {
	Type    SourceType
	Path    string
	Records []model.Observation

	// CSVOptions tunes CSV parsing; ignored for other source types.
	CSVOptions CSVOptions
}

// FromCSV returns a CSV file source with default parse options.
func FromCSV(path string) Source {
	return Source{Type: SourceTypeCSV, Path: path, CSVOptions: DefaultCSVOptions()}
}

// FromSQLite returns a SQLite database source.
func FromSQLite(path string) Source {
	return Source{Type: SourceTypeSQLite, Path: path}
}

// FromRecords returns an in-memory source, bypassing file I/O.
func FromRecords(records []model.Observation) Source {
	return Source{Type: SourceTypeMemory, Records: records}
}

// Resolve loads and validates the dataset behind the source, dispatching on
// the source type.
func (s Source) Resolve() (*model.Dataset, error) {
	var (
		ds  *model.Dataset
		err error
	)
	switch s.Type {
	case SourceTypeCSV:
		ds, err = ReadCSVFile(s.Path, s.CSVOptions)
	case SourceTypeSQLite:
		ds, err = ReadSQLite(s.Path)
	case SourceTypeMemory:
		ds = &model.Dataset{Source: "memory", Observations: s.Records}
	default:
		return nil, fmt.Errorf("unknown source type: %s", s.Type)
	}
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}
