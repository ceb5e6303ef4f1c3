package datasource

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/chemoscope/pkg/model"
)

// observationQuery reads the long-format table exported by the LIMS. rowid
// ordering preserves insertion order, which the reshaper relies on for
// stable row/column indexes.
const observationQuery = `
	SELECT condicao, replica, composto, concentracao
	FROM observations
	ORDER BY rowid
`

// ReadSQLite loads observations from a SQLite database. The database is
// opened read-only; chemoscope never writes results back.
func ReadSQLite(path string) (*model.Dataset, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(observationQuery)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	ds := &model.Dataset{Source: path}
	for rows.Next() {
		var o model.Observation
		if err := rows.Scan(&o.Condition, &o.Replica, &o.Compound, &o.Concentration); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		ds.Observations = append(ds.Observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return ds, nil
}
