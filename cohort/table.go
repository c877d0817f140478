// Package cohort holds participant/session/diagnosis tables and the
// subject-level derivations the splitter needs: session filtering, baseline
// extraction and expansion back to every timepoint.
//
// Tables are immutable. Every derivation returns a new *Table.
package cohort

import (
	"fmt"
	"maps"
	"slices"
)

// Required column names.
const (
	ParticipantColumn = "participant_id"
	SessionColumn     = "session_id"
	DiagnosisColumn   = "diagnosis"
)

// AllSessions selects every row in FilterBySession.
const AllSessions = "all"

// Record is one row of a Table. Values holds every column, required ones
// included, in Table.Columns order.
type Record struct {
	ParticipantID string
	SessionID     string
	Diagnosis     string
	Values        []string
}

// Table is an ordered, immutable sequence of cohort records.
type Table struct {
	// name identifies the source (usually the TSV path). Derived tables
	// inherit it.
	name string

	columns []string
	rows    [][]string

	participantCol int
	sessionCol     int
	diagnosisCol   int
}

// New builds a table from an already materialized header and rows. The
// slices are copied.
func New(name string, columns []string, rows [][]string) (*Table, error) {
	colIndex := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, dup := colIndex[col]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrFormat, col)
		}
		colIndex[col] = i
	}
	for _, col := range []string{ParticipantColumn, SessionColumn, DiagnosisColumn} {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("%w: columns should include [%s %s %s], missing %q",
				ErrFormat, ParticipantColumn, SessionColumn, DiagnosisColumn, col)
		}
	}

	t := &Table{
		name:           name,
		columns:        slices.Clone(columns),
		rows:           make([][]string, len(rows)),
		participantCol: colIndex[ParticipantColumn],
		sessionCol:     colIndex[SessionColumn],
		diagnosisCol:   colIndex[DiagnosisColumn],
	}

	seen := make(map[[2]string]int, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrFormat, i, len(row), len(columns))
		}
		key := [2]string{row[t.participantCol], row[t.sessionCol]}
		if key[0] == "" || key[1] == "" {
			return nil, fmt.Errorf("%w: row %d has an empty participant or session id", ErrFormat, i)
		}
		if row[t.diagnosisCol] == "" {
			return nil, fmt.Errorf("%w: row %d (%s %s) has an empty diagnosis", ErrFormat, i, key[0], key[1])
		}
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: rows %d and %d share participant %s session %s", ErrFormat, prev, i, key[0], key[1])
		}
		seen[key] = i
		t.rows[i] = slices.Clone(row)
	}
	return t, nil
}

// derive builds a table sharing t's schema from rows the caller already
// validated. Row slices are not copied again.
func (t *Table) derive(rows [][]string) *Table {
	return &Table{
		name:           t.name,
		columns:        t.columns,
		rows:           rows,
		participantCol: t.participantCol,
		sessionCol:     t.sessionCol,
		diagnosisCol:   t.diagnosisCol,
	}
}

// Name returns the source identity of the table.
func (t *Table) Name() string { return t.name }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns a copy of the header.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Record returns row i. It panics if i is out of range, like slice indexing.
func (t *Table) Record(i int) Record {
	row := t.rows[i]
	return Record{
		ParticipantID: row[t.participantCol],
		SessionID:     row[t.sessionCol],
		Diagnosis:     row[t.diagnosisCol],
		Values:        slices.Clone(row),
	}
}

// Value returns the named column of row i and whether the column exists.
func (t *Table) Value(i int, column string) (string, bool) {
	idx := slices.Index(t.columns, column)
	if idx < 0 {
		return "", false
	}
	return t.rows[i][idx], true
}

// Subjects returns the distinct participant ids, sorted.
func (t *Table) Subjects() []string {
	set := make(map[string]struct{})
	for _, row := range t.rows {
		set[row[t.participantCol]] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// DiagnosisCounts counts rows per diagnosis string.
func (t *Table) DiagnosisCounts() map[string]int {
	counts := make(map[string]int)
	for _, row := range t.rows {
		counts[row[t.diagnosisCol]]++
	}
	return counts
}
