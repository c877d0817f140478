package cohort

import (
	"fmt"
	"slices"
)

// FilterBySession restricts the table to one session. AllSessions returns the
// table unchanged; any other selector that matches nothing is ErrEmptyResult.
func (t *Table) FilterBySession(session string) (*Table, error) {
	if session == AllSessions {
		return t, nil
	}
	var rows [][]string
	for _, row := range t.rows {
		if row[t.sessionCol] == session {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: session %s doesn't exist for any subject", ErrEmptyResult, session)
	}
	return t.derive(rows), nil
}

// FilterByDiagnosis keeps rows whose diagnosis is one of diagnoses.
func (t *Table) FilterByDiagnosis(diagnoses ...string) (*Table, error) {
	var rows [][]string
	for _, row := range t.rows {
		if slices.Contains(diagnoses, row[t.diagnosisCol]) {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows with diagnosis in %v", ErrEmptyResult, diagnoses)
	}
	return t.derive(rows), nil
}

// Baseline reduces the table to one row per participant: the row with the
// smallest session month, with its session id rewritten in canonical form.
// Participants are ordered by id. A participant without ses-M00 still gets
// its earliest session.
func (t *Table) Baseline() (*Table, error) {
	type pick struct {
		row    []string
		months int
	}
	best := make(map[string]pick)
	for _, row := range t.rows {
		months, err := ParseSession(row[t.sessionCol])
		if err != nil {
			return nil, fmt.Errorf("participant %s: %w", row[t.participantCol], err)
		}
		id := row[t.participantCol]
		if cur, ok := best[id]; !ok || months < cur.months {
			best[id] = pick{row: row, months: months}
		}
	}

	subjects := t.Subjects()
	rows := make([][]string, 0, len(subjects))
	for _, id := range subjects {
		p := best[id]
		row := slices.Clone(p.row)
		row[t.sessionCol] = FormatSession(p.months)
		rows = append(rows, row)
	}
	return t.derive(rows), nil
}

// ExpandTimepoints returns every row of reference whose participant appears
// in subset, grouped by participant in subset order. Only participant ids of
// subset are consulted; its sessions are ignored.
func ExpandTimepoints(reference, subset *Table) (*Table, error) {
	byParticipant := make(map[string][][]string)
	for _, row := range reference.rows {
		id := row[reference.participantCol]
		byParticipant[id] = append(byParticipant[id], row)
	}

	done := make(map[string]bool)
	var rows [][]string
	for _, row := range subset.rows {
		id := row[subset.participantCol]
		if done[id] {
			continue
		}
		done[id] = true
		timepoints, ok := byParticipant[id]
		if !ok {
			return nil, fmt.Errorf("%w: participant %s is absent from the reference table", ErrEmptyResult, id)
		}
		rows = append(rows, timepoints...)
	}
	return reference.derive(rows), nil
}

// Select returns the rows at the given positions, in that order.
func (t *Table) Select(indices []int) (*Table, error) {
	rows := make([][]string, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(t.rows) {
			return nil, fmt.Errorf("index %d out of range [0, %d)", idx, len(t.rows))
		}
		rows[i] = t.rows[idx]
	}
	return t.derive(rows), nil
}

// Concat appends tables sharing one header. The result carries the first
// table's name.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrEmptyResult)
	}
	first := tables[0]
	var rows [][]string
	for _, t := range tables {
		if !slices.Equal(t.columns, first.columns) {
			return nil, fmt.Errorf("%w: column mismatch between %q and %q", ErrFormat, first.name, t.name)
		}
		rows = append(rows, t.rows...)
	}
	return New(first.name, first.columns, rows)
}
