package cohort

import "errors"

var (
	// ErrFormat reports a table that is missing required columns or holds
	// malformed values.
	ErrFormat = errors.New("table format error")

	// ErrEmptyResult reports a selection that matched no rows.
	ErrEmptyResult = errors.New("empty result")

	// ErrUnknownDiagnosis reports a diagnosis outside the fixed code table.
	ErrUnknownDiagnosis = errors.New("unknown diagnosis")
)
