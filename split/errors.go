package split

import (
	"errors"
	"fmt"

	"github.com/Noofbiz/mriCohort/caps"
)

var (
	// ErrInvalidArgument reports split parameters that cannot be honored,
	// such as a validation fraction outside (0, 1) or more folds than
	// subjects.
	ErrInvalidArgument = caps.ErrInvalidArgument

	// ErrFoldIndex reports a fold index outside [0, n_splits).
	ErrFoldIndex = errors.New("fold index out of range")
)

func errNSplits(n int) error {
	return fmt.Errorf("%w: n_splits must be at least 2, got %d", ErrInvalidArgument, n)
}
