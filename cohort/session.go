package cohort

import (
	"fmt"
	"strconv"
	"strings"
)

const sessionPrefix = "ses-M"

// ParseSession returns the months-since-baseline encoded in a ses-M<NN> id.
func ParseSession(sessionID string) (int, error) {
	digits, ok := strings.CutPrefix(sessionID, sessionPrefix)
	if !ok || digits == "" {
		return 0, fmt.Errorf("%w: session %q does not match ses-M<NN>", ErrFormat, sessionID)
	}
	months, err := strconv.Atoi(digits)
	if err != nil || months < 0 || strings.ContainsAny(digits, "+-") {
		return 0, fmt.Errorf("%w: session %q does not match ses-M<NN>", ErrFormat, sessionID)
	}
	return months, nil
}

// FormatSession is the canonical session id for a month count. Months below
// ten are zero padded to two digits.
func FormatSession(months int) string {
	return fmt.Sprintf("%s%02d", sessionPrefix, months)
}
