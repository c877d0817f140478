package cohort

import "fmt"

// Unlabeled is the code of samples without a usable diagnosis.
const Unlabeled = -1

// EncodeDiagnosis maps a diagnosis to its binary class: CN and sMCI are 0,
// AD, pMCI and MCI are 1, "unlabeled" is Unlabeled.
func EncodeDiagnosis(diagnosis string) (int, error) {
	switch diagnosis {
	case "CN", "sMCI":
		return 0, nil
	case "AD", "pMCI", "MCI":
		return 1, nil
	case "unlabeled":
		return Unlabeled, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDiagnosis, diagnosis)
	}
}

// Diagnoses lists every diagnosis EncodeDiagnosis accepts.
func Diagnoses() []string {
	return []string{"CN", "sMCI", "AD", "pMCI", "MCI", "unlabeled"}
}
