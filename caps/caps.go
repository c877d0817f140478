// Package caps resolves where precomputed image artifacts live inside a CAPS
// directory hierarchy:
//
//	<root>/subjects/<participant>/<session>/t1/<variant dirs>/<participant>_<session><suffix><ext>
//
// Resolution is pure string construction; nothing is read from disk here.
package caps

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrInvalidArgument is returned for unknown preprocessing names or a missing
// dartel group.
var ErrInvalidArgument = errors.New("invalid argument")

// Preprocessing names a preprocessing pipeline whose output is stored in CAPS.
type Preprocessing string

const (
	Linear    Preprocessing = "linear"
	MNI       Preprocessing = "mni"
	Extensive Preprocessing = "extensive"
	Dartel    Preprocessing = "dartel"
)

// DefaultExtension is the file extension of tensors written with gomlx's
// (*tensors.Tensor).Save.
const DefaultExtension = ".tensor"

// ParsePreprocessing validates a preprocessing name.
func ParsePreprocessing(name string) (Preprocessing, error) {
	switch p := Preprocessing(name); p {
	case Linear, MNI, Extensive, Dartel:
		return p, nil
	default:
		return "", fmt.Errorf("%w: preprocessing %q must be one of [linear mni extensive dartel]", ErrInvalidArgument, name)
	}
}

// template holds the fixed directories below t1/ and the filename suffix.
type template struct {
	dirs   []string
	suffix string
}

var templates = map[Preprocessing]template{
	Linear: {
		dirs:   []string{"preprocessing_dl"},
		suffix: "_space-MNI_res-1x1x1",
	},
	MNI: {
		dirs:   []string{"spm", "segmentation", "normalized_space"},
		suffix: "_space-Ixi549Space_T1w",
	},
	Extensive: {
		dirs:   []string{"spm", "segmentation", "normalized_space"},
		suffix: "_T1w_segm-graymatter_space-Ixi549Space_modulated-off_probability",
	},
	Dartel: {
		dirs:   []string{"spm", "dartel"},
		suffix: "_T1w_segm-graymatter_space-Ixi549Space_modulated-on_probability",
	},
}

// Resolver builds artifact paths. The zero value uses DefaultExtension.
type Resolver struct {
	// Extension appended to every artifact filename, including the dot.
	Extension string
}

// Resolve returns the artifact path for one participant session. group is
// required for Dartel and ignored otherwise.
func (r Resolver) Resolve(root, participantID, sessionID string, p Preprocessing, group string) (string, error) {
	tpl, ok := templates[p]
	if !ok {
		return "", fmt.Errorf("%w: preprocessing %q is not supported", ErrInvalidArgument, p)
	}
	if participantID == "" || sessionID == "" {
		return "", fmt.Errorf("%w: participant and session ids are required", ErrInvalidArgument)
	}

	dirs := tpl.dirs
	if p == Dartel {
		if group == "" {
			return "", fmt.Errorf("%w: a group value must be given with dartel preprocessing", ErrInvalidArgument)
		}
		dirs = append(append([]string{}, dirs...), group)
	}

	ext := r.Extension
	if ext == "" {
		ext = DefaultExtension
	}

	elems := []string{root, "subjects", participantID, sessionID, "t1"}
	elems = append(elems, dirs...)
	elems = append(elems, participantID+"_"+sessionID+tpl.suffix+ext)
	return filepath.Join(elems...), nil
}

// Resolve is Resolver{}.Resolve.
func Resolve(root, participantID, sessionID string, p Preprocessing, group string) (string, error) {
	return Resolver{}.Resolve(root, participantID, sessionID, p, group)
}
