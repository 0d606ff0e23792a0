// Package expression defines the per-frame facial expression scores produced by
// the external face landmarker and the single-slot cell used to hand the latest
// result from the landmarker's callback to the recognition loop.
package expression

import (
	"math"
	"sort"
)

// Blendshape category names used by the gesture classifier.
// Names follow the MediaPipe face landmarker blendshape model.
const (
	MouthLeft       = "mouthLeft"
	MouthRight      = "mouthRight"
	MouthShrugUpper = "mouthShrugUpper"
	MouthRollLower  = "mouthRollLower"
	BrowInnerUp     = "browInnerUp"
	EyeBlinkLeft    = "eyeBlinkLeft"
)

// known lists every category the classifier reads. Anything else is dropped.
var known = map[string]bool{
	MouthLeft:       true,
	MouthRight:      true,
	MouthShrugUpper: true,
	MouthRollLower:  true,
	BrowInnerUp:     true,
	EyeBlinkLeft:    true,
}

// Known reports whether name is a category the classifier understands.
func Known(name string) bool {
	return known[name]
}

// Score is one named confidence for one frame.
type Score struct {
	Name       string  `json:"category_name"`
	Confidence float64 `json:"score"`
}

// Valid reports whether the confidence is a finite value in [0,1].
func (s Score) Valid() bool {
	if math.IsNaN(s.Confidence) || math.IsInf(s.Confidence, 0) {
		return false
	}
	return s.Confidence >= 0 && s.Confidence <= 1
}

// Scores is the set of recognized expression scores for one frame.
// A nil or empty Scores means the landmarker found no face.
type Scores map[string]float64

// FromList builds a Scores set, dropping unknown categories and
// out-of-range confidences. Later duplicates overwrite earlier ones.
func FromList(list []Score) Scores {
	if len(list) == 0 {
		return nil
	}
	out := make(Scores, len(known))
	for _, s := range list {
		if !Known(s.Name) || !s.Valid() {
			continue
		}
		out[s.Name] = s.Confidence
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Get returns the confidence for name and whether it was present this frame.
func (s Scores) Get(name string) (float64, bool) {
	v, ok := s[name]
	return v, ok
}

// Empty reports whether the frame carried no usable scores.
func (s Scores) Empty() bool {
	return len(s) == 0
}

// List returns the scores sorted by name.
func (s Scores) List() []Score {
	out := make([]Score, 0, len(s))
	for name, v := range s {
		out = append(out, Score{Name: name, Confidence: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
