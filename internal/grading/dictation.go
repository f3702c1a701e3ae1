package grading

import "strings"

// DictationResult is the outcome of scoring one transcription against its
// reference script.
type DictationResult struct {
	Mistakes   []Mistake
	Accuracy   float64 // percentage in [0,100]
	IsCorrect  bool
	Normalized string // normalized candidate text, for display
}

// GradeDictation aligns candidate against reference at word granularity
// and derives the mistake list, the accuracy percentage and the verdict.
//
// Accuracy is (|ref| - |mistakes|) / |ref| * 100, floored at 0; an empty
// reference script yields 0 rather than a division error. The verdict
// keeps the historical conjunction of both clauses even though accuracy
// is itself derived from the mistake count.
func GradeDictation(reference, candidate string) DictationResult {
	refTokens := Tokenize(Normalize(reference))
	candTokens := Tokenize(Normalize(candidate))

	mistakes := Classify(Align(refTokens, candTokens))

	var accuracy float64
	if n := len(refTokens); n > 0 {
		accuracy = float64(n-len(mistakes)) / float64(n) * 100
		if accuracy < 0 {
			accuracy = 0
		}
	}

	return DictationResult{
		Mistakes:   mistakes,
		Accuracy:   accuracy,
		IsCorrect:  accuracy >= 95 && len(mistakes) == 0,
		Normalized: strings.Join(candTokens, " "),
	}
}
