package grading

// Mistake kinds, as serialized in answer payloads.
const (
	KindMissing   = "MISSING"
	KindExtra     = "EXTRA"
	KindSpelling  = "SPELLING"
	KindWrongWord = "WRONG_WORD"
)

// spellingThreshold separates a misspelling from a wrong word inside a
// replace run: at or above it the candidate token counts as a spelling
// slip. A one-letter slip in a three-letter word scores 2/3, so the cut
// sits at half the characters matching.
const spellingThreshold = 0.5

// Mistake is one diagnosed discrepancy between the reference script and
// the candidate transcription. Only the fields relevant to the kind are
// set: Missing/Extra carry Word, Spelling/WrongWord carry From (what the
// candidate wrote) and To (what the script expects).
type Mistake struct {
	Kind string `json:"type"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
	Word string `json:"word,omitempty"`
}

// Classify turns an edit script into a typed mistake list. Delete runs
// emit one Missing per reference token, Insert runs one Extra per
// candidate token. Replace runs are zipped pairwise and scored with
// Similarity; leftover reference tokens beyond the zip become Missing,
// leftover candidate tokens become Extra. Equal runs emit nothing.
func Classify(ops []EditOp) []Mistake {
	var out []Mistake
	for _, op := range ops {
		switch op.Kind {
		case OpEqual:
		case OpDelete:
			for _, w := range op.Ref {
				out = append(out, Mistake{Kind: KindMissing, Word: w})
			}
		case OpInsert:
			for _, w := range op.Cand {
				out = append(out, Mistake{Kind: KindExtra, Word: w})
			}
		case OpReplace:
			n := len(op.Ref)
			if len(op.Cand) < n {
				n = len(op.Cand)
			}
			for i := 0; i < n; i++ {
				kind := KindWrongWord
				if Similarity(op.Cand[i], op.Ref[i]) >= spellingThreshold {
					kind = KindSpelling
				}
				out = append(out, Mistake{Kind: kind, From: op.Cand[i], To: op.Ref[i]})
			}
			for _, w := range op.Ref[n:] {
				out = append(out, Mistake{Kind: KindMissing, Word: w})
			}
			for _, w := range op.Cand[n:] {
				out = append(out, Mistake{Kind: KindExtra, Word: w})
			}
		}
	}
	return out
}
