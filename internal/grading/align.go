package grading

import "github.com/pmezard/go-difflib/difflib"

// OpKind tags one run of an edit script.
type OpKind int

const (
	OpEqual OpKind = iota
	OpInsert
	OpDelete
	OpReplace
)

// EditOp is one run of the alignment between the reference and candidate
// token sequences. Ref holds the reference-side tokens covered by the run,
// Cand the candidate-side ones; Equal runs carry both, Delete only Ref,
// Insert only Cand, Replace both (possibly of different lengths).
type EditOp struct {
	Kind OpKind
	Ref  []string
	Cand []string
}

// Align computes the edit script between two token sequences as ordered
// Equal/Insert/Delete/Replace runs. Same-position substitutions surface as
// a single Replace run rather than a Delete+Insert pair, which is the
// granularity the mistake classifier needs. Dictation sentences are tens
// of tokens, so the matcher's cost is irrelevant here.
func Align(ref, cand []string) []EditOp {
	codes := difflib.NewMatcher(ref, cand).GetOpCodes()
	ops := make([]EditOp, 0, len(codes))
	for _, c := range codes {
		var k OpKind
		switch c.Tag {
		case 'e':
			k = OpEqual
		case 'i':
			k = OpInsert
		case 'd':
			k = OpDelete
		case 'r':
			k = OpReplace
		default:
			continue
		}
		ops = append(ops, EditOp{Kind: k, Ref: ref[c.I1:c.I2], Cand: cand[c.J1:c.J2]})
	}
	return ops
}
