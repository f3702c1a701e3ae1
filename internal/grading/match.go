package grading

// MatchAnswer reports whether a submitted objective answer matches the
// stored answer key. Both sides go through the same normalization as
// dictation inputs; the comparison itself is exact equality, no partial
// credit and no similarity threshold.
func MatchAnswer(answerKey, submitted string) bool {
	return Normalize(answerKey) == Normalize(submitted)
}
