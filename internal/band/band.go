// Package band converts raw correct-answer counts into IELTS band values.
package band

// Step is one threshold of a conversion table: any raw score at or above
// Min (and below the next higher step) maps to Band.
type Step struct {
	Min  int
	Band float64
}

// Table is a raw-score to band conversion, ordered from highest threshold
// to lowest. Tables are values: built once, never mutated at runtime.
type Table []Step

// Resolve returns the band for raw, picking the highest threshold the
// score meets or exceeds. Scores below every threshold clamp to the
// lowest band in the table.
func (t Table) Resolve(raw int) float64 {
	for _, s := range t {
		if raw >= s.Min {
			return s.Band
		}
	}
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].Band
}

// Default40 is the published conversion for a 40-question test.
var Default40 = Table{
	{39, 9.0},
	{37, 8.5},
	{35, 8.0},
	{32, 7.5},
	{30, 7.0},
	{26, 6.5},
	{23, 6.0},
	{18, 5.5},
	{16, 5.0},
	{13, 4.5},
	{10, 4.0},
	{7, 3.5},
	{5, 3.0},
	{3, 2.5},
	{1, 2.0},
	{0, 1.0},
}

var registry = map[string]Table{}

// Register binds a table to a profile key like "ielts.40". Tests with a
// different question count register their own table instead of reusing
// this one.
func Register(key string, t Table) { registry[key] = t }

// Lookup returns the table registered under key.
func Lookup(key string) (Table, bool) {
	t, ok := registry[key]
	return t, ok
}

func init() {
	Register("ielts.40", Default40)
}
