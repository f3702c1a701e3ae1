package grading

import (
	"reflect"
	"testing"
)

func classifyTexts(t *testing.T, ref, cand string) []Mistake {
	t.Helper()
	return Classify(Align(Tokenize(Normalize(ref)), Tokenize(Normalize(cand))))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		cand string
		want []Mistake
	}{
		{
			name: "perfect",
			ref:  "the cat sat",
			cand: "the cat sat",
			want: nil,
		},
		{
			name: "close_spelling",
			ref:  "the cat sat",
			cand: "the cet sat",
			want: []Mistake{{Kind: KindSpelling, From: "cet", To: "cat"}},
		},
		{
			name: "distant_word",
			ref:  "the cat sat",
			cand: "the dog sat",
			want: []Mistake{{Kind: KindWrongWord, From: "dog", To: "cat"}},
		},
		{
			name: "missing_word",
			ref:  "the cat sat down",
			cand: "the cat down",
			want: []Mistake{{Kind: KindMissing, Word: "sat"}},
		},
		{
			name: "extra_word",
			ref:  "the cat sat",
			cand: "the big cat sat",
			want: []Mistake{{Kind: KindExtra, Word: "big"}},
		},
		{
			name: "everything_missing",
			ref:  "one two",
			cand: "",
			want: []Mistake{{Kind: KindMissing, Word: "one"}, {Kind: KindMissing, Word: "two"}},
		},
		{
			name: "everything_extra",
			ref:  "",
			cand: "one two",
			want: []Mistake{{Kind: KindExtra, Word: "one"}, {Kind: KindExtra, Word: "two"}},
		},
		{
			name: "case_and_punctuation_ignored",
			ref:  "The cat sat.",
			cand: "the CAT, sat",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTexts(t, tt.ref, tt.cand)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassifyUnevenReplaceRun(t *testing.T) {
	// replace run where the reference side is longer: the zipped pairs are
	// scored, the leftover reference tokens become missing
	ops := []EditOp{
		{Kind: OpReplace, Ref: []string{"cat", "sat", "down"}, Cand: []string{"cet"}},
	}
	got := Classify(ops)
	want := []Mistake{
		{Kind: KindSpelling, From: "cet", To: "cat"},
		{Kind: KindMissing, Word: "sat"},
		{Kind: KindMissing, Word: "down"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classify = %+v, want %+v", got, want)
	}

	// and the mirror: leftover candidate tokens become extra
	ops = []EditOp{
		{Kind: OpReplace, Ref: []string{"cat"}, Cand: []string{"cet", "meow"}},
	}
	got = Classify(ops)
	want = []Mistake{
		{Kind: KindSpelling, From: "cet", To: "cat"},
		{Kind: KindExtra, Word: "meow"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classify = %+v, want %+v", got, want)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"cat", "cat", 1},
		{"", "", 1},
		{"cat", "cet", 1 - 1.0/3},
		{"cat", "dog", 0},
		{"cat", "", 0},
		{"kitten", "sitting", 1 - 3.0/7},
	}
	for _, tt := range tests {
		got := Similarity(tt.a, tt.b)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %v out of [0,1]", tt.a, tt.b, got)
		}
	}
}
