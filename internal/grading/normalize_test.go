package grading

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "The CAT", "the cat"},
		{"punctuation_stripped", "Hello, world!", "hello world"},
		{"apostrophe_joins", "don't stop", "dont stop"},
		{"whitespace_collapsed", "  a \t b\n  c  ", "a b c"},
		{"digits_kept", "Question 7b", "question 7b"},
		{"empty", "", ""},
		{"only_punctuation", "?!...", ""},
		{"non_ascii_dropped", "café naïve", "caf nave"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"The quick, brown FOX!",
		"  already   normalized text ",
		"",
		"über straße",
		"a1 b2 c3",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestTokenize(t *testing.T) {
	if got := Tokenize(""); len(got) != 0 {
		t.Errorf("Tokenize(\"\") = %v, want empty", got)
	}
	got := Tokenize(Normalize("The cat, sat."))
	want := []string{"the", "cat", "sat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}
