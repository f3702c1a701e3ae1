package band

import "testing"

func TestResolveBoundaries(t *testing.T) {
	tests := []struct {
		raw  int
		want float64
	}{
		{40, 9.0},
		{39, 9.0},
		{38, 8.5}, // next lower threshold, not 9.0
		{37, 8.5},
		{35, 8.0},
		{33, 7.5},
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
		{-5, 1.0}, // clamps to the lowest band
	}
	for _, tt := range tests {
		if got := Default40.Resolve(tt.raw); got != tt.want {
			t.Errorf("Resolve(%d) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestResolveEveryScoreHasABand(t *testing.T) {
	for raw := 0; raw <= 40; raw++ {
		b := Default40.Resolve(raw)
		if b < 1.0 || b > 9.0 {
			t.Errorf("Resolve(%d) = %v out of band range", raw, b)
		}
	}
	// monotonic: more correct answers never lowers the band
	prev := Default40.Resolve(0)
	for raw := 1; raw <= 40; raw++ {
		b := Default40.Resolve(raw)
		if b < prev {
			t.Errorf("Resolve(%d) = %v below Resolve(%d) = %v", raw, b, raw-1, prev)
		}
		prev = b
	}
}

func TestRegistry(t *testing.T) {
	if _, ok := Lookup("ielts.40"); !ok {
		t.Fatal("default profile not registered")
	}
	if _, ok := Lookup("nope"); ok {
		t.Fatal("unknown profile resolved")
	}
	Register("custom.10", Table{{9, 9.0}, {0, 1.0}})
	tb, ok := Lookup("custom.10")
	if !ok {
		t.Fatal("custom profile not registered")
	}
	if got := tb.Resolve(9); got != 9.0 {
		t.Errorf("Resolve(9) = %v, want 9.0", got)
	}
	if got := tb.Resolve(4); got != 1.0 {
		t.Errorf("Resolve(4) = %v, want 1.0", got)
	}
}
