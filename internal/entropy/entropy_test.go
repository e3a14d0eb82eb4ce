package entropy

import "testing"

func TestSeededIsDeterministic(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)
	for i := 0; i < 100; i++ {
		if av, bv := a.Float(), b.Float(); av != bv {
			t.Fatalf("draw %d: %v != %v", i, av, bv)
		}
	}
}

func TestSeededRange(t *testing.T) {
	s := NewSeeded(7)
	for i := 0; i < 1000; i++ {
		v := s.Float()
		if v < 0 || v >= 1 {
			t.Fatalf("draw %d out of range: %v", i, v)
		}
	}
}

func TestCryptoRange(t *testing.T) {
	var c Crypto
	for i := 0; i < 1000; i++ {
		v := c.Float()
		if v < 0 || v >= 1 {
			t.Fatalf("draw %d out of range: %v", i, v)
		}
	}
}

func TestScriptedReplaysAndRepeats(t *testing.T) {
	s := &Scripted{Values: []float64{0.1, 0.9}}
	got := []float64{s.Float(), s.Float(), s.Float(), s.Float()}
	want := []float64{0.1, 0.9, 0.9, 0.9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("draw %d = %v, want %v", i, got[i], want[i])
		}
	}
	empty := &Scripted{}
	if v := empty.Float(); v != 0.5 {
		t.Fatalf("empty scripted = %v, want 0.5", v)
	}
}

func TestPickBounds(t *testing.T) {
	cases := []struct {
		roll float64
		n    int
		want int
	}{
		{0.0, 4, 0},
		{0.999999, 4, 3},
		{0.5, 4, 2},
		{0.2, 1, 0},
		{0.9, 0, 0},
	}
	for _, tc := range cases {
		got := Pick(&Scripted{Values: []float64{tc.roll}}, tc.n)
		if got != tc.want {
			t.Fatalf("Pick(%v, %d) = %d, want %d", tc.roll, tc.n, got, tc.want)
		}
	}
}

func TestNilRandomClientFallsBack(t *testing.T) {
	var c *Client
	for i := 0; i < 10; i++ {
		v := c.Float()
		if v < 0 || v >= 1 {
			t.Fatalf("nil client draw out of range: %v", v)
		}
	}
	if NewClient("") != nil {
		t.Fatalf("NewClient with empty key should be nil")
	}
}
