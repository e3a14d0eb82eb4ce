package state

import (
	"math"
	"testing"
)

func TestClampStat(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-5, 0},
		{0, 0},
		{50, 50},
		{100, 100},
		{101, 100},
		{math.NaN(), 0},
	}
	for _, tc := range tests {
		if got := ClampStat(tc.in); got != tc.want {
			t.Fatalf("ClampStat(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClampLoanRate(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{0.01, 0.05},
		{0.2, 0.2},
		{0.75, 0.5},
		{-0.3, 0.05},
	}
	for _, tc := range tests {
		if got := ClampLoanRate(tc.in); got != tc.want {
			t.Fatalf("ClampLoanRate(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLooseCanonicalizers(t *testing.T) {
	if got := AsFloat("1500", 0); got != 1500 {
		t.Fatalf("AsFloat string = %v", got)
	}
	if got := AsFloat("not a number", 7); got != 7 {
		t.Fatalf("AsFloat garbage = %v, want fallback", got)
	}
	if got := AsFloat(nil, 3); got != 3 {
		t.Fatalf("AsFloat nil = %v, want fallback", got)
	}
	if got := AsFloat(math.NaN(), 9); got != 9 {
		t.Fatalf("AsFloat NaN = %v, want fallback", got)
	}
	if got := AsInt(12.0, 0); got != 12 {
		t.Fatalf("AsInt float = %v", got)
	}
	if got := AsInt("42", 0); got != 42 {
		t.Fatalf("AsInt string = %v", got)
	}
	if !AsBool("true", false) || !AsBool(1.0, false) {
		t.Fatalf("AsBool truthy forms failed")
	}
}
