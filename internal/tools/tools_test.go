package tools

import "testing"

func TestRoundCents(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{500.00000000000006, 500},
		{99.999, 100},
		{0.005, 0.01},
		{-10.005, -10.01},
	}

	for _, tc := range cases {
		if got := RoundCents(tc.in); got != tc.want {
			t.Fatalf("RoundCents(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNotionalAvoidsFloatDrift(t *testing.T) {
	// 0.1 × 3 is the classic 0.30000000000000004 case.
	if got := Notional(0.1, 3); got != 0.3 {
		t.Fatalf("Notional(0.1, 3) = %v, want 0.3", got)
	}
	if got := Notional(10, 50); got != 500 {
		t.Fatalf("Notional(10, 50) = %v, want 500", got)
	}
}

func TestFeeIsExact(t *testing.T) {
	if got := Fee(610, 0.0000229); got != 0.013969 {
		t.Fatalf("Fee(610, 0.0000229) = %v, want 0.013969", got)
	}
	if got := Fee(500, 0); got != 0 {
		t.Fatalf("Fee with zero rate = %v, want 0", got)
	}
}
