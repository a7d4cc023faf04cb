package verify

import "testing"

func TestClassifyFinalityBands(t *testing.T) {
	cases := []struct {
		current uint64
		tx      uint64
		want    FinalityLevel
	}{
		{100, 100, Fast},
		{131, 100, Fast},
		{132, 100, Safe},
		{163, 100, Safe},
		{164, 100, UltraSafe},
		{10_000, 100, UltraSafe},
	}
	for _, tc := range cases {
		if got := ClassifyFinality(tc.current, tc.tx); got != tc.want {
			t.Fatalf("ClassifyFinality(%d, %d) = %v, want %v", tc.current, tc.tx, got, tc.want)
		}
	}
}

func TestClassifyFinalitySaturatesAtZero(t *testing.T) {
	// A source behind the transaction's slot must not underflow.
	if got := ClassifyFinality(50, 100); got != Fast {
		t.Fatalf("negative slot age must saturate to Fast, got %v", got)
	}
}

func TestFinalityOrdering(t *testing.T) {
	if !(UltraSafe > Safe && Safe > Fast) {
		t.Fatal("finality levels must be ordered Fast < Safe < UltraSafe")
	}
}

func TestRequiredStakePercent(t *testing.T) {
	if Fast.RequiredStakePercent() != 66.0 {
		t.Fatalf("Fast stake = %v", Fast.RequiredStakePercent())
	}
	if Safe.RequiredStakePercent() != 80.0 {
		t.Fatalf("Safe stake = %v", Safe.RequiredStakePercent())
	}
	if UltraSafe.RequiredStakePercent() != 90.0 {
		t.Fatalf("UltraSafe stake = %v", UltraSafe.RequiredStakePercent())
	}
}

func TestFinalityFromStake(t *testing.T) {
	if FinalityFromStake(95.0) != UltraSafe {
		t.Fatal("95% stake must be ultra safe")
	}
	if FinalityFromStake(85.0) != Safe {
		t.Fatal("85% stake must be safe")
	}
	if FinalityFromStake(50.0) != Fast {
		t.Fatal("50% stake must be fast")
	}
}
