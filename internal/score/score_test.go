package score

import "testing"

func TestDefaultDeltas(t *testing.T) {
	c := NewFixedDeltaCalculator()
	cases := []struct {
		outcome      Outcome
		disconnected bool
		want         int
	}{
		{Win, false, 10},
		{Loss, false, -5},
		{Draw, false, 0},
		{Pending, false, 0},
		{Win, true, -5},
		{Loss, true, -5},
		{Draw, true, -5},
	}
	for _, tc := range cases {
		if got := c.Calculate(tc.outcome, tc.disconnected); got != tc.want {
			t.Fatalf("Calculate(%s, %v) = %d, want %d", tc.outcome, tc.disconnected, got, tc.want)
		}
	}
}

func TestOutcomeStrings(t *testing.T) {
	if Win.String() != "win" || Pending.String() != "pending" {
		t.Fatalf("unexpected outcome names: %s %s", Win, Pending)
	}
	if Outcome(99).String() != "unknown" {
		t.Fatalf("out-of-range outcome should stringify as unknown")
	}
}
