package dedup

import "testing"

func TestConfidenceFromHamming(t *testing.T) {
	tests := []struct {
		distance int
		want     Confidence
		matched  bool
	}{
		{0, NearCertain, true},
		{2, NearCertain, true},
		{3, High, true},
		{4, Probable, true},
		{5, Probable, true},
		{6, Low, false},
		{64, Low, false},
	}

	for _, tt := range tests {
		got, matched := confidenceFromHamming(tt.distance)
		if got != tt.want || matched != tt.matched {
			t.Errorf("distance %d: got (%s, %v), want (%s, %v)",
				tt.distance, got, matched, tt.want, tt.matched)
		}
	}
}

// A pair matching at a tight threshold must also match at every looser one.
func TestThresholdMonotonicity(t *testing.T) {
	thresholds := []int{NearCertainThreshold, HighThreshold, ProbableThreshold}
	for d := 0; d <= 6; d++ {
		prev := true
		for _, th := range thresholds {
			matched := d <= th
			if !prev && matched {
				t.Errorf("distance %d matched threshold %d but not a tighter one", d, th)
			}
			prev = matched
		}
	}
}

func TestCombineConfidence(t *testing.T) {
	if got := combineConfidence(Certain, Probable); got != Probable {
		t.Errorf("got %s, want Probable", got)
	}
	if got := combineConfidence(Low, NearCertain); got != Low {
		t.Errorf("got %s, want Low", got)
	}
	if got := combineConfidence(High, High); got != High {
		t.Errorf("got %s, want High", got)
	}
}

func TestConfidenceString(t *testing.T) {
	tests := []struct {
		c    Confidence
		want string
	}{
		{Low, "Low"},
		{Probable, "Probable"},
		{High, "High"},
		{NearCertain, "Near-Certain"},
		{Certain, "Certain"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
