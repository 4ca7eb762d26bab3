package dedup

// Hamming distance thresholds for 64-bit perceptual hashes. The maximum safe
// threshold at this width is about 5 bits (~8%); beyond that false positives
// dominate at catalog scale. These are fixed engine constants, not tunables.
const (
	// NearCertainThreshold accepts only trivial recompression differences.
	NearCertainThreshold = 2
	// HighThreshold is the strictest practical match bound, used when only
	// a single hash signal is available.
	HighThreshold = 3
	// ProbableThreshold is the outer bound for dual-hash consensus matches.
	ProbableThreshold = 5
)

// Confidence grades how certain the engine is that a group's members are
// duplicates of each other.
type Confidence int

const (
	Low Confidence = iota
	Probable
	High
	NearCertain
	Certain
)

func (c Confidence) String() string {
	switch c {
	case Low:
		return "Low"
	case Probable:
		return "Probable"
	case High:
		return "High"
	case NearCertain:
		return "Near-Certain"
	case Certain:
		return "Certain"
	}
	return "unknown"
}

// confidenceFromHamming grades a perceptual hash distance. The second return
// is false when the distance exceeds the probable threshold entirely.
func confidenceFromHamming(distance int) (Confidence, bool) {
	switch {
	case distance <= NearCertainThreshold:
		return NearCertain, true
	case distance <= HighThreshold:
		return High, true
	case distance <= ProbableThreshold:
		return Probable, true
	}
	return Low, false
}

// combineConfidence takes the lower (more conservative) of two confidences.
func combineConfidence(a, b Confidence) Confidence {
	if a < b {
		return a
	}
	return b
}
