package mathutil

import "math"

const (
	// SmallestLogProb stands in for log10(0); ARPA files use -99 by convention.
	SmallestLogProb = -99.0

	// ThresholdLogProb is the cutoff below which base-10 log probabilities
	// are treated as log10(0) and collapse to SmallestLogProb.
	ThresholdLogProb = -98.9
)

// ProbToLog10 converts a linear probability to base-10 log.
// Zero maps to SmallestLogProb instead of negative infinity.
func ProbToLog10(p float64) float64 {
	if p == 0.0 {
		return SmallestLogProb
	}
	return math.Log10(p)
}

// Log10ToProb converts a base-10 log probability to linear.
// Values below ThresholdLogProb map to exactly zero.
func Log10ToProb(lp float64) float64 {
	if lp < ThresholdLogProb {
		return 0.0
	}
	return math.Pow(10, lp)
}

// ClampLog10 snaps values below ThresholdLogProb to SmallestLogProb.
func ClampLog10(lp float64) float64 {
	if lp < ThresholdLogProb {
		return SmallestLogProb
	}
	return lp
}
