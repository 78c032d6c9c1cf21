// Package statistics computes the cached rating fields for supplements.
//
// The persisted pair is derived from two partitioned means over daily entry
// ratings: the mean on days the supplement was taken (avgWith) and the mean
// on days it was not (avgWithout). Integer rounding uses round half away
// from zero.
package statistics

import "math"

// CachedRatings is the pair of derived columns persisted on a supplement.
// A nil AverageRating means the supplement was never taken. A nil
// RatingDifference means one of the two populations is empty, so no
// comparison is defined.
type CachedRatings struct {
	AverageRating    *int
	RatingDifference *float64
}

// Round1 rounds v to one decimal place, half away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// RoundToInt rounds v to the nearest integer, half away from zero.
func RoundToInt(v float64) int {
	return int(math.Round(v))
}

// Compute derives the cached pair from the partitioned means. Either mean is
// nil when its population is empty: a supplement taken on zero days yields
// nil for both fields, and one taken on every day yields an average but a
// nil difference, never a comparison against a vacuous mean.
func Compute(avgWith, avgWithout *float64) CachedRatings {
	var ratings CachedRatings
	if avgWith == nil {
		return ratings
	}

	with := Round1(*avgWith)
	average := RoundToInt(with)
	ratings.AverageRating = &average

	if avgWithout != nil {
		difference := Round1(with - Round1(*avgWithout))
		ratings.RatingDifference = &difference
	}
	return ratings
}
