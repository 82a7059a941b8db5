package grade

import (
	"math"
)

// Speed factor bands.
const (
	NormalSpeedLimit = 1.618
	MaxCreditedSpeed = 4.0
	SnapThreshold    = 95
)

// Contribution is the credit a session earns given its play percentage and speed factor.
func Contribution(playPct int, factor float64) int {
	switch {
	case factor <= NormalSpeedLimit:
		return playPct
	case factor <= MaxCreditedSpeed:
		return int(math.RoundToEven(float64(playPct) / factor))
	default:
		return 0
	}
}

// TotalPlayPct is the percentage of the video covered by `totalPlayTime` seconds.
func TotalPlayPct(totalPlayTime, length int) int {
	return int(math.RoundToEven(float64(totalPlayTime) / float64(length) * 100))
}

// Final combines the adjusted and total percentages with the grade already held.
func Final(adjusted, totalPct int, existing *int) int {
	g := adjusted
	if totalPct < g {
		g = totalPct
	}
	if existing != nil && *existing > g {
		g = *existing
	}
	if g >= SnapThreshold {
		g = 100
	}
	return g
}
