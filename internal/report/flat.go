package report

import (
	"math"

	"github.com/mwhitt/chartwatch/internal/model"
)

// LongestFlatRun returns the length in points of the longest run of
// consecutive points whose successive prices differ by less than eps, and the
// index of the run's first point. An empty series returns 0, 0.
//
// A long flat run on a live market usually means the feed is repeating a
// stale price rather than the market actually holding still.
func LongestFlatRun(points []model.SeriesPoint, eps float64) (length, start int) {
	if len(points) == 0 {
		return 0, 0
	}

	best, bestStart := 1, 0
	cur, curStart := 1, 0
	for i := 1; i < len(points); i++ {
		if math.Abs(points[i].Price-points[i-1].Price) < eps {
			cur++
		} else {
			cur, curStart = 1, i
		}
		if cur > best {
			best, bestStart = cur, curStart
		}
	}
	return best, bestStart
}
