package searcher

import "math"

const CSquared = 2.0 // Default exploration constant

// uct scores children of one parent. The exploration numerator c^2*ln(N) is shared by all of them.
type uct struct {
	numerator float64
}

// newUCT counts in-flight simulations as parent visits, so N is at least 1.
func newUCT(cSquared float64, parentVisits int) *uct {
	return &uct{numerator: cSquared * math.Log(float64(max(parentVisits, 1)))}
}

// evaluate returns q/n + sqrt(c^2*ln(N)/n), or +Inf for a child never visited.
func (u *uct) evaluate(q float64, n int) float64 {
	if n <= 0 {
		return math.Inf(1)
	}
	return q/float64(n) + math.Sqrt(u.numerator/float64(n))
}
