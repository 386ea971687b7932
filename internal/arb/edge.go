// Package arb computes commission-adjusted edges over matched selections and
// decides, against the alert history, whether a discrepancy is worth waking
// anyone up for.
package arb

// MinViableOdds is the floor below which decimal odds are considered noise
// (empty books and placeholder prices sit at or below it).
const MinViableOdds = 1.01

// NoEdge is the sentinel returned when an edge is undefined.
const NoEdge = -1.0

// Edge returns the commission-adjusted expected profit fraction of backing
// at bookPrice while laying at layPrice:
//
//	1/(lay·(1-commission)) − 1/book
//
// It is monotonically increasing in bookPrice and decreasing in layPrice.
// When either price is at or below MinViableOdds the edge is undefined and
// NoEdge is returned.
func Edge(bookPrice, layPrice, commission float64) float64 {
	if bookPrice <= MinViableOdds || layPrice <= MinViableOdds {
		return NoEdge
	}
	impliedBack := 1.0 / bookPrice
	impliedLayNet := 1.0 / (layPrice * (1.0 - commission))
	return impliedLayNet - impliedBack
}
