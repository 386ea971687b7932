package arb

import (
	"math"
	"testing"
)

func TestEdgeValue(t *testing.T) {
	// Lay 2.02 at 2% commission against a 2.10 bookmaker price.
	got := Edge(2.10, 2.02, 0.02)
	want := 1.0/(2.02*0.98) - 1.0/2.10
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Edge = %v, want %v", got, want)
	}
	if math.Abs(got-0.02896) > 1e-4 {
		t.Errorf("Edge = %v, want about 0.0290", got)
	}
}

func TestEdgeZeroCommission(t *testing.T) {
	if got := Edge(2.0, 2.0, 0); math.Abs(got) > 1e-12 {
		t.Errorf("identical prices at zero commission should have zero edge, got %v", got)
	}
}

func TestEdgeSentinel(t *testing.T) {
	tests := []struct {
		name      string
		book, lay float64
	}{
		{"book at floor", 1.01, 2.0},
		{"book below floor", 0, 2.0},
		{"lay at floor", 2.0, 1.01},
		{"lay below floor", 2.0, 0},
		{"both zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Edge(tt.book, tt.lay, 0.02); got != NoEdge {
				t.Errorf("Edge(%v, %v) = %v, want NoEdge", tt.book, tt.lay, got)
			}
		})
	}
}

func TestEdgeMonotonic(t *testing.T) {
	// Increasing in the bookmaker price.
	prev := Edge(1.50, 2.0, 0.02)
	for book := 1.6; book <= 3.0; book += 0.1 {
		cur := Edge(book, 2.0, 0.02)
		if cur <= prev {
			t.Fatalf("edge not increasing in book price at %v: %v <= %v", book, cur, prev)
		}
		prev = cur
	}

	// Decreasing in the lay price.
	prev = Edge(2.5, 1.50, 0.02)
	for lay := 1.6; lay <= 3.0; lay += 0.1 {
		cur := Edge(2.5, lay, 0.02)
		if cur >= prev {
			t.Fatalf("edge not decreasing in lay price at %v: %v >= %v", lay, cur, prev)
		}
		prev = cur
	}
}
