package geom

import (
	"math"
	"testing"
)

func TestRectContains(t *testing.T) {
	r := NewRect(10, 20, 100, 50)

	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{60, 45}, true},
		{"top_left_inclusive", Point{10, 20}, true},
		{"right_edge_exclusive", Point{110, 45}, false},
		{"bottom_edge_exclusive", Point{60, 70}, false},
		{"outside_left", Point{9.5, 45}, false},
		{"outside_above", Point{60, 19.9}, false},
	}

	for _, tc := range cases {
		if got := r.Contains(tc.p); got != tc.want {
			t.Errorf("%s: Contains(%v) = %v, want %v", tc.name, tc.p, got, tc.want)
		}
	}
}

func TestRectContainsSharedEdge(t *testing.T) {
	// Two cells sharing an edge must never both claim a pointer on it.
	left := NewRect(0, 0, 50, 50)
	right := NewRect(50, 0, 50, 50)
	p := Point{50, 25}

	if left.Contains(p) {
		t.Error("left cell should not contain point on its right edge")
	}
	if !right.Contains(p) {
		t.Error("right cell should contain point on its left edge")
	}
}

func TestRectIntersects(t *testing.T) {
	a := NewRect(0, 0, 10, 10)

	if !a.Intersects(NewRect(5, 5, 10, 10)) {
		t.Error("overlapping rects should intersect")
	}
	if a.Intersects(NewRect(10, 0, 10, 10)) {
		t.Error("edge-adjacent rects should not intersect")
	}
	if a.Intersects(NewRect(20, 20, 5, 5)) {
		t.Error("disjoint rects should not intersect")
	}
}

func TestPointDist(t *testing.T) {
	if d := (Point{0, 0}).Dist(Point{3, 4}); math.Abs(d-5) > 1e-12 {
		t.Errorf("Dist = %f, want 5", d)
	}
	if d := (Point{1, 1}).Dist(Point{1, 1}); d != 0 {
		t.Errorf("Dist to self = %f, want 0", d)
	}
}

func TestVecLerp(t *testing.T) {
	v := Vec{0, 0}
	w := Vec{10, -20}

	mid := v.Lerp(w, 0.5)
	if mid.X != 5 || mid.Y != -10 {
		t.Errorf("Lerp(0.5) = %+v, want {5 -10}", mid)
	}

	if got := v.Lerp(w, 0); got != v {
		t.Errorf("Lerp(0) = %+v, want start", got)
	}
	if got := v.Lerp(w, 1); got != w {
		t.Errorf("Lerp(1) = %+v, want target", got)
	}
}

func TestVecArithmetic(t *testing.T) {
	p := Point{10, 20}
	q := Point{4, 8}

	v := p.Sub(q)
	if v.X != 6 || v.Y != 12 {
		t.Errorf("Sub = %+v, want {6 12}", v)
	}
	if got := q.Add(v); got != p {
		t.Errorf("Add = %+v, want %+v", got, p)
	}
	if l := (Vec{3, 4}).Len(); math.Abs(l-5) > 1e-12 {
		t.Errorf("Len = %f, want 5", l)
	}
}
