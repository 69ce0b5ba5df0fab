package dragon

import (
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recordingSink struct {
	moves []Point
	lines []Point
}

func (r *recordingSink) MoveTo(x, y float64) { r.moves = append(r.moves, Point{x, y}) }
func (r *recordingSink) LineTo(x, y float64) { r.lines = append(r.lines, Point{x, y}) }

func TestNewStore(t *testing.T) {
	s := New()

	if s.Len() != 2 {
		t.Fatalf("expected 2 vertices, got %d", s.Len())
	}
	if s.Vertex(0) != (Point{0, 0}) {
		t.Errorf("vertex 0 = %v, want origin", s.Vertex(0))
	}
	if s.Vertex(1) != (Point{1, 0}) {
		t.Errorf("vertex 1 = %v, want (1,0)", s.Vertex(1))
	}
	if s.Generation() != 0 {
		t.Errorf("expected generation 0, got %d", s.Generation())
	}
}

func TestGrow_ThirdGeneration(t *testing.T) {
	s := New()
	s.Grow(5)

	want := []Point{
		{0, 0}, {1, 0}, {1, -1}, {0, -1}, {0, -2},
		{-1, -2}, {-1, -1}, {-2, -1}, {-2, -2},
	}
	got := make([]Point, s.Len())
	for i := range got {
		got[i] = s.Vertex(i)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("vertices mismatch (-want +got):\n%s", diff)
	}
	if s.Generation() != 3 {
		t.Errorf("expected generation 3, got %d", s.Generation())
	}
}

func TestGrow_DoublesSegments(t *testing.T) {
	s := New()
	for gen := 1; gen <= 12; gen++ {
		s.Grow(float64(s.Len() - 2))
		want := 1<<gen + 1
		if s.Len() != want {
			t.Fatalf("generation %d: expected %d vertices, got %d", gen, want, s.Len())
		}
	}
}

func TestGrow_NoOpWhenBuffered(t *testing.T) {
	s := New()
	s.Grow(100)
	n := s.Len()

	s.Grow(3.5)
	s.Grow(float64(n - 3))

	if s.Len() != n {
		t.Errorf("expected buffer to stay at %d vertices, got %d", n, s.Len())
	}
}

func TestAppendOnly(t *testing.T) {
	tests := []struct {
		t1, t2 float64
	}{
		{0, 1},
		{2.5, 3},
		{7.25, 300},
		{40, 5000.5},
	}

	for _, tt := range tests {
		short := New()
		short.PointAt(tt.t1)
		long := New()
		long.PointAt(tt.t2)

		n := int(tt.t1) + 1
		for i := 0; i < n; i++ {
			a, b := short.Vertex(i), long.Vertex(i)
			if math.Float64bits(a.X) != math.Float64bits(b.X) || math.Float64bits(a.Y) != math.Float64bits(b.Y) {
				t.Fatalf("t1=%v t2=%v: vertex %d differs: %v vs %v", tt.t1, tt.t2, i, a, b)
			}
		}
	}
}

func TestExtremalSequences(t *testing.T) {
	s := New()
	s.Grow(4000)

	check := func(name string, seq []int, coord func(Point) float64, better func(a, b float64) bool) {
		for k := 1; k < len(seq); k++ {
			if seq[k] <= seq[k-1] {
				t.Fatalf("%s: indices not increasing at %d: %v", name, k, seq[:k+1])
			}
			if !better(coord(s.points[seq[k]]), coord(s.points[seq[k-1]])) {
				t.Fatalf("%s: record %d does not beat its predecessor", name, seq[k])
			}
		}

		extreme := coord(s.points[0])
		for i := 0; i < len(s.points); i++ {
			if better(coord(s.points[i]), extreme) {
				extreme = coord(s.points[i])
			}
			if got := coord(s.points[lastRecord(seq, i)]); got != extreme {
				t.Fatalf("%s: prefix [0,%d] extreme = %v, lookup gave %v", name, i+1, extreme, got)
			}
		}
	}

	x := func(p Point) float64 { return p.X }
	y := func(p Point) float64 { return p.Y }
	less := func(a, b float64) bool { return a < b }
	greater := func(a, b float64) bool { return a > b }

	check("left", s.left, x, less)
	check("right", s.right, x, greater)
	check("bottom", s.bottom, y, less)
	check("top", s.top, y, greater)
}

func TestPointAt(t *testing.T) {
	s := New()

	tests := []struct {
		tau  float64
		want Point
	}{
		{0, Point{0, 0}},
		{1, Point{1, 0}},
		{0.5, Point{0.5, 0}},
		{1.25, Point{1, -0.25}},
		{2, Point{1, -1}},
		{4.5, Point{-0.5, -2}},
	}

	for _, tt := range tests {
		got := s.PointAt(tt.tau)
		if math.Abs(got.X-tt.want.X) > 1e-12 || math.Abs(got.Y-tt.want.Y) > 1e-12 {
			t.Errorf("PointAt(%v) = %v, want %v", tt.tau, got, tt.want)
		}
	}
}

func TestBounds(t *testing.T) {
	s := New()

	tests := []struct {
		tau  float64
		want Box
	}{
		{0, Box{0, 1, 0, 0}},
		{0.5, Box{0, 1, 0, 0}},
		{1.5, Box{0, 1, -0.5, 0}},
		{2, Box{0, 1, -1, 0}},
		{4.5, Box{-0.5, 1, -2, 0}},
		{8, Box{-2, 1, -2, 0}},
	}

	for _, tt := range tests {
		if got := s.Bounds(tt.tau); got != tt.want {
			t.Errorf("Bounds(%v) = %+v, want %+v", tt.tau, got, tt.want)
		}
	}
}

func TestBounds_MatchesBruteForce(t *testing.T) {
	s := New()

	for tau := 0.0; tau < 600; tau += 3.7 {
		got := s.Bounds(tau)

		want := Box{0, 1, 0, 0}
		for i := 0; i <= int(tau); i++ {
			want = want.Extend(s.Vertex(i))
		}
		want = want.Extend(s.PointAt(tau))

		if got != want {
			t.Fatalf("Bounds(%v) = %+v, brute force %+v", tau, got, want)
		}
	}
}

func TestEmitPolyline(t *testing.T) {
	s := New()
	sink := &recordingSink{}

	s.EmitPolyline(4.5, sink)

	if diff := cmp.Diff([]Point{{0, 0}}, sink.moves); diff != "" {
		t.Errorf("moves mismatch (-want +got):\n%s", diff)
	}
	want := []Point{{1, 0}, {1, -1}, {0, -1}, {0, -2}, {-0.5, -2}}
	if diff := cmp.Diff(want, sink.lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitPolyline_AtOrigin(t *testing.T) {
	s := New()
	sink := &recordingSink{}

	s.EmitPolyline(0, sink)

	if len(sink.moves) != 1 || len(sink.lines) != 1 {
		t.Fatalf("expected one move and one line, got %d and %d", len(sink.moves), len(sink.lines))
	}
	if sink.lines[0] != (Point{0, 0}) {
		t.Errorf("expected degenerate segment at origin, got %v", sink.lines[0])
	}
}

func TestInvalidTimePanics(t *testing.T) {
	tests := []struct {
		name string
		tau  float64
	}{
		{"negative", -0.5},
		{"NaN", math.NaN()},
		{"+Inf", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for tau=%v", tt.tau)
				}
			}()
			New().Bounds(tt.tau)
		})
	}
}

func TestConcurrentQueries(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				tau := float64(w*977+i*31) + 0.5
				b := s.Bounds(tau)
				if !b.Contains(s.PointAt(tau)) {
					t.Errorf("Bounds(%v) misses its own endpoint", tau)
					return
				}
			}
		}(w)
	}
	wg.Wait()
}
