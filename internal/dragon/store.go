package dragon

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
)

// PathSink receives the polyline of the curve. *gg.Context satisfies it.
type PathSink interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
}

// Store owns the vertex buffer and the four extremal index sequences.
//
// Each extremal sequence lists, in insertion order, every vertex index that
// set a new record in its direction. For any prefix [0, n) the extreme
// coordinate is that of the last recorded index below n.
type Store struct {
	mu         sync.RWMutex
	points     []Point
	left       []int
	right      []int
	bottom     []int
	top        []int
	generation int
}

func New() *Store {
	return &Store{
		points: []Point{{0, 0}, {1, 0}},
		left:   []int{0},
		right:  []int{0, 1},
		bottom: []int{0},
		top:    []int{0},
	}
}

// Grow makes sure every vertex a query at tau can touch is buffered.
func (s *Store) Grow(tau float64) {
	mustValidTime(tau)
	s.growTo(highestIndex(tau))
}

// PointAt returns the curve point at parametric time tau.
func (s *Store) PointAt(tau float64) Point {
	mustValidTime(tau)
	s.growTo(highestIndex(tau))

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pointAt(tau)
}

// Bounds returns the bounding box of the curve drawn up to tau, including
// the partially drawn final segment and the base points (0,0) and (1,0).
func (s *Store) Bounds(tau float64) Box {
	mustValidTime(tau)
	s.growTo(highestIndex(tau))

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := int(tau)
	b := Box{
		MinX: s.points[lastRecord(s.left, i)].X,
		MaxX: s.points[lastRecord(s.right, i)].X,
		MinY: s.points[lastRecord(s.bottom, i)].Y,
		MaxY: s.points[lastRecord(s.top, i)].Y,
	}
	return b.Extend(s.pointAt(tau)).Extend(Point{0, 0}).Extend(Point{1, 0})
}

// EmitPolyline feeds the curve up to tau into sink, starting with a MoveTo
// at the origin and ending at the interpolated point for tau.
func (s *Store) EmitPolyline(tau float64, sink PathSink) {
	mustValidTime(tau)
	s.growTo(highestIndex(tau))

	i := int(tau)
	s.mu.RLock()
	// Existing vertices never change, so the prefix stays valid after unlock.
	prefix := s.points[:i+1]
	end := s.pointAt(tau)
	s.mu.RUnlock()

	sink.MoveTo(0, 0)
	for _, p := range prefix[1:] {
		sink.LineTo(p.X, p.Y)
	}
	sink.LineTo(end.X, end.Y)
}

// Len returns the number of buffered vertices.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Vertex returns buffered vertex i. It does not grow the store.
func (s *Store) Vertex(i int) Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points[i]
}

// Generation returns the number of doubling rounds performed so far.
func (s *Store) Generation() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *Store) pointAt(tau float64) Point {
	i := int(tau)
	f := tau - float64(i)
	if f == 0 {
		return s.points[i]
	}
	return s.points[i].Lerp(s.points[i+1], f)
}

func (s *Store) growTo(n int) {
	s.mu.RLock()
	ok := len(s.points)-1 >= n
	s.mu.RUnlock()
	if ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.points)-1 < n {
		s.double()
	}
}

// double appends the next generation: every vertex but the pivot, rotated
// 90° about the pivot, in reverse order.
func (s *Store) double() {
	n := len(s.points)
	pivot := s.points[n-1]

	s.points = slices.Grow(s.points, n-1)
	for i := n - 2; i >= 0; i-- {
		s.points = append(s.points, pivot.Add(s.points[i].Sub(pivot).Rot90()))
	}

	for i := n; i < len(s.points); i++ {
		p := s.points[i]
		if p.X < s.points[s.left[len(s.left)-1]].X {
			s.left = append(s.left, i)
		}
		if p.X > s.points[s.right[len(s.right)-1]].X {
			s.right = append(s.right, i)
		}
		if p.Y < s.points[s.bottom[len(s.bottom)-1]].Y {
			s.bottom = append(s.bottom, i)
		}
		if p.Y > s.points[s.top[len(s.top)-1]].Y {
			s.top = append(s.top, i)
		}
	}
	s.generation++
}

// lastRecord returns the last index in seq that is at most i.
// seq always starts with 0, so the search never comes up empty.
func lastRecord(seq []int, i int) int {
	return seq[sort.SearchInts(seq, i+1)-1]
}

func highestIndex(tau float64) int {
	return int(math.Ceil(tau)) + 2
}

func mustValidTime(tau float64) {
	if tau < 0 || math.IsNaN(tau) || math.IsInf(tau, 0) {
		panic(fmt.Sprintf("dragon: invalid parametric time %v", tau))
	}
}
