package dragon_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dragonzoom/internal/dragon"
)

var _ = Describe("Store", func() {
	var store *dragon.Store

	BeforeEach(func() {
		store = dragon.New()
	})

	Describe("point queries", func() {
		It("starts on the unit segment", func() {
			Expect(store.PointAt(0)).To(Equal(dragon.Pt(0, 0)))
			Expect(store.PointAt(1)).To(Equal(dragon.Pt(1, 0)))
			Expect(store.PointAt(0.5)).To(Equal(dragon.Pt(0.5, 0)))
		})

		It("frames the first rotated vertex after one doubling round", func() {
			box := store.Bounds(2)
			Expect(box.Contains(dragon.Pt(0, 0))).To(BeTrue())
			Expect(box.Contains(dragon.Pt(1, 0))).To(BeTrue())
			Expect(box.Contains(dragon.Pt(1, -1))).To(BeTrue())
		})
	})

	Describe("self-similarity", func() {
		It("appends the previous generation rotated about its endpoint and reversed", func() {
			for gen := 1; gen <= 10; gen++ {
				n := store.Len()
				prev := make([]dragon.Point, n)
				for i := range prev {
					prev[i] = store.Vertex(i)
				}
				pivot := prev[n-1]

				store.Grow(float64(n - 2))
				Expect(store.Len()).To(Equal(2*n - 1))

				for j := 0; j < n-1; j++ {
					want := pivot.Add(prev[n-2-j].Sub(pivot).Rot90())
					Expect(store.Vertex(n + j)).To(Equal(want), "generation %d, new vertex %d", gen, j)
				}
			}
		})
	})

	Describe("bounding boxes", func() {
		It("only ever grows as tau increases", func() {
			prev := store.Bounds(0)
			for tau := 0.25; tau < 2000; tau *= 1.13 {
				box := store.Bounds(tau)
				Expect(box.ContainsBox(prev)).To(BeTrue(), "tau=%v box=%+v prev=%+v", tau, box, prev)
				prev = box
			}
		})

		It("always contains the base anchors", func() {
			for _, tau := range []float64{0, 0.1, 1, 2.5, 17, 130.75, 4096} {
				box := store.Bounds(tau)
				Expect(box.Contains(dragon.Pt(0, 0))).To(BeTrue(), "tau=%v", tau)
				Expect(box.Contains(dragon.Pt(1, 0))).To(BeTrue(), "tau=%v", tau)
			}
		})

		It("contains every emitted vertex", func() {
			var rec pointRecorder
			store.EmitPolyline(777.3, &rec)
			box := store.Bounds(777.3)
			for _, p := range rec.points {
				Expect(box.Contains(p)).To(BeTrue(), "point %v outside %+v", p, box)
			}
		})
	})

	Describe("preconditions", func() {
		It("panics on negative time", func() {
			Expect(func() { store.PointAt(-1) }).To(PanicWith(ContainSubstring("invalid parametric time")))
		})
	})
})

type pointRecorder struct {
	points []dragon.Point
}

func (r *pointRecorder) MoveTo(x, y float64) { r.points = append(r.points, dragon.Pt(x, y)) }
func (r *pointRecorder) LineTo(x, y float64) { r.points = append(r.points, dragon.Pt(x, y)) }
