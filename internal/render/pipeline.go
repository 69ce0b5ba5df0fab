package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gogpu/gg"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/dragonzoom/internal/camera"
)

// Pipeline renders an animation to numbered PNG frames.
type Pipeline struct {
	Camera   *camera.Camera
	Style    Style
	Width    int
	Height   int
	FPS      int
	Duration float64
	// Workers bounds the frames rendered at once; 0 means GOMAXPROCS.
	Workers int
	Dir     string
	Logger  *slog.Logger
}

type Summary struct {
	Frames  int
	Dir     string
	Elapsed time.Duration
}

// FramePath returns the file a frame index is written to.
func FramePath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%06d.png", index))
}

// FrameTimes returns the timestamps of every frame in [0, duration] at fps.
func FrameTimes(fps int, duration float64) []float64 {
	if fps <= 0 || duration < 0 {
		return nil
	}
	n := int(math.Floor(duration*float64(fps)+1e-9)) + 1
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) / float64(fps)
	}
	return times
}

func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return Summary{}, fmt.Errorf("render: invalid frame size %dx%d", p.Width, p.Height)
	}

	times := FrameTimes(p.FPS, p.Duration)
	if len(times) == 0 {
		return Summary{}, fmt.Errorf("render: no frames for fps=%d duration=%g", p.FPS, p.Duration)
	}
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return Summary{}, err
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Frames must all see the same camera functions.
	p.Camera.Seal()

	// Growing up front keeps workers on the store's read path.
	start := time.Now()
	p.Camera.Store().Grow(camera.WarpTime(times[len(times)-1]))
	logger.Info("curve grown",
		"vertices", p.Camera.Store().Len(),
		"generation", p.Camera.Store().Generation(),
		"elapsed", time.Since(start))

	var done atomic.Int64
	step := max(len(times)/20, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, t := range times {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := p.renderFrame(FramePath(p.Dir, i), t); err != nil {
				return fmt.Errorf("frame %d (t=%.3f): %w", i, t, err)
			}
			if n := done.Add(1); n%int64(step) == 0 {
				logger.Debug("frames rendered", "done", n, "total", len(times))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Summary{Frames: int(done.Load()), Dir: p.Dir, Elapsed: time.Since(start)}, err
	}
	if err := ctx.Err(); err != nil {
		return Summary{Frames: int(done.Load()), Dir: p.Dir, Elapsed: time.Since(start)}, err
	}

	s := Summary{Frames: len(times), Dir: p.Dir, Elapsed: time.Since(start)}
	logger.Info("render complete", "frames", s.Frames, "dir", s.Dir, "elapsed", s.Elapsed)
	return s, nil
}

func (p *Pipeline) renderFrame(path string, t float64) error {
	dc := gg.NewContext(p.Width, p.Height)
	defer dc.Close()

	if err := Frame(dc, p.Camera, p.Style, t); err != nil {
		return err
	}
	return dc.SavePNG(path)
}
