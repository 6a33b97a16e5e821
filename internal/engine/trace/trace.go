// Package trace implements the per-iteration path tracing engine: primary
// ray generation, the depth-stepping intersect/scatter loop, Russian
// roulette, stable stream compaction of the active set, and accumulation
// of terminated paths into the persistent image.
package trace

import (
	"errors"
	"runtime"
	"sync/atomic"

	"github.com/lumen-render/lumen/internal/engine/camera"
	"github.com/lumen-render/lumen/internal/engine/rng"
	"github.com/lumen-render/lumen/internal/engine/scene"
	"github.com/lumen-render/lumen/internal/engine/shading"
	"github.com/lumen-render/lumen/pkg/math"
)

// Tracer construction errors.
var (
	ErrNilScene  = errors.New("trace: scene is nil")
	ErrNilCamera = errors.New("trace: camera is nil")
)

// Config controls one tracer.
type Config struct {
	// MaxDepth is the number of bounces followed before surviving paths
	// are force-flushed.
	MaxDepth int

	// RouletteAfter is the depth beyond which Russian roulette applies
	// (depth > RouletteAfter). Negative disables roulette entirely.
	RouletteAfter int

	// DirectLight enables next-event estimation on diffuse bounces.
	DirectLight bool

	// Workers is the goroutine count for parallel steps; 0 means NumCPU.
	Workers int
}

// IterationStats summarizes one iteration. Every primary ray terminates in
// exactly one of the four ways, so
// Misses + LightHits + RouletteKills + MaxDepthFlushed == PrimaryRays.
type IterationStats struct {
	PrimaryRays     int
	Depths          int
	Misses          int
	LightHits       int
	RouletteKills   int
	MaxDepthFlushed int

	// Scattered counts surface bounces across all depths; unlike the four
	// counters above it is not a termination and does not enter the flush
	// total.
	Scattered int

	// ActiveByDepth holds the surviving path count after each depth's
	// compaction.
	ActiveByDepth []int
}

// Tracer runs iterations of the path tracing engine against a fixed scene
// and camera, adding every iteration's estimate into a persistent
// accumulator. Buffers are allocated once, sized to the camera resolution.
type Tracer struct {
	cfg Config
	sc  *scene.Scene
	cam *camera.Camera

	// paths and scratch swap roles on every compaction pass.
	paths   []Path
	scratch []Path

	// accum is the persistent per-pixel radiance sum. It is only added
	// to; presentation divides a copy, never this buffer.
	accum []math.Vec3
}

// New allocates a tracer for the given scene and camera. The path buffer,
// the compaction scratch buffer and the accumulator each hold one entry
// per pixel.
func New(sc *scene.Scene, cam *camera.Camera, cfg Config) (*Tracer, error) {
	if sc == nil {
		return nil, ErrNilScene
	}
	if cam == nil {
		return nil, ErrNilCamera
	}
	if cfg.MaxDepth < 1 {
		cfg.MaxDepth = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	pixels := cam.Width * cam.Height
	return &Tracer{
		cfg:     cfg,
		sc:      sc,
		cam:     cam,
		paths:   make([]Path, pixels),
		scratch: make([]Path, pixels),
		accum:   make([]math.Vec3, pixels),
	}, nil
}

// Accumulator exposes the persistent radiance sums, one per pixel in row
// major order. Read-only for callers; Present consumes it.
func (t *Tracer) Accumulator() []math.Vec3 {
	return t.accum
}

// Reset zeroes the accumulator so the next iteration starts a fresh
// average.
func (t *Tracer) Reset() {
	for i := range t.accum {
		t.accum[i] = math.Vec3{}
	}
}

// Iterate runs one full pass: primary rays for every pixel, the depth
// loop with compaction after each depth, and a final force-flush of paths
// that survived MaxDepth. Each path's radiance reaches the accumulator
// exactly once. The iteration number seeds every random decision, so equal
// numbers replay identical iterations.
func (t *Tracer) Iterate(iteration int) IterationStats {
	stats := IterationStats{
		PrimaryRays:   len(t.paths),
		ActiveByDepth: make([]int, 0, t.cfg.MaxDepth),
	}
	var misses, lightHits, scatters, rouletteKills atomic.Int64

	t.generatePrimary(iteration)

	active := len(t.paths)
	for depth := 0; depth < t.cfg.MaxDepth && active > 0; depth++ {
		stats.Depths++

		t.step(iteration, depth, active, &misses, &lightHits, &scatters)
		if t.cfg.RouletteAfter >= 0 && depth > t.cfg.RouletteAfter {
			t.roulette(iteration, depth, active, &rouletteKills)
		}

		active = t.compact(active)
		stats.ActiveByDepth = append(stats.ActiveByDepth, active)
	}

	// Paths still alive after the last depth keep what they gathered.
	parallelFor(active, t.cfg.Workers, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			p := &t.paths[i]
			t.flush(p)
			p.Alive = false
		}
	})
	stats.MaxDepthFlushed = active

	stats.Misses = int(misses.Load())
	stats.LightHits = int(lightHits.Load())
	stats.Scattered = int(scatters.Load())
	stats.RouletteKills = int(rouletteKills.Load())
	return stats
}

// generatePrimary fills every slot with a fresh path for its pixel:
// jittered camera ray, zero radiance, unit throughput.
func (t *Tracer) generatePrimary(iteration int) {
	w := t.cam.Width
	parallelFor(len(t.paths), t.cfg.Workers, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			eng := rng.New(iteration, i, 0, rng.StreamCamera)
			t.paths[i] = Path{
				Ray:        t.cam.Ray(i%w, i/w, eng),
				Throughput: math.Vec3{X: 1, Y: 1, Z: 1},
				PixelIndex: int32(i),
				Alive:      true,
			}
		}
	})
}

// step intersects every active path against the scene and resolves the
// hit: miss and light hits terminate and flush, surface hits scatter and
// stay alive. This is the only step that mutates a living path's ray,
// throughput or radiance.
func (t *Tracer) step(iteration, depth, active int, misses, lightHits, scatters *atomic.Int64) {
	parallelFor(active, t.cfg.Workers, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			p := &t.paths[i]

			hit, found := t.sc.Intersect(p.Ray)
			if !found {
				t.flush(p)
				p.Alive = false
				misses.Add(1)
				continue
			}

			mat := t.sc.MaterialAt(hit.GeomIndex)
			if mat.IsLight() {
				if depth == 0 {
					// A primary ray straight into an emitter: nothing
					// has attenuated it yet, so the emitter's full
					// output is the pixel's estimate.
					p.Radiance = mat.Color.Scale(mat.Emittance)
				}
				t.flush(p)
				p.Alive = false
				lightHits.Add(1)
				continue
			}

			eng := rng.New(iteration, int(p.PixelIndex), depth, rng.StreamScatter)
			p.Ray, p.Throughput, p.Radiance = shading.Scatter(
				p.Ray, hit, mat, t.sc,
				p.Throughput, p.Radiance, t.cfg.DirectLight, eng)
			scatters.Add(1)
		}
	})
}

// roulette terminates low-throughput paths probabilistically: one uniform
// draw per path, kill when it reaches the throughput's luminance. A zero
// throughput is always culled and a full one never. Survivors are NOT
// rescaled by their survival probability; the estimator keeps the
// original renderer's uncompensated behavior.
func (t *Tracer) roulette(iteration, depth, active int, kills *atomic.Int64) {
	parallelFor(active, t.cfg.Workers, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			p := &t.paths[i]
			if !p.Alive {
				continue
			}
			u := rng.New(iteration, int(p.PixelIndex), depth, rng.StreamRoulette).Float64()
			if u >= p.Throughput.Luminance() {
				t.flush(p)
				p.Alive = false
				kills.Add(1)
			}
		}
	})
}

// flush adds a path's gathered radiance into the persistent accumulator.
// PixelIndex values are unique within an iteration and each path is
// flushed exactly once, so no synchronization is needed on the add.
func (t *Tracer) flush(p *Path) {
	t.accum[p.PixelIndex] = t.accum[p.PixelIndex].Add(p.Radiance)
}
