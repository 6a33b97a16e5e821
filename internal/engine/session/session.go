// Package session owns the lifetime of one render: it allocates the path
// tracer's buffers against a scene and camera, runs iterations that
// accumulate into the persistent image, and releases everything on End.
// Sessions are independent; any number can run concurrently.
package session

import (
	"errors"
	"image"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumen-render/lumen/internal/engine/camera"
	"github.com/lumen-render/lumen/internal/engine/scene"
	"github.com/lumen-render/lumen/internal/engine/trace"
	"github.com/lumen-render/lumen/internal/logger"
)

// Session usage errors.
var (
	ErrNilScene      = errors.New("session: scene is nil")
	ErrNilCamera     = errors.New("session: camera is nil")
	ErrSessionClosed = errors.New("session: session is closed")
)

// Config carries the render parameters a session traces with.
type Config struct {
	// TraceDepth is the maximum number of bounces per path.
	TraceDepth int

	// RouletteAfter is the bounce count beyond which Russian roulette
	// may terminate paths; negative disables roulette.
	RouletteAfter int

	// DirectLight enables per-bounce direct light sampling.
	DirectLight bool

	// Workers is the goroutine count for the parallel steps (0 = NumCPU).
	Workers int
}

// Session is an active render. Not safe for concurrent use of the same
// instance; distinct sessions are fully independent.
type Session struct {
	id  uuid.UUID
	cam *camera.Camera

	tracer     *trace.Tracer
	frame      *image.RGBA
	iterations int
	closed     bool
}

// Begin validates the inputs, allocates the path buffer, compaction
// scratch and persistent accumulator (one slot per pixel, zeroed), and
// returns the live session.
func Begin(sc *scene.Scene, cam *camera.Camera, cfg Config) (*Session, error) {
	if sc == nil {
		return nil, ErrNilScene
	}
	if cam == nil {
		return nil, ErrNilCamera
	}

	tracer, err := trace.New(sc, cam, trace.Config{
		MaxDepth:      cfg.TraceDepth,
		RouletteAfter: cfg.RouletteAfter,
		DirectLight:   cfg.DirectLight,
		Workers:       cfg.Workers,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:     uuid.New(),
		cam:    cam,
		tracer: tracer,
		frame:  image.NewRGBA(image.Rect(0, 0, cam.Width, cam.Height)),
	}

	logger.Info("session started",
		zap.String("session", s.id.String()),
		zap.Int("width", cam.Width),
		zap.Int("height", cam.Height),
		zap.Int("geometry", len(sc.Geometry)),
		zap.Int("lights", len(sc.Lights)),
		zap.Int("trace_depth", cfg.TraceDepth),
	)
	return s, nil
}

// RunIteration traces one full pass, adds it into the persistent
// accumulator and returns the presentable running average. The returned
// image is reused between calls; callers needing to keep a frame must
// copy it.
func (s *Session) RunIteration() (*image.RGBA, trace.IterationStats, error) {
	if s.closed {
		return nil, trace.IterationStats{}, ErrSessionClosed
	}

	s.iterations++
	stats := s.tracer.Iterate(s.iterations)
	if err := s.tracer.Present(s.iterations, s.frame); err != nil {
		return nil, stats, err
	}
	return s.frame, stats, nil
}

// ID returns the session's identity, used to tell concurrent sessions
// apart in logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Iterations returns how many iterations have accumulated so far.
func (s *Session) Iterations() int {
	return s.iterations
}

// Resolution returns the session's image dimensions.
func (s *Session) Resolution() (width, height int) {
	return s.cam.Width, s.cam.Height
}

// Reset zeroes the accumulator and the iteration counter, restarting the
// progressive average. Used when the view changes and the converged image
// no longer matches it.
func (s *Session) Reset() {
	if s.closed {
		return
	}
	s.tracer.Reset()
	s.iterations = 0
	logger.Info("session reset", zap.String("session", s.id.String()))
}

// End releases the session's buffers. Idempotent; every operation after
// End fails with ErrSessionClosed.
func (s *Session) End() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.tracer = nil
	s.frame = nil
	logger.Info("session ended",
		zap.String("session", s.id.String()),
		zap.Int("iterations", s.iterations),
	)
	return nil
}
