package session

import (
	"bytes"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/lumen-render/lumen/internal/engine/camera"
	"github.com/lumen-render/lumen/internal/engine/scene"
	"github.com/lumen-render/lumen/internal/logger"
	"github.com/lumen-render/lumen/pkg/formats"
	"github.com/lumen-render/lumen/pkg/math"
)

func TestMain(m *testing.M) {
	// Sessions log; keep test output quiet.
	if err := logger.InitWithFileConfig("error", logger.FileConfig{}, false); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testCamera(t *testing.T) *camera.Camera {
	t.Helper()
	cam, err := camera.New(&formats.CameraDesc{
		Position: [3]float64{0, 0, 0},
		LookAt:   [3]float64{0, 0, -1},
		Up:       [3]float64{0, 1, 0},
		FOV:      60,
	}, 8, 8)
	if err != nil {
		t.Fatalf("camera.New failed: %v", err)
	}
	return cam
}

// lampShell surrounds the camera with an emissive sphere: every primary
// ray hits a light, so one iteration lands fully saturated pixels.
func lampShell() *scene.Scene {
	return &scene.Scene{
		Geometry:  []scene.Primitive{scene.Sphere{Center: math.Vec3{}, Radius: 100, Mat: 0}},
		Materials: []scene.Material{{Name: "lamp", Color: math.Vec3{X: 1, Y: 1, Z: 1}, Emittance: 2}},
		Lights:    []int{0},
	}
}

func testConfig() Config {
	return Config{TraceDepth: 4, RouletteAfter: 2, Workers: 2}
}

func TestBeginValidation(t *testing.T) {
	if _, err := Begin(nil, testCamera(t), testConfig()); !errors.Is(err, ErrNilScene) {
		t.Errorf("expected ErrNilScene, got %v", err)
	}
	if _, err := Begin(lampShell(), nil, testConfig()); !errors.Is(err, ErrNilCamera) {
		t.Errorf("expected ErrNilCamera, got %v", err)
	}
}

func TestRunIteration(t *testing.T) {
	s, err := Begin(lampShell(), testCamera(t), testConfig())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer s.End()

	frame, stats, err := s.RunIteration()
	if err != nil {
		t.Fatalf("RunIteration failed: %v", err)
	}
	if s.Iterations() != 1 {
		t.Errorf("expected 1 iteration, got %d", s.Iterations())
	}
	if stats.LightHits != 64 {
		t.Errorf("expected 64 light hits, got %d", stats.LightHits)
	}

	// Emittance 2 clamps to white on presentation.
	for i := 0; i < len(frame.Pix); i += 4 {
		if frame.Pix[i] != 255 || frame.Pix[i+3] != 255 {
			t.Fatalf("pixel bytes at %d = %v, want saturated white", i, frame.Pix[i:i+4])
		}
	}

	w, h := s.Resolution()
	if w != 8 || h != 8 {
		t.Errorf("Resolution() = %dx%d, want 8x8", w, h)
	}
}

func TestSessionClosed(t *testing.T) {
	s, err := Begin(lampShell(), testCamera(t), testConfig())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if err := s.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	// End is idempotent.
	if err := s.End(); err != nil {
		t.Fatalf("second End failed: %v", err)
	}

	if _, _, err := s.RunIteration(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestReset(t *testing.T) {
	s, err := Begin(lampShell(), testCamera(t), testConfig())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer s.End()

	for i := 0; i < 3; i++ {
		if _, _, err := s.RunIteration(); err != nil {
			t.Fatalf("RunIteration failed: %v", err)
		}
	}
	s.Reset()

	if s.Iterations() != 0 {
		t.Errorf("expected 0 iterations after Reset, got %d", s.Iterations())
	}

	// The restarted accumulation behaves like a fresh session.
	frame, _, err := s.RunIteration()
	if err != nil {
		t.Fatalf("RunIteration after Reset failed: %v", err)
	}
	if s.Iterations() != 1 {
		t.Errorf("expected 1 iteration after Reset, got %d", s.Iterations())
	}
	for i := 0; i < len(frame.Pix); i += 4 {
		if frame.Pix[i] != 255 {
			t.Fatalf("pixel at %d not saturated after Reset", i)
		}
	}
}

func TestSessionsAreDeterministic(t *testing.T) {
	run := func() []byte {
		s, err := Begin(lampShell(), testCamera(t), testConfig())
		if err != nil {
			t.Fatalf("Begin failed: %v", err)
		}
		defer s.End()

		var pix []byte
		for i := 0; i < 2; i++ {
			frame, _, err := s.RunIteration()
			if err != nil {
				t.Fatalf("RunIteration failed: %v", err)
			}
			pix = append(pix[:0], frame.Pix...)
		}
		return pix
	}

	if !bytes.Equal(run(), run()) {
		t.Error("two sessions over the same scene produced different images")
	}
}

func TestConcurrentSessionsIndependent(t *testing.T) {
	// No process-wide state: sessions running in parallel must not
	// disturb each other.
	const sessions = 4
	results := make([][]byte, sessions)

	var wg sync.WaitGroup
	wg.Add(sessions)
	for i := 0; i < sessions; i++ {
		go func(slot int) {
			defer wg.Done()

			s, err := Begin(lampShell(), testCamera(t), testConfig())
			if err != nil {
				t.Errorf("Begin failed: %v", err)
				return
			}
			defer s.End()

			var frame []byte
			for it := 0; it < 3; it++ {
				img, _, err := s.RunIteration()
				if err != nil {
					t.Errorf("RunIteration failed: %v", err)
					return
				}
				frame = append(frame[:0], img.Pix...)
			}
			results[slot] = frame
		}(i)
	}
	wg.Wait()

	for i := 1; i < sessions; i++ {
		if !bytes.Equal(results[0], results[i]) {
			t.Errorf("session %d diverged from session 0", i)
		}
	}
}

func TestSessionIDsUnique(t *testing.T) {
	a, err := Begin(lampShell(), testCamera(t), testConfig())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer a.End()

	b, err := Begin(lampShell(), testCamera(t), testConfig())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer b.End()

	if a.ID() == b.ID() {
		t.Error("two sessions share an ID")
	}
}
