// Package camera builds primary rays from a camera description.
package camera

import (
	"errors"
	gomath "math"
	"math/rand"

	"github.com/lumen-render/lumen/pkg/formats"
	"github.com/lumen-render/lumen/pkg/math"
)

// Camera construction errors.
var (
	ErrInvalidResolution = errors.New("camera resolution must be positive")
	ErrDegenerateBasis   = errors.New("camera look direction is parallel to up")
)

// Camera holds the view basis and projection parameters used to generate
// primary rays. Immutable once built; safe for concurrent use.
type Camera struct {
	Position math.Vec3
	Width    int
	Height   int

	// Aperture > 0 with FocalDistance > 0 selects the thin-lens mode;
	// otherwise the camera is a pinhole.
	Aperture      float64
	FocalDistance float64

	forward math.Vec3
	right   math.Vec3
	up      math.Vec3

	halfW float64 // tan(fov/2) * aspect
	halfH float64 // tan(fov/2)
}

// New builds a camera from a scene description at the given resolution.
func New(desc *formats.CameraDesc, width, height int) (*Camera, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidResolution
	}

	pos := math.Vec3{X: desc.Position[0], Y: desc.Position[1], Z: desc.Position[2]}
	lookAt := math.Vec3{X: desc.LookAt[0], Y: desc.LookAt[1], Z: desc.LookAt[2]}
	worldUp := math.Vec3{X: desc.Up[0], Y: desc.Up[1], Z: desc.Up[2]}
	if worldUp.LengthSq() == 0 {
		worldUp = math.Vec3{Y: 1}
	}

	forward := lookAt.Sub(pos)
	if forward.LengthSq() == 0 {
		return nil, ErrDegenerateBasis
	}
	forward = forward.Normalize()

	right := forward.Cross(worldUp)
	if right.LengthSq() < 1e-12 {
		return nil, ErrDegenerateBasis
	}
	right = right.Normalize()
	up := right.Cross(forward)

	halfH := gomath.Tan(desc.FOV * gomath.Pi / 360)
	aspect := float64(width) / float64(height)

	return &Camera{
		Position:      pos,
		Width:         width,
		Height:        height,
		Aperture:      desc.Aperture,
		FocalDistance: desc.FocalDistance,
		forward:       forward,
		right:         right,
		up:            up,
		halfW:         halfH * aspect,
		halfH:         halfH,
	}, nil
}

// Ray generates the primary ray for pixel (px, py). The caller supplies a
// random engine seeded for this pixel and iteration; the sub-pixel jitter
// drawn from it realizes per-iteration anti-aliasing. In thin-lens mode
// the ray is additionally re-originated on the aperture disk and
// redirected through the point where the jittered direction meets the
// focal sphere, so that distance stays sharp at any aperture.
func (c *Camera) Ray(px, py int, rng *rand.Rand) math.Ray {
	jx := rng.Float64()
	jy := rng.Float64()

	// Screen coordinates in [-1, 1], y flipped so pixel row 0 is the top
	// of the image.
	sx := (2*(float64(px)+jx)/float64(c.Width) - 1) * c.halfW
	sy := (1 - 2*(float64(py)+jy)/float64(c.Height)) * c.halfH

	dir := c.forward.Add(c.right.Scale(sx)).Add(c.up.Scale(sy)).Normalize()

	if c.Aperture <= 0 || c.FocalDistance <= 0 {
		return math.Ray{Origin: c.Position, Dir: dir}
	}

	// The focal sphere is centered on the camera, so the jittered
	// direction meets it at exactly FocalDistance along the ray.
	focal := c.Position.Add(dir.Scale(c.FocalDistance))

	dx, dy := math.SampleUnitDisk(rng.Float64(), rng.Float64())
	origin := c.Position.
		Add(c.right.Scale(dx * c.Aperture)).
		Add(c.up.Scale(dy * c.Aperture))

	return math.Ray{Origin: origin, Dir: focal.Sub(origin).Normalize()}
}

// Forward returns the view direction.
func (c *Camera) Forward() math.Vec3 { return c.forward }

// Right returns the view-plane x basis vector.
func (c *Camera) Right() math.Vec3 { return c.right }

// Up returns the view-plane y basis vector.
func (c *Camera) Up() math.Vec3 { return c.up }
