package trace

import "github.com/lumen-render/lumen/pkg/math"

// Path is the mutable per-pixel ray state the depth loop steps forward.
// One Path is created per pixel at the start of every iteration; after
// compaction its slot in the buffer no longer matches its pixel, so
// PixelIndex is the only identity that links it back to the image.
type Path struct {
	Ray math.Ray

	// Radiance is the running sum of light gathered along the path; it is
	// flushed into the accumulator exactly once, when the path dies.
	Radiance math.Vec3

	// Throughput is the cumulative attenuation applied to future light,
	// starting at (1,1,1) and only ever shrinking.
	Throughput math.Vec3

	PixelIndex int32
	Alive      bool
}
