package scene

import (
	gomath "math"
	"math/rand"

	"github.com/lumen-render/lumen/pkg/math"
)

// tMin rejects intersections closer than this to the ray origin, so rays
// leaving a surface do not immediately re-hit it.
const tMin = 1e-4

// Hit describes the nearest surface a ray struck. Normal is a unit vector
// facing the ray origin. GeomIndex is filled by Scene.Intersect.
type Hit struct {
	T          float64
	Point      math.Vec3
	Normal     math.Vec3
	GeomIndex  int
	MaterialID int
}

// Primitive is the closed set of geometry variants the tracer knows how to
// intersect: Sphere, Box and MeshInstance. The marker method keeps the set
// closed.
type Primitive interface {
	// Intersect returns the nearest hit along the ray beyond tMin.
	Intersect(r math.Ray) (Hit, bool)
	// MaterialID returns the index of the primitive's material.
	MaterialID() int
	// RandomPoint returns a uniformly distributed point on the surface,
	// used for direct light sampling.
	RandomPoint(rng *rand.Rand) math.Vec3

	isPrimitive()
}

// faceNormal flips an outward normal so it opposes the ray direction.
func faceNormal(dir, outward math.Vec3) math.Vec3 {
	if dir.Dot(outward) > 0 {
		return outward.Negate()
	}
	return outward
}

// Sphere is a sphere primitive.
type Sphere struct {
	Center math.Vec3
	Radius float64
	Mat    int
}

func (s Sphere) isPrimitive() {}

// MaterialID returns the sphere's material index.
func (s Sphere) MaterialID() int { return s.Mat }

// Intersect solves the ray/sphere quadratic and returns the nearest root
// beyond tMin.
func (s Sphere) Intersect(r math.Ray) (Hit, bool) {
	oc := r.Origin.Sub(s.Center)
	halfB := oc.Dot(r.Dir)
	c := oc.LengthSq() - s.Radius*s.Radius

	discriminant := halfB*halfB - c
	if discriminant < 0 {
		return Hit{}, false
	}
	sqrtD := gomath.Sqrt(discriminant)

	// Nearer root first; fall back to the far root when the origin is
	// inside the sphere.
	t := -halfB - sqrtD
	if t < tMin {
		t = -halfB + sqrtD
		if t < tMin {
			return Hit{}, false
		}
	}

	point := r.At(t)
	outward := point.Sub(s.Center).Scale(1 / s.Radius)
	return Hit{
		T:          t,
		Point:      point,
		Normal:     faceNormal(r.Dir, outward),
		MaterialID: s.Mat,
	}, true
}

// RandomPoint returns a uniform point on the sphere surface.
func (s Sphere) RandomPoint(rng *rand.Rand) math.Vec3 {
	d := math.SampleUnitSphere(rng.Float64(), rng.Float64())
	return s.Center.Add(d.Scale(s.Radius))
}

// Box is an axis-aligned box primitive. Min must not exceed Max on any
// axis; Build normalizes descriptions that violate this.
type Box struct {
	Min, Max math.Vec3
	Mat      int
}

func (b Box) isPrimitive() {}

// MaterialID returns the box's material index.
func (b Box) MaterialID() int { return b.Mat }

// Intersect runs the slab test, tracking which axis bounds the entry (or
// exit, when the origin is inside) to recover the face normal.
func (b Box) Intersect(r math.Ray) (Hit, bool) {
	tmin := gomath.Inf(-1)
	tmax := gomath.Inf(1)
	entryAxis, exitAxis := -1, -1

	for axis := 0; axis < 3; axis++ {
		o := r.Origin.Axis(axis)
		d := r.Dir.Axis(axis)
		lo := b.Min.Axis(axis)
		hi := b.Max.Axis(axis)

		if d == 0 {
			if o < lo || o > hi {
				return Hit{}, false
			}
			continue
		}

		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
			entryAxis = axis
		}
		if t2 < tmax {
			tmax = t2
			exitAxis = axis
		}
	}

	if tmax < tmin || tmax < tMin {
		return Hit{}, false
	}

	// Entry face when outside, exit face when the origin is inside.
	t := tmin
	axis := entryAxis
	if tmin < tMin {
		t = tmax
		axis = exitAxis
	}
	if axis < 0 {
		return Hit{}, false
	}

	var normal math.Vec3
	sign := -1.0
	if r.Dir.Axis(axis) < 0 {
		sign = 1.0
	}
	switch axis {
	case 0:
		normal = math.Vec3{X: sign}
	case 1:
		normal = math.Vec3{Y: sign}
	default:
		normal = math.Vec3{Z: sign}
	}

	return Hit{
		T:          t,
		Point:      r.At(t),
		Normal:     normal,
		MaterialID: b.Mat,
	}, true
}

// RandomPoint returns a uniform point on the box surface, choosing a face
// with probability proportional to its area.
func (b Box) RandomPoint(rng *rand.Rand) math.Vec3 {
	size := b.Max.Sub(b.Min)
	areaXY := size.X * size.Y
	areaXZ := size.X * size.Z
	areaYZ := size.Y * size.Z
	total := 2 * (areaXY + areaXZ + areaYZ)
	if total == 0 {
		return b.Min
	}

	u := rng.Float64() * total
	v1 := rng.Float64()
	v2 := rng.Float64()

	switch {
	case u < 2*areaXY: // Z faces
		z := b.Min.Z
		if u >= areaXY {
			z = b.Max.Z
		}
		return math.Vec3{
			X: b.Min.X + v1*size.X,
			Y: b.Min.Y + v2*size.Y,
			Z: z,
		}
	case u < 2*areaXY+2*areaXZ: // Y faces
		y := b.Min.Y
		if u >= 2*areaXY+areaXZ {
			y = b.Max.Y
		}
		return math.Vec3{
			X: b.Min.X + v1*size.X,
			Y: y,
			Z: b.Min.Z + v2*size.Z,
		}
	default: // X faces
		x := b.Min.X
		if u >= 2*areaXY+2*areaXZ+areaYZ {
			x = b.Max.X
		}
		return math.Vec3{
			X: x,
			Y: b.Min.Y + v1*size.Y,
			Z: b.Min.Z + v2*size.Z,
		}
	}
}

// MeshInstance places a mesh from the scene's mesh table. The mesh pointer
// and bounds are resolved by Build; instances cannot be assembled outside
// this package.
type MeshInstance struct {
	MeshID int
	Mat    int

	mesh                 *Mesh
	boundsMin, boundsMax math.Vec3
}

func (mi MeshInstance) isPrimitive() {}

// MaterialID returns the instance's material index.
func (mi MeshInstance) MaterialID() int { return mi.Mat }

// Intersect culls against the mesh bounds, then runs Möller–Trumbore over
// every triangle and keeps the nearest hit.
func (mi MeshInstance) Intersect(r math.Ray) (Hit, bool) {
	if !aabbHit(r, mi.boundsMin, mi.boundsMax) {
		return Hit{}, false
	}

	best := Hit{T: gomath.Inf(1)}
	found := false
	for tri := 0; tri < mi.mesh.TriangleCount(); tri++ {
		hit, ok := mi.mesh.intersectTriangle(r, tri)
		if ok && hit.T < best.T {
			best = hit
			found = true
		}
	}
	if !found {
		return Hit{}, false
	}
	best.MaterialID = mi.Mat
	return best, true
}

// RandomPoint picks a triangle uniformly, then a uniform barycentric point
// on it.
func (mi MeshInstance) RandomPoint(rng *rand.Rand) math.Vec3 {
	n := mi.mesh.TriangleCount()
	if n == 0 {
		return mi.boundsMin
	}
	tri := rng.Intn(n)
	v0 := mi.mesh.Vertices[tri*3]
	v1 := mi.mesh.Vertices[tri*3+1]
	v2 := mi.mesh.Vertices[tri*3+2]

	su := gomath.Sqrt(rng.Float64())
	v := rng.Float64() * su
	u := 1 - su
	return v0.Scale(u).Add(v1.Scale(v)).Add(v2.Scale(1 - u - v))
}

// aabbHit is the boolean slab test used for mesh bounds culling.
func aabbHit(r math.Ray, min, max math.Vec3) bool {
	tmin := gomath.Inf(-1)
	tmax := gomath.Inf(1)

	for axis := 0; axis < 3; axis++ {
		o := r.Origin.Axis(axis)
		d := r.Dir.Axis(axis)

		if d == 0 {
			if o < min.Axis(axis) || o > max.Axis(axis) {
				return false
			}
			continue
		}

		t1 := (min.Axis(axis) - o) / d
		t2 := (max.Axis(axis) - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	return tmax >= tmin && tmax >= tMin
}
