// Package shading implements the surface interaction routines the tracer
// delegates to: scattering a ray off a non-emissive surface and sampling
// points on light sources for direct illumination.
package shading

import (
	"math/rand"

	"github.com/lumen-render/lumen/internal/engine/scene"
	"github.com/lumen-render/lumen/pkg/math"
)

// originEps pushes scattered ray origins off the surface along the normal
// so the next intersection pass does not re-hit the surface at t ~= 0.
const originEps = 1e-4

// Scatter converts an incoming ray and a surface hit into the continuation
// ray and the path's updated throughput and accumulated radiance.
//
// With probability mat.Reflectivity the bounce is a mirror reflection;
// otherwise a cosine-weighted diffuse bounce. Throughput is attenuated by
// the material color on either branch, so it never grows (scene colors are
// validated into [0, 1]). On diffuse bounces the light set is sampled
// directly and the visible contribution is added to the radiance; this is
// the only place radiance grows along a living path, which is why a later
// hit on a light flushes the accumulated value as-is without counting the
// emitter again.
func Scatter(in math.Ray, hit scene.Hit, mat scene.Material, sc *scene.Scene,
	throughput, radiance math.Vec3, directLight bool, rng *rand.Rand) (math.Ray, math.Vec3, math.Vec3) {

	origin := hit.Point.Add(hit.Normal.Scale(originEps))
	throughput = throughput.Mul(mat.Color)

	if mat.Reflectivity > 0 && rng.Float64() < mat.Reflectivity {
		out := math.Ray{Origin: origin, Dir: in.Dir.Reflect(hit.Normal).Normalize()}
		return out, throughput, radiance
	}

	dir := math.SampleCosineHemisphere(hit.Normal, rng.Float64(), rng.Float64())
	out := math.Ray{Origin: origin, Dir: dir}

	if directLight {
		radiance = radiance.Add(throughput.Mul(directContribution(sc, origin, hit.Normal, rng)))
	}
	return out, throughput, radiance
}

// SampleLight picks one entry of the scene's light index list uniformly
// and returns a uniform point on its surface. ok is false when the scene
// has no lights.
func SampleLight(sc *scene.Scene, rng *rand.Rand) (point math.Vec3, geomIndex int, ok bool) {
	if len(sc.Lights) == 0 {
		return math.Vec3{}, 0, false
	}
	geomIndex = sc.Lights[rng.Intn(len(sc.Lights))]
	return sc.Geometry[geomIndex].RandomPoint(rng), geomIndex, true
}

// directContribution estimates the light arriving at a surface point from
// one sampled light. A shadow ray decides visibility: the sampled light
// must be the nearest geometry along the ray, otherwise something occludes
// it and the contribution is zero.
func directContribution(sc *scene.Scene, point, normal math.Vec3, rng *rand.Rand) math.Vec3 {
	lightPoint, lightIndex, ok := SampleLight(sc, rng)
	if !ok {
		return math.Vec3{}
	}

	toLight := lightPoint.Sub(point)
	dist := toLight.Length()
	if dist == 0 {
		return math.Vec3{}
	}
	dir := toLight.Scale(1 / dist)

	cos := normal.Dot(dir)
	if cos <= 0 {
		// Light is behind the surface.
		return math.Vec3{}
	}

	shadow := math.Ray{Origin: point, Dir: dir}
	hit, found := sc.Intersect(shadow)
	if !found || hit.GeomIndex != lightIndex {
		return math.Vec3{}
	}

	lightMat := sc.MaterialAt(lightIndex)
	return lightMat.Color.Scale(lightMat.Emittance * cos)
}
