package math

import "math"

// SampleUnitDisk maps two uniform samples in [0, 1) to a point in the unit
// disk using concentric mapping, which avoids rejection sampling and keeps
// the distribution uniform.
func SampleUnitDisk(u1, u2 float64) (x, y float64) {
	// Map to [-1, 1]² and handle the degenerate center point.
	ox := 2*u1 - 1
	oy := 2*u2 - 1
	if ox == 0 && oy == 0 {
		return 0, 0
	}

	var r, theta float64
	if math.Abs(ox) > math.Abs(oy) {
		r = ox
		theta = math.Pi / 4 * (oy / ox)
	} else {
		r = oy
		theta = math.Pi/2 - math.Pi/4*(ox/oy)
	}
	return r * math.Cos(theta), r * math.Sin(theta)
}

// SampleUnitSphere maps two uniform samples to a uniformly distributed
// direction on the unit sphere.
func SampleUnitSphere(u1, u2 float64) Vec3 {
	z := 1 - 2*u1
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * u2
	return Vec3{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

// SampleCosineHemisphere maps two uniform samples to a cosine-weighted
// direction in the hemisphere around a unit normal.
func SampleCosineHemisphere(normal Vec3, u1, u2 float64) Vec3 {
	a := 2 * math.Pi * u1
	r := math.Sqrt(u2)
	x := r * math.Cos(a)
	y := r * math.Sin(a)
	z := math.Sqrt(1 - u2)

	tangent, bitangent := orthonormalBasis(normal)
	return tangent.Scale(x).Add(bitangent.Scale(y)).Add(normal.Scale(z))
}

// orthonormalBasis returns two unit vectors perpendicular to n and to each
// other.
func orthonormalBasis(n Vec3) (tangent, bitangent Vec3) {
	var nt Vec3
	if math.Abs(n.X) > 0.1 {
		nt = Vec3{Y: 1}
	} else {
		nt = Vec3{X: 1}
	}
	tangent = nt.Cross(n).Normalize()
	bitangent = n.Cross(tangent)
	return tangent, bitangent
}
